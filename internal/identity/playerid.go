package identity

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// PlayerID identifies a player by storefront provider and opaque id,
// together with a display name (spec §3).
type PlayerID struct {
	Storefront  Storefront
	ID          string
	DisplayName string
}

// Equal compares PlayerIDs over (storefront, id) only, per spec §3 —
// DisplayName is presentational and not part of identity.
func (p PlayerID) Equal(other PlayerID) bool {
	return p.Storefront == other.Storefront && p.ID == other.ID
}

// Canonical renders "<storefront>:<id>", or bare "<id>" when the
// storefront is NONE (spec §3).
func (p PlayerID) Canonical() string {
	if p.Storefront == StorefrontNone {
		return p.ID
	}
	return p.Storefront.String() + ":" + p.ID
}

// ParsePlayerID accepts either "storefront:id" or a bare "id"; an
// unrecognized storefront token maps to StorefrontNone rather than
// failing, per spec §4.3.
func ParsePlayerID(s string) PlayerID {
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		return PlayerID{Storefront: ParseStorefront(s[:idx]), ID: s[idx+1:]}
	}
	return PlayerID{Storefront: StorefrontNone, ID: s}
}

// EncodeBinary renders the direct-TCP binary form: a 4-byte BE
// storefront enum followed by the length-prefixed id and display name
// (spec §4.3).
func (p PlayerID) EncodeBinary() []byte {
	idBytes := []byte(p.ID)
	nameBytes := []byte(p.DisplayName)

	out := make([]byte, 4+4+len(idBytes)+4+len(nameBytes))
	binary.BigEndian.PutUint32(out[0:4], uint32(p.Storefront))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(idBytes)))
	copy(out[8:8+len(idBytes)], idBytes)
	off := 8 + len(idBytes)
	binary.BigEndian.PutUint32(out[off:off+4], uint32(len(nameBytes)))
	copy(out[off+4:], nameBytes)
	return out
}

// DecodePlayerIDBinary reverses EncodeBinary, returning the decoded
// value and how many bytes it consumed.
func DecodePlayerIDBinary(data []byte) (PlayerID, int, error) {
	if len(data) < 8 {
		return PlayerID{}, 0, fmt.Errorf("identity: truncated player id header")
	}
	storefront := Storefront(binary.BigEndian.Uint32(data[0:4]))
	idLen := int(binary.BigEndian.Uint32(data[4:8]))
	off := 8
	if len(data) < off+idLen+4 {
		return PlayerID{}, 0, fmt.Errorf("identity: truncated player id body")
	}
	id := string(data[off : off+idLen])
	off += idLen

	nameLen := int(binary.BigEndian.Uint32(data[off : off+4]))
	off += 4
	if len(data) < off+nameLen {
		return PlayerID{}, 0, fmt.Errorf("identity: truncated player id display name")
	}
	name := string(data[off : off+nameLen])
	off += nameLen

	return PlayerID{Storefront: storefront, ID: id, DisplayName: name}, off, nil
}
