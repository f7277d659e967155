package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// RendezvousTokenPrefix identifies a minted peer-to-peer rendezvous
// token on the wire.
const RendezvousTokenPrefix = "RDV_"

// MintRendezvousToken builds the token handed to every member of a room
// at game start (spec §4.5, "game start" event): the owner's endpoint
// plus a random 64-bit nonce, rendered as an opaque string so clients
// can establish a peer-to-peer session without the server brokering
// in-game traffic. The owner's binary-encoded CombinedID is folded into
// the token via a fixed-width fingerprint rather than carried verbatim,
// so the token stays a constant length regardless of IPv4 vs. IPv6.
func MintRendezvousToken(owner CombinedID) (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("identity: minting rendezvous token: %w", err)
	}
	nonce := u[:8]

	digest := sha256.Sum256(append(owner.EncodeBinary(), nonce...))
	fingerprint := digest[:8]

	return RendezvousTokenPrefix + hex.EncodeToString(fingerprint) + hex.EncodeToString(nonce), nil
}
