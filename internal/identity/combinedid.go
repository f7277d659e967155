package identity

import "fmt"

// CombinedID pairs a PlayerID with the network endpoint it connected
// from, plus an optional provider label (spec §3).
type CombinedID struct {
	Player   PlayerID
	IP       string
	Port     int
	Provider string // empty when absent
}

// Equal compares all four fields, per spec §3.
func (c CombinedID) Equal(other CombinedID) bool {
	return c.Player.Equal(other.Player) &&
		c.IP == other.IP &&
		c.Port == other.Port &&
		c.Provider == other.Provider
}

// Key returns a value usable as a Go map key for this CombinedID.
func (c CombinedID) Key() string {
	return fmt.Sprintf("%s|%s|%d|%s", c.Player.Canonical(), c.IP, c.Port, c.Provider)
}

// EncodeBinary renders the direct-TCP binary form (spec §4.3): the
// PlayerID's own binary form, followed by IP and port framed with
// SimplifyIO keyed fields, followed by the provider field when set.
func (c CombinedID) EncodeBinary() []byte {
	out := c.Player.EncodeBinary()

	w := newSioWriter()
	w.String("ip", c.IP)
	w.Int32("port", int32(c.Port))
	if c.Provider != "" {
		w.String("provider", c.Provider)
	}
	return append(out, w.Bytes()...)
}

// DecodeCombinedIDBinary reverses EncodeBinary. The "provider" field is
// optional; its presence is detected by whether the reader has any
// bytes left after "port".
func DecodeCombinedIDBinary(data []byte) (CombinedID, error) {
	player, n, err := DecodePlayerIDBinary(data)
	if err != nil {
		return CombinedID{}, err
	}

	r := newSioReader(data[n:])
	ip, err := r.String("ip")
	if err != nil {
		return CombinedID{}, err
	}
	port, err := r.Int32("port")
	if err != nil {
		return CombinedID{}, err
	}

	cid := CombinedID{Player: player, IP: ip, Port: int(port)}

	if r.off < len(r.data) {
		provider, err := r.String("provider")
		if err != nil {
			return CombinedID{}, err
		}
		cid.Provider = provider
	}

	return cid, nil
}
