package codec

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
)

// Flag bits of the TCP frame header, per spec §4.1.
const (
	FlagBigSize   byte = 1 << 0
	FlagEncrypted byte = 1 << 1
	FlagCompressed byte = 1 << 2
)

// EncodeTCPFrame wraps payload in the direct-TCP header: 1 flag byte
// followed by a 2-byte BE length (payloads up to 65535 bytes) or a
// 4-byte BE length with FlagBigSize set (larger payloads).
func EncodeTCPFrame(payload []byte) []byte {
	if len(payload) <= 0xFFFF {
		out := make([]byte, 1+2+len(payload))
		out[0] = 0
		binary.BigEndian.PutUint16(out[1:3], uint16(len(payload)))
		copy(out[3:], payload)
		return out
	}

	out := make([]byte, 1+4+len(payload))
	out[0] = FlagBigSize
	binary.BigEndian.PutUint32(out[1:5], uint32(len(payload)))
	copy(out[5:], payload)
	return out
}

// ReadTCPFrame reads one length-framed payload from r, enforcing the
// flag and size rules in spec §4.1: encrypted/compressed bits are
// unsupported and reject the frame, and the declared length may not
// exceed maxLen.
func ReadTCPFrame(r io.Reader, maxLen int64) ([]byte, error) {
	var flagBuf [1]byte
	if _, err := io.ReadFull(r, flagBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: reading flag byte: %v", ErrMalformedFrame, err)
	}
	flags := flagBuf[0]

	if flags&FlagEncrypted != 0 || flags&FlagCompressed != 0 {
		return nil, fmt.Errorf("%w: encrypted/compressed frames unsupported", ErrMalformedFrame)
	}

	lenWidth := 2
	if flags&FlagBigSize != 0 {
		lenWidth = 4
	}

	lenBuf := make([]byte, lenWidth)
	if _, err := io.ReadFull(r, lenBuf); err != nil {
		return nil, fmt.Errorf("%w: reading length header: %v", ErrMalformedFrame, err)
	}

	var length int64
	if lenWidth == 2 {
		length = int64(binary.BigEndian.Uint16(lenBuf))
	} else {
		length = int64(binary.BigEndian.Uint32(lenBuf))
	}

	if length > maxLen {
		return nil, fmt.Errorf("%w: frame length %d exceeds max %d", ErrMalformedFrame, length, maxLen)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: truncated payload: %v", ErrMalformedFrame, err)
	}

	return payload, nil
}

// EncodeBlueBoxFrame base64-encodes payload for the BlueBox transport,
// which has no length header — the encoded string itself delimits the
// frame (spec §4.1).
func EncodeBlueBoxFrame(payload []byte) string {
	return base64.StdEncoding.EncodeToString(payload)
}

// DecodeBlueBoxFrame reverses EncodeBlueBoxFrame, enforcing maxLen
// against the decoded payload size.
func DecodeBlueBoxFrame(s string, maxLen int64) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrMalformedFrame, err)
	}
	if int64(len(payload)) > maxLen {
		return nil, fmt.Errorf("%w: frame length %d exceeds max %d", ErrMalformedFrame, len(payload), maxLen)
	}
	return payload, nil
}
