package codec

import "errors"

// ErrMalformedFrame is raised by the decoder whenever the wire bytes
// don't describe a well-formed value or frame: reserved flag bits set,
// a declared length exceeding the configured maximum, a truncated
// payload, or an unrecognized tag byte.
var ErrMalformedFrame = errors.New("codec: malformed frame")

// ErrTypeMismatch is raised by a Value accessor when the caller asks
// for a Go type that doesn't match the value's wire Tag.
var ErrTypeMismatch = errors.New("codec: type mismatch")
