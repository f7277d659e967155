package identity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrKeyMismatch is raised when a decoded SimplifyIO field's key does
// not match the key the caller expected at that position (spec §4.3.1).
// Per spec §7 this carries MalformedFrame semantics at the transport
// boundary.
var ErrKeyMismatch = errors.New("identity: simplifyio key mismatch")

// SimplifyIO type tags (spec §4.3.1).
const (
	sioString    byte = 1
	sioInt32     byte = 2
	sioInt16     byte = 3
	sioByte      byte = 4
	sioBool      byte = 5
	sioFloat     byte = 6
	sioBoolArray byte = 7
)

// sioWriter accumulates SimplifyIO keyed fields into a byte slice.
type sioWriter struct {
	buf []byte
}

func newSioWriter() *sioWriter { return &sioWriter{} }

func (w *sioWriter) writeKey(key string) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(key)))
	w.buf = append(w.buf, lenBuf[:]...)
	w.buf = append(w.buf, key...)
}

func (w *sioWriter) String(key, value string) {
	w.writeKey(key)
	w.buf = append(w.buf, sioString)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(value)))
	w.buf = append(w.buf, lenBuf[:]...)
	w.buf = append(w.buf, value...)
}

func (w *sioWriter) Int32(key string, value int32) {
	w.writeKey(key)
	w.buf = append(w.buf, sioInt32)
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(value))
	w.buf = append(w.buf, tmp[:]...)
}

func (w *sioWriter) Int16(key string, value int16) {
	w.writeKey(key)
	w.buf = append(w.buf, sioInt16)
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(value))
	w.buf = append(w.buf, tmp[:]...)
}

func (w *sioWriter) Byte(key string, value int8) {
	w.writeKey(key)
	w.buf = append(w.buf, sioByte, byte(value))
}

func (w *sioWriter) Bool(key string, value bool) {
	w.writeKey(key)
	w.buf = append(w.buf, sioBool)
	if value {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *sioWriter) Float(key string, value float32) {
	w.writeKey(key)
	w.buf = append(w.buf, sioFloat)
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], math.Float32bits(value))
	w.buf = append(w.buf, tmp[:]...)
}

func (w *sioWriter) BoolArray(key string, value []bool) {
	w.writeKey(key)
	w.buf = append(w.buf, sioBoolArray)
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(value)))
	w.buf = append(w.buf, countBuf[:]...)
	for _, v := range value {
		if v {
			w.buf = append(w.buf, 1)
		} else {
			w.buf = append(w.buf, 0)
		}
	}
}

func (w *sioWriter) Bytes() []byte { return w.buf }

// sioReader walks a SimplifyIO keyed field stream, checking each field's
// key against the caller's expectation.
type sioReader struct {
	data []byte
	off  int
}

func newSioReader(data []byte) *sioReader { return &sioReader{data: data} }

func (r *sioReader) need(n int) ([]byte, error) {
	if len(r.data)-r.off < n {
		return nil, fmt.Errorf("identity: truncated simplifyio field")
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *sioReader) readKeyAndTag(expectedKey string) (byte, error) {
	lenBuf, err := r.need(4)
	if err != nil {
		return 0, err
	}
	keyLen := int(binary.BigEndian.Uint32(lenBuf))
	keyBytes, err := r.need(keyLen)
	if err != nil {
		return 0, err
	}
	if string(keyBytes) != expectedKey {
		return 0, fmt.Errorf("%w: expected %q, got %q", ErrKeyMismatch, expectedKey, string(keyBytes))
	}
	tagBuf, err := r.need(1)
	if err != nil {
		return 0, err
	}
	return tagBuf[0], nil
}

func (r *sioReader) String(key string) (string, error) {
	tag, err := r.readKeyAndTag(key)
	if err != nil {
		return "", err
	}
	if tag != sioString {
		return "", fmt.Errorf("identity: field %q: want string tag, got %d", key, tag)
	}
	lenBuf, err := r.need(4)
	if err != nil {
		return "", err
	}
	n := int(binary.BigEndian.Uint32(lenBuf))
	b, err := r.need(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *sioReader) Int32(key string) (int32, error) {
	tag, err := r.readKeyAndTag(key)
	if err != nil {
		return 0, err
	}
	if tag != sioInt32 {
		return 0, fmt.Errorf("identity: field %q: want int32 tag, got %d", key, tag)
	}
	b, err := r.need(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *sioReader) Int16(key string) (int16, error) {
	tag, err := r.readKeyAndTag(key)
	if err != nil {
		return 0, err
	}
	if tag != sioInt16 {
		return 0, fmt.Errorf("identity: field %q: want int16 tag, got %d", key, tag)
	}
	b, err := r.need(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (r *sioReader) Byte(key string) (int8, error) {
	tag, err := r.readKeyAndTag(key)
	if err != nil {
		return 0, err
	}
	if tag != sioByte {
		return 0, fmt.Errorf("identity: field %q: want byte tag, got %d", key, tag)
	}
	b, err := r.need(1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (r *sioReader) Float(key string) (float32, error) {
	tag, err := r.readKeyAndTag(key)
	if err != nil {
		return 0, err
	}
	if tag != sioFloat {
		return 0, fmt.Errorf("identity: field %q: want float tag, got %d", key, tag)
	}
	b, err := r.need(4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func (r *sioReader) BoolArray(key string) ([]bool, error) {
	tag, err := r.readKeyAndTag(key)
	if err != nil {
		return nil, err
	}
	if tag != sioBoolArray {
		return nil, fmt.Errorf("identity: field %q: want bool-array tag, got %d", key, tag)
	}
	countBuf, err := r.need(4)
	if err != nil {
		return nil, err
	}
	count := int(binary.BigEndian.Uint32(countBuf))
	b, err := r.need(count)
	if err != nil {
		return nil, err
	}
	out := make([]bool, count)
	for i := range out {
		out[i] = b[i] != 0
	}
	return out, nil
}

func (r *sioReader) Bool(key string) (bool, error) {
	tag, err := r.readKeyAndTag(key)
	if err != nil {
		return false, err
	}
	if tag != sioBool {
		return false, fmt.Errorf("identity: field %q: want bool tag, got %d", key, tag)
	}
	b, err := r.need(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}
