package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Decode reads one Value from data and reports how many bytes it
// consumed. It fails with ErrMalformedFrame on truncated input or an
// unrecognized tag byte, per spec §4.1.
func Decode(data []byte) (Value, int, error) {
	return decodeAt(data)
}

func decodeAt(data []byte) (Value, int, error) {
	if len(data) < 1 {
		return Value{}, 0, fmt.Errorf("%w: empty input", ErrMalformedFrame)
	}
	tag := Tag(data[0])
	body := data[1:]

	switch tag {
	case TagNull:
		return Null, 1, nil

	case TagBool:
		b, err := need(body, 1)
		if err != nil {
			return Value{}, 0, err
		}
		return NewBool(b[0] != 0), 2, nil

	case TagByte:
		b, err := need(body, 1)
		if err != nil {
			return Value{}, 0, err
		}
		return NewByte(int8(b[0])), 2, nil

	case TagShort:
		b, err := need(body, 2)
		if err != nil {
			return Value{}, 0, err
		}
		return NewShort(int16(binary.BigEndian.Uint16(b))), 3, nil

	case TagInt:
		b, err := need(body, 4)
		if err != nil {
			return Value{}, 0, err
		}
		return NewInt(int32(binary.BigEndian.Uint32(b))), 5, nil

	case TagLong:
		b, err := need(body, 8)
		if err != nil {
			return Value{}, 0, err
		}
		return NewLong(int64(binary.BigEndian.Uint64(b))), 9, nil

	case TagFloat:
		b, err := need(body, 4)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Tag: TagFloat, raw: math.Float32frombits(binary.BigEndian.Uint32(b))}, 5, nil

	case TagDouble:
		b, err := need(body, 8)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Tag: TagDouble, raw: math.Float64frombits(binary.BigEndian.Uint64(b))}, 9, nil

	case TagUTFString:
		s, n, err := decodeLenPrefixedString(body, 2)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Tag: TagUTFString, raw: s}, 1 + n, nil

	case TagText:
		s, n, err := decodeLenPrefixedString(body, 4)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Tag: TagText, raw: s}, 1 + n, nil

	case TagBoolArray:
		count, rest, hn, err := readCount(body)
		if err != nil {
			return Value{}, 0, err
		}
		b, err := need(rest, int(count))
		if err != nil {
			return Value{}, 0, err
		}
		out := make([]bool, count)
		for i := range out {
			out[i] = b[i] != 0
		}
		return NewBoolArray(out), 1 + hn + int(count), nil

	case TagByteArray:
		count, rest, hn, err := readCount(body)
		if err != nil {
			return Value{}, 0, err
		}
		b, err := need(rest, int(count))
		if err != nil {
			return Value{}, 0, err
		}
		out := make([]int8, count)
		for i := range out {
			out[i] = int8(b[i])
		}
		return NewByteArray(out), 1 + hn + int(count), nil

	case TagShortArray:
		count, rest, hn, err := readCount(body)
		if err != nil {
			return Value{}, 0, err
		}
		b, err := need(rest, int(count)*2)
		if err != nil {
			return Value{}, 0, err
		}
		out := make([]int16, count)
		for i := range out {
			out[i] = int16(binary.BigEndian.Uint16(b[i*2:]))
		}
		return NewShortArray(out), 1 + hn + int(count)*2, nil

	case TagIntArray:
		count, rest, hn, err := readCount(body)
		if err != nil {
			return Value{}, 0, err
		}
		b, err := need(rest, int(count)*4)
		if err != nil {
			return Value{}, 0, err
		}
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(binary.BigEndian.Uint32(b[i*4:]))
		}
		return NewIntArray(out), 1 + hn + int(count)*4, nil

	case TagLongArray:
		count, rest, hn, err := readCount(body)
		if err != nil {
			return Value{}, 0, err
		}
		b, err := need(rest, int(count)*8)
		if err != nil {
			return Value{}, 0, err
		}
		out := make([]int64, count)
		for i := range out {
			out[i] = int64(binary.BigEndian.Uint64(b[i*8:]))
		}
		return NewLongArray(out), 1 + hn + int(count)*8, nil

	case TagFloatArray:
		count, rest, hn, err := readCount(body)
		if err != nil {
			return Value{}, 0, err
		}
		b, err := need(rest, int(count)*4)
		if err != nil {
			return Value{}, 0, err
		}
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(binary.BigEndian.Uint32(b[i*4:]))
		}
		return NewFloatArray(out), 1 + hn + int(count)*4, nil

	case TagDoubleArray:
		count, rest, hn, err := readCount(body)
		if err != nil {
			return Value{}, 0, err
		}
		b, err := need(rest, int(count)*8)
		if err != nil {
			return Value{}, 0, err
		}
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(binary.BigEndian.Uint64(b[i*8:]))
		}
		return NewDoubleArray(out), 1 + hn + int(count)*8, nil

	case TagUTFStringArray:
		count, rest, hn, err := readCount(body)
		if err != nil {
			return Value{}, 0, err
		}
		out := make([]string, count)
		consumed := hn
		cur := rest
		for i := 0; i < int(count); i++ {
			s, n, err := decodeLenPrefixedString(cur, 2)
			if err != nil {
				return Value{}, 0, err
			}
			out[i] = s
			cur = cur[n:]
			consumed += n
		}
		return NewUTFStringArray(out), 1 + consumed, nil

	case TagSFSArray:
		count, rest, hn, err := readCount(body)
		if err != nil {
			return Value{}, 0, err
		}
		out := make([]Value, count)
		consumed := hn
		cur := rest
		for i := 0; i < int(count); i++ {
			el, n, err := decodeAt(cur)
			if err != nil {
				return Value{}, 0, err
			}
			out[i] = el
			cur = cur[n:]
			consumed += n
		}
		return NewSFSArray(out), 1 + consumed, nil

	case TagSFSObject:
		count, rest, hn, err := readCount(body)
		if err != nil {
			return Value{}, 0, err
		}
		obj := NewObject()
		consumed := hn
		cur := rest
		for i := 0; i < int(count); i++ {
			key, n, err := decodeLenPrefixedString(cur, 2)
			if err != nil {
				return Value{}, 0, err
			}
			cur = cur[n:]
			consumed += n

			val, vn, err := decodeAt(cur)
			if err != nil {
				return Value{}, 0, err
			}
			cur = cur[vn:]
			consumed += vn

			obj.Put(key, val)
		}
		return NewSFSObject(obj), 1 + consumed, nil

	default:
		return Value{}, 0, fmt.Errorf("%w: unknown tag %d", ErrMalformedFrame, tag)
	}
}

// need returns the first n bytes of b, or ErrMalformedFrame if b is
// shorter (a truncated payload, per spec §4.1).
func need(b []byte, n int) ([]byte, error) {
	if len(b) < n {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrMalformedFrame, n, len(b))
	}
	return b[:n], nil
}

// readCount reads a 2-byte BE element/key count, used by every array
// and container shape.
func readCount(b []byte) (count uint16, rest []byte, headerLen int, err error) {
	h, err := need(b, 2)
	if err != nil {
		return 0, nil, 0, err
	}
	return binary.BigEndian.Uint16(h), b[2:], 2, nil
}

// decodeLenPrefixedString reads a length-prefixed UTF-8 string whose
// length field is lenWidth bytes wide (2 for UTF_STRING, 4 for TEXT),
// returning the string and the total bytes consumed (header + body).
func decodeLenPrefixedString(b []byte, lenWidth int) (string, int, error) {
	h, err := need(b, lenWidth)
	if err != nil {
		return "", 0, err
	}

	var length int
	switch lenWidth {
	case 2:
		length = int(binary.BigEndian.Uint16(h))
	case 4:
		length = int(binary.BigEndian.Uint32(h))
	}

	body, err := need(b[lenWidth:], length)
	if err != nil {
		return "", 0, err
	}
	return string(body), lenWidth + length, nil
}
