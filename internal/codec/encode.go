package codec

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Encode renders v to its canonical wire form: a single tag byte
// followed by the type's body, per spec §3/§4.1. Numeric widths are
// fixed; strings pick the shortest valid encoding (UTF_STRING under the
// 32767-byte threshold, TEXT above it).
func Encode(v Value) []byte {
	var buf bytes.Buffer
	encodeInto(&buf, v)
	return buf.Bytes()
}

func encodeInto(buf *bytes.Buffer, v Value) {
	buf.WriteByte(byte(v.Tag))

	switch v.Tag {
	case TagNull:
		// no body

	case TagBool:
		b, _ := v.Bool()
		if b {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}

	case TagByte:
		b, _ := v.Byte()
		buf.WriteByte(byte(b))

	case TagShort:
		s, _ := v.Short()
		writeUint(buf, uint16(s), 2)

	case TagInt:
		i, _ := v.Int()
		writeUint(buf, uint32(i), 4)

	case TagLong:
		l, _ := v.Long()
		writeUint(buf, uint64(l), 8)

	case TagFloat:
		f, _ := v.Float32()
		writeUint(buf, uint64(math.Float32bits(f)), 4)

	case TagDouble:
		d, _ := v.Float64()
		writeUint(buf, math.Float64bits(d), 8)

	case TagUTFString:
		s, _ := v.String()
		writeUint(buf, uint16(len(s)), 2)
		buf.WriteString(s)

	case TagText:
		s, _ := v.String()
		writeUint(buf, uint32(len(s)), 4)
		buf.WriteString(s)

	case TagBoolArray:
		a, _ := v.BoolArray()
		writeUint(buf, uint16(len(a)), 2)
		for _, el := range a {
			if el {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		}

	case TagByteArray:
		a, _ := v.ByteArray()
		writeUint(buf, uint16(len(a)), 2)
		for _, el := range a {
			buf.WriteByte(byte(el))
		}

	case TagShortArray:
		a, _ := v.ShortArray()
		writeUint(buf, uint16(len(a)), 2)
		for _, el := range a {
			writeUint(buf, uint16(el), 2)
		}

	case TagIntArray:
		a, _ := v.IntArray()
		writeUint(buf, uint16(len(a)), 2)
		for _, el := range a {
			writeUint(buf, uint32(el), 4)
		}

	case TagLongArray:
		a, _ := v.LongArray()
		writeUint(buf, uint16(len(a)), 2)
		for _, el := range a {
			writeUint(buf, uint64(el), 8)
		}

	case TagFloatArray:
		a, _ := v.FloatArray()
		writeUint(buf, uint16(len(a)), 2)
		for _, el := range a {
			writeUint(buf, uint64(math.Float32bits(el)), 4)
		}

	case TagDoubleArray:
		a, _ := v.DoubleArray()
		writeUint(buf, uint16(len(a)), 2)
		for _, el := range a {
			writeUint(buf, math.Float64bits(el), 8)
		}

	case TagUTFStringArray:
		a, _ := v.UTFStringArray()
		writeUint(buf, uint16(len(a)), 2)
		for _, el := range a {
			writeUint(buf, uint16(len(el)), 2)
			buf.WriteString(el)
		}

	case TagSFSArray:
		a, _ := v.SFSArray()
		writeUint(buf, uint16(len(a)), 2)
		for _, el := range a {
			encodeInto(buf, el)
		}

	case TagSFSObject:
		o, _ := v.SFSObject()
		writeUint(buf, uint16(o.Len()), 2)
		for _, key := range o.Keys() {
			writeUint(buf, uint16(len(key)), 2)
			buf.WriteString(key)
			val, _ := o.Get(key)
			encodeInto(buf, val)
		}
	}
}

func writeUint(buf *bytes.Buffer, v uint64, width int) {
	var tmp [8]byte
	switch width {
	case 2:
		binary.BigEndian.PutUint16(tmp[:2], uint16(v))
		buf.Write(tmp[:2])
	case 4:
		binary.BigEndian.PutUint32(tmp[:4], uint32(v))
		buf.Write(tmp[:4])
	case 8:
		binary.BigEndian.PutUint64(tmp[:8], v)
		buf.Write(tmp[:8])
	}
}
