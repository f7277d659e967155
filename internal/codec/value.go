package codec

import "fmt"

// Value is a self-describing SFS2X typed value: a tagged variant over
// the primitive, array, and container shapes listed in spec §3. The
// wire is self-describing, so callers must check Tag (or use the typed
// accessors below, which do that for them) before reading payload.
type Value struct {
	Tag Tag
	raw any
}

// Null is the single NULL value; it carries no body on the wire.
var Null = Value{Tag: TagNull}

func NewBool(v bool) Value             { return Value{Tag: TagBool, raw: v} }
func NewByte(v int8) Value             { return Value{Tag: TagByte, raw: v} }
func NewShort(v int16) Value           { return Value{Tag: TagShort, raw: v} }
func NewInt(v int32) Value             { return Value{Tag: TagInt, raw: v} }
func NewLong(v int64) Value            { return Value{Tag: TagLong, raw: v} }
func NewFloat(v float32) Value         { return Value{Tag: TagFloat, raw: v} }
func NewDouble(v float64) Value        { return Value{Tag: TagDouble, raw: v} }
func NewBoolArray(v []bool) Value      { return Value{Tag: TagBoolArray, raw: v} }
func NewByteArray(v []int8) Value      { return Value{Tag: TagByteArray, raw: v} }
func NewShortArray(v []int16) Value    { return Value{Tag: TagShortArray, raw: v} }
func NewIntArray(v []int32) Value      { return Value{Tag: TagIntArray, raw: v} }
func NewLongArray(v []int64) Value     { return Value{Tag: TagLongArray, raw: v} }
func NewFloatArray(v []float32) Value  { return Value{Tag: TagFloatArray, raw: v} }
func NewDoubleArray(v []float64) Value { return Value{Tag: TagDoubleArray, raw: v} }
func NewUTFStringArray(v []string) Value {
	return Value{Tag: TagUTFStringArray, raw: v}
}
func NewSFSArray(v []Value) Value { return Value{Tag: TagSFSArray, raw: v} }

// NewString picks UTF_STRING or TEXT based on the encoded length, per
// spec §4.1's canonical-encoding rule. Decoders must accept either form
// and surface the same Go string either way.
func NewString(v string) Value {
	if len(v) > maxUTFStringLen {
		return Value{Tag: TagText, raw: v}
	}
	return Value{Tag: TagUTFString, raw: v}
}

// NewSFSObject wraps an *Object as an SFS_OBJECT value.
func NewSFSObject(o *Object) Value { return Value{Tag: TagSFSObject, raw: o} }

func (v Value) Bool() (bool, error) {
	b, ok := v.raw.(bool)
	if !ok {
		return false, fmt.Errorf("%w: want BOOL, got %s", ErrTypeMismatch, v.Tag)
	}
	return b, nil
}

func (v Value) Byte() (int8, error) {
	b, ok := v.raw.(int8)
	if !ok {
		return 0, fmt.Errorf("%w: want BYTE, got %s", ErrTypeMismatch, v.Tag)
	}
	return b, nil
}

func (v Value) Short() (int16, error) {
	s, ok := v.raw.(int16)
	if !ok {
		return 0, fmt.Errorf("%w: want SHORT, got %s", ErrTypeMismatch, v.Tag)
	}
	return s, nil
}

func (v Value) Int() (int32, error) {
	i, ok := v.raw.(int32)
	if !ok {
		return 0, fmt.Errorf("%w: want INT, got %s", ErrTypeMismatch, v.Tag)
	}
	return i, nil
}

func (v Value) Long() (int64, error) {
	l, ok := v.raw.(int64)
	if !ok {
		return 0, fmt.Errorf("%w: want LONG, got %s", ErrTypeMismatch, v.Tag)
	}
	return l, nil
}

func (v Value) Float32() (float32, error) {
	f, ok := v.raw.(float32)
	if !ok {
		return 0, fmt.Errorf("%w: want FLOAT, got %s", ErrTypeMismatch, v.Tag)
	}
	return f, nil
}

func (v Value) Float64() (float64, error) {
	d, ok := v.raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: want DOUBLE, got %s", ErrTypeMismatch, v.Tag)
	}
	return d, nil
}

// String reads either a UTF_STRING or TEXT value identically, matching
// spec §4.1 ("decoders must accept either form wherever strings appear").
func (v Value) String() (string, error) {
	s, ok := v.raw.(string)
	if !ok || (v.Tag != TagUTFString && v.Tag != TagText) {
		return "", fmt.Errorf("%w: want UTF_STRING/TEXT, got %s", ErrTypeMismatch, v.Tag)
	}
	return s, nil
}

func (v Value) BoolArray() ([]bool, error) {
	a, ok := v.raw.([]bool)
	if !ok {
		return nil, fmt.Errorf("%w: want BOOL_ARRAY, got %s", ErrTypeMismatch, v.Tag)
	}
	return a, nil
}

func (v Value) ByteArray() ([]int8, error) {
	a, ok := v.raw.([]int8)
	if !ok {
		return nil, fmt.Errorf("%w: want BYTE_ARRAY, got %s", ErrTypeMismatch, v.Tag)
	}
	return a, nil
}

func (v Value) ShortArray() ([]int16, error) {
	a, ok := v.raw.([]int16)
	if !ok {
		return nil, fmt.Errorf("%w: want SHORT_ARRAY, got %s", ErrTypeMismatch, v.Tag)
	}
	return a, nil
}

func (v Value) IntArray() ([]int32, error) {
	a, ok := v.raw.([]int32)
	if !ok {
		return nil, fmt.Errorf("%w: want INT_ARRAY, got %s", ErrTypeMismatch, v.Tag)
	}
	return a, nil
}

func (v Value) LongArray() ([]int64, error) {
	a, ok := v.raw.([]int64)
	if !ok {
		return nil, fmt.Errorf("%w: want LONG_ARRAY, got %s", ErrTypeMismatch, v.Tag)
	}
	return a, nil
}

func (v Value) FloatArray() ([]float32, error) {
	a, ok := v.raw.([]float32)
	if !ok {
		return nil, fmt.Errorf("%w: want FLOAT_ARRAY, got %s", ErrTypeMismatch, v.Tag)
	}
	return a, nil
}

func (v Value) DoubleArray() ([]float64, error) {
	a, ok := v.raw.([]float64)
	if !ok {
		return nil, fmt.Errorf("%w: want DOUBLE_ARRAY, got %s", ErrTypeMismatch, v.Tag)
	}
	return a, nil
}

func (v Value) UTFStringArray() ([]string, error) {
	a, ok := v.raw.([]string)
	if !ok {
		return nil, fmt.Errorf("%w: want UTF_STRING_ARRAY, got %s", ErrTypeMismatch, v.Tag)
	}
	return a, nil
}

func (v Value) SFSArray() ([]Value, error) {
	a, ok := v.raw.([]Value)
	if !ok {
		return nil, fmt.Errorf("%w: want SFS_ARRAY, got %s", ErrTypeMismatch, v.Tag)
	}
	return a, nil
}

func (v Value) SFSObject() (*Object, error) {
	o, ok := v.raw.(*Object)
	if !ok {
		return nil, fmt.Errorf("%w: want SFS_OBJECT, got %s", ErrTypeMismatch, v.Tag)
	}
	return o, nil
}

// Object is an ordered string-keyed map, mirroring SFS_OBJECT's
// invariant that keys are unique per object and iteration follows
// insertion order (spec §3).
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty, ready-to-use Object.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// Put inserts or overwrites key. Overwriting an existing key keeps its
// original position in iteration order.
func (o *Object) Put(key string, v Value) *Object {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
	return o
}

func (o *Object) PutBool(key string, v bool) *Object      { return o.Put(key, NewBool(v)) }
func (o *Object) PutByte(key string, v int8) *Object       { return o.Put(key, NewByte(v)) }
func (o *Object) PutShort(key string, v int16) *Object     { return o.Put(key, NewShort(v)) }
func (o *Object) PutInt(key string, v int32) *Object       { return o.Put(key, NewInt(v)) }
func (o *Object) PutLong(key string, v int64) *Object      { return o.Put(key, NewLong(v)) }
func (o *Object) PutString(key string, v string) *Object   { return o.Put(key, NewString(v)) }
func (o *Object) PutSFSArray(key string, v []Value) *Object { return o.Put(key, NewSFSArray(v)) }
func (o *Object) PutSFSObject(key string, v *Object) *Object {
	return o.Put(key, NewSFSObject(v))
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the object's keys in insertion order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of entries.
func (o *Object) Len() int { return len(o.keys) }
