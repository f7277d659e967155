package codec

import "fmt"

// Message envelope key names, per spec §4.1: every SFS2X message on the
// wire is a single SFS_OBJECT with these canonical top-level keys.
const (
	KeyController = "c"
	KeyAction     = "a"
	KeyParams     = "p"
	KeyRoom       = "r"
)

// Message is the decoded form of a top-level SFS2X envelope.
type Message struct {
	Controller int16
	Action     int16
	Params     *Object
	RoomID     int32
	HasRoomID  bool
}

// EncodeMessage builds the canonical envelope object and encodes it.
func EncodeMessage(m Message) []byte {
	return Encode(m.ToValue())
}

// ToValue renders m as the SFS_OBJECT envelope described in spec §4.1.
func (m Message) ToValue() Value {
	obj := NewObject()
	obj.Put(KeyController, NewInt(int32(m.Controller)))
	obj.Put(KeyAction, NewShort(m.Action))
	if m.Params != nil {
		obj.Put(KeyParams, NewSFSObject(m.Params))
	} else {
		obj.Put(KeyParams, NewSFSObject(NewObject()))
	}
	if m.HasRoomID {
		obj.Put(KeyRoom, NewInt(m.RoomID))
	}
	return NewSFSObject(obj)
}

// DecodeMessage decodes a full envelope from the wire bytes of a single
// frame (already stripped of any transport-level length header).
func DecodeMessage(data []byte) (Message, error) {
	v, _, err := Decode(data)
	if err != nil {
		return Message{}, err
	}
	return MessageFromValue(v)
}

// MessageFromValue extracts the canonical envelope fields from an
// already-decoded SFS_OBJECT value.
func MessageFromValue(v Value) (Message, error) {
	obj, err := v.SFSObject()
	if err != nil {
		return Message{}, fmt.Errorf("%w: message envelope must be SFS_OBJECT: %v", ErrMalformedFrame, err)
	}

	cVal, ok := obj.Get(KeyController)
	if !ok {
		return Message{}, fmt.Errorf("%w: missing %q", ErrMalformedFrame, KeyController)
	}
	c, err := cVal.Int()
	if err != nil {
		return Message{}, fmt.Errorf("%w: %q: %v", ErrMalformedFrame, KeyController, err)
	}

	aVal, ok := obj.Get(KeyAction)
	if !ok {
		return Message{}, fmt.Errorf("%w: missing %q", ErrMalformedFrame, KeyAction)
	}
	a, err := aVal.Short()
	if err != nil {
		return Message{}, fmt.Errorf("%w: %q: %v", ErrMalformedFrame, KeyAction, err)
	}

	msg := Message{Controller: int16(c), Action: a}

	if pVal, ok := obj.Get(KeyParams); ok {
		params, err := pVal.SFSObject()
		if err != nil {
			return Message{}, fmt.Errorf("%w: %q: %v", ErrMalformedFrame, KeyParams, err)
		}
		msg.Params = params
	} else {
		msg.Params = NewObject()
	}

	if rVal, ok := obj.Get(KeyRoom); ok {
		r, err := rVal.Int()
		if err != nil {
			return Message{}, fmt.Errorf("%w: %q: %v", ErrMalformedFrame, KeyRoom, err)
		}
		msg.RoomID = r
		msg.HasRoomID = true
	}

	return msg, nil
}
