package lobby

import (
	"fmt"

	"github.com/race/lobbyserver/internal/codec"
)

func paramString(o *codec.Object, key string) (string, error) {
	v, ok := o.Get(key)
	if !ok {
		return "", fmt.Errorf("missing param %q", key)
	}
	return v.String()
}

func paramInt(o *codec.Object, key string) (int32, error) {
	v, ok := o.Get(key)
	if !ok {
		return 0, fmt.Errorf("missing param %q", key)
	}
	return v.Int()
}

func paramBool(o *codec.Object, key string) (bool, error) {
	v, ok := o.Get(key)
	if !ok {
		return false, fmt.Errorf("missing param %q", key)
	}
	return v.Bool()
}

func paramValue(o *codec.Object, key string) (codec.Value, error) {
	v, ok := o.Get(key)
	if !ok {
		return codec.Value{}, fmt.Errorf("missing param %q", key)
	}
	return v, nil
}
