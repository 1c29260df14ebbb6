//go:build goexperiment.jsonv2

package json

import (
	jsonv2 "encoding/json/v2"
	"fmt"
	"io"
)

// DecodeObject reads one JSON object from r. The v2 decoder has no
// UseNumber switch, numbers arrive as float64 and the Object accessors
// convert them.
func DecodeObject(r io.Reader) (Object, error) {
	var v any
	if err := jsonv2.UnmarshalRead(r, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return Object(obj), nil
}

func Marshal(v any) ([]byte, error) {
	return jsonv2.Marshal(v)
}
