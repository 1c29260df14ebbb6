//go:build !goexperiment.jsonv2

package json

import (
	stdjson "encoding/json"
	"fmt"
	"io"
)

// DecodeObject reads one JSON object from r. Numbers are kept as
// json.Number so large page ids and byte sizes survive unchanged.
func DecodeObject(r io.Reader) (Object, error) {
	dec := stdjson.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return Object(obj), nil
}

func Marshal(v any) ([]byte, error) {
	return stdjson.Marshal(v)
}
