package json

import (
	stdjson "encoding/json"
	"strconv"
	"strings"
)

// Object is a decoded JSON object. API responses are navigated with
// dot-separated paths such as "query.statistics.images".
type Object map[string]any

// Lookup returns the value at path and whether every segment was found.
func (o Object) Lookup(path string) (any, bool) {
	var cur any = map[string]any(o)
	for _, key := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the value at path rendered as a string. Missing values and
// nested objects or arrays yield "".
func (o Object) String(path string) string {
	v, ok := o.Lookup(path)
	if !ok {
		return ""
	}
	return ToString(v)
}

// Int returns the value at path as an int, or 0.
func (o Object) Int(path string) int {
	v, ok := o.Lookup(path)
	if !ok {
		return 0
	}
	return ToInt(v)
}

// Object returns the nested object at path, or nil.
func (o Object) Object(path string) Object {
	v, ok := o.Lookup(path)
	if !ok {
		return nil
	}
	m, _ := asMap(v)
	return m
}

// Slice returns the array at path, or nil.
func (o Object) Slice(path string) []any {
	v, ok := o.Lookup(path)
	if !ok {
		return nil
	}
	s, _ := v.([]any)
	return s
}

// Clone returns a shallow copy of o.
func (o Object) Clone() Object {
	c := make(Object, len(o)+2)
	for k, v := range o {
		c[k] = v
	}
	return c
}

// AsObject converts a decoded JSON value to an Object when it is one.
func AsObject(v any) (Object, bool) {
	return asMap(v)
}

func asMap(v any) (Object, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Object:
		return m, true
	}
	return nil, false
}

// ToString renders a scalar JSON value.
func ToString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case stdjson.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	}
	return ""
}

// ToInt converts a scalar JSON value to an int, truncating fractions.
func ToInt(v any) int {
	switch n := v.(type) {
	case stdjson.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return 0
}
