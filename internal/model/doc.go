package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Doc is a decoded JSON object whose shape is not fixed. Paths are
// dotted ("pricing.total"); a numeric segment indexes into an array
// ("variants.0.option").
type Doc map[string]interface{}

// ParseDoc decodes a JSON object. A non-object root yields an empty Doc.
func ParseDoc(data []byte) (Doc, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	if m, ok := v.(map[string]interface{}); ok {
		return Doc(m), nil
	}
	if list, ok := v.([]interface{}); ok {
		// bare arrays are exposed under "data" so list endpoints read uniformly
		return Doc{"data": list}, nil
	}
	return Doc{}, nil
}

// Lookup returns the value at path and whether it is present and non-null.
func (d Doc) Lookup(path string) (interface{}, bool) {
	var cur interface{} = map[string]interface{}(d)
	for _, seg := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case Doc:
			next, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []interface{}:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// Str returns the first path holding a non-empty string. Numbers are
// formatted without a trailing ".0".
func (d Doc) Str(paths ...string) string {
	for _, p := range paths {
		v, ok := d.Lookup(p)
		if !ok {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case json.Number:
			return s.String()
		case bool:
			return strconv.FormatBool(s)
		}
	}
	return ""
}

// Num returns the first path holding a number or a numeric string.
func (d Doc) Num(paths ...string) (float64, bool) {
	for _, p := range paths {
		v, ok := d.Lookup(p)
		if !ok {
			continue
		}
		if n, ok := toFloat(v); ok {
			return n, true
		}
	}
	return 0, false
}

// NumNonZero is Num with zero values skipped, so "0" falls through to
// the next path.
func (d Doc) NumNonZero(paths ...string) (float64, bool) {
	for _, p := range paths {
		if n, ok := d.Num(p); ok && n != 0 {
			return n, true
		}
	}
	return 0, false
}

func (d Doc) Bool(path string) bool {
	v, ok := d.Lookup(path)
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	}
	return false
}

// Obj returns the object at path, or nil.
func (d Doc) Obj(path string) Doc {
	v, ok := d.Lookup(path)
	if !ok {
		return nil
	}
	switch m := v.(type) {
	case map[string]interface{}:
		return Doc(m)
	case Doc:
		return m
	}
	return nil
}

// List returns the array at path, or nil.
func (d Doc) List(path string) []interface{} {
	v, ok := d.Lookup(path)
	if !ok {
		return nil
	}
	list, _ := v.([]interface{})
	return list
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
