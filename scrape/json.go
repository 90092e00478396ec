package scrape

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// Decode parses a JSON payload into generic values.
func Decode(payload string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, fmt.Errorf("cannot decode payload: %w", err)
	}
	return v, nil
}

// Lookup evaluates a JSONPath against obj.
func Lookup(obj any, path string) (any, error) {
	v, err := jsonpath.Get(path, obj)
	if err != nil {
		return nil, fmt.Errorf("cannot find %q: %w", path, err)
	}
	return v, nil
}

// LookupMap evaluates path and expects an object (or null, returned as nil).
func LookupMap(obj any, path string) (map[string]any, error) {
	v, err := Lookup(obj, path)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%q is not an object: %T", path, v)
	}
	return m, nil
}

// LookupString evaluates path and returns a scalar as a string.
func LookupString(obj any, path string) (string, error) {
	v, err := Lookup(obj, path)
	if err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return "", fmt.Errorf("%q is not a scalar: %T", path, v)
}

// LookupFloat evaluates path and returns a number.
func LookupFloat(obj any, path string) (float64, error) {
	v, err := Lookup(obj, path)
	if err != nil {
		return 0, err
	}
	f, err := Float(v)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", path, err)
	}
	return f, nil
}

// Float converts a JSON number to a float64. Some providers send numbers as
// strings, with a decimal comma.
func Float(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case string:
		s := strings.ReplaceAll(v, ",", ".")
		s = strings.ReplaceAll(s, " ", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q: %w", v, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

// Shares converts a JSON object of numbers into a map.
func Shares(m map[string]any) (map[string]float64, error) {
	res := make(map[string]float64, len(m))
	for k, v := range m {
		f, err := Float(v)
		if err != nil {
			return nil, fmt.Errorf("share %q: %w", k, err)
		}
		res[k] = f
	}
	return res, nil
}

// Optional follows keys from obj. It returns nil when a key is absent or a
// value is null, and an error when a value on the way is not an object.
func Optional(obj any, keys ...string) (any, error) {
	v := obj
	for i, key := range keys {
		if v == nil {
			return nil, nil
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%q is not an object: %T", strings.Join(keys[:i], "."), v)
		}
		v = m[key]
	}
	return v, nil
}

// OptionalMap is Optional for a value that must be an object.
func OptionalMap(obj any, keys ...string) (map[string]any, error) {
	v, err := Optional(obj, keys...)
	if err != nil || v == nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%q is not an object: %T", strings.Join(keys, "."), v)
	}
	return m, nil
}

// OptionalList is Optional for a value that must be a list.
func OptionalList(obj any, keys ...string) ([]any, error) {
	v, err := Optional(obj, keys...)
	if err != nil || v == nil {
		return nil, err
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%q is not a list: %T", strings.Join(keys, "."), v)
	}
	return l, nil
}
