// Package samcart models the loosely typed SamCart order notification.
package samcart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Event is a decoded SamCart notification. Numbers are json.Number.
type Event map[string]any

// Path addresses a nested field with dot-separated segments, e.g. "customer.email".
type Path string

func (p Path) segments() []string {
	return strings.Split(string(p), ".")
}

var errNotObject = errors.New("event must be a JSON object")

// Decode parses a webhook body, keeping numeric literals as json.Number.
func Decode(payload []byte) (Event, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if decoder.More() {
		return nil, errors.New("decode event: trailing data after JSON object")
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return Event(obj), nil
}

// Lookup resolves path, reporting false when any segment is missing or null.
func (e Event) Lookup(path Path) (any, bool) {
	var current any = map[string]any(e)
	for _, segment := range path.segments() {
		obj, ok := asObject(current)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok || current == nil {
			return nil, false
		}
	}
	return current, true
}

// First returns the value at the first candidate that is present, non-null and
// not a blank string.
func (e Event) First(candidates ...Path) (any, bool) {
	for _, path := range candidates {
		value, ok := e.Lookup(path)
		if !ok {
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return value, true
	}
	return nil, false
}

// String resolves the candidates and renders scalars as text. Objects and
// arrays do not count as strings.
func (e Event) String(candidates ...Path) (string, bool) {
	for _, path := range candidates {
		value, ok := e.First(path)
		if !ok {
			continue
		}
		if s, ok := Scalar(value); ok {
			return s, true
		}
	}
	return "", false
}

// Object returns the nested object at path.
func (e Event) Object(path Path) (Event, bool) {
	value, ok := e.Lookup(path)
	if !ok {
		return nil, false
	}
	obj, ok := asObject(value)
	if !ok {
		return nil, false
	}
	return Event(obj), true
}

// OrderID returns the trimmed order identifier, or "" when absent.
func (e Event) OrderID() string {
	id, _ := e.String(PathOrderID)
	return id
}

// Scalar renders strings, numbers and booleans as trimmed text. Blank strings
// are reported as absent.
func Scalar(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		return trimmed, trimmed != ""
	case json.Number:
		return v.String(), true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", v), true
	case float32, float64:
		return fmt.Sprintf("%v", v), true
	default:
		return "", false
	}
}

func asObject(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case Event:
		return v, true
	default:
		return nil, false
	}
}
