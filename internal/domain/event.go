package domain

import (
	"encoding/json"
	"fmt"
)

// Event is one decoded journal entry: a key/value structure with at least an
// "event" kind field. Parsing of the raw journal line happens upstream; the
// translator only reads fields through the typed accessors below.
type Event map[string]any

// Name returns the event kind.
func (e Event) Name() string { return e.Str("event") }

// Timestamp returns the entry's ISO-8601 timestamp.
func (e Event) Timestamp() string { return e.Str("timestamp") }

// Has reports whether key is present, regardless of its value.
func (e Event) Has(key string) bool {
	_, ok := e[key]
	return ok
}

// Opt returns the raw value under key, or nil when absent.
func (e Event) Opt(key string) any { return e[key] }

func (e Event) Str(key string) string {
	s, _ := e[key].(string)
	return s
}

func (e Event) Int(key string) int64 {
	return toInt64(e[key])
}

func (e Event) Float(key string) float64 {
	switch n := e[key].(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}

func (e Event) Bool(key string) bool {
	b, _ := e[key].(bool)
	return b
}

// Object returns the nested object under key, or nil when absent.
func (e Event) Object(key string) Event {
	switch m := e[key].(type) {
	case map[string]any:
		return Event(m)
	case Event:
		return m
	default:
		return nil
	}
}

// List returns the nested list of objects under key.
func (e Event) List(key string) []Event {
	raw, _ := e[key].([]any)
	out := make([]Event, 0, len(raw))
	for _, v := range raw {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Event(m))
		}
	}
	return out
}

// Strings returns the nested list of strings under key.
func (e Event) Strings(key string) []string {
	raw, _ := e[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	default:
		return 0
	}
}

// Reader reads mandatory fields from an event, remembering the first missing
// key so call sites stay flat and the failure carries the field name.
type Reader struct {
	e   Event
	err error
}

// Reader returns a mandatory-field reader over e.
func (e Event) Reader() *Reader { return &Reader{e: e} }

func (r *Reader) require(key string) (any, bool) {
	if r.err != nil {
		return nil, false
	}
	v, ok := r.e[key]
	if !ok {
		r.err = fmt.Errorf("%w: %q", ErrMissingField, key)
		return nil, false
	}
	return v, true
}

func (r *Reader) Any(key string) any {
	v, _ := r.require(key)
	return v
}

func (r *Reader) Str(key string) string {
	v, ok := r.require(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (r *Reader) Int(key string) int64 {
	v, ok := r.require(key)
	if !ok {
		return 0
	}
	return toInt64(v)
}

func (r *Reader) Float(key string) float64 {
	if _, ok := r.require(key); !ok {
		return 0
	}
	return r.e.Float(key)
}

func (r *Reader) Bool(key string) bool {
	v, ok := r.require(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func (r *Reader) Object(key string) Event {
	v, ok := r.require(key)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		r.err = fmt.Errorf("%w: %q is not an object", ErrMissingField, key)
		return nil
	}
	return Event(m)
}

func (r *Reader) List(key string) []Event {
	if _, ok := r.require(key); !ok {
		return nil
	}
	return r.e.List(key)
}

// Err returns the first missing-field error encountered, if any.
func (r *Reader) Err() error { return r.err }
