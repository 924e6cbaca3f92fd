// Package ref models backend fields that arrive either as a bare id string or
// as an expanded object carrying that id.
package ref

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Identifiable is implemented by expanded objects that know their own id.
type Identifiable interface {
	RefID() string
}

// Ref holds either a reference id or an expanded value of type T.
type Ref[T Identifiable] struct {
	id       string
	expanded *T
}

// ID builds a reference-only Ref.
func ID[T Identifiable](id string) Ref[T] {
	return Ref[T]{id: id}
}

// Of builds an expanded Ref.
func Of[T Identifiable](v T) Ref[T] {
	return Ref[T]{id: v.RefID(), expanded: &v}
}

// ID resolves the referenced id for both variants.
func (r Ref[T]) ID() string {
	if r.expanded != nil {
		if id := (*r.expanded).RefID(); id != "" {
			return id
		}
	}
	return r.id
}

// Expanded returns the embedded object when the backend populated it.
func (r Ref[T]) Expanded() (T, bool) {
	if r.expanded == nil {
		var zero T
		return zero, false
	}
	return *r.expanded, true
}

// IsZero reports whether neither an id nor an object was decoded.
func (r Ref[T]) IsZero() bool {
	return r.expanded == nil && r.id == ""
}

func (r *Ref[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = Ref[T]{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.id)
	case '{':
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("ref: decode expanded: %w", err)
		}
		r.expanded = &v
		r.id = v.RefID()
		return nil
	default:
		return fmt.Errorf("ref: unsupported JSON value %s", string(data[:1]))
	}
}

// MarshalJSON always emits the id so payloads sent back stay compact.
func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID())
}
