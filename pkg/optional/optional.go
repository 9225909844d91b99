// Package optional provides a tri-state value for partial updates: a field can
// be absent, explicitly null, or carry a value.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value is absent until it is decoded from JSON or built with Of / Null.
type Value[T any] struct {
	set   bool
	valid bool
	v     T
}

// Of returns a present, non-null value.
func Of[T any](v T) Value[T] {
	return Value[T]{set: true, valid: true, v: v}
}

// Null returns a present value that is explicitly null.
func Null[T any]() Value[T] {
	return Value[T]{set: true}
}

// IsSet reports whether the value was supplied at all.
func (o Value[T]) IsSet() bool { return o.set }

// IsNull reports whether the value was supplied as null.
func (o Value[T]) IsNull() bool { return o.set && !o.valid }

// Get returns the value and whether it is present and non-null.
func (o Value[T]) Get() (T, bool) {
	return o.v, o.set && o.valid
}

// Ptr returns nil for absent or null values.
func (o Value[T]) Ptr() *T {
	if !o.set || !o.valid {
		return nil
	}
	v := o.v
	return &v
}

func (o *Value[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.valid = false
		var zero T
		o.v = zero
		return nil
	}

	if err := json.Unmarshal(data, &o.v); err != nil {
		return err
	}
	o.valid = true
	return nil
}

func (o Value[T]) MarshalJSON() ([]byte, error) {
	if !o.set || !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.v)
}
