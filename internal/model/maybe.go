package model

import "encoding/json"

// Maybe is an explicitly-provided optional value used by partial updates.
//
// A field that is absent from a request is Unset and leaves the current value
// alone. A field present in the request is Set, even when its value is the
// zero value or (for pointer T) nil. The zero Maybe is Unset.
type Maybe[T any] struct {
	value T
	set   bool
}

// Set returns a Maybe holding v.
func Set[T any](v T) Maybe[T] {
	return Maybe[T]{value: v, set: true}
}

// Unset returns an empty Maybe.
func Unset[T any]() Maybe[T] {
	return Maybe[T]{}
}

// IsSet reports whether the value was explicitly provided.
func (m Maybe[T]) IsSet() bool {
	return m.set
}

// Get returns the value and whether it was provided.
func (m Maybe[T]) Get() (T, bool) {
	return m.value, m.set
}

// Or returns the provided value, or fallback when unset.
func (m Maybe[T]) Or(fallback T) T {
	if m.set {
		return m.value
	}
	return fallback
}

// UnmarshalJSON marks the value as provided. encoding/json never calls this
// for absent keys, which is what keeps them Unset.
func (m *Maybe[T]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.value = v
	m.set = true
	return nil
}

// MarshalJSON encodes a set value as-is and an unset one as null.
func (m Maybe[T]) MarshalJSON() ([]byte, error) {
	if !m.set {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}
