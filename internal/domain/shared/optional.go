package shared

import (
	"bytes"
	"encoding/json"
)

// Optional marks a patch field as present or absent. A present field may
// still carry the zero value, and for pointer types a present JSON null
// clears the stored value.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns a present Optional holding v
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an absent Optional
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// IsSet reports whether the field was supplied
func (o Optional[T]) IsSet() bool {
	return o.set
}

// Get returns the value and whether it was supplied
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// ValueOr returns the value when supplied, otherwise fallback
func (o Optional[T]) ValueOr(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// UnmarshalJSON records presence. encoding/json only calls it for keys that
// appear in the payload, so absent keys stay unset.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		o.value = zero
		return nil
	}
	return json.Unmarshal(data, &o.value)
}

// MarshalJSON writes the value, or null when absent
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
