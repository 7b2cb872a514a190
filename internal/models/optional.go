package models

import (
	"encoding/json"
)

// Optional holds either a value or nothing. Scraped fields and derived scores use it
// so that a missing value can never be confused with a real one.
type Optional[T any] struct {
	value T
	valid bool
}

// Some wraps an available value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, valid: true}
}

// None returns an unavailable value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// FromPtr converts a nullable pointer, as returned by database scans.
func FromPtr[T any](p *T) Optional[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.valid
}

func (o Optional[T]) Valid() bool {
	return o.valid
}

// OrElse returns the value, or fallback when unavailable.
func (o Optional[T]) OrElse(fallback T) T {
	if !o.valid {
		return fallback
	}
	return o.value
}

// Ptr returns nil when unavailable. Database drivers map it to NULL.
func (o Optional[T]) Ptr() *T {
	if !o.valid {
		return nil
	}
	v := o.value
	return &v
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
