package dto

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes an absent JSON field from an explicit null, so
// update payloads can clear a value (e.g. detach an order's supplier).
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// UnmarshalJSON records presence; a literal null leaves Valid false.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Valid = false
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// MarshalJSON renders the value, or null when unset/cleared.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set || !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}
