package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
)

// EncodedJSON holds a JSON sub-document stored as text. On input it accepts
// either a structured JSON value or a string that itself contains encoded JSON.
type EncodedJSON []byte

// EncodeJSON serializes v into an EncodedJSON object.
func EncodeJSON(v any) (EncodedJSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return EncodedJSON(raw), nil
}

// IsZero reports whether nothing was stored.
func (e EncodedJSON) IsZero() bool {
	trimmed := bytes.TrimSpace(e)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Decode unmarshals the document into dst, unwrapping the string form first.
// It reports false when the document is absent or malformed.
func (e EncodedJSON) Decode(dst any) bool {
	if e.IsZero() {
		return false
	}
	raw := bytes.TrimSpace(e)
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return false
		}
		raw = bytes.TrimSpace([]byte(inner))
		if len(raw) == 0 {
			return false
		}
	}
	return json.Unmarshal(raw, dst) == nil
}

// MarshalJSON emits the stored document; text that is not valid JSON is emitted as a string.
func (e EncodedJSON) MarshalJSON() ([]byte, error) {
	if e.IsZero() {
		return []byte("null"), nil
	}
	if json.Valid(e) {
		return bytes.TrimSpace(e), nil
	}
	return json.Marshal(string(e))
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *EncodedJSON) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*e = nil
		return nil
	}
	*e = append((*e)[:0], trimmed...)
	return nil
}

// Value stores the document as text.
func (e EncodedJSON) Value() (driver.Value, error) {
	if e.IsZero() {
		return nil, nil
	}
	return string(e), nil
}

// Scan reads the text column.
func (e *EncodedJSON) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	*e = append(EncodedJSON(nil), raw...)
	return nil
}
