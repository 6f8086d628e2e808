package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Licensing is free-form licensing metadata attached to a file, kept as JSON.
// An empty Licensing is treated as the empty object.
type Licensing json.RawMessage

// NewLicensing canonicalizes raw JSON into a Licensing value.
func NewLicensing(raw []byte) (Licensing, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Licensing("{}"), nil
	}
	canonical, err := CanonicalizeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("licensing: %w", err)
	}
	return Licensing(canonical), nil
}

// MustLicensing is like NewLicensing but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustLicensing(raw string) Licensing {
	l, err := NewLicensing([]byte(raw))
	if err != nil {
		panic(err)
	}
	return l
}

// Canonical returns the canonical JSON text of the metadata.
func (l Licensing) Canonical() ([]byte, error) {
	if len(bytes.TrimSpace(l)) == 0 {
		return []byte("{}"), nil
	}
	return CanonicalizeJSON(l)
}

// Equal reports whether two licensing values are the same JSON document,
// independent of key order, whitespace and Unicode normalization form.
func (l Licensing) Equal(other Licensing) (bool, error) {
	a, err := l.Canonical()
	if err != nil {
		return false, err
	}
	b, err := other.Canonical()
	if err != nil {
		return false, err
	}
	return bytes.Equal(a, b), nil
}

// MarshalJSON embeds the metadata verbatim.
func (l Licensing) MarshalJSON() ([]byte, error) {
	if len(bytes.TrimSpace(l)) == 0 {
		return []byte("{}"), nil
	}
	return []byte(l), nil
}

// UnmarshalJSON keeps a copy of the raw metadata.
func (l *Licensing) UnmarshalJSON(data []byte) error {
	*l = append((*l)[0:0], data...)
	return nil
}
