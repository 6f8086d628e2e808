package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/roach88/revlog/internal/model"
)

// timeLayout is the storage format for created_at. Fixed-width nanoseconds
// keep the text sortable.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// marshalTags converts a tag list to JSON TEXT. Never returns "null".
func marshalTags[T ~string](tags []T) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(data), nil
}

// unmarshalTags parses JSON TEXT into a string list.
func unmarshalTags(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(data), &tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return tags, nil
}

// marshalLicensing stores licensing metadata in canonical form so equal
// documents are byte-identical on disk.
func marshalLicensing(l model.Licensing) (string, error) {
	data, err := l.Canonical()
	if err != nil {
		return "", fmt.Errorf("marshal licensing: %w", err)
	}
	return string(data), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
