package model

import (
	"fmt"
	"strings"
)

// FetchDirection selects which side of an anchor revision a range read covers.
type FetchDirection string

const (
	// FetchBefore returns revisions numbered at or below the anchor.
	FetchBefore FetchDirection = "before"
	// FetchAfter returns revisions numbered at or above the anchor.
	FetchAfter FetchDirection = "after"
)

// ParseFetchDirection parses "before" or "after", case-insensitively.
func ParseFetchDirection(s string) (FetchDirection, error) {
	switch d := FetchDirection(strings.ToLower(s)); d {
	case FetchBefore, FetchAfter:
		return d, nil
	}
	return "", fmt.Errorf("invalid fetch direction %q: must be before or after", s)
}
