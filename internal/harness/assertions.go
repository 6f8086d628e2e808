package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/revlog/internal/model"
	"github.com/roach88/revlog/internal/revision"
	"github.com/roach88/revlog/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	File     string
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.File != "" {
		fmt.Fprintf(&buf, " (file %s)", e.File)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// evaluateAssertions checks every assertion and returns failure messages.
// Assertions are read in one transaction through the service, so page
// addressing applies exactly as it does for API callers.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion, result *Result) []string {
	var failures []string

	err := h.app.Do(ctx, func(ctx context.Context, scope revision.Scope, _ *store.Tx) error {
		for _, a := range assertions {
			if err := h.evaluate(ctx, scope, a, result); err != nil {
				failures = append(failures, err.Error())
			}
		}
		return nil
	})
	if err != nil {
		failures = append(failures, fmt.Sprintf("assertion evaluation failed: %v", err))
	}

	return failures
}

func (h *Harness) evaluate(ctx context.Context, scope revision.Scope, a Assertion, result *Result) error {
	switch a.Type {
	case AssertHistory:
		return assertHistory(result.Histories[a.File], a)
	case AssertCount:
		return h.assertCount(ctx, scope, a, result)
	case AssertAbsent:
		return h.assertAbsent(ctx, scope, a)
	case AssertOutdated:
		return assertOutdated(result.Outdated, a)
	case AssertHidden:
		return assertHidden(result.Histories[a.File], a)
	}
	return fmt.Errorf("unknown assertion type: %s", a.Type)
}

// assertHistory compares revision types, and change sets when given.
func assertHistory(history []HistoryEntry, a Assertion) error {
	types := make([]string, len(history))
	for i, e := range history {
		types[i] = e.Type
	}
	if !slices.Equal(types, a.Types) {
		return &AssertionError{
			Type:     AssertHistory,
			File:     a.File,
			Expected: fmt.Sprintf("types %v", a.Types),
			Actual:   fmt.Sprintf("types %v", types),
		}
	}

	for i, want := range a.Changes {
		got := history[i].Changes
		if !slices.Equal(got, want) && !(len(got) == 0 && len(want) == 0) {
			return &AssertionError{
				Type:     AssertHistory,
				File:     a.File,
				Expected: fmt.Sprintf("revision %d changes %v", i, want),
				Actual:   fmt.Sprintf("revision %d changes %v", i, got),
			}
		}
	}
	return nil
}

func (h *Harness) assertCount(ctx context.Context, scope revision.Scope, a Assertion, result *Result) error {
	key := h.keyFor(a, result)
	c, err := h.app.Service().Count(ctx, scope, key)
	if err != nil {
		return &AssertionError{
			Type:     AssertCount,
			File:     a.File,
			Expected: fmt.Sprintf("%d revisions", a.Count),
			Actual:   err.Error(),
		}
	}
	if int(c.RevisionCount) != a.Count {
		return &AssertionError{
			Type:     AssertCount,
			File:     a.File,
			Expected: fmt.Sprintf("%d revisions", a.Count),
			Actual:   fmt.Sprintf("%d revisions", c.RevisionCount),
		}
	}
	return nil
}

func (h *Harness) assertAbsent(ctx context.Context, scope revision.Scope, a Assertion) error {
	key := model.OwnerKey{PageID: a.Page, FileID: a.File}
	_, err := h.app.Service().GetLatest(ctx, scope, key)
	if revision.IsNotFound(err) {
		return nil
	}
	actual := "file is reachable"
	if err != nil {
		actual = err.Error()
	}
	return &AssertionError{
		Type:     AssertAbsent,
		File:     a.File,
		Expected: fmt.Sprintf("not found at page %d", a.Page),
		Actual:   actual,
	}
}

func assertOutdated(jobs []OutdateEntry, a Assertion) error {
	for _, job := range jobs {
		if job.Kind == a.Kind && job.PageID == a.Page {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertOutdated,
		Expected: fmt.Sprintf("%s job for page %d", a.Kind, a.Page),
		Actual:   fmt.Sprintf("%d pending jobs, none matching", len(jobs)),
	}
}

func assertHidden(history []HistoryEntry, a Assertion) error {
	n := int(*a.Revision)
	if n < 0 || n >= len(history) {
		return &AssertionError{
			Type:     AssertHidden,
			File:     a.File,
			Expected: fmt.Sprintf("revision %d", n),
			Actual:   fmt.Sprintf("history has %d revisions", len(history)),
		}
	}
	got := history[n].Hidden
	if !slices.Equal(got, a.Hidden) && !(len(got) == 0 && len(a.Hidden) == 0) {
		return &AssertionError{
			Type:     AssertHidden,
			File:     a.File,
			Expected: fmt.Sprintf("revision %d hidden %v", n, a.Hidden),
			Actual:   fmt.Sprintf("revision %d hidden %v", n, got),
		}
	}
	return nil
}

// keyFor addresses a file at the assertion's page, or at its head's page.
func (h *Harness) keyFor(a Assertion, result *Result) model.OwnerKey {
	key := model.OwnerKey{PageID: a.Page, FileID: a.File}
	if key.PageID == 0 {
		if history := result.Histories[a.File]; len(history) > 0 {
			key.PageID = history[len(history)-1].PageID
		}
	}
	return key
}
