package testutil

import (
	"context"
	"fmt"
	"sync"
)

// OutdateCall is one cascade notification seen by a RecordingOutdater.
type OutdateCall struct {
	Kind   string `json:"kind" yaml:"kind"` // "displace" or "edit"
	SiteID int64  `json:"site_id" yaml:"site_id"`
	PageID int64  `json:"page_id" yaml:"page_id"`
	Slug   string `json:"slug" yaml:"slug"`
}

// RecordingOutdater records cascade notifications instead of acting on them.
//
// Setting Fail makes every following call return that error, which lets
// tests check that a failed cascade aborts the mutation.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingOutdater struct {
	mu    sync.Mutex
	calls []OutdateCall
	fail  error
}

// NewRecordingOutdater creates an outdater with no recorded calls.
func NewRecordingOutdater() *RecordingOutdater {
	return &RecordingOutdater{}
}

// ProcessPageDisplace records a displace notification.
func (o *RecordingOutdater) ProcessPageDisplace(_ context.Context, siteID, pageID int64, slug string) error {
	return o.record("displace", siteID, pageID, slug)
}

// ProcessPageEdit records an edit notification.
func (o *RecordingOutdater) ProcessPageEdit(_ context.Context, siteID, pageID int64, slug string) error {
	return o.record("edit", siteID, pageID, slug)
}

func (o *RecordingOutdater) record(kind string, siteID, pageID int64, slug string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return fmt.Errorf("outdate %s page %d: %w", kind, pageID, o.fail)
	}
	o.calls = append(o.calls, OutdateCall{Kind: kind, SiteID: siteID, PageID: pageID, Slug: slug})
	return nil
}

// Fail makes subsequent calls return err. Pass nil to recover.
func (o *RecordingOutdater) Fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail = err
}

// Calls returns a copy of the recorded notifications in call order.
func (o *RecordingOutdater) Calls() []OutdateCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]OutdateCall, len(o.calls))
	copy(out, o.calls)
	return out
}

// Reset discards recorded calls and clears any injected failure.
func (o *RecordingOutdater) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = nil
	o.fail = nil
}
