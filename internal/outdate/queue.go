// Package outdate invalidates state derived from page content when the set
// of files on a page changes.
//
// The Queue records one pending job per (kind, site, page) inside the
// mutation's own transaction, so a revision is never committed without its
// invalidation, and a rolled-back mutation leaves no job behind. Jobs are
// drained later by whatever rebuilds the derived state (`revlog outdate list`
// shows them).
package outdate

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/revlog/internal/store"
)

// Job kinds.
const (
	KindDisplace = "displace"
	KindEdit     = "edit"
)

// Enqueuer is the part of a store transaction the queue writes to.
type Enqueuer interface {
	EnqueueOutdate(ctx context.Context, job store.OutdateJob) (bool, error)
}

// Queue implements revision.Outdater on top of the outdate_jobs table.
type Queue struct {
	tx     Enqueuer
	now    func() time.Time
	logger zerolog.Logger
}

// NewQueue creates a queue bound to one transaction.
// now stamps created_at; nil uses the wall clock in UTC.
func NewQueue(tx Enqueuer, now func() time.Time, logger zerolog.Logger) *Queue {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Queue{
		tx:     tx,
		now:    now,
		logger: logger.With().Str("component", "outdate").Logger(),
	}
}

// ProcessPageDisplace enqueues invalidation for a page that gained a file.
func (q *Queue) ProcessPageDisplace(ctx context.Context, siteID, pageID int64, slug string) error {
	return q.enqueue(ctx, KindDisplace, siteID, pageID, slug)
}

// ProcessPageEdit enqueues invalidation for a page whose files changed.
func (q *Queue) ProcessPageEdit(ctx context.Context, siteID, pageID int64, slug string) error {
	return q.enqueue(ctx, KindEdit, siteID, pageID, slug)
}

func (q *Queue) enqueue(ctx context.Context, kind string, siteID, pageID int64, slug string) error {
	inserted, err := q.tx.EnqueueOutdate(ctx, store.OutdateJob{
		Kind:      kind,
		SiteID:    siteID,
		PageID:    pageID,
		Slug:      slug,
		CreatedAt: q.now(),
	})
	if err != nil {
		return fmt.Errorf("outdate %s: %w", kind, err)
	}

	q.logger.Debug().
		Str("kind", kind).
		Int64("site_id", siteID).
		Int64("page_id", pageID).
		Str("slug", slug).
		Bool("collapsed", !inserted).
		Msg("page outdated")
	return nil
}
