package revision

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/roach88/revlog/internal/metrics"
	"github.com/roach88/revlog/internal/model"
)

// Repository is the revision table as seen from inside one transaction.
// History is keyed by file id; page addressing is checked by the service.
//
// Content columns are written only by InsertRevision. SetHidden is the
// single narrow update path.
type Repository interface {
	InsertRevision(ctx context.Context, rec model.RevisionRecord) (model.RevisionRecord, error)
	LatestRevision(ctx context.Context, fileID string) (model.RevisionRecord, error)
	RevisionAt(ctx context.Context, fileID string, number int32) (*model.RevisionRecord, error)
	RevisionByID(ctx context.Context, revisionID int64) (model.RevisionRecord, error)
	CountRevisions(ctx context.Context, fileID string) (int64, error)
	RevisionRange(ctx context.Context, fileID string, anchor int32, direction model.FetchDirection, limit uint64) ([]model.RevisionRecord, error)
	SetHidden(ctx context.Context, revisionID int64, hidden []model.HiddenField) error
}

// PageResolver returns the current slug of a live page.
// It returns an error wrapping model.ErrNotFound if the page does not exist.
type PageResolver interface {
	PageSlug(ctx context.Context, siteID, pageID int64) (string, error)
}

// Outdater invalidates state derived from a page's content.
//
// Both calls run synchronously inside the mutation's transaction and must be
// safe to repeat for the same page.
type Outdater interface {
	// ProcessPageDisplace is called when a file newly occupies a page slot.
	ProcessPageDisplace(ctx context.Context, siteID, pageID int64, slug string) error

	// ProcessPageEdit is called when the visible files of a page changed.
	ProcessPageEdit(ctx context.Context, siteID, pageID int64, slug string) error
}

// Scope bundles the transaction-bound collaborators of one request.
// All three must share the caller's transaction.
type Scope struct {
	Revisions Repository
	Pages     PageResolver
	Outdater  Outdater

	// OnCommit, when set, defers fn until the transaction has committed.
	// Success counters are recorded through it.
	// A nil OnCommit runs fn immediately.
	OnCommit func(fn func())
}

func (sc Scope) afterCommit(fn func()) {
	if sc.OnCommit == nil {
		fn()
		return
	}
	sc.OnCommit(fn)
}

// Service implements the revision lifecycle and history reads.
//
// Service is stateless between calls and safe for concurrent use; every
// call operates only on the Scope it is given.
type Service struct {
	clock        Clock
	fileIDs      FileIDGenerator
	logger       zerolog.Logger
	metrics      *metrics.Metrics
	maxNameBytes int

	maxRangeLimit uint64
}

// ServiceOption allows configuration of service parameters.
type ServiceOption func(*Service)

// WithClock sets the clock used to stamp created_at.
func WithClock(c Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// WithFileIDGenerator sets the generator used when CreateFirst gets no file id.
func WithFileIDGenerator(g FileIDGenerator) ServiceOption {
	return func(s *Service) { s.fileIDs = g }
}

// WithLogger sets the structured logger.
func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l.With().Str("component", "revision").Logger() }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithMaxNameBytes sets the exclusive upper bound on file name length.
//
// Default: 256 bytes (DefaultMaxNameBytes)
func WithMaxNameBytes(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxNameBytes = n
		}
	}
}

// WithMaxRangeLimit caps the number of rows one GetRange call returns.
// Zero leaves the caller's limit unchanged.
func WithMaxRangeLimit(n uint64) ServiceOption {
	return func(s *Service) { s.maxRangeLimit = n }
}

// NewService creates a Service. Without options it uses the system clock,
// UUIDv7 file ids, a no-op logger and no metrics.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		clock:        SystemClock{},
		fileIDs:      UUIDv7Generator{},
		logger:       zerolog.Nop(),
		maxNameBytes: DefaultMaxNameBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// latest returns the head of the file addressed by key.
//
// A file with no rows, or whose head lives on a different page than key
// names, is NOT_FOUND: the key no longer addresses it.
func (s *Service) latest(ctx context.Context, scope Scope, key model.OwnerKey) (model.RevisionRecord, error) {
	head, err := scope.Revisions.LatestRevision(ctx, key.FileID)
	if errors.Is(err, model.ErrNotFound) {
		return model.RevisionRecord{}, NewNotFoundError(key.FileID, "file has no revisions", err)
	}
	if err != nil {
		return model.RevisionRecord{}, err
	}
	if head.PageID != key.PageID {
		return model.RevisionRecord{}, NewNotFoundError(key.FileID, "file is not attached to page "+formatInt(key.PageID), nil)
	}
	return head, nil
}

// pageSlug resolves the slug the cascade is addressed to.
func (s *Service) pageSlug(ctx context.Context, scope Scope, fileID string, siteID, pageID int64) (string, error) {
	slug, err := scope.Pages.PageSlug(ctx, siteID, pageID)
	if errors.Is(err, model.ErrNotFound) {
		return "", NewNotFoundError(fileID, "page "+formatInt(pageID)+" does not exist", err)
	}
	return slug, err
}

// outdate runs the cascade for one transition. kind is "displace" or "edit".
func (s *Service) outdate(ctx context.Context, scope Scope, kind string, fileID string, siteID, pageID int64) error {
	slug, err := s.pageSlug(ctx, scope, fileID, siteID, pageID)
	if err != nil {
		return err
	}

	if kind == cascadeDisplace {
		err = scope.Outdater.ProcessPageDisplace(ctx, siteID, pageID, slug)
	} else {
		err = scope.Outdater.ProcessPageEdit(ctx, siteID, pageID, slug)
	}
	if err != nil {
		s.metrics.RecordCascade(kind, err)
		s.logger.Error().
			Err(err).
			Str("kind", kind).
			Str("file_id", fileID).
			Int64("page_id", pageID).
			Msg("outdating cascade failed")
		return err
	}
	scope.afterCommit(func() { s.metrics.RecordCascade(kind, nil) })
	return nil
}

const (
	cascadeDisplace = "displace"
	cascadeEdit     = "edit"
)

// reject logs and counts a rejected mutation, passing err through.
func (s *Service) reject(op string, err error) error {
	code := CodeOf(err)
	if code == "" {
		return err
	}
	s.metrics.RecordRejected(string(code))

	event := s.logger.Warn()
	if code == ErrCodeInternal {
		event = s.logger.Error()
	}
	event.Err(err).Str("op", op).Str("code", string(code)).Msg("mutation rejected")
	return err
}

// persisted logs and counts a newly inserted revision.
func (s *Service) persisted(scope Scope, rec model.RevisionRecord) {
	scope.afterCommit(func() { s.metrics.RecordRevision(string(rec.RevisionType)) })
	changes := make([]string, len(rec.Changes))
	for i, c := range rec.Changes {
		changes[i] = string(c)
	}
	s.logger.Info().
		Str("file_id", rec.FileID).
		Int64("page_id", rec.PageID).
		Int64("revision_id", rec.RevisionID).
		Int32("revision_number", rec.RevisionNumber).
		Str("type", string(rec.RevisionType)).
		Strs("changes", changes).
		Msg("revision persisted")
}
