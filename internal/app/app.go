// Package app wires the revision service to a SQLite store.
//
// Every call runs in exactly one store transaction. The transaction serves
// as the revision repository, the page resolver and (through an outdate
// queue bound to it) the outdating cascade, so a mutation and its
// invalidation jobs commit or roll back together.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/revlog/internal/config"
	"github.com/roach88/revlog/internal/metrics"
	"github.com/roach88/revlog/internal/outdate"
	"github.com/roach88/revlog/internal/revision"
	"github.com/roach88/revlog/internal/store"
)

// Options configures an App. Zero values select production defaults.
type Options struct {
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
	Clock         revision.Clock
	FileIDs       revision.FileIDGenerator
	MaxNameBytes  int
	MaxRangeLimit uint64
}

// App owns a store and the service that operates on it.
type App struct {
	store   *store.Store
	service *revision.Service
	clock   revision.Clock
	logger  zerolog.Logger
}

// New builds an App over an open store.
func New(st *store.Store, opts Options) *App {
	clock := opts.Clock
	if clock == nil {
		clock = revision.SystemClock{}
	}

	svcOpts := []revision.ServiceOption{
		revision.WithClock(clock),
		revision.WithLogger(opts.Logger),
		revision.WithMetrics(opts.Metrics),
		revision.WithMaxNameBytes(opts.MaxNameBytes),
		revision.WithMaxRangeLimit(opts.MaxRangeLimit),
	}
	if opts.FileIDs != nil {
		svcOpts = append(svcOpts, revision.WithFileIDGenerator(opts.FileIDs))
	}

	return &App{
		store:   st,
		service: revision.NewService(svcOpts...),
		clock:   clock,
		logger:  opts.Logger,
	}
}

// Open opens the database named by cfg and builds an App over it.
func Open(cfg config.Config, logger zerolog.Logger, m *metrics.Metrics) (*App, error) {
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	logger.Debug().Str("database", cfg.Database).Msg("store opened")

	return New(st, Options{
		Logger:        logger,
		Metrics:       m,
		MaxNameBytes:  cfg.MaxNameBytes,
		MaxRangeLimit: cfg.MaxRangeLimit,
	}), nil
}

// Close closes the underlying store.
func (a *App) Close() error {
	return a.store.Close()
}

// Service returns the revision service.
func (a *App) Service() *revision.Service {
	return a.service
}

// Do runs fn in one transaction. fn receives a scope bound to the
// transaction and the transaction itself for page and queue maintenance.
// The transaction commits only if fn returns nil. Callbacks registered
// through scope.OnCommit run after a successful commit, in order.
func (a *App) Do(ctx context.Context, fn func(ctx context.Context, scope revision.Scope, tx *store.Tx) error) error {
	var committed []func()
	err := a.store.WithTx(ctx, func(tx *store.Tx) error {
		scope := revision.Scope{
			Revisions: tx,
			Pages:     tx,
			Outdater:  outdate.NewQueue(tx, a.clock.Now, a.logger),
			OnCommit:  func(fn func()) { committed = append(committed, fn) },
		}
		return fn(ctx, scope, tx)
	})
	if err != nil {
		return err
	}
	for _, fn := range committed {
		fn()
	}
	return nil
}

// Now returns the App clock's current time.
func (a *App) Now() time.Time {
	return a.clock.Now()
}
