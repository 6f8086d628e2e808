package outdate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/revlog/internal/store"
)

var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testTime }

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "outdate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestQueue_EnqueuesBothKinds(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *store.Tx) error {
		q := NewQueue(tx, fixedNow, zerolog.Nop())
		if err := q.ProcessPageDisplace(ctx, 1, 10, "start"); err != nil {
			return err
		}
		return q.ProcessPageEdit(ctx, 1, 10, "start")
	})
	require.NoError(t, err)

	var jobs []store.OutdateJob
	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		jobs, err = tx.ListOutdateJobs(ctx, 1)
		return err
	}))

	require.Len(t, jobs, 2)
	assert.Equal(t, KindDisplace, jobs[0].Kind)
	assert.Equal(t, KindEdit, jobs[1].Kind)
	assert.Equal(t, "start", jobs[0].Slug)
	assert.True(t, jobs[0].CreatedAt.Equal(testTime))
}

func TestQueue_RepeatedNotificationsCollapse(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
			return NewQueue(tx, fixedNow, zerolog.Nop()).ProcessPageEdit(ctx, 1, 10, "start")
		}))
	}

	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		jobs, err := tx.ListOutdateJobs(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, jobs, 1)
		return nil
	}))
}

func TestQueue_PendingJobTracksRenamedSlug(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, slug := range []string{"start", "home"} {
		require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
			return NewQueue(tx, fixedNow, zerolog.Nop()).ProcessPageEdit(ctx, 1, 10, slug)
		}))
	}

	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		jobs, err := tx.ListOutdateJobs(ctx, 1)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, "home", jobs[0].Slug)
		return nil
	}))
}

func TestQueue_RolledBackWithTransaction(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	abort := errors.New("abort")

	err := s.WithTx(ctx, func(tx *store.Tx) error {
		if err := NewQueue(tx, fixedNow, zerolog.Nop()).ProcessPageEdit(ctx, 1, 10, "start"); err != nil {
			return err
		}
		return abort
	})
	require.ErrorIs(t, err, abort)

	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		jobs, err := tx.ListOutdateJobs(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, jobs)
		return nil
	}))
}

type failingEnqueuer struct{ err error }

func (f failingEnqueuer) EnqueueOutdate(context.Context, store.OutdateJob) (bool, error) {
	return false, f.err
}

func TestQueue_PropagatesStoreError(t *testing.T) {
	boom := errors.New("disk full")
	q := NewQueue(failingEnqueuer{err: boom}, nil, zerolog.Nop())

	err := q.ProcessPageDisplace(context.Background(), 1, 10, "start")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "outdate displace")
}
