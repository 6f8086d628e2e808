package revision

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/revlog/internal/metrics"
	"github.com/roach88/revlog/internal/model"
	"github.com/roach88/revlog/internal/store"
	"github.com/roach88/revlog/internal/testutil"
)

const (
	testSite  int64 = 1
	testPage  int64 = 10
	otherPage int64 = 11
	testUser  int64 = 7
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store    *store.Store
	svc      *Service
	outdater *testutil.RecordingOutdater
	metrics  *metrics.Metrics
}

// newTestEnv opens a store with pages 10 ("start") and 11 ("about") on site 1.
func newTestEnv(t *testing.T, opts ...ServiceOption) *testEnv {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "revlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.PutPage(ctx, store.Page{PageID: testPage, SiteID: testSite, Slug: "start"}); err != nil {
			return err
		}
		return tx.PutPage(ctx, store.Page{PageID: otherPage, SiteID: testSite, Slug: "about"})
	}))

	m := metrics.New()
	base := []ServiceOption{
		WithClock(testutil.NewDeterministicClock(testEpoch, time.Second)),
		WithFileIDGenerator(NewFixedGenerator("file-gen-1", "file-gen-2")),
		WithMetrics(m),
	}

	return &testEnv{
		store:    s,
		svc:      NewService(append(base, opts...)...),
		outdater: testutil.NewRecordingOutdater(),
		metrics:  m,
	}
}

// do runs fn in one transaction with a scope bound to it.
func (e *testEnv) do(fn func(ctx context.Context, scope Scope) error) error {
	ctx := context.Background()
	return e.store.WithTx(ctx, func(tx *store.Tx) error {
		return fn(ctx, Scope{Revisions: tx, Pages: tx, Outdater: e.outdater})
	})
}

func firstInput(fileID string) CreateFirstFileRevision {
	return CreateFirstFileRevision{
		SiteID: testSite,
		PageID: testPage,
		FileID: fileID,
		UserID: testUser,
		Name:   "diagram.png",
		Blob: model.Blob{
			Hash:     []byte{0x01, 0x02, 0x03},
			SizeHint: 100,
			MimeHint: "image/png",
		},
		Licensing: model.MustLicensing(`{"license":"CC-BY-SA-3.0","author":"alice"}`),
		Comments:  "initial upload",
	}
}

func key(fileID string) model.OwnerKey {
	return model.OwnerKey{PageID: testPage, FileID: fileID}
}

func mustCreate(t *testing.T, e *testEnv, fileID string) *CreateFirstFileRevisionOutput {
	t.Helper()
	var out *CreateFirstFileRevisionOutput
	require.NoError(t, e.do(func(ctx context.Context, scope Scope) error {
		var err error
		out, err = e.svc.CreateFirst(ctx, scope, firstInput(fileID))
		return err
	}))
	return out
}

func update(e *testEnv, k model.OwnerKey, token int64, body FileRevisionBody) (*CreateFileRevisionOutput, error) {
	var out *CreateFileRevisionOutput
	err := e.do(func(ctx context.Context, scope Scope) error {
		var err error
		out, err = e.svc.CreateUpdate(ctx, scope, CreateFileRevision{
			SiteID:         testSite,
			Key:            k,
			UserID:         testUser,
			LastRevisionID: token,
			Comments:       "edit",
			Body:           body,
		})
		return err
	})
	return out, err
}

func mustRename(t *testing.T, e *testEnv, k model.OwnerKey, token int64, name string) *CreateFileRevisionOutput {
	t.Helper()
	out, err := update(e, k, token, FileRevisionBody{Name: model.Set(name)})
	require.NoError(t, err)
	require.NotNil(t, out)
	return out
}

func tombstone(e *testEnv, k model.OwnerKey, token int64) (*CreateFileRevisionOutput, error) {
	var out *CreateFileRevisionOutput
	err := e.do(func(ctx context.Context, scope Scope) error {
		var err error
		out, err = e.svc.CreateTombstone(ctx, scope, CreateTombstoneFileRevision{
			SiteID:         testSite,
			Key:            k,
			UserID:         testUser,
			LastRevisionID: token,
			Comments:       "delete",
		})
		return err
	})
	return out, err
}

func resurrect(e *testEnv, in CreateResurrectionFileRevision) (*CreateFileRevisionOutput, error) {
	var out *CreateFileRevisionOutput
	err := e.do(func(ctx context.Context, scope Scope) error {
		var err error
		out, err = e.svc.CreateResurrection(ctx, scope, in)
		return err
	})
	return out, err
}

func hide(e *testEnv, in UpdateFileRevision) error {
	return e.do(func(ctx context.Context, scope Scope) error {
		return e.svc.HideRevision(ctx, scope, in)
	})
}

func head(t *testing.T, e *testEnv, k model.OwnerKey) model.RevisionRecord {
	t.Helper()
	var rec model.RevisionRecord
	require.NoError(t, e.do(func(ctx context.Context, scope Scope) error {
		var err error
		rec, err = e.svc.GetLatest(ctx, scope, k)
		return err
	}))
	return rec
}

func count(e *testEnv, k model.OwnerKey) (model.RevisionCount, error) {
	var c model.RevisionCount
	err := e.do(func(ctx context.Context, scope Scope) error {
		var err error
		c, err = e.svc.Count(ctx, scope, k)
		return err
	})
	return c, err
}

func numbers(recs []model.RevisionRecord) []int32 {
	out := make([]int32, len(recs))
	for i, r := range recs {
		out[i] = r.RevisionNumber
	}
	return out
}
