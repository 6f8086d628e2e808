package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/revlog/internal/model"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testTime is a fixed timestamp so stored rows compare deterministically.
var testTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// createTestRevision creates a test revision with minimal required fields.
func createTestRevision(fileID string, number int32, revType model.RevisionType) model.RevisionRecord {
	return model.RevisionRecord{
		RevisionType:   revType,
		RevisionNumber: number,
		CreatedAt:      testTime,
		SiteID:         1,
		FileID:         fileID,
		UserID:         7,
		Snapshot: model.Snapshot{
			PageID: 10,
			Name:   "diagram.png",
			Blob: model.Blob{
				Hash:     []byte{0xde, 0xad, 0xbe, 0xef},
				SizeHint: 2048,
				MimeHint: "image/png",
			},
			Licensing: model.MustLicensing(`{"license":"CC-BY-SA-3.0"}`),
		},
		Changes:  []model.ChangeField{model.ChangeName},
		Comments: "test",
	}
}

// insertHistory writes revisions 0..n-1 for a file in one transaction.
func insertHistory(t *testing.T, s *Store, fileID string, n int) []model.RevisionRecord {
	t.Helper()
	ctx := context.Background()

	var out []model.RevisionRecord
	err := s.WithTx(ctx, func(tx *Tx) error {
		for i := 0; i < n; i++ {
			revType := model.RevisionUpdate
			if i == 0 {
				revType = model.RevisionCreate
			}
			rec, err := tx.InsertRevision(ctx, createTestRevision(fileID, int32(i), revType))
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("insertHistory() failed: %v", err)
	}
	return out
}

// readTx runs fn in a transaction and fails the test on error.
func readTx(t *testing.T, s *Store, fn func(ctx context.Context, tx *Tx) error) {
	t.Helper()
	ctx := context.Background()
	if err := s.WithTx(ctx, func(tx *Tx) error { return fn(ctx, tx) }); err != nil {
		t.Fatalf("transaction failed: %v", err)
	}
}
