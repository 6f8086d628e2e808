package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/roach88/revlog/internal/model"
)

const revisionColumns = `
	revision_id, revision_type, revision_number, created_at, site_id, page_id,
	file_id, user_id, name, blob_hash, size_hint, mime_hint, licensing,
	changes, hidden, comments`

// InsertRevision appends a revision row and returns it with RevisionID set.
//
// The (file_id, revision_number) pair is UNIQUE, so a second writer that
// raced past the head check still cannot fork the history. The hidden column
// always starts empty regardless of rec.Hidden.
func (t *Tx) InsertRevision(ctx context.Context, rec model.RevisionRecord) (model.RevisionRecord, error) {
	changesJSON, err := marshalTags(rec.Changes)
	if err != nil {
		return model.RevisionRecord{}, fmt.Errorf("insert revision: %w", err)
	}

	licensingJSON, err := marshalLicensing(rec.Licensing)
	if err != nil {
		return model.RevisionRecord{}, fmt.Errorf("insert revision: %w", err)
	}

	hash := rec.Blob.Hash
	if hash == nil {
		hash = []byte{}
	}

	result, err := t.tx.ExecContext(ctx, `
		INSERT INTO file_revisions
		(revision_type, revision_number, created_at, site_id, page_id, file_id, user_id,
		 name, blob_hash, size_hint, mime_hint, licensing, changes, hidden, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '[]', ?)
	`,
		string(rec.RevisionType),
		rec.RevisionNumber,
		formatTime(rec.CreatedAt),
		rec.SiteID,
		rec.PageID,
		rec.FileID,
		rec.UserID,
		rec.Name,
		hash,
		rec.Blob.SizeHint,
		rec.Blob.MimeHint,
		licensingJSON,
		changesJSON,
		rec.Comments,
	)
	if err != nil {
		return model.RevisionRecord{}, fmt.Errorf("insert revision: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return model.RevisionRecord{}, fmt.Errorf("insert revision: last insert id: %w", err)
	}

	return t.RevisionByID(ctx, id)
}

// LatestRevision returns the head revision of a file.
// Returns ErrNotFound if the file has no revisions.
func (t *Tx) LatestRevision(ctx context.Context, fileID string) (model.RevisionRecord, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT`+revisionColumns+`
		FROM file_revisions
		WHERE file_id = ?
		ORDER BY revision_number DESC
		LIMIT 1
	`, fileID)

	rec, err := scanRevision(row)
	if err != nil {
		return model.RevisionRecord{}, notFound("latest revision", err)
	}
	return rec, nil
}

// RevisionAt returns the revision with the given number, or nil if absent.
func (t *Tx) RevisionAt(ctx context.Context, fileID string, number int32) (*model.RevisionRecord, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT`+revisionColumns+`
		FROM file_revisions
		WHERE file_id = ? AND revision_number = ?
	`, fileID, number)

	rec, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("revision at %d: %w", number, err)
	}
	return &rec, nil
}

// RevisionByID returns a revision by its globally unique id.
// Returns ErrNotFound if no such revision exists.
func (t *Tx) RevisionByID(ctx context.Context, revisionID int64) (model.RevisionRecord, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT`+revisionColumns+`
		FROM file_revisions
		WHERE revision_id = ?
	`, revisionID)

	rec, err := scanRevision(row)
	if err != nil {
		return model.RevisionRecord{}, notFound("revision by id", err)
	}
	return rec, nil
}

// CountRevisions returns the number of revisions stored for a file.
func (t *Tx) CountRevisions(ctx context.Context, fileID string) (int64, error) {
	var count int64
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM file_revisions WHERE file_id = ?
	`, fileID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count revisions: %w", err)
	}
	return count, nil
}

// RevisionRange returns revisions on one side of an anchor number, inclusive,
// ordered ascending by revision number and capped at limit rows.
// The anchor must already be normalized (non-negative).
func (t *Tx) RevisionRange(
	ctx context.Context,
	fileID string,
	anchor int32,
	direction model.FetchDirection,
	limit uint64,
) ([]model.RevisionRecord, error) {
	var cond string
	switch direction {
	case model.FetchBefore:
		cond = "revision_number <= ?"
	case model.FetchAfter:
		cond = "revision_number >= ?"
	default:
		return nil, fmt.Errorf("revision range: invalid direction %q", direction)
	}

	if limit > math.MaxInt64 {
		limit = math.MaxInt64
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT`+revisionColumns+`
		FROM file_revisions
		WHERE file_id = ? AND `+cond+`
		ORDER BY revision_number ASC
		LIMIT ?
	`, fileID, anchor, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("query revision range: %w", err)
	}
	defer rows.Close()

	revisions := []model.RevisionRecord{}
	for rows.Next() {
		rec, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan revision range: %w", err)
		}
		revisions = append(revisions, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revision range: %w", err)
	}

	return revisions, nil
}

// SetHidden replaces the hidden field set of one revision.
// This is the only mutation ever applied to an existing revision row.
// Returns ErrNotFound if the revision does not exist.
func (t *Tx) SetHidden(ctx context.Context, revisionID int64, hidden []model.HiddenField) error {
	hiddenJSON, err := marshalTags(hidden)
	if err != nil {
		return fmt.Errorf("set hidden: %w", err)
	}

	result, err := t.tx.ExecContext(ctx, `
		UPDATE file_revisions SET hidden = ? WHERE revision_id = ?
	`, hiddenJSON, revisionID)
	if err != nil {
		return fmt.Errorf("set hidden: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set hidden: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("set hidden: revision %d: %w", revisionID, ErrNotFound)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRevision(row rowScanner) (model.RevisionRecord, error) {
	var (
		rec                           model.RevisionRecord
		revType, createdAt, licensing string
		changesJSON, hiddenJSON       string
	)

	err := row.Scan(
		&rec.RevisionID,
		&revType,
		&rec.RevisionNumber,
		&createdAt,
		&rec.SiteID,
		&rec.PageID,
		&rec.FileID,
		&rec.UserID,
		&rec.Name,
		&rec.Blob.Hash,
		&rec.Blob.SizeHint,
		&rec.Blob.MimeHint,
		&licensing,
		&changesJSON,
		&hiddenJSON,
		&rec.Comments,
	)
	if err != nil {
		return model.RevisionRecord{}, err
	}

	if rec.RevisionType, err = model.ParseRevisionType(revType); err != nil {
		return model.RevisionRecord{}, err
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.RevisionRecord{}, err
	}
	rec.Licensing = model.Licensing(licensing)

	changes, err := unmarshalTags(changesJSON)
	if err != nil {
		return model.RevisionRecord{}, err
	}
	if rec.Changes, err = model.ParseChanges(changes); err != nil {
		return model.RevisionRecord{}, err
	}

	hidden, err := unmarshalTags(hiddenJSON)
	if err != nil {
		return model.RevisionRecord{}, err
	}
	if rec.Hidden, err = model.NormalizeHidden(hidden); err != nil {
		return model.RevisionRecord{}, err
	}

	return rec, nil
}
