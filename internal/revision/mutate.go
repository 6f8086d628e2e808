package revision

import (
	"context"
	"errors"

	"github.com/roach88/revlog/internal/model"
)

// CreateFirstFileRevision is the input of CreateFirst.
type CreateFirstFileRevision struct {
	SiteID int64 `json:"site_id"`
	PageID int64 `json:"page_id"`

	// FileID may be empty, in which case one is generated.
	FileID    string          `json:"file_id,omitempty"`
	UserID    int64           `json:"user_id"`
	Name      string          `json:"name"`
	Blob      model.Blob      `json:"blob"`
	Licensing model.Licensing `json:"licensing"`
	Comments  string          `json:"comments"`
}

// CreateFirstFileRevisionOutput identifies the new file and its first revision.
type CreateFirstFileRevisionOutput struct {
	FileID         string `json:"file_id"`
	FileRevisionID int64  `json:"file_revision_id"`
}

// CreateFileRevision is the input of CreateUpdate.
type CreateFileRevision struct {
	SiteID         int64            `json:"site_id"`
	Key            model.OwnerKey   `json:"key"`
	UserID         int64            `json:"user_id"`
	LastRevisionID int64            `json:"last_revision_id"`
	Comments       string           `json:"comments"`
	Body           FileRevisionBody `json:"body"`
}

// CreateFileRevisionOutput identifies a newly persisted revision.
type CreateFileRevisionOutput struct {
	FileRevisionID     int64 `json:"file_revision_id"`
	FileRevisionNumber int32 `json:"file_revision_number"`
}

// CreateTombstoneFileRevision is the input of CreateTombstone.
type CreateTombstoneFileRevision struct {
	SiteID         int64          `json:"site_id"`
	Key            model.OwnerKey `json:"key"`
	UserID         int64          `json:"user_id"`
	LastRevisionID int64          `json:"last_revision_id"`
	Comments       string         `json:"comments"`
}

// CreateResurrectionFileRevision is the input of CreateResurrection.
// NewPageID and NewName default to the values before deletion.
type CreateResurrectionFileRevision struct {
	SiteID         int64               `json:"site_id"`
	Key            model.OwnerKey      `json:"key"`
	UserID         int64               `json:"user_id"`
	LastRevisionID int64               `json:"last_revision_id"`
	NewPageID      model.Maybe[int64]  `json:"new_page_id"`
	NewName        model.Maybe[string] `json:"new_name"`
	Comments       string              `json:"comments"`
}

// UpdateFileRevision is the input of HideRevision.
type UpdateFileRevision struct {
	Key            model.OwnerKey `json:"key"`
	RevisionID     int64          `json:"revision_id"`
	UserID         int64          `json:"user_id"`
	LastRevisionID int64          `json:"last_revision_id"`
	Hidden         []string       `json:"hidden"`
}

// CreateFirst creates revision 0 of a new file.
//
// Fails with CONFLICT if the file id already has history. The outdating
// cascade runs in its displace form, since the file did not previously
// occupy a slot on the page.
func (s *Service) CreateFirst(ctx context.Context, scope Scope, in CreateFirstFileRevision) (*CreateFirstFileRevisionOutput, error) {
	const op = "create_first"

	fileID := in.FileID
	if fileID == "" {
		fileID = s.fileIDs.Generate()
	}

	var head *model.RevisionRecord
	existing, err := scope.Revisions.LatestRevision(ctx, fileID)
	switch {
	case err == nil:
		head = &existing
	case !errors.Is(err, model.ErrNotFound):
		return nil, err
	}
	if err := checkTransition(fileID, head, model.RevisionCreate); err != nil {
		return nil, s.reject(op, err)
	}

	licensing, err := model.NewLicensing(in.Licensing)
	if err != nil {
		return nil, s.reject(op, NewBadRequestError(fileID, "licensing", err.Error()))
	}
	snapshot := model.Snapshot{
		PageID:    in.PageID,
		Name:      in.Name,
		Blob:      in.Blob,
		Licensing: licensing,
	}
	if err := validateSnapshot(fileID, snapshot, s.maxNameBytes); err != nil {
		return nil, s.reject(op, err)
	}

	if err := s.outdate(ctx, scope, cascadeDisplace, fileID, in.SiteID, in.PageID); err != nil {
		return nil, s.reject(op, err)
	}

	rec, err := scope.Revisions.InsertRevision(ctx, model.RevisionRecord{
		RevisionType:   model.RevisionCreate,
		RevisionNumber: 0,
		CreatedAt:      s.clock.Now(),
		SiteID:         in.SiteID,
		FileID:         fileID,
		UserID:         in.UserID,
		Snapshot:       snapshot,
		Changes:        model.AllChanges(),
		Comments:       in.Comments,
	})
	if err != nil {
		return nil, err
	}
	s.persisted(scope, rec)

	return &CreateFirstFileRevisionOutput{
		FileID:         fileID,
		FileRevisionID: rec.RevisionID,
	}, nil
}

// CreateUpdate records an edit to a live file.
//
// Returns (nil, nil) when every provided field equals the head: nothing is
// persisted and no cascade runs. Otherwise the new snapshot is validated and
// the edit cascade is addressed to the file's (possibly new) page.
func (s *Service) CreateUpdate(ctx context.Context, scope Scope, in CreateFileRevision) (*CreateFileRevisionOutput, error) {
	const op = "create_update"

	head, number, err := s.prepare(ctx, scope, in.SiteID, in.Key, in.LastRevisionID, model.RevisionUpdate)
	if err != nil {
		return nil, s.reject(op, err)
	}

	changes, snapshot, err := ComputeChanges(head.Snapshot, in.Body)
	if err != nil {
		return nil, s.reject(op, NewBadRequestError(in.Key.FileID, "licensing", err.Error()))
	}

	if len(changes) == 0 {
		s.metrics.RecordNoop()
		s.logger.Debug().
			Str("file_id", in.Key.FileID).
			Int64("head_revision_id", head.RevisionID).
			Msg("no changes, revision not created")
		return nil, nil
	}

	if err := validateSnapshot(in.Key.FileID, snapshot, s.maxNameBytes); err != nil {
		return nil, s.reject(op, err)
	}

	if err := s.outdate(ctx, scope, cascadeEdit, in.Key.FileID, in.SiteID, snapshot.PageID); err != nil {
		return nil, s.reject(op, err)
	}

	rec, err := scope.Revisions.InsertRevision(ctx, model.RevisionRecord{
		RevisionType:   model.RevisionUpdate,
		RevisionNumber: number,
		CreatedAt:      s.clock.Now(),
		SiteID:         in.SiteID,
		FileID:         in.Key.FileID,
		UserID:         in.UserID,
		Snapshot:       snapshot,
		Changes:        changes,
		Comments:       in.Comments,
	})
	if err != nil {
		return nil, err
	}
	s.persisted(scope, rec)

	return &CreateFileRevisionOutput{
		FileRevisionID:     rec.RevisionID,
		FileRevisionNumber: rec.RevisionNumber,
	}, nil
}

// CreateTombstone marks a live file deleted.
//
// The tombstone carries the previous snapshot forward unchanged and has an
// empty change set. The page it lived on gets the edit cascade.
func (s *Service) CreateTombstone(ctx context.Context, scope Scope, in CreateTombstoneFileRevision) (*CreateFileRevisionOutput, error) {
	const op = "create_tombstone"

	head, number, err := s.prepare(ctx, scope, in.SiteID, in.Key, in.LastRevisionID, model.RevisionDelete)
	if err != nil {
		return nil, s.reject(op, err)
	}

	if err := s.outdate(ctx, scope, cascadeEdit, in.Key.FileID, in.SiteID, head.PageID); err != nil {
		return nil, s.reject(op, err)
	}

	rec, err := scope.Revisions.InsertRevision(ctx, model.RevisionRecord{
		RevisionType:   model.RevisionDelete,
		RevisionNumber: number,
		CreatedAt:      s.clock.Now(),
		SiteID:         in.SiteID,
		FileID:         in.Key.FileID,
		UserID:         in.UserID,
		Snapshot:       head.Snapshot,
		Changes:        []model.ChangeField{},
		Comments:       in.Comments,
	})
	if err != nil {
		return nil, err
	}
	s.persisted(scope, rec)

	return &CreateFileRevisionOutput{
		FileRevisionID:     rec.RevisionID,
		FileRevisionNumber: rec.RevisionNumber,
	}, nil
}

// CreateResurrection restores a tombstoned file, optionally onto another
// page or under another name.
//
// The caller is responsible for checking that the destination page is a
// valid target and that the name does not collide there. Only page and name
// may appear in the change set; everything else carries forward.
func (s *Service) CreateResurrection(ctx context.Context, scope Scope, in CreateResurrectionFileRevision) (*CreateFileRevisionOutput, error) {
	const op = "create_resurrection"

	head, number, err := s.prepare(ctx, scope, in.SiteID, in.Key, in.LastRevisionID, model.RevisionUndelete)
	if err != nil {
		return nil, s.reject(op, err)
	}

	snapshot := head.Snapshot
	snapshot.PageID = in.NewPageID.Or(head.PageID)
	snapshot.Name = in.NewName.Or(head.Name)

	changes := []model.ChangeField{}
	if snapshot.PageID != head.PageID {
		changes = append(changes, model.ChangePage)
	}
	if snapshot.Name != head.Name {
		changes = append(changes, model.ChangeName)
	}

	if err := validateSnapshot(in.Key.FileID, snapshot, s.maxNameBytes); err != nil {
		return nil, s.reject(op, err)
	}

	if err := s.outdate(ctx, scope, cascadeEdit, in.Key.FileID, in.SiteID, snapshot.PageID); err != nil {
		return nil, s.reject(op, err)
	}

	rec, err := scope.Revisions.InsertRevision(ctx, model.RevisionRecord{
		RevisionType:   model.RevisionUndelete,
		RevisionNumber: number,
		CreatedAt:      s.clock.Now(),
		SiteID:         in.SiteID,
		FileID:         in.Key.FileID,
		UserID:         in.UserID,
		Snapshot:       snapshot,
		Changes:        changes,
		Comments:       in.Comments,
	})
	if err != nil {
		return nil, err
	}
	s.persisted(scope, rec)

	return &CreateFileRevisionOutput{
		FileRevisionID:     rec.RevisionID,
		FileRevisionNumber: rec.RevisionNumber,
	}, nil
}

// HideRevision replaces the hidden field set of a non-head revision.
//
// Revisions are immutable except for this set, which lets abusive content
// in old revisions be redacted. The head can never be hidden; it has to be
// superseded first. Applying the same set twice is harmless.
func (s *Service) HideRevision(ctx context.Context, scope Scope, in UpdateFileRevision) error {
	const op = "hide_revision"

	head, err := s.latest(ctx, scope, in.Key)
	if err != nil {
		return s.reject(op, err)
	}
	if err := checkHideTarget(head, in.RevisionID); err != nil {
		return s.reject(op, err)
	}
	if err := checkLastRevision(head, in.LastRevisionID); err != nil {
		return s.reject(op, err)
	}

	target, err := scope.Revisions.RevisionByID(ctx, in.RevisionID)
	if errors.Is(err, model.ErrNotFound) || (err == nil && target.FileID != in.Key.FileID) {
		return s.reject(op, NewNotFoundError(in.Key.FileID, "revision "+formatInt(in.RevisionID)+" does not belong to this file", err))
	}
	if err != nil {
		return err
	}

	hidden, err := model.NormalizeHidden(in.Hidden)
	if err != nil {
		return s.reject(op, NewBadRequestError(in.Key.FileID, "hidden", err.Error()))
	}

	if err := scope.Revisions.SetHidden(ctx, in.RevisionID, hidden); err != nil {
		return err
	}

	scope.afterCommit(s.metrics.RecordHidden)
	s.logger.Info().
		Str("file_id", in.Key.FileID).
		Int64("revision_id", in.RevisionID).
		Int64("user_id", in.UserID).
		Int("hidden_fields", len(hidden)).
		Msg("revision hidden fields updated")
	return nil
}

// prepare runs the checks shared by every transition on an existing file:
// head lookup, site match, optimistic lock, transition table and numbering.
func (s *Service) prepare(
	ctx context.Context,
	scope Scope,
	siteID int64,
	key model.OwnerKey,
	lastRevisionID int64,
	next model.RevisionType,
) (model.RevisionRecord, int32, error) {
	head, err := s.latest(ctx, scope, key)
	if err != nil {
		return model.RevisionRecord{}, 0, err
	}
	if head.SiteID != siteID {
		return model.RevisionRecord{}, 0, NewNotFoundError(key.FileID, "file does not belong to site "+formatInt(siteID), nil)
	}
	if err := checkLastRevision(head, lastRevisionID); err != nil {
		return model.RevisionRecord{}, 0, err
	}
	if err := checkTransition(key.FileID, &head, next); err != nil {
		return model.RevisionRecord{}, 0, err
	}
	number, err := nextRevisionNumber(head, key)
	if err != nil {
		return model.RevisionRecord{}, 0, err
	}
	return head, number, nil
}
