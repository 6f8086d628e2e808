package revision

import (
	"math"
	"slices"

	"github.com/roach88/revlog/internal/model"
)

// DefaultMaxNameBytes is the exclusive upper bound on a file name's length in bytes.
const DefaultMaxNameBytes = 256

// headNone labels the state of a file that has no revisions yet.
const headNone = "none"

// transitions maps the current head state to the revision types that may follow it.
//
//	none      -> create
//	create    -> update, delete
//	update    -> update, delete
//	delete    -> undelete
//	undelete  -> update, delete
var transitions = map[string][]model.RevisionType{
	headNone:                       {model.RevisionCreate},
	string(model.RevisionCreate):   {model.RevisionUpdate, model.RevisionDelete},
	string(model.RevisionUpdate):   {model.RevisionUpdate, model.RevisionDelete},
	string(model.RevisionDelete):   {model.RevisionUndelete},
	string(model.RevisionUndelete): {model.RevisionUpdate, model.RevisionDelete},
}

// checkTransition rejects a revision type that may not follow the current head.
// head is nil when the file has no revisions.
func checkTransition(fileID string, head *model.RevisionRecord, next model.RevisionType) error {
	from := headNone
	if head != nil {
		from = string(head.RevisionType)
	}
	if !slices.Contains(transitions[from], next) {
		return NewTransitionError(fileID, from, string(next))
	}
	return nil
}

// nextRevisionNumber derives the number of the revision following previous.
//
// previous must be the head of the file addressed by key. A mismatch means
// the caller fetched the wrong revision; it is reported as INTERNAL rather
// than silently renumbered.
func nextRevisionNumber(previous model.RevisionRecord, key model.OwnerKey) (int32, error) {
	if previous.FileID != key.FileID {
		err := NewInternalError(key.FileID, "previous revision has an inconsistent file id")
		err.Details = map[string]string{"previous_file_id": previous.FileID}
		return 0, err
	}
	if previous.PageID != key.PageID {
		err := NewInternalError(key.FileID, "previous revision has an inconsistent page id")
		err.Details = map[string]string{"previous_page_id": formatInt(previous.PageID)}
		return 0, err
	}
	if previous.RevisionNumber == math.MaxInt32 {
		return 0, NewInternalError(key.FileID, "revision number space exhausted")
	}
	return previous.RevisionNumber + 1, nil
}

// validateSnapshot checks the fields a visible revision must satisfy.
func validateSnapshot(fileID string, snap model.Snapshot, maxNameBytes int) error {
	if snap.Name == "" || len(snap.Name) >= maxNameBytes {
		return NewBadRequestError(fileID, "name", "file name of invalid length: "+formatInt(int64(len(snap.Name))))
	}
	if snap.Blob.MimeHint == "" {
		return NewBadRequestError(fileID, "mime", "MIME type hint is empty")
	}
	return nil
}
