package revision

import (
	"strconv"

	"github.com/roach88/revlog/internal/model"
)

// checkLastRevision is the optimistic lock. The caller's token must be the
// id of the head read inside this same transaction.
func checkLastRevision(head model.RevisionRecord, lastRevisionID int64) error {
	if head.RevisionID != lastRevisionID {
		return NewStaleRevisionError(head.FileID, lastRevisionID, head.RevisionID)
	}
	return nil
}

// checkHideTarget rejects redaction of the head. The head is the live,
// visible state of the file and must be superseded before it can be hidden.
func checkHideTarget(head model.RevisionRecord, revisionID int64) error {
	if head.RevisionID == revisionID {
		return NewCannotHideLatestError(head.FileID, revisionID)
	}
	return nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
