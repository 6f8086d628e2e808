package model

import (
	"errors"
	"fmt"
	"time"
)

// RevisionType identifies the lifecycle transition that produced a revision.
type RevisionType string

const (
	RevisionCreate   RevisionType = "create"
	RevisionUpdate   RevisionType = "update"
	RevisionDelete   RevisionType = "delete"
	RevisionUndelete RevisionType = "undelete"
)

// Valid reports whether t is one of the four known revision types.
func (t RevisionType) Valid() bool {
	switch t {
	case RevisionCreate, RevisionUpdate, RevisionDelete, RevisionUndelete:
		return true
	}
	return false
}

// ParseRevisionType converts a stored string back to a RevisionType.
func ParseRevisionType(s string) (RevisionType, error) {
	t := RevisionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown revision type %q", s)
	}
	return t, nil
}

// OwnerKey addresses one entity: a file within its containing page.
//
// FileID is globally unique, so history is stored against it alone. PageID
// is the page the caller believes the file currently lives on; reads whose
// PageID no longer matches the head's page treat the file as absent.
type OwnerKey struct {
	PageID int64  `json:"page_id"`
	FileID string `json:"file_id"`
}

func (k OwnerKey) String() string {
	return fmt.Sprintf("page=%d file=%s", k.PageID, k.FileID)
}

// Blob is the content reference of a file. Hash, size and MIME hint always
// change together and are tracked as a single change tag.
type Blob struct {
	Hash     []byte `json:"hash"`
	SizeHint int64  `json:"size_hint"`
	MimeHint string `json:"mime_hint"`
}

// Snapshot is the full visible state of a file at one revision.
type Snapshot struct {
	PageID    int64     `json:"page_id"`
	Name      string    `json:"name"`
	Blob      Blob      `json:"blob"`
	Licensing Licensing `json:"licensing"`
}

// RevisionRecord is one immutable row in the revision log.
// Only Hidden may change after insertion.
type RevisionRecord struct {
	RevisionID     int64        `json:"revision_id"`
	RevisionType   RevisionType `json:"revision_type"`
	RevisionNumber int32        `json:"revision_number"`
	CreatedAt      time.Time    `json:"created_at"`
	SiteID         int64        `json:"site_id"`
	FileID         string       `json:"file_id"`
	UserID         int64        `json:"user_id"`
	Snapshot
	Changes  []ChangeField `json:"changes"`
	Hidden   []HiddenField `json:"hidden"`
	Comments string        `json:"comments"`
}

// Key returns the owner key this revision is addressed by.
func (r RevisionRecord) Key() OwnerKey {
	return OwnerKey{PageID: r.PageID, FileID: r.FileID}
}

// IsTombstone reports whether this revision marks the file as deleted.
func (r RevisionRecord) IsTombstone() bool {
	return r.RevisionType == RevisionDelete
}

// RevisionCount summarises the extent of a file's history.
type RevisionCount struct {
	RevisionCount int32 `json:"revision_count"`
	FirstRevision int32 `json:"first_revision"`
	LastRevision  int32 `json:"last_revision"`
}

// NewRevisionCount builds the count output for a non-zero row count.
func NewRevisionCount(count int32) RevisionCount {
	return RevisionCount{
		RevisionCount: count,
		FirstRevision: 0,
		LastRevision:  count - 1,
	}
}

// ErrNotFound is returned by storage lookups when no row matches.
var ErrNotFound = errors.New("not found")
