package revision

import (
	"bytes"
	"fmt"

	"github.com/roach88/revlog/internal/model"
)

// FileRevisionBody is a partial update to a file. Unset fields are left as
// they are on the head; set fields are compared against it.
type FileRevisionBody struct {
	PageID    model.Maybe[int64]           `json:"page_id"`
	Name      model.Maybe[string]          `json:"name"`
	Blob      model.Maybe[model.Blob]      `json:"blob"`
	Licensing model.Maybe[model.Licensing] `json:"licensing"`
}

// ComputeChanges compares body against the current snapshot.
//
// It returns the fields that actually differ, in model.ChangeOrder, and the
// snapshot with those new values adopted. The order of the result does not
// depend on how the request was written. An empty change set means the
// update is a no-op.
func ComputeChanges(current model.Snapshot, body FileRevisionBody) ([]model.ChangeField, model.Snapshot, error) {
	changes := []model.ChangeField{}
	next := current

	if pageID, ok := body.PageID.Get(); ok && pageID != current.PageID {
		changes = append(changes, model.ChangePage)
		next.PageID = pageID
	}

	if name, ok := body.Name.Get(); ok && name != current.Name {
		changes = append(changes, model.ChangeName)
		next.Name = name
	}

	if blob, ok := body.Blob.Get(); ok && !blobEqual(blob, current.Blob) {
		changes = append(changes, model.ChangeBlob)
		next.Blob = blob
	}

	if licensing, ok := body.Licensing.Get(); ok {
		same, err := licensing.Equal(current.Licensing)
		if err != nil {
			return nil, model.Snapshot{}, fmt.Errorf("compare licensing: %w", err)
		}
		if !same {
			canonical, err := licensing.Canonical()
			if err != nil {
				return nil, model.Snapshot{}, fmt.Errorf("compare licensing: %w", err)
			}
			changes = append(changes, model.ChangeLicensing)
			next.Licensing = model.Licensing(canonical)
		}
	}

	return changes, next, nil
}

// blobEqual compares hash, size and MIME hint as one unit.
func blobEqual(a, b model.Blob) bool {
	return bytes.Equal(a.Hash, b.Hash) &&
		a.SizeHint == b.SizeHint &&
		a.MimeHint == b.MimeHint
}
