package revision

import (
	"context"
	"math"

	"github.com/roach88/revlog/internal/model"
)

// GetRevisionRange is the input of GetRange.
type GetRevisionRange struct {
	Key model.OwnerKey `json:"key"`

	// RevisionNumber is the anchor. A negative anchor means "most recent".
	RevisionNumber int32                `json:"revision_number"`
	Direction      model.FetchDirection `json:"direction"`
	Limit          uint64               `json:"limit"`
}

// GetLatest returns the head revision of the file addressed by key.
func (s *Service) GetLatest(ctx context.Context, scope Scope, key model.OwnerKey) (model.RevisionRecord, error) {
	return s.latest(ctx, scope, key)
}

// GetOptional returns revision number of the file addressed by key, or nil
// when the file or that revision does not exist.
func (s *Service) GetOptional(ctx context.Context, scope Scope, key model.OwnerKey, number int32) (*model.RevisionRecord, error) {
	if _, err := s.latest(ctx, scope, key); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return scope.Revisions.RevisionAt(ctx, key.FileID, number)
}

// Get is GetOptional failing with NOT_FOUND instead of returning nil.
func (s *Service) Get(ctx context.Context, scope Scope, key model.OwnerKey, number int32) (model.RevisionRecord, error) {
	rec, err := s.GetOptional(ctx, scope, key, number)
	if err != nil {
		return model.RevisionRecord{}, err
	}
	if rec == nil {
		return model.RevisionRecord{}, NewNotFoundError(key.FileID, "revision "+formatInt(int64(number))+" does not exist", nil)
	}
	return *rec, nil
}

// Exists reports whether revision number of the file addressed by key exists.
func (s *Service) Exists(ctx context.Context, scope Scope, key model.OwnerKey, number int32) (bool, error) {
	rec, err := s.GetOptional(ctx, scope, key, number)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Count returns the extent of the file's history. A file with no
// revisions does not exist, so Count never reports zero.
func (s *Service) Count(ctx context.Context, scope Scope, key model.OwnerKey) (model.RevisionCount, error) {
	if _, err := s.latest(ctx, scope, key); err != nil {
		return model.RevisionCount{}, err
	}

	n, err := scope.Revisions.CountRevisions(ctx, key.FileID)
	if err != nil {
		return model.RevisionCount{}, err
	}
	if n == 0 {
		return model.RevisionCount{}, NewNotFoundError(key.FileID, "file has no revisions", nil)
	}
	if n > math.MaxInt32 {
		return model.RevisionCount{}, NewInternalError(key.FileID, "revision count exceeds revision number space")
	}
	return model.NewRevisionCount(int32(n)), nil
}

// GetRange returns revisions on one side of an anchor, inclusive.
//
// Results are always ascending by revision number and hold at most Limit
// rows (further capped by WithMaxRangeLimit). The cap keeps the lowest
// numbers, so a Before read with a small limit returns the oldest rows at
// or below the anchor. An unknown file yields an empty result.
func (s *Service) GetRange(ctx context.Context, scope Scope, in GetRevisionRange) ([]model.RevisionRecord, error) {
	direction, err := model.ParseFetchDirection(string(in.Direction))
	if err != nil {
		return nil, NewBadRequestError(in.Key.FileID, "direction", err.Error())
	}

	if _, err := s.latest(ctx, scope, in.Key); err != nil {
		if IsNotFound(err) {
			return []model.RevisionRecord{}, nil
		}
		return nil, err
	}

	anchor := in.RevisionNumber
	if anchor < 0 {
		anchor = math.MaxInt32
	}

	limit := in.Limit
	if s.maxRangeLimit > 0 && limit > s.maxRangeLimit {
		limit = s.maxRangeLimit
	}

	return scope.Revisions.RevisionRange(ctx, in.Key.FileID, anchor, direction, limit)
}
