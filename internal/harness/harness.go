package harness

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/roach88/revlog/internal/app"
	"github.com/roach88/revlog/internal/model"
	"github.com/roach88/revlog/internal/revision"
	"github.com/roach88/revlog/internal/store"
	"github.com/roach88/revlog/internal/testutil"
)

// scenarioEpoch is the first timestamp handed out in every scenario.
var scenarioEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness executes one scenario against its own store.
type Harness struct {
	app    *app.App
	siteID int64
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with a
// deterministic clock so results are reproducible.
//
// Execution flow:
//  1. Create fresh in-memory database and register pages
//  2. Execute flow steps, comparing each outcome with its expectation
//  3. Collect histories and pending outdate jobs
//  4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(scenario, zerolog.Nop())
}

// RunWithLogger is Run with service logging sent to logger.
func RunWithLogger(scenario *Scenario, logger zerolog.Logger) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	h := &Harness{
		app: app.New(st, app.Options{
			Logger: logger,
			Clock:  testutil.NewDeterministicClock(scenarioEpoch, time.Second),
		}),
		siteID: scenario.SiteID,
	}
	defer h.app.Close()

	ctx := context.Background()

	if err := h.registerPages(ctx, scenario.Pages); err != nil {
		return nil, fmt.Errorf("failed to register pages: %w", err)
	}

	result := NewResult()
	files := []string{}
	for i, step := range scenario.Flow {
		outcome, err := h.executeStep(ctx, i, step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d] %s %s: %w", i, step.Op, step.File, err)
		}
		result.Steps = append(result.Steps, outcome)

		expect := step.Expect
		if expect == "" {
			expect = OutcomeOK
		}
		if outcome.Outcome != expect {
			result.AddError(fmt.Sprintf("flow[%d] %s %s: expected %s, got %s", i, step.Op, step.File, expect, outcome.Outcome))
		}

		if !slices.Contains(files, step.File) {
			files = append(files, step.File)
		}
	}

	if err := h.collect(ctx, files, result); err != nil {
		return nil, fmt.Errorf("failed to collect histories: %w", err)
	}

	for _, msg := range h.evaluateAssertions(ctx, scenario.Assertions, result) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) registerPages(ctx context.Context, pages []PageSpec) error {
	return h.app.Do(ctx, func(ctx context.Context, _ revision.Scope, tx *store.Tx) error {
		for _, p := range pages {
			if err := tx.PutPage(ctx, store.Page{PageID: p.PageID, SiteID: h.siteID, Slug: p.Slug}); err != nil {
				return err
			}
		}
		return nil
	})
}

// executeStep runs one step in its own transaction. Rejections by the
// service become outcomes; anything else is an execution error.
func (h *Harness) executeStep(ctx context.Context, index int, step Step) (StepOutcome, error) {
	outcome := StepOutcome{Index: index, Op: step.Op, File: step.File, Outcome: OutcomeOK}
	svc := h.app.Service()

	err := h.app.Do(ctx, func(ctx context.Context, scope revision.Scope, tx *store.Tx) error {
		if step.Op == OpCreate {
			in, err := h.createInput(step)
			if err != nil {
				return err
			}
			if _, err := svc.CreateFirst(ctx, scope, in); err != nil {
				return err
			}
			zero := int32(0)
			outcome.RevisionNumber = &zero
			return nil
		}

		key, token, err := h.address(ctx, tx, step)
		if err != nil {
			return err
		}

		var out *revision.CreateFileRevisionOutput
		switch step.Op {
		case OpUpdate:
			body, err := updateBody(step)
			if err != nil {
				return err
			}
			out, err = svc.CreateUpdate(ctx, scope, revision.CreateFileRevision{
				SiteID:         h.siteID,
				Key:            key,
				UserID:         step.User,
				LastRevisionID: token,
				Comments:       step.Comments,
				Body:           body,
			})
			if err != nil {
				return err
			}
			if out == nil {
				outcome.Outcome = OutcomeNoop
			}

		case OpDelete:
			out, err = svc.CreateTombstone(ctx, scope, revision.CreateTombstoneFileRevision{
				SiteID:         h.siteID,
				Key:            key,
				UserID:         step.User,
				LastRevisionID: token,
				Comments:       step.Comments,
			})
			if err != nil {
				return err
			}

		case OpRestore:
			in := revision.CreateResurrectionFileRevision{
				SiteID:         h.siteID,
				Key:            key,
				UserID:         step.User,
				LastRevisionID: token,
				Comments:       step.Comments,
			}
			if step.NewPage != nil {
				in.NewPageID = model.Set(*step.NewPage)
			}
			if step.Name != nil {
				in.NewName = model.Set(*step.Name)
			}
			out, err = svc.CreateResurrection(ctx, scope, in)
			if err != nil {
				return err
			}

		case OpHide:
			var targetID int64
			target, err := tx.RevisionAt(ctx, step.File, *step.Revision)
			if err != nil {
				return err
			}
			if target != nil {
				targetID = target.RevisionID
			}
			hidden := step.Hidden
			if hidden == nil {
				hidden = []string{}
			}
			return svc.HideRevision(ctx, scope, revision.UpdateFileRevision{
				Key:            key,
				RevisionID:     targetID,
				UserID:         step.User,
				LastRevisionID: token,
				Hidden:         hidden,
			})
		}

		if out != nil {
			n := out.FileRevisionNumber
			outcome.RevisionNumber = &n
		}
		return nil
	})

	if code := revision.CodeOf(err); code != "" {
		outcome.Outcome = string(code)
		outcome.RevisionNumber = nil
		return outcome, nil
	}
	return outcome, err
}

func (h *Harness) createInput(step Step) (revision.CreateFirstFileRevision, error) {
	blob, err := step.Blob.blob()
	if err != nil {
		return revision.CreateFirstFileRevision{}, err
	}
	licensing, err := licensingJSON(step.Licensing)
	if err != nil {
		return revision.CreateFirstFileRevision{}, err
	}
	return revision.CreateFirstFileRevision{
		SiteID:    h.siteID,
		PageID:    step.Page,
		FileID:    step.File,
		UserID:    step.User,
		Name:      *step.Name,
		Blob:      blob,
		Licensing: licensing,
		Comments:  step.Comments,
	}, nil
}

// address resolves the owner key and lock token of a step from the file's
// current head. Unknown files get key (step.Page, file) and token 0.
func (h *Harness) address(ctx context.Context, tx *store.Tx, step Step) (model.OwnerKey, int64, error) {
	key := model.OwnerKey{PageID: step.Page, FileID: step.File}

	head, err := tx.LatestRevision(ctx, step.File)
	if errors.Is(err, model.ErrNotFound) {
		return key, 0, nil
	}
	if err != nil {
		return model.OwnerKey{}, 0, err
	}

	if key.PageID == 0 {
		key.PageID = head.PageID
	}

	token := head.RevisionID
	if step.Token == "stale" {
		token = 0
		if head.RevisionNumber > 0 {
			prev, err := tx.RevisionAt(ctx, step.File, head.RevisionNumber-1)
			if err != nil {
				return model.OwnerKey{}, 0, err
			}
			if prev != nil {
				token = prev.RevisionID
			}
		}
	}
	return key, token, nil
}

func updateBody(step Step) (revision.FileRevisionBody, error) {
	var body revision.FileRevisionBody
	if step.NewPage != nil {
		body.PageID = model.Set(*step.NewPage)
	}
	if step.Name != nil {
		body.Name = model.Set(*step.Name)
	}
	if step.Blob != nil {
		blob, err := step.Blob.blob()
		if err != nil {
			return body, err
		}
		body.Blob = model.Set(blob)
	}
	if step.Licensing != nil {
		licensing, err := licensingJSON(step.Licensing)
		if err != nil {
			return body, err
		}
		body.Licensing = model.Set(licensing)
	}
	return body, nil
}

func (b *BlobSpec) blob() (model.Blob, error) {
	hash, err := hex.DecodeString(b.Hash)
	if err != nil {
		return model.Blob{}, fmt.Errorf("blob hash: %w", err)
	}
	return model.Blob{Hash: hash, SizeHint: b.Size, MimeHint: b.Mime}, nil
}

func licensingJSON(m map[string]any) (model.Licensing, error) {
	if m == nil {
		return model.Licensing("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("licensing: %w", err)
	}
	return model.Licensing(data), nil
}

// collect reads every touched file's full history and the pending jobs.
func (h *Harness) collect(ctx context.Context, files []string, result *Result) error {
	return h.app.Do(ctx, func(ctx context.Context, _ revision.Scope, tx *store.Tx) error {
		for _, file := range files {
			history, err := fullHistory(ctx, tx, file)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				continue
			}
			entries := make([]HistoryEntry, len(history))
			for i, rec := range history {
				entries[i] = historyEntry(rec)
			}
			result.Histories[file] = entries
		}

		jobs, err := tx.ListOutdateJobs(ctx, h.siteID)
		if err != nil {
			return err
		}
		for _, job := range jobs {
			result.Outdated = append(result.Outdated, OutdateEntry{Kind: job.Kind, PageID: job.PageID, Slug: job.Slug})
		}
		return nil
	})
}

// fullHistory reads a file's history without page addressing.
func fullHistory(ctx context.Context, tx *store.Tx, file string) ([]model.RevisionRecord, error) {
	return tx.RevisionRange(ctx, file, 0, model.FetchAfter, 1<<31)
}

func historyEntry(rec model.RevisionRecord) HistoryEntry {
	changes := make([]string, len(rec.Changes))
	for i, c := range rec.Changes {
		changes[i] = string(c)
	}
	hidden := make([]string, len(rec.Hidden))
	for i, f := range rec.Hidden {
		hidden[i] = string(f)
	}
	return HistoryEntry{
		Number:  rec.RevisionNumber,
		Type:    string(rec.RevisionType),
		PageID:  rec.PageID,
		Name:    rec.Name,
		Changes: changes,
		Hidden:  hidden,
	}
}
