package cli

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/revlog/internal/app"
	"github.com/roach88/revlog/internal/model"
	"github.com/roach88/revlog/internal/revision"
	"github.com/roach88/revlog/internal/store"
)

// RangeOptions holds flags for the revision range command.
type RangeOptions struct {
	*RootOptions
	Anchor    int32
	Direction string
	Limit     uint64
}

// HideOptions holds flags for the revision hide command.
type HideOptions struct {
	*RootOptions
	UserID         int64
	LastRevisionID int64
	Fields         []string
}

// NewRevisionCommand creates the revision command group.
func NewRevisionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revision",
		Short: "Read and redact file revisions",
	}

	cmd.AddCommand(newRevisionLatestCommand(rootOpts))
	cmd.AddCommand(newRevisionGetCommand(rootOpts))
	cmd.AddCommand(newRevisionCountCommand(rootOpts))
	cmd.AddCommand(newRevisionRangeCommand(rootOpts))
	cmd.AddCommand(newRevisionHideCommand(rootOpts))

	return cmd
}

// parseKey parses the <page-id> <file-id> argument pair.
func parseKey(args []string) (model.OwnerKey, error) {
	pageID, err := parseID("page-id", args[0])
	if err != nil {
		return model.OwnerKey{}, err
	}
	return model.OwnerKey{PageID: pageID, FileID: args[1]}, nil
}

func newRevisionLatestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "latest <page-id> <file-id>",
		Short:         "Show the head revision of a file",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return rootOpts.formatter(cmd).Fail(ErrCodeBadArgs, err)
			}

			var rec model.RevisionRecord
			err = rootOpts.withTx(cmd, func(ctx context.Context, a *app.App, scope revision.Scope, _ *store.Tx) error {
				var err error
				rec, err = a.Service().GetLatest(ctx, scope, key)
				return err
			})
			if err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Emit(rec, formatRevision(rec))
		},
	}
}

func newRevisionGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "get <page-id> <file-id> <revision-number>",
		Short:         "Show one revision of a file",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.formatter(cmd)
			key, err := parseKey(args)
			if err != nil {
				return f.Fail(ErrCodeBadArgs, err)
			}
			number, err := parseRevisionNumber(args[2])
			if err != nil {
				return f.Fail(ErrCodeBadArgs, err)
			}

			var rec model.RevisionRecord
			err = rootOpts.withTx(cmd, func(ctx context.Context, a *app.App, scope revision.Scope, _ *store.Tx) error {
				var err error
				rec, err = a.Service().Get(ctx, scope, key, number)
				return err
			})
			if err != nil {
				return err
			}
			return f.Emit(rec, formatRevision(rec))
		},
	}
}

func newRevisionCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "count <page-id> <file-id>",
		Short:         "Count the revisions of a file",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return rootOpts.formatter(cmd).Fail(ErrCodeBadArgs, err)
			}

			var count model.RevisionCount
			err = rootOpts.withTx(cmd, func(ctx context.Context, a *app.App, scope revision.Scope, _ *store.Tx) error {
				var err error
				count, err = a.Service().Count(ctx, scope, key)
				return err
			})
			if err != nil {
				return err
			}
			return rootOpts.formatter(cmd).Emit(count, fmt.Sprintf("%d revisions (%d..%d)\n",
				count.RevisionCount, count.FirstRevision, count.LastRevision))
		},
	}
}

func newRevisionRangeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RangeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "range <page-id> <file-id>",
		Short: "List a window of revisions",
		Long: `List revisions on one side of an anchor revision number.

--direction before lists revisions numbered at most the anchor; after lists
revisions numbered at least the anchor. A negative anchor means the newest
revision. Results are in ascending order.`,
		Example: `  revlog revision range 10 0190c0de-... --anchor -1 --direction before --limit 20
  revlog revision range 10 0190c0de-... --anchor 3 --direction after`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args)
			if err != nil {
				return opts.formatter(cmd).Fail(ErrCodeBadArgs, err)
			}
			return runRevisionRange(opts, key, cmd)
		},
	}

	cmd.Flags().Int32Var(&opts.Anchor, "anchor", -1, "anchor revision number (negative for newest)")
	cmd.Flags().StringVar(&opts.Direction, "direction", "before", "before|after")
	cmd.Flags().Uint64Var(&opts.Limit, "limit", 20, "maximum revisions to list")

	return cmd
}

func runRevisionRange(opts *RangeOptions, key model.OwnerKey, cmd *cobra.Command) error {
	in := revision.GetRevisionRange{
		Key:            key,
		RevisionNumber: opts.Anchor,
		Direction:      model.FetchDirection(opts.Direction),
		Limit:          opts.Limit,
	}

	var recs []model.RevisionRecord
	err := opts.withTx(cmd, func(ctx context.Context, a *app.App, scope revision.Scope, _ *store.Tx) error {
		var err error
		recs, err = a.Service().GetRange(ctx, scope, in)
		return err
	})
	if err != nil {
		return err
	}

	var text strings.Builder
	if len(recs) == 0 {
		text.WriteString("no revisions\n")
	}
	for _, rec := range recs {
		text.WriteString(formatRevision(rec))
	}
	return opts.formatter(cmd).Emit(recs, text.String())
}

func newRevisionHideCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HideOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hide <page-id> <file-id> <revision-id>",
		Short: "Redact fields of a past revision",
		Long: `Replace the hidden field set of a revision.

The head revision cannot be hidden. Passing no --field clears the set.
Valid fields: name, blob, mime, licensing, comments, user.`,
		Example: `  revlog revision hide 10 0190c0de-... 7 --last-revision 9 --field name --field user`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			key, err := parseKey(args)
			if err != nil {
				return f.Fail(ErrCodeBadArgs, err)
			}
			revisionID, err := parseID("revision-id", args[2])
			if err != nil {
				return f.Fail(ErrCodeBadArgs, err)
			}
			return runRevisionHide(opts, key, revisionID, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "id of the acting user")
	cmd.Flags().Int64Var(&opts.LastRevisionID, "last-revision", 0, "revision id of the file's current head")
	cmd.Flags().StringSliceVar(&opts.Fields, "field", nil, "field to hide (repeatable)")
	_ = cmd.MarkFlagRequired("last-revision")

	return cmd
}

func runRevisionHide(opts *HideOptions, key model.OwnerKey, revisionID int64, cmd *cobra.Command) error {
	in := revision.UpdateFileRevision{
		Key:            key,
		RevisionID:     revisionID,
		UserID:         opts.UserID,
		LastRevisionID: opts.LastRevisionID,
		Hidden:         opts.Fields,
	}
	if in.Hidden == nil {
		in.Hidden = []string{}
	}

	err := opts.withTx(cmd, func(ctx context.Context, a *app.App, scope revision.Scope, _ *store.Tx) error {
		return a.Service().HideRevision(ctx, scope, in)
	})
	if err != nil {
		return err
	}

	return opts.formatter(cmd).Emit(
		map[string]any{"revision_id": revisionID, "hidden": in.Hidden},
		fmt.Sprintf("revision id %d hidden fields: [%s]\n", revisionID, strings.Join(in.Hidden, ", ")),
	)
}

func parseRevisionNumber(value string) (int32, error) {
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil || n < 0 || n > math.MaxInt32 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid revision-number %q", value))
	}
	return int32(n), nil
}

// formatRevision renders one revision as a text line.
func formatRevision(rec model.RevisionRecord) string {
	changes := make([]string, len(rec.Changes))
	for i, c := range rec.Changes {
		changes[i] = string(c)
	}
	hidden := make([]string, len(rec.Hidden))
	for i, h := range rec.Hidden {
		hidden[i] = string(h)
	}

	line := fmt.Sprintf("#%d %-8s id=%d page=%d name=%q blob=%s/%d/%s changes=[%s] user=%d at=%s",
		rec.RevisionNumber,
		rec.RevisionType,
		rec.RevisionID,
		rec.PageID,
		rec.Name,
		hex.EncodeToString(rec.Blob.Hash),
		rec.Blob.SizeHint,
		rec.Blob.MimeHint,
		strings.Join(changes, ","),
		rec.UserID,
		rec.CreatedAt.Format(time.RFC3339),
	)
	if len(hidden) > 0 {
		line += fmt.Sprintf(" hidden=[%s]", strings.Join(hidden, ","))
	}
	if rec.Comments != "" {
		line += fmt.Sprintf(" comment=%q", rec.Comments)
	}
	return line + "\n"
}
