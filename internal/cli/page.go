package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/revlog/internal/app"
	"github.com/roach88/revlog/internal/revision"
	"github.com/roach88/revlog/internal/store"
)

// NewPageCommand creates the page command group.
//
// Pages are the containers files are attached to. The registry only tracks
// the slug and deletion mark each page needs for outdating.
func NewPageCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Manage the page registry",
	}

	cmd.AddCommand(newPageAddCommand(rootOpts))
	cmd.AddCommand(newPageDeleteCommand(rootOpts))
	cmd.AddCommand(newPageShowCommand(rootOpts))

	return cmd
}

func newPageAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <page-id> <slug>",
		Short: "Register a page or rename its slug",
		Example: `  revlog page add 10 start
  revlog page add 10 front-page --db wiki.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := parseID("page-id", args[0])
			if err != nil {
				return rootOpts.formatter(cmd).Fail(ErrCodeBadArgs, err)
			}
			return runPageAdd(rootOpts, pageID, args[1], cmd)
		},
	}
}

func runPageAdd(opts *RootOptions, pageID int64, slug string, cmd *cobra.Command) error {
	page := store.Page{PageID: pageID, SiteID: opts.Config.SiteID, Slug: slug}

	err := opts.withTx(cmd, func(ctx context.Context, _ *app.App, _ revision.Scope, tx *store.Tx) error {
		return tx.PutPage(ctx, page)
	})
	if err != nil {
		return err
	}

	return opts.formatter(cmd).Emit(page, fmt.Sprintf("page %d registered as %q\n", pageID, slug))
}

func newPageDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <page-id>",
		Short:         "Mark a page deleted",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := parseID("page-id", args[0])
			if err != nil {
				return rootOpts.formatter(cmd).Fail(ErrCodeBadArgs, err)
			}
			return runPageDelete(rootOpts, pageID, cmd)
		},
	}
}

func runPageDelete(opts *RootOptions, pageID int64, cmd *cobra.Command) error {
	err := opts.withTx(cmd, func(ctx context.Context, a *app.App, _ revision.Scope, tx *store.Tx) error {
		return tx.DeletePage(ctx, opts.Config.SiteID, pageID, a.Now())
	})
	if err != nil {
		return err
	}

	return opts.formatter(cmd).Emit(
		map[string]int64{"page_id": pageID},
		fmt.Sprintf("page %d deleted\n", pageID),
	)
}

func newPageShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <page-id>",
		Short:         "Show a registered page",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := parseID("page-id", args[0])
			if err != nil {
				return rootOpts.formatter(cmd).Fail(ErrCodeBadArgs, err)
			}
			return runPageShow(rootOpts, pageID, cmd)
		},
	}
}

func runPageShow(opts *RootOptions, pageID int64, cmd *cobra.Command) error {
	var page store.Page
	err := opts.withTx(cmd, func(ctx context.Context, _ *app.App, _ revision.Scope, tx *store.Tx) error {
		var err error
		page, err = tx.GetPage(ctx, opts.Config.SiteID, pageID)
		return err
	})
	if err != nil {
		return err
	}

	status := "live"
	if page.DeletedAt != nil {
		status = "deleted " + page.DeletedAt.Format(time.RFC3339)
	}
	return opts.formatter(cmd).Emit(page, fmt.Sprintf("page %d %q (%s)\n", page.PageID, page.Slug, status))
}

// parseID parses a decimal id argument.
func parseID(name, value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid %s %q", name, value), err)
	}
	return id, nil
}
