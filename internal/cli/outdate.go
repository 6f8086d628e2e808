package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/revlog/internal/app"
	"github.com/roach88/revlog/internal/revision"
	"github.com/roach88/revlog/internal/store"
)

// NewOutdateCommand creates the outdate command group.
//
// Outdate jobs are queued by file mutations for the pages whose rendered
// state depends on the file. A renderer drains them with list and complete.
func NewOutdateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outdate",
		Short: "Inspect and drain the outdate queue",
	}

	cmd.AddCommand(newOutdateListCommand(rootOpts))
	cmd.AddCommand(newOutdateCompleteCommand(rootOpts))

	return cmd
}

func newOutdateListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List pending outdate jobs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var jobs []store.OutdateJob
			err := rootOpts.withTx(cmd, func(ctx context.Context, _ *app.App, _ revision.Scope, tx *store.Tx) error {
				var err error
				jobs, err = tx.ListOutdateJobs(ctx, rootOpts.Config.SiteID)
				return err
			})
			if err != nil {
				return err
			}

			var text strings.Builder
			if len(jobs) == 0 {
				text.WriteString("no pending jobs\n")
			}
			for _, job := range jobs {
				fmt.Fprintf(&text, "%d %-8s page=%d slug=%q\n", job.JobID, job.Kind, job.PageID, job.Slug)
			}
			return rootOpts.formatter(cmd).Emit(jobs, text.String())
		},
	}
}

func newOutdateCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "complete <job-id>...",
		Short:         "Remove processed outdate jobs",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID("job-id", arg)
				if err != nil {
					return rootOpts.formatter(cmd).Fail(ErrCodeBadArgs, err)
				}
				ids = append(ids, id)
			}

			err := rootOpts.withTx(cmd, func(ctx context.Context, _ *app.App, _ revision.Scope, tx *store.Tx) error {
				for _, id := range ids {
					if err := tx.CompleteOutdateJob(ctx, id); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			return rootOpts.formatter(cmd).Emit(
				map[string][]int64{"completed": ids},
				fmt.Sprintf("completed %d job(s)\n", len(ids)),
			)
		},
	}
}
