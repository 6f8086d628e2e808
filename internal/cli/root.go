package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/revlog/internal/app"
	"github.com/roach88/revlog/internal/config"
	"github.com/roach88/revlog/internal/logging"
	"github.com/roach88/revlog/internal/metrics"
	"github.com/roach88/revlog/internal/revision"
	"github.com/roach88/revlog/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string // overrides config database when set
	SiteID     int64  // overrides config site_id when non-zero
	LogLevel   string // overrides config log.level when set

	// Resolved in PersistentPreRunE.
	Config  config.Config
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the revlog CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "revlog",
		Short: "revlog - file revision log",
		Long: `An append-only revision log for files attached to wiki pages.

Every upload, edit, deletion and restoration of a file is recorded as an
immutable revision guarded by an optimistic lock on the previous revision.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if err := opts.resolve(cmd); err != nil {
				return opts.formatter(cmd).Fail(ErrCodeConfig, err)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a CUE config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to the SQLite database (overrides config)")
	cmd.PersistentFlags().Int64Var(&opts.SiteID, "site", 0, "site id (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewPageCommand(opts))
	cmd.AddCommand(NewFileCommand(opts))
	cmd.AddCommand(NewRevisionCommand(opts))
	cmd.AddCommand(NewOutdateCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// resolve loads configuration, applies flag overrides and builds the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	var (
		cfg config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.Load(o.ConfigPath)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.SiteID != 0 {
		cfg.SiteID = o.SiteID
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	} else if o.Verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}

	o.Config = cfg
	o.Logger = logger
	o.Metrics = metrics.New()
	return nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// withTx opens the configured database and runs fn in one transaction.
// Errors are reported through the formatter. Commands emit their output
// after withTx returns, so nothing is printed for a rolled back call.
func (o *RootOptions) withTx(
	cmd *cobra.Command,
	fn func(ctx context.Context, a *app.App, scope revision.Scope, tx *store.Tx) error,
) error {
	f := o.formatter(cmd)

	a, err := app.Open(o.Config, o.Logger, o.Metrics)
	if err != nil {
		return f.Fail(ErrCodeStore, err)
	}
	defer a.Close()

	f.VerboseLog("database: %s (site %d)", o.Config.Database, o.Config.SiteID)

	err = a.Do(cmd.Context(), func(ctx context.Context, scope revision.Scope, tx *store.Tx) error {
		return fn(ctx, a, scope, tx)
	})
	o.logMetrics(f)
	if errors.Is(err, store.ErrNotFound) && revision.CodeOf(err) == "" {
		return f.Fail(ErrCodePageAbsent, WrapExitError(ExitFailure, "not found", err))
	}
	if err != nil {
		return f.Fail(ErrCodeGeneric, err)
	}
	return nil
}

// logMetrics writes the counters recorded by the command in verbose mode.
func (o *RootOptions) logMetrics(f *OutputFormatter) {
	if !f.Verbose {
		return
	}
	samples, err := o.Metrics.Samples()
	if err != nil {
		f.VerboseLog("metrics: %v", err)
		return
	}
	for _, s := range samples {
		f.VerboseLog("metric %s %g", s.Key, s.Value)
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
