package cli

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/revlog/internal/app"
	"github.com/roach88/revlog/internal/model"
	"github.com/roach88/revlog/internal/revision"
	"github.com/roach88/revlog/internal/store"
)

// FileOptions holds the flags shared by the file mutation commands.
type FileOptions struct {
	*RootOptions
	UserID         int64
	Comments       string
	LastRevisionID int64

	PageID    int64
	FileID    string
	Name      string
	Hash      string // hex
	Size      int64
	Mime      string
	Licensing string // JSON object
}

// NewFileCommand creates the file command group.
func NewFileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Record file revisions",
		Long: `Record revisions of files attached to pages.

Every command except create needs --last-revision, the revision id of the
file's current head as last seen by the caller. A request made against an
older head is rejected with CONFLICT.`,
	}

	cmd.AddCommand(newFileCreateCommand(rootOpts))
	cmd.AddCommand(newFileEditCommand(rootOpts))
	cmd.AddCommand(newFileDeleteCommand(rootOpts))
	cmd.AddCommand(newFileRestoreCommand(rootOpts))

	return cmd
}

func addAuthorFlags(cmd *cobra.Command, opts *FileOptions) {
	cmd.Flags().Int64Var(&opts.UserID, "user", 0, "id of the acting user")
	cmd.Flags().StringVar(&opts.Comments, "comment", "", "revision comment")
}

func addLockFlag(cmd *cobra.Command, opts *FileOptions) {
	cmd.Flags().Int64Var(&opts.LastRevisionID, "last-revision", 0, "revision id of the head the change is based on")
	_ = cmd.MarkFlagRequired("last-revision")
}

func addBlobFlags(cmd *cobra.Command, opts *FileOptions) {
	cmd.Flags().StringVar(&opts.Hash, "hash", "", "content hash (hex)")
	cmd.Flags().Int64Var(&opts.Size, "size", 0, "content size in bytes")
	cmd.Flags().StringVar(&opts.Mime, "mime", "", "content MIME type")
}

func newFileCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Upload a new file",
		Example: `  revlog file create --page 10 --name logo.png --hash 0a1b --size 2048 --mime image/png
  revlog file create --page 10 --name a.txt --hash ff --size 3 --mime text/plain --licensing '{"license":"cc-by-sa"}'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFileCreate(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.PageID, "page", 0, "page to attach the file to")
	cmd.Flags().StringVar(&opts.FileID, "file-id", "", "file id (generated when empty)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "file name")
	cmd.Flags().StringVar(&opts.Licensing, "licensing", "{}", "licensing metadata (JSON object)")
	addBlobFlags(cmd, opts)
	addAuthorFlags(cmd, opts)
	_ = cmd.MarkFlagRequired("page")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("hash")
	_ = cmd.MarkFlagRequired("mime")

	return cmd
}

func runFileCreate(opts *FileOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	blob, err := opts.blob()
	if err != nil {
		return f.Fail(ErrCodeBadArgs, err)
	}

	in := revision.CreateFirstFileRevision{
		SiteID:    opts.Config.SiteID,
		PageID:    opts.PageID,
		FileID:    opts.FileID,
		UserID:    opts.UserID,
		Name:      opts.Name,
		Blob:      blob,
		Licensing: model.Licensing(opts.Licensing),
		Comments:  opts.Comments,
	}

	var out *revision.CreateFirstFileRevisionOutput
	err = opts.withTx(cmd, func(ctx context.Context, a *app.App, scope revision.Scope, _ *store.Tx) error {
		var err error
		out, err = a.Service().CreateFirst(ctx, scope, in)
		return err
	})
	if err != nil {
		return err
	}

	return f.Emit(out, fmt.Sprintf("created file %s (revision id %d)\n", out.FileID, out.FileRevisionID))
}

func newFileEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <page-id> <file-id>",
		Short: "Move, rename, replace or relicense a file",
		Long: `Record an update revision.

Only the flags given are compared against the head. When none of them
differ, no revision is written and the command reports no changes.
--hash, --size and --mime replace the content together.`,
		Example: `  revlog file edit 10 0190c0de-... --last-revision 4 --name renamed.png
  revlog file edit 10 0190c0de-... --last-revision 4 --move-to 11`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := parseID("page-id", args[0])
			if err != nil {
				return opts.formatter(cmd).Fail(ErrCodeBadArgs, err)
			}
			return runFileEdit(opts, model.OwnerKey{PageID: pageID, FileID: args[1]}, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.PageID, "move-to", 0, "page to move the file to")
	cmd.Flags().StringVar(&opts.Name, "name", "", "new file name")
	cmd.Flags().StringVar(&opts.Licensing, "licensing", "", "new licensing metadata (JSON object)")
	addBlobFlags(cmd, opts)
	addAuthorFlags(cmd, opts)
	addLockFlag(cmd, opts)
	cmd.MarkFlagsRequiredTogether("hash", "size", "mime")

	return cmd
}

func runFileEdit(opts *FileOptions, key model.OwnerKey, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	flags := cmd.Flags()

	var body revision.FileRevisionBody
	if flags.Changed("move-to") {
		body.PageID = model.Set(opts.PageID)
	}
	if flags.Changed("name") {
		body.Name = model.Set(opts.Name)
	}
	if flags.Changed("hash") {
		blob, err := opts.blob()
		if err != nil {
			return f.Fail(ErrCodeBadArgs, err)
		}
		body.Blob = model.Set(blob)
	}
	if flags.Changed("licensing") {
		body.Licensing = model.Set(model.Licensing(opts.Licensing))
	}

	in := revision.CreateFileRevision{
		SiteID:         opts.Config.SiteID,
		Key:            key,
		UserID:         opts.UserID,
		LastRevisionID: opts.LastRevisionID,
		Comments:       opts.Comments,
		Body:           body,
	}

	var out *revision.CreateFileRevisionOutput
	err := opts.withTx(cmd, func(ctx context.Context, a *app.App, scope revision.Scope, _ *store.Tx) error {
		var err error
		out, err = a.Service().CreateUpdate(ctx, scope, in)
		return err
	})
	if err != nil {
		return err
	}

	if out == nil {
		return f.Emit(map[string]bool{"noop": true}, "no changes\n")
	}
	return f.Emit(out, revisionCreated(out))
}

func newFileDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "delete <page-id> <file-id>",
		Short:         "Delete a file, keeping its history",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := parseID("page-id", args[0])
			if err != nil {
				return opts.formatter(cmd).Fail(ErrCodeBadArgs, err)
			}
			return runFileDelete(opts, model.OwnerKey{PageID: pageID, FileID: args[1]}, cmd)
		},
	}

	addAuthorFlags(cmd, opts)
	addLockFlag(cmd, opts)

	return cmd
}

func runFileDelete(opts *FileOptions, key model.OwnerKey, cmd *cobra.Command) error {
	in := revision.CreateTombstoneFileRevision{
		SiteID:         opts.Config.SiteID,
		Key:            key,
		UserID:         opts.UserID,
		LastRevisionID: opts.LastRevisionID,
		Comments:       opts.Comments,
	}

	var out *revision.CreateFileRevisionOutput
	err := opts.withTx(cmd, func(ctx context.Context, a *app.App, scope revision.Scope, _ *store.Tx) error {
		var err error
		out, err = a.Service().CreateTombstone(ctx, scope, in)
		return err
	})
	if err != nil {
		return err
	}

	return opts.formatter(cmd).Emit(out, revisionCreated(out))
}

func newFileRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "restore <page-id> <file-id>",
		Short: "Restore a deleted file",
		Long: `Record an undelete revision.

The file returns to the page and name it had before deletion unless
--move-to or --name is given.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pageID, err := parseID("page-id", args[0])
			if err != nil {
				return opts.formatter(cmd).Fail(ErrCodeBadArgs, err)
			}
			return runFileRestore(opts, model.OwnerKey{PageID: pageID, FileID: args[1]}, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.PageID, "move-to", 0, "page to restore the file to")
	cmd.Flags().StringVar(&opts.Name, "name", "", "name to restore the file under")
	addAuthorFlags(cmd, opts)
	addLockFlag(cmd, opts)

	return cmd
}

func runFileRestore(opts *FileOptions, key model.OwnerKey, cmd *cobra.Command) error {
	in := revision.CreateResurrectionFileRevision{
		SiteID:         opts.Config.SiteID,
		Key:            key,
		UserID:         opts.UserID,
		LastRevisionID: opts.LastRevisionID,
		Comments:       opts.Comments,
	}
	if cmd.Flags().Changed("move-to") {
		in.NewPageID = model.Set(opts.PageID)
	}
	if cmd.Flags().Changed("name") {
		in.NewName = model.Set(opts.Name)
	}

	var out *revision.CreateFileRevisionOutput
	err := opts.withTx(cmd, func(ctx context.Context, a *app.App, scope revision.Scope, _ *store.Tx) error {
		var err error
		out, err = a.Service().CreateResurrection(ctx, scope, in)
		return err
	})
	if err != nil {
		return err
	}

	return opts.formatter(cmd).Emit(out, revisionCreated(out))
}

func (o *FileOptions) blob() (model.Blob, error) {
	hash, err := hex.DecodeString(o.Hash)
	if err != nil {
		return model.Blob{}, fmt.Errorf("invalid --hash %q: %w", o.Hash, err)
	}
	return model.Blob{Hash: hash, SizeHint: o.Size, MimeHint: o.Mime}, nil
}

func revisionCreated(out *revision.CreateFileRevisionOutput) string {
	return fmt.Sprintf("created revision %d (revision id %d)\n", out.FileRevisionNumber, out.FileRevisionID)
}
