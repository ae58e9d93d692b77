package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"relocate/internal/app"
	"relocate/internal/relocate"
	"relocate/internal/services"
)

var (
	errNotConfirmed  = errors.New("relocation cancelled")
	errNeedsYes      = errors.New("stdin is not a terminal, pass --yes to relocate without confirmation")
	errItemsNotSaved = errors.New("some items were not updated")
)

type runFlags struct {
	oldURL        string
	newURL        string
	options       bool
	attachments   bool
	content       bool
	postIDs       []int64
	attachmentIDs []int64
	optionNames   []string
	yes           bool
	dryRun        bool
	skipUnchanged bool
}

func newRunCmd(e *env) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Relocate the site once and print a summary",
		Long: `Run replaces the old site URL with the new one in options, attachment GUIDs
and post bodies. Without --options, --attachments or --content every group is
processed, or chosen interactively on a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := e.runRequest(cmd, f)
			if err != nil {
				return err
			}
			if f.skipUnchanged {
				e.conf.SkipUnchanged = true
			}

			srv, closeAll, err := app.NewServices(cmd.Context(), e.conf, e.log, relocate.Hooks{})
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() {
				if err := closeAll(); err != nil {
					e.log.Errorf("closing storage: %v", err)
				}
			}()

			req, err = srv.RelocateService.Prepare(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !f.yes && !req.DryRun {
				if !e.interactive() {
					return errNeedsYes
				}
				ok, err := e.prompt.Confirm(fmt.Sprintf("Replace %s with %s?", req.OldURL, req.NewURL))
				if err != nil {
					return fmt.Errorf("confirmation failed: %w", err)
				}
				if !ok {
					return errNotConfirmed
				}
			}

			report, err := srv.RelocateService.Relocate(cmd.Context(), req)
			printReport(cmd.OutOrStdout(), report)
			if err != nil {
				return err
			}
			if len(report.Failures) > 0 {
				return fmt.Errorf("%w: %d", errItemsNotSaved, len(report.Failures))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.oldURL, "old", "", "URL to replace (default: the siteurl option)")
	flags.StringVar(&f.newURL, "new", "", "new site URL, without a trailing slash")
	flags.BoolVar(&f.options, "options", false, "run replacement on options")
	flags.BoolVar(&f.attachments, "attachments", false, "run replacement on attachment URLs")
	flags.BoolVar(&f.content, "content", false, "run replacement on URLs in post content")
	flags.Int64SliceVar(&f.postIDs, "post-id", nil, "only these posts")
	flags.Int64SliceVar(&f.attachmentIDs, "attachment-id", nil, "only these attachments")
	flags.StringSliceVar(&f.optionNames, "option", nil, "only these options")
	flags.BoolVarP(&f.yes, "yes", "y", false, "do not ask for confirmation")
	flags.BoolVar(&f.dryRun, "dry-run", false, "report the changes without writing them")
	flags.BoolVar(&f.skipUnchanged, "skip-unchanged", false, "do not store posts and attachments without the old URL")
	return cmd
}

// runRequest turns the flags into a request, asking for what is missing when
// attached to a terminal.
func (e *env) runRequest(cmd *cobra.Command, f runFlags) (services.RelocateRequest, error) {
	req := services.RelocateRequest{
		OldURL:        f.oldURL,
		NewURL:        f.newURL,
		PostIDs:       f.postIDs,
		AttachmentIDs: f.attachmentIDs,
		OptionNames:   f.optionNames,
		DryRun:        f.dryRun,
	}

	if req.NewURL == "" && e.interactive() {
		newURL, err := e.prompt.NewURL()
		if err != nil {
			return req, fmt.Errorf("new URL prompt failed: %w", err)
		}
		req.NewURL = newURL
	}

	flags := cmd.Flags()
	switch {
	case flags.Changed("options") || flags.Changed("attachments") || flags.Changed("content"):
		req.Options, req.Attachments, req.Content = f.options, f.attachments, f.content
	case e.interactive():
		var err error
		req.Options, req.Attachments, req.Content, err = e.prompt.Parts()
		if err != nil {
			return req, fmt.Errorf("group selection failed: %w", err)
		}
	default:
		req.Options, req.Attachments, req.Content = true, true, true
	}
	return req, nil
}

func printReport(w io.Writer, r services.Report) {
	if r.RunID == "" {
		return
	}
	if r.DryRun {
		fmt.Fprintln(w, "Dry run, nothing was written.")
	}
	fmt.Fprintf(w, "Run %s: %s -> %s\n", r.RunID, r.OldURL, r.NewURL)
	fmt.Fprintf(w, "Options Processed: %d\n", r.OptionsProcessed)
	fmt.Fprintf(w, "Attachments Processed: %d\n", r.AttachmentsProcessed)
	fmt.Fprintf(w, "Post Bodies Processed: %d\n", r.PostsProcessed)
	if r.Skipped > 0 {
		fmt.Fprintf(w, "Skipped: %d\n", r.Skipped)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "FAILED %s %s: %s\n", f.Kind, f.Key, f.Error)
	}
	for _, f := range r.Warnings {
		fmt.Fprintf(w, "WARNING %s %s: %s\n", f.Kind, f.Key, f.Error)
	}
	fmt.Fprintf(w, "Log in at %s\n", r.LoginURL())
}
