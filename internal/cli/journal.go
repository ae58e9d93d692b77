package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"relocate/internal/storage"
)

func newJournalCmd() *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "journal FILE",
		Short: "List the changes recorded in a journal file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := storage.ReadJournalFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read journal: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tRUN\tKIND\tKEY\tDRY RUN\tAFTER")
			for _, en := range entries {
				if runID != "" && en.RunID != runID {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
					en.Time.Format("2006-01-02 15:04:05"), en.RunID, en.Kind, en.Key, en.DryRun, abbreviate(en.After, 60))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "only show the changes of this run")
	return cmd
}

// abbreviate flattens s to one line of at most n runes.
func abbreviate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}
