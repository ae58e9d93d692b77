// Package cli holds the relocate command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"relocate/internal/config"
	"relocate/internal/logger"
)

// env is the state shared by the subcommands of one invocation.
type env struct {
	conf        *config.Config
	log         *zap.SugaredLogger
	prompt      prompter
	interactive func() bool
}

// NewRootCmd builds the relocate command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&env{
		conf:        config.NewConfig(),
		prompt:      terminalPrompter{},
		interactive: stdinIsTerminal,
	})
}

func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relocate",
		Short: "Move a WordPress site to a new URL",
		Long: `Relocate rewrites the site URL stored in WordPress options, attachment GUIDs
and post bodies, keeping PHP-serialized values consistent.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Init(e.conf, cmd.Flags()); err != nil {
				return err
			}
			log, err := logger.NewLogger(e.conf.LogLevel)
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			e.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}
	config.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newServeCmd(e),
		newRunCmd(e),
		newMigrateCmd(e),
		newJournalCmd(),
	)
	return rootCmd
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
