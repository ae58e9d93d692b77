package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"relocate/internal/app"
	"relocate/internal/storage"
)

var errNoDatabase = errors.New("no database configured, set --database-dsn or DATABASE_DSN")

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the WordPress posts and options tables if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.conf.DBConnection == "" {
				return errNoDatabase
			}

			s, err := storage.NewStorageDB(cmd.Context(), e.conf.DBDriver, e.conf.DBConnection, e.conf.TablePrefix)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer s.Close()

			if err := app.Migrate(cmd.Context(), e.conf, s); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tables are up to date.")
			return nil
		},
	}
}
