package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"relocate/internal/app"
	"relocate/internal/handlers"
	"relocate/internal/relocate"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the relocation form and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, closeAll, err := app.NewServices(ctx, e.conf, e.log, relocate.Hooks{})
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() {
				if err := closeAll(); err != nil {
					e.log.Errorf("closing storage: %v", err)
				}
			}()

			ctrl := handlers.NewController(srv, e.log, e.conf)
			server := app.CreateServer(e.conf, app.NewRouter(e.conf, ctrl), e.log)

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			e.log.Infof("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
}
