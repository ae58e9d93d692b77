package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"relocate/internal/config"
	"relocate/internal/relocate"
	"relocate/internal/services"
	"relocate/internal/storage"
	"relocate/internal/user"
)

// ErrMigratePrefix - the bundled migrations only create tables with the
// default prefix.
var ErrMigratePrefix = errors.New("auto-migrate requires the wp_ table prefix")

// SelectStorage - selects the WordPress storage: database or memory.
func SelectStorage(ctx context.Context, c *config.Config, logger *zap.SugaredLogger) (storage.Store, error) {
	if c.DBConnection == "" {
		logger.Infof("using memory")
		return storage.NewStorageMemory(c.Revisions), nil
	}

	logger.Infof("using %s database", c.DBDriver)
	s, err := storage.NewStorageDB(ctx, c.DBDriver, c.DBConnection, c.TablePrefix,
		storage.WithRevisions(c.Revisions))
	if err != nil {
		return nil, err
	}

	if c.AutoMigrate {
		if err := Migrate(ctx, c, s); err != nil {
			return nil, multierr.Append(err, s.Close())
		}
	}
	return s, nil
}

// Migrate creates the posts and options tables of s when missing.
func Migrate(ctx context.Context, c *config.Config, s *storage.StorageDB) error {
	if c.TablePrefix != storage.DefaultTablePrefix {
		return fmt.Errorf("%w: got %q", ErrMigratePrefix, c.TablePrefix)
	}
	return storage.UpDBMigrations(ctx, s.DBConn, c.DBDriver)
}

// NewServices wires storage, the optional journal and the services on top of
// them. The returned function releases what was opened.
func NewServices(ctx context.Context, c *config.Config, logger *zap.SugaredLogger,
	hooks relocate.Hooks,
) (*services.CompositeService, func() error, error) {
	store, err := SelectStorage(ctx, c, logger)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{store.Close}
	closeAll := func() error {
		var errs error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = multierr.Append(errs, closers[i]())
		}
		return errs
	}

	var recorder relocate.Recorder
	if c.JournalPath != "" {
		journal, err := storage.NewJournal(c.JournalPath)
		if err != nil {
			return nil, nil, multierr.Append(err, closeAll())
		}
		closers = append(closers, journal.Close)
		recorder = journal
		logger.Infof("journal at %s", c.JournalPath)
	}

	relocateService := services.NewRelocateService(c, store, recorder, hooks, logger)
	userService := user.NewUserService(c)
	return services.NewCompositeService(relocateService, userService, store), closeAll, nil
}

// CreateServer creates and configures an HTTP server.
func CreateServer(c *config.Config, handler http.Handler, logger *zap.SugaredLogger) *http.Server {
	logger.Infof("Relocate at %s\n", c.Addr)
	if c.RelocateMode {
		logger.Warnf("relocate mode: the tool is open to anyone who can reach %s", c.Addr)
	}

	return &http.Server{
		Addr:              c.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 20 * time.Second,
	}
}
