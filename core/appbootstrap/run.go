package appbootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"incidentdash/api"
	"incidentdash/config"
	"incidentdash/core/loader"
	"incidentdash/core/store"
	"incidentdash/core/utils"
)

// OpenDatabase connects to the configured store and applies migrations.
func OpenDatabase(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) (*sql.DB, error) {
	db, err := store.NewDB(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := store.ApplyMigrations(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// LoadOnce rebuilds the incidents table from csvPath without starting the server.
func LoadOnce(ctx context.Context, cfg *config.AppConfig, csvPath string, logger *utils.Logger) (loader.Summary, error) {
	db, err := OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return loader.Summary{}, err
	}
	defer db.Close()
	return composeRuntime(cfg, db, logger).loader.Load(ctx, csvPath)
}

// Serve runs the dashboard until ctx is cancelled, then shuts down within
// cfg.HTTP.ShutdownTimeout.
func Serve(ctx context.Context, cfg *config.AppConfig, logger *utils.Logger) error {
	db, err := OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	rc := composeRuntime(cfg, db, logger)
	if cfg.Loader.LoadOnStart {
		if err := loadOnStart(ctx, rc.loader, cfg.Loader.CSVPath); err != nil {
			return err
		}
	}
	for _, w := range rc.workers {
		if err := w.StartWithContext(ctx); err != nil {
			return fmt.Errorf("start worker: %w", err)
		}
	}

	srv := api.NewServer(cfg, rc.serverDeps, logger)
	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.ListenAddr, err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		logger.Printf("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Errorf("http shutdown: %v", shutdownErr)
	}
	for _, w := range rc.workers {
		if stopErr := w.StopWithContext(shutdownCtx); stopErr != nil {
			logger.Errorf("stop worker: %v", stopErr)
		}
	}
	return err
}

// loadOnStart tolerates a missing source so a fresh install can still serve
// whatever the store already holds.
func loadOnStart(ctx context.Context, l *loader.Loader, csvPath string) error {
	if strings.TrimSpace(csvPath) == "" {
		return nil
	}
	if _, err := l.Load(ctx, csvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("initial load: %w", err)
	}
	return nil
}
