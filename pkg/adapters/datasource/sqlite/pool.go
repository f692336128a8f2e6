package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
)

// Open creates a SQLite pool from resolved settings and verifies it.
// The parent directory of a file database is created if missing.
func Open(ctx context.Context, settings *datasource.PoolSettings, logger *zap.Logger) (datasource.DataSource, error) {
	cfg, err := FromSettings(settings)
	if err != nil {
		return nil, err
	}
	tuning, err := datasource.TuningFromSettings(settings)
	if err != nil {
		return nil, err
	}

	if cfg.InMemory() {
		// one connection keeps the database alive and shared
		tuning.MaximumPoolSize = 1
		tuning.MinimumIdle = 1
		tuning.IdleTimeout = 0
		tuning.MaxLifetime = 0
	} else if dir := filepath.Dir(cfg.FilePath()); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	logger.Debug("opening SQLite database",
		zap.String("path", cfg.FilePath()),
		zap.Bool("memory", cfg.InMemory()),
	)
	return datasource.OpenSQLPool(ctx, "sqlite", cfg.DSN(), "sqlite", tuning, logger)
}
