package mysql

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
)

// Open creates a MySQL pool from resolved settings and verifies it.
func Open(ctx context.Context, settings *datasource.PoolSettings, logger *zap.Logger) (datasource.DataSource, error) {
	cfg, err := FromSettings(settings)
	if err != nil {
		return nil, err
	}
	tuning, err := datasource.TuningFromSettings(settings)
	if err != nil {
		return nil, err
	}
	if cfg.Driver.Timeout == 0 {
		cfg.Driver.Timeout = tuning.ConnectionTimeout
	}
	if len(cfg.Ignored) > 0 {
		logger.Warn("ignoring unsupported MySQL URL properties", zap.Strings("properties", cfg.Ignored))
	}

	return datasource.OpenSQLPool(ctx, "mysql", cfg.DSN(), "mysql", tuning, logger)
}
