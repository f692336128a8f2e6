package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-datasource/pkg/config"
	"github.com/ekaya-inc/ekaya-datasource/pkg/logging"
)

// poolConfig parses cfg and applies credentials and tuning.
// When running in Docker, localhost is resolved to host.docker.internal
// to allow connections to databases running on the host machine.
func poolConfig(cfg *Config, tuning datasource.PoolTuning) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	if cfg.User != "" {
		pc.ConnConfig.User = cfg.User
	}
	if cfg.Password != "" {
		pc.ConnConfig.Password = cfg.Password
	}
	pc.ConnConfig.Host = config.ResolveHostForDocker(pc.ConnConfig.Host)

	pc.MaxConns = int32(tuning.MaximumPoolSize)
	pc.MinConns = int32(tuning.MinimumIdle)
	pc.MaxConnIdleTime = tuning.IdleTimeout
	pc.MaxConnLifetime = tuning.MaxLifetime
	if tuning.ConnectionTimeout > 0 {
		pc.ConnConfig.ConnectTimeout = tuning.ConnectionTimeout
	}
	return pc, nil
}

// Open creates a PostgreSQL pool from resolved settings and verifies it.
func Open(ctx context.Context, settings *datasource.PoolSettings, logger *zap.Logger) (datasource.DataSource, error) {
	cfg, err := FromSettings(settings)
	if err != nil {
		return nil, err
	}
	tuning, err := datasource.TuningFromSettings(settings)
	if err != nil {
		return nil, err
	}
	pc, err := poolConfig(cfg, tuning)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx := ctx
	if tuning.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, tuning.ConnectionTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("opened connection pool",
		zap.String("pool", tuning.PoolName),
		zap.String("host", pc.ConnConfig.Host),
		zap.String("database", pc.ConnConfig.Database),
		zap.String("dsn", logging.SanitizeConnectionString(cfg.ConnString)),
		zap.Int32("maxConns", pc.MaxConns),
		zap.Int32("minConns", pc.MinConns),
	)
	return datasource.NewPostgresPoolWrapper(pool), nil
}
