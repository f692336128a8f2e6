package mssql

import (
	"context"
	"math"

	_ "github.com/microsoft/go-mssqldb" // registers the sqlserver driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
)

// Open creates a SQL Server pool from resolved settings and verifies it.
func Open(ctx context.Context, settings *datasource.PoolSettings, logger *zap.Logger) (datasource.DataSource, error) {
	cfg, err := FromSettings(settings)
	if err != nil {
		return nil, err
	}
	tuning, err := datasource.TuningFromSettings(settings)
	if err != nil {
		return nil, err
	}

	// An explicit pool connection timeout wins over the driver default.
	if _, ok := settings.Properties.Get(datasource.ConnectionTimeoutKey); ok && tuning.ConnectionTimeout > 0 {
		cfg.ConnectionTimeout = int(math.Ceil(tuning.ConnectionTimeout.Seconds()))
	}

	logger.Debug("connecting to SQL Server",
		zap.String("host", cfg.Host),
		zap.String("instance", cfg.Instance),
		zap.String("database", cfg.Database),
		zap.Bool("fedauth", cfg.FedAuth != ""),
	)
	return datasource.OpenSQLPool(ctx, cfg.DriverName(), cfg.ConnectionString(), "mssql", tuning, logger)
}
