package datasource

import (
	"context"
	"database/sql"

	"go.uber.org/zap"
)

// PoolConnector abstracts connection pool operations
// across different database types (PostgreSQL, MSSQL, MySQL, SQLite).
type PoolConnector interface {
	// Ping verifies the connection is alive
	Ping(ctx context.Context) error

	// Close closes all connections in the pool
	Close() error

	// GetType returns the database type for logging/stats
	GetType() string
}

// DataSource is a pooled connection handle shared by the whole process.
// After Close, Acquire and Ping fail with apperrors.ErrPoolClosed.
type DataSource interface {
	PoolConnector

	// Acquire checks a connection out of the pool. Callers must Close it
	// to return it.
	Acquire(ctx context.Context) (*sql.Conn, error)

	// DB returns a database/sql handle backed by the same pool.
	DB() *sql.DB
}

// ConfigurationSource supplies the current data source configuration.
// A nil configuration means it has not been provided yet.
type ConfigurationSource interface {
	Configuration() (*Configuration, error)
}

// ConfigurationSourceFunc adapts a function to ConfigurationSource.
type ConfigurationSourceFunc func() (*Configuration, error)

// Configuration calls f.
func (f ConfigurationSourceFunc) Configuration() (*Configuration, error) {
	return f()
}

// Environment describes the hosting process.
type Environment interface {
	// DataDirectory is the root for relative database file paths.
	DataDirectory() string
}

// DataDirectory is a fixed Environment.
type DataDirectory string

// DataDirectory returns d.
func (d DataDirectory) DataDirectory() string {
	return string(d)
}

// Opener opens a pool from fully resolved settings.
type Opener func(ctx context.Context, settings *PoolSettings, logger *zap.Logger) (DataSource, error)
