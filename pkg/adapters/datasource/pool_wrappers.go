package datasource

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ekaya-inc/ekaya-datasource/pkg/apperrors"
)

// PostgresPoolWrapper wraps *pgxpool.Pool to implement DataSource.
// A database/sql view over the same pool is exposed through DB and Acquire.
type PostgresPoolWrapper struct {
	pool   *pgxpool.Pool
	db     *sql.DB
	closed atomic.Bool
	once   sync.Once
}

// NewPostgresPoolWrapper creates a new PostgreSQL pool wrapper
func NewPostgresPoolWrapper(pool *pgxpool.Pool) *PostgresPoolWrapper {
	return &PostgresPoolWrapper{
		pool: pool,
		db:   stdlib.OpenDBFromPool(pool),
	}
}

// Acquire checks a connection out of the pool.
func (w *PostgresPoolWrapper) Acquire(ctx context.Context) (*sql.Conn, error) {
	if w.closed.Load() {
		return nil, apperrors.ErrPoolClosed
	}
	conn, err := w.db.Conn(ctx)
	if err != nil {
		if w.closed.Load() {
			return nil, apperrors.ErrPoolClosed
		}
		return nil, err
	}
	return conn, nil
}

// DB returns the database/sql view of the pool.
func (w *PostgresPoolWrapper) DB() *sql.DB {
	return w.db
}

// Ping verifies the PostgreSQL connection is alive
func (w *PostgresPoolWrapper) Ping(ctx context.Context) error {
	if w.closed.Load() {
		return apperrors.ErrPoolClosed
	}
	return w.pool.Ping(ctx)
}

// Close closes all connections in the PostgreSQL pool. Later calls are no-ops.
func (w *PostgresPoolWrapper) Close() error {
	var err error
	w.once.Do(func() {
		w.closed.Store(true)
		err = w.db.Close()
		w.pool.Close()
	})
	return err
}

// GetType returns the database type
func (w *PostgresPoolWrapper) GetType() string {
	return "postgres"
}

// GetPool returns the underlying *pgxpool.Pool
func (w *PostgresPoolWrapper) GetPool() *pgxpool.Pool {
	return w.pool
}

// SQLPoolWrapper wraps a database/sql pool to implement DataSource.
// Used by every engine that goes through a database/sql driver.
type SQLPoolWrapper struct {
	db     *sql.DB
	dbType string
	closed atomic.Bool
	once   sync.Once
}

// NewSQLPoolWrapper creates a new database/sql pool wrapper
func NewSQLPoolWrapper(db *sql.DB, dbType string) *SQLPoolWrapper {
	return &SQLPoolWrapper{db: db, dbType: dbType}
}

// Acquire checks a connection out of the pool.
func (w *SQLPoolWrapper) Acquire(ctx context.Context) (*sql.Conn, error) {
	if w.closed.Load() {
		return nil, apperrors.ErrPoolClosed
	}
	conn, err := w.db.Conn(ctx)
	if err != nil {
		if w.closed.Load() {
			return nil, apperrors.ErrPoolClosed
		}
		return nil, err
	}
	return conn, nil
}

// DB returns the underlying *sql.DB
func (w *SQLPoolWrapper) DB() *sql.DB {
	return w.db
}

// Ping verifies the connection is alive
func (w *SQLPoolWrapper) Ping(ctx context.Context) error {
	if w.closed.Load() {
		return apperrors.ErrPoolClosed
	}
	return w.db.PingContext(ctx)
}

// Close closes all connections in the pool. Later calls are no-ops.
func (w *SQLPoolWrapper) Close() error {
	var err error
	w.once.Do(func() {
		w.closed.Store(true)
		err = w.db.Close()
	})
	return err
}

// GetType returns the database type
func (w *SQLPoolWrapper) GetType() string {
	return w.dbType
}

var (
	_ DataSource = (*PostgresPoolWrapper)(nil)
	_ DataSource = (*SQLPoolWrapper)(nil)
)
