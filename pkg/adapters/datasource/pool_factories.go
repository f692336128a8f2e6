package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-datasource/pkg/logging"
)

// Pool tuning property names. They follow the HikariCP vocabulary so that
// existing configuration files keep working; durations are milliseconds
// unless given as a Go duration string ("30s").
const (
	PoolNameKey          = "poolName"
	MaximumPoolSizeKey   = "maximumPoolSize"
	MinimumIdleKey       = "minimumIdle"
	IdleTimeoutKey       = "idleTimeout"
	MaxLifetimeKey       = "maxLifetime"
	ConnectionTimeoutKey = "connectionTimeout"
)

const (
	DefaultMaximumPoolSize   = 10
	DefaultIdleTimeout       = 10 * time.Minute
	DefaultMaxLifetime       = 30 * time.Minute
	DefaultConnectionTimeout = 30 * time.Second
)

// PoolTuning holds the engine-neutral pool limits read from PoolSettings.
type PoolTuning struct {
	PoolName          string
	MaximumPoolSize   int
	MinimumIdle       int
	IdleTimeout       time.Duration
	MaxLifetime       time.Duration
	ConnectionTimeout time.Duration
}

// TuningFromSettings reads pool limits from the passthrough properties.
// Missing values get defaults; minimumIdle defaults to, and is capped at,
// maximumPoolSize.
func TuningFromSettings(settings *PoolSettings) (PoolTuning, error) {
	tuning := PoolTuning{
		MaximumPoolSize:   DefaultMaximumPoolSize,
		MinimumIdle:       -1,
		IdleTimeout:       DefaultIdleTimeout,
		MaxLifetime:       DefaultMaxLifetime,
		ConnectionTimeout: DefaultConnectionTimeout,
	}
	props := settings.Properties

	if v, ok := props.Get(PoolNameKey); ok {
		tuning.PoolName = stringify(v)
	}

	if v, ok := props.Get(MaximumPoolSizeKey); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return tuning, fmt.Errorf("invalid %s %v: %w", MaximumPoolSizeKey, v, err)
		}
		if n < 1 || n > math.MaxInt32 {
			return tuning, fmt.Errorf("invalid %s %d: must be between 1 and %d", MaximumPoolSizeKey, n, math.MaxInt32)
		}
		tuning.MaximumPoolSize = n
	}

	if v, ok := props.Get(MinimumIdleKey); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return tuning, fmt.Errorf("invalid %s %v: %w", MinimumIdleKey, v, err)
		}
		if n < 0 {
			return tuning, fmt.Errorf("invalid %s %d: must not be negative", MinimumIdleKey, n)
		}
		tuning.MinimumIdle = n
	}
	if tuning.MinimumIdle < 0 || tuning.MinimumIdle > tuning.MaximumPoolSize {
		tuning.MinimumIdle = tuning.MaximumPoolSize
	}

	durations := []struct {
		key    string
		target *time.Duration
	}{
		{IdleTimeoutKey, &tuning.IdleTimeout},
		{MaxLifetimeKey, &tuning.MaxLifetime},
		{ConnectionTimeoutKey, &tuning.ConnectionTimeout},
	}
	for _, d := range durations {
		v, ok := props.Get(d.key)
		if !ok {
			continue
		}
		parsed, err := parseMillis(v)
		if err != nil {
			return tuning, fmt.Errorf("invalid %s %v: %w", d.key, v, err)
		}
		*d.target = parsed
	}

	return tuning, nil
}

// parseMillis accepts a number of milliseconds or a Go duration string.
func parseMillis(v any) (time.Duration, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return durationOrError(ms)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, err
		}
		if d < 0 {
			return 0, fmt.Errorf("must not be negative")
		}
		return d, nil
	}

	ms, err := cast.ToInt64E(v)
	if err != nil {
		return 0, err
	}
	return durationOrError(ms)
}

func durationOrError(ms int64) (time.Duration, error) {
	if ms < 0 {
		return 0, fmt.Errorf("must not be negative")
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// ApplyToDB applies the tuning to a database/sql pool.
// Zero durations mean "no limit", as in database/sql.
func (t PoolTuning) ApplyToDB(db *sql.DB) {
	db.SetMaxOpenConns(t.MaximumPoolSize)
	db.SetMaxIdleConns(t.MinimumIdle)
	db.SetConnMaxIdleTime(t.IdleTimeout)
	db.SetConnMaxLifetime(t.MaxLifetime)
}

// OpenSQLPool opens a database/sql pool for driverName, applies tuning and
// verifies connectivity within the connection timeout. The pool is closed
// again if the first ping fails.
func OpenSQLPool(ctx context.Context, driverName, dsn, dbType string, tuning PoolTuning, logger *zap.Logger) (*SQLPoolWrapper, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s pool: %w", dbType, err)
	}
	tuning.ApplyToDB(db)

	pingCtx := ctx
	if tuning.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, tuning.ConnectionTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", dbType, err)
	}

	logger.Info("opened connection pool",
		zap.String("type", dbType),
		zap.String("pool", tuning.PoolName),
		zap.String("dsn", logging.SanitizeConnectionString(dsn)),
		zap.Int("maxOpen", tuning.MaximumPoolSize),
		zap.Int("maxIdle", tuning.MinimumIdle),
	)
	return NewSQLPoolWrapper(db, dbType), nil
}
