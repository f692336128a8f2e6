package datasource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func tuningFor(t *testing.T, props Properties) (PoolTuning, error) {
	t.Helper()
	return TuningFromSettings(BuildSettings(Configuration{Properties: props}))
}

func TestTuningFromSettings_Defaults(t *testing.T) {
	tuning, err := tuningFor(t, nil)
	require.NoError(t, err)

	assert.Equal(t, PoolTuning{
		MaximumPoolSize:   DefaultMaximumPoolSize,
		MinimumIdle:       DefaultMaximumPoolSize,
		IdleTimeout:       DefaultIdleTimeout,
		MaxLifetime:       DefaultMaxLifetime,
		ConnectionTimeout: DefaultConnectionTimeout,
	}, tuning)
}

func TestTuningFromSettings_Values(t *testing.T) {
	tuning, err := tuningFor(t, Properties{
		{Key: "poolName", Value: "orders"},
		{Key: "maximumPoolSize", Value: "20"},
		{Key: "minimumIdle", Value: 2},
		{Key: "idleTimeout", Value: 60000},
		{Key: "maxLifetime", Value: "15m"},
		{Key: "connectionTimeout", Value: "2500"},
	})
	require.NoError(t, err)

	assert.Equal(t, "orders", tuning.PoolName)
	assert.Equal(t, 20, tuning.MaximumPoolSize)
	assert.Equal(t, 2, tuning.MinimumIdle)
	assert.Equal(t, time.Minute, tuning.IdleTimeout)
	assert.Equal(t, 15*time.Minute, tuning.MaxLifetime)
	assert.Equal(t, 2500*time.Millisecond, tuning.ConnectionTimeout)
}

func TestTuningFromSettings_MinimumIdleCapped(t *testing.T) {
	tuning, err := tuningFor(t, Properties{
		{Key: "maximumPoolSize", Value: 4},
		{Key: "minimumIdle", Value: 10},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, tuning.MinimumIdle)
}

func TestTuningFromSettings_ZeroDurationsMeanNoLimit(t *testing.T) {
	tuning, err := tuningFor(t, Properties{
		{Key: "idleTimeout", Value: 0},
		{Key: "maxLifetime", Value: "0"},
	})
	require.NoError(t, err)

	assert.Zero(t, tuning.IdleTimeout)
	assert.Zero(t, tuning.MaxLifetime)
}

func TestTuningFromSettings_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		props Properties
	}{
		{"zero pool size", Properties{{Key: "maximumPoolSize", Value: 0}}},
		{"non-numeric pool size", Properties{{Key: "maximumPoolSize", Value: "lots"}}},
		{"pool size above int32", Properties{{Key: "maximumPoolSize", Value: int64(1<<32 + 1)}}},
		{"pool size just above int32", Properties{{Key: "maximumPoolSize", Value: "2147483648"}}},
		{"negative minimum idle", Properties{{Key: "minimumIdle", Value: -1}}},
		{"negative timeout", Properties{{Key: "connectionTimeout", Value: -5}}},
		{"negative duration string", Properties{{Key: "idleTimeout", Value: "-1s"}}},
		{"garbage duration", Properties{{Key: "maxLifetime", Value: "forever"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tuningFor(t, tt.props)
			assert.Error(t, err)
		})
	}
}

func TestOpenSQLPool_UnknownDriver(t *testing.T) {
	tuning, err := tuningFor(t, nil)
	require.NoError(t, err)

	_, err = OpenSQLPool(context.Background(), "no-such-driver", "dsn", "test", tuning, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open test pool")
}
