package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-datasource/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-datasource/pkg/testhelpers"
)

// Integration test - uses test container for isolation
func TestOpen_Integration(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	settings := datasource.BuildSettings(datasource.Configuration{
		Driver:   "org.postgresql.Driver",
		URL:      "jdbc:postgresql://{host}:{port}/{database}?sslmode=disable",
		Username: testDB.User,
		Password: testDB.Password,
		Properties: datasource.Properties{
			{Key: "host", Value: testDB.Host},
			{Key: "port", Value: testDB.Port},
			{Key: "database", Value: testDB.Database},
			{Key: "maximumPoolSize", Value: 3},
			{Key: "poolName", Value: "integration"},
		},
	})

	ds, err := Open(ctx, settings, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "postgres", ds.GetType())

	conn, err := ds.Acquire(ctx)
	require.NoError(t, err)

	var result int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT 1").Scan(&result))
	assert.Equal(t, 1, result)
	require.NoError(t, conn.Close())

	wrapper, ok := ds.(*datasource.PostgresPoolWrapper)
	require.True(t, ok)
	assert.Equal(t, int32(3), wrapper.GetPool().Config().MaxConns)

	require.NoError(t, ds.Close())

	_, err = ds.Acquire(ctx)
	assert.True(t, errors.Is(err, apperrors.ErrPoolClosed), "expected ErrPoolClosed, got %v", err)
}

func TestOpen_ConnectionFailure(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping connection failure test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	settings := datasource.BuildSettings(datasource.Configuration{
		Driver:   "postgres",
		URL:      "jdbc:postgresql://127.0.0.1:1/nowhere?sslmode=disable",
		Username: "nobody",
		Properties: datasource.Properties{
			{Key: "connectionTimeout", Value: 500},
		},
	})

	_, err := Open(ctx, settings, zaptest.NewLogger(t))
	require.Error(t, err)
}
