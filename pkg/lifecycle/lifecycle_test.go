package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/ekaya-datasource/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-datasource/pkg/config"
)

func sqliteConfig(t *testing.T, eager bool) *config.Config {
	t.Helper()
	return &config.Config{
		DataDir: t.TempDir(),
		Datasource: config.DatasourceConfig{
			Driver:     "org.sqlite.JDBC",
			URL:        "jdbc:sqlite:{path}",
			Eager:      eager,
			Properties: datasource.Properties{{Key: "path", Value: "./app.db"}},
		},
	}
}

func TestModule_StartInitializesWithoutOpening(t *testing.T) {
	cfg := sqliteConfig(t, false)
	logger := zaptest.NewLogger(t)

	var provider *datasource.Provider
	app := fxtest.New(t,
		Logger(logger),
		fx.Supply(cfg, logger),
		ConfigModule,
		Module,
		fx.Populate(&provider),
	)
	app.RequireStart()

	require.NotNil(t, provider)
	assert.True(t, provider.Initialized())
	assert.False(t, provider.Realized())
	_, err := os.Stat(filepath.Join(cfg.DataDir, "app.db"))
	assert.True(t, os.IsNotExist(err), "lazy start must not create the database")

	ds, err := provider.GetDataSource(context.Background())
	require.NoError(t, err)
	require.NoError(t, ds.Ping(context.Background()))

	app.RequireStop()

	assert.False(t, provider.Realized())
	_, err = ds.Acquire(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrPoolClosed), "expected ErrPoolClosed, got %v", err)
	_, err = provider.GetDataSource(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrProviderDestroyed))
}

func TestModule_StopWithoutUse(t *testing.T) {
	cfg := sqliteConfig(t, false)
	logger := zaptest.NewLogger(t)

	var provider *datasource.Provider
	app := fxtest.New(t,
		Logger(logger),
		fx.Supply(cfg, logger),
		ConfigModule,
		Module,
		fx.Populate(&provider),
	)
	app.RequireStart().RequireStop()

	_, err := os.Stat(filepath.Join(cfg.DataDir, "app.db"))
	assert.True(t, os.IsNotExist(err), "stop must not open a pool that was never used")
}

func TestModule_EagerStartOpensPool(t *testing.T) {
	cfg := sqliteConfig(t, true)
	logger := zaptest.NewLogger(t)

	var provider *datasource.Provider
	app := fxtest.New(t,
		Logger(logger),
		fx.Supply(cfg, logger),
		ConfigModule,
		Module,
		fx.Populate(&provider),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.True(t, provider.Realized())
	_, err := os.Stat(filepath.Join(cfg.DataDir, "app.db"))
	assert.NoError(t, err)
}

func TestModule_EagerStartFailure(t *testing.T) {
	cfg := sqliteConfig(t, true)
	cfg.Datasource.Driver = "org.h2.Driver"
	logger := zaptest.NewLogger(t)

	app := fx.New(
		Logger(logger),
		fx.Supply(cfg, logger),
		ConfigModule,
		Module,
	)
	require.NoError(t, app.Err())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := app.Start(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnsupportedDriver), "got %v", err)
}

func TestNewProvider_WithoutEnvironment(t *testing.T) {
	logger := zaptest.NewLogger(t)
	dbPath := filepath.ToSlash(filepath.Join(t.TempDir(), "abs.db"))
	source := datasource.ConfigurationSourceFunc(func() (*datasource.Configuration, error) {
		return &datasource.Configuration{URL: "jdbc:sqlite:" + dbPath}, nil
	})

	var provider *datasource.Provider
	app := fxtest.New(t,
		Logger(logger),
		fx.Supply(logger),
		fx.Provide(func() datasource.ConfigurationSource { return source }),
		fx.Supply(Options{Eager: true}),
		Module,
		fx.Populate(&provider),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.True(t, provider.Realized())
}
