// Package lifecycle ties the data source provider to the application
// lifecycle: the provider is initialized when the application starts and
// its pool, if one was ever opened, is closed when it stops.
package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-datasource/pkg/config"
)

// Options controls how the provider is started.
type Options struct {
	// Eager opens the pool during startup so a bad configuration fails the start.
	Eager bool
	// OpenRetries is how often a transient open failure is retried.
	OpenRetries int
}

// Params are the dependencies of NewProvider.
type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Source    datasource.ConfigurationSource
	Env       datasource.Environment `optional:"true"`
	Logger    *zap.Logger
	Options   Options `optional:"true"`
}

// Module provides *datasource.Provider and registers its start and stop hooks.
var Module = fx.Module("datasource",
	fx.Provide(NewProvider),
	fx.Invoke(func(*datasource.Provider) {}),
)

// ConfigModule supplies the provider dependencies from *config.Config.
var ConfigModule = fx.Provide(
	func(cfg *config.Config) datasource.ConfigurationSource { return cfg },
	func(cfg *config.Config) datasource.Environment { return cfg },
	func(cfg *config.Config) Options {
		return Options{Eager: cfg.Datasource.Eager, OpenRetries: cfg.Datasource.OpenRetries}
	},
)

// NewProvider creates the provider and appends its lifecycle hook.
func NewProvider(p Params) *datasource.Provider {
	provider := datasource.NewProvider(p.Source, p.Env,
		datasource.WithLogger(p.Logger),
		datasource.WithRetry(p.Options.OpenRetries),
	)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := provider.Initialize(); err != nil {
				return err
			}
			if !p.Options.Eager {
				return nil
			}
			if _, err := provider.GetDataSource(ctx); err != nil {
				return fmt.Errorf("failed to open data source: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return provider.Destroy()
		},
	})

	return provider
}

// Logger routes fx's own events to logger.
func Logger(logger *zap.Logger) fx.Option {
	return fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ZapLogger{Logger: logger.Named("fx")}
	})
}
