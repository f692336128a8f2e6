package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
	_ "github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource/mssql"
	_ "github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource/mysql"
	_ "github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource/postgres"
	_ "github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource/sqlite"
	"github.com/ekaya-inc/ekaya-datasource/pkg/config"
	"github.com/ekaya-inc/ekaya-datasource/pkg/handlers"
	"github.com/ekaya-inc/ekaya-datasource/pkg/lifecycle"
	"github.com/ekaya-inc/ekaya-datasource/pkg/logging"
	"github.com/ekaya-inc/ekaya-datasource/pkg/middleware"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	drivers := make([]string, 0)
	for _, d := range datasource.RegisteredDrivers() {
		drivers = append(drivers, d.Type)
	}
	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("data_dir", cfg.DataDir),
		zap.String("datasource_driver", cfg.Datasource.Driver),
		zap.String("datasource_url", logging.SanitizeConnectionString(cfg.Datasource.URL)),
		zap.Bool("datasource_eager", cfg.Datasource.Eager),
		zap.Strings("drivers", drivers),
	)

	app := fx.New(
		lifecycle.Logger(logger),
		fx.StopTimeout(cfg.ShutdownTimeout),
		fx.Supply(cfg, logger),
		lifecycle.ConfigModule,
		lifecycle.Module,
		fx.Provide(newHTTPServer),
		fx.Invoke(func(*http.Server) {}),
	)
	app.Run()
}

// newHTTPServer serves the health endpoints for as long as the application runs.
func newHTTPServer(lc fx.Lifecycle, cfg *config.Config, provider *datasource.Provider, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, provider, logger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           middleware.RequestLogger(logger)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info("Starting ekaya-datasource",
				zap.String("addr", srv.Addr),
				zap.String("version", cfg.Version),
			)
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("Server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down server")
			return srv.Shutdown(ctx)
		},
	})
	return srv
}
