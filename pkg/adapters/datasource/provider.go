package datasource

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-datasource/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-datasource/pkg/logging"
	"github.com/ekaya-inc/ekaya-datasource/pkg/retry"
)

// Provider owns the process-wide pooled DataSource.
//
// Initialize registers how to build the pool without opening anything; the
// pool is opened by the first GetDataSource call and closed by Destroy.
// Construction and Destroy share one mutex, so at most one pool is ever
// created and none can appear after Destroy ran. Once the pool exists,
// GetDataSource is a lock-free atomic load.
type Provider struct {
	id       uuid.UUID
	source   ConfigurationSource
	env      Environment
	open     Opener
	retryCfg *retry.Config
	logger   *zap.Logger

	mu        sync.Mutex // guards factory, destroyed and pool construction
	factory   func(ctx context.Context) (DataSource, error)
	destroyed bool

	current atomic.Pointer[realized]
}

type realized struct {
	ds DataSource
}

// ProviderOption customizes a Provider.
type ProviderOption func(*Provider)

// WithOpener replaces the registry-backed Opener.
func WithOpener(open Opener) ProviderOption {
	return func(p *Provider) {
		p.open = open
	}
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(logger *zap.Logger) ProviderOption {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithRetry retries transient pool open failures up to maxRetries times.
// The default is a single attempt.
func WithRetry(maxRetries int) ProviderOption {
	return func(p *Provider) {
		p.retryCfg = retry.DefaultConfig(maxRetries)
	}
}

// NewProvider creates a Provider. source and env may be nil; their absence
// is only reported when the pool is first built.
func NewProvider(source ConfigurationSource, env Environment, opts ...ProviderOption) *Provider {
	p := &Provider{
		id:       uuid.New(),
		source:   source,
		env:      env,
		open:     Open,
		retryCfg: retry.DefaultConfig(0),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.logger = p.logger.With(zap.String("provider", p.id.String()))
	return p
}

// ID identifies this provider instance in logs.
func (p *Provider) ID() uuid.UUID {
	return p.id
}

// Initialize registers the lazy pool factory. It opens nothing.
func (p *Provider) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return apperrors.ErrProviderDestroyed
	}
	if p.factory != nil {
		return apperrors.ErrAlreadyInitialized
	}

	p.factory = p.build
	p.logger.Debug("data source provider initialized")
	return nil
}

// Initialized reports whether Initialize has run.
func (p *Provider) Initialized() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.factory != nil
}

// Realized reports whether the pool has been created and not yet destroyed.
func (p *Provider) Realized() bool {
	return p.current.Load() != nil
}

// GetDataSource returns the shared pool, creating it on first use.
// Concurrent first calls block until the single construction finishes and
// then all observe the same DataSource. A failed construction is returned
// unchanged and not cached, so a later call builds again.
func (p *Provider) GetDataSource(ctx context.Context) (DataSource, error) {
	if r := p.current.Load(); r != nil {
		return r.ds, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed {
		return nil, apperrors.ErrProviderDestroyed
	}
	if r := p.current.Load(); r != nil {
		return r.ds, nil
	}
	if p.factory == nil {
		return nil, apperrors.ErrUninitialized
	}

	ds, err := p.factory(ctx)
	if err != nil {
		return nil, err
	}
	p.current.Store(&realized{ds: ds})
	return ds, nil
}

// Destroy closes the pool if it was ever created. It is a no-op when the
// pool was never realized, including when Initialize was never called, and
// when called again. Only the pool's own close error is returned.
func (p *Provider) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.destroyed = true

	r := p.current.Swap(nil)
	if r == nil {
		p.logger.Debug("data source never opened, nothing to close",
			zap.Bool("initialized", p.factory != nil),
		)
		return nil
	}

	if err := r.ds.Close(); err != nil {
		p.logger.Error("failed to close data source",
			zap.String("type", r.ds.GetType()),
			zap.String("error", logging.SanitizeError(err)),
		)
		return err
	}
	p.logger.Info("data source closed", zap.String("type", r.ds.GetType()))
	return nil
}

// build reads the configuration, resolves path and URL, and opens the pool.
// Caller must hold p.mu.
func (p *Provider) build(ctx context.Context) (DataSource, error) {
	cfg, err := p.configuration()
	if err != nil {
		return nil, err
	}

	dataDir := ""
	if p.env != nil {
		dataDir = p.env.DataDirectory()
	}
	props, err := NormalizePath(cfg.Properties, dataDir)
	if err != nil {
		return nil, err
	}
	cfg.Properties = props

	settings := BuildSettings(*cfg)
	p.logger.Info("opening data source",
		zap.String("driver", settings.DriverClassName),
		zap.String("url", logging.SanitizeConnectionString(settings.JDBCURL)),
	)

	ds, err := retry.DoWithResult(ctx, p.retryCfg, func() (DataSource, error) {
		return p.open(ctx, settings, p.logger)
	})
	if err != nil {
		p.logger.Error("failed to open data source",
			zap.String("driver", settings.DriverClassName),
			zap.String("error", logging.SanitizeError(err)),
		)
		return nil, err
	}
	return ds, nil
}

// configuration returns a private copy of the current configuration.
func (p *Provider) configuration() (*Configuration, error) {
	if p.source == nil {
		return nil, fmt.Errorf("%w: no configuration source", apperrors.ErrMissingDependency)
	}
	cfg, err := p.source.Configuration()
	if err != nil {
		return nil, fmt.Errorf("failed to load data source configuration: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: data source configuration not provided", apperrors.ErrMissingDependency)
	}
	return cfg.Clone(), nil
}
