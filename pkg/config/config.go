package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
)

// DefaultPath is the configuration file read by Load unless CONFIG_PATH is set.
const DefaultPath = "config.yaml"

// Config holds all configuration for ekaya-datasource.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr        string        `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port            string        `yaml:"port" env:"PORT" env-default:"3443"`
	Env             string        `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
	Version         string        `yaml:"-"` // Set at load time, not from config

	// DataDir is the root for relative database file paths.
	DataDir string `yaml:"data_dir" env:"DATA_DIR" env-default:"./data"`

	// Pooled data source configuration
	Datasource DatasourceConfig `yaml:"datasource"`
}

// DatasourceConfig describes the single pooled data source of the process.
type DatasourceConfig struct {
	// Driver is an engine type ("sqlite") or JDBC driver class name
	// ("org.sqlite.JDBC"). Empty means infer it from the URL.
	Driver string `yaml:"driver" env:"DATASOURCE_DRIVER" env-default:""`
	// URL may contain {property} placeholders.
	URL      string `yaml:"url" env:"DATASOURCE_URL" env-default:""`
	Username string `yaml:"username" env:"DATASOURCE_USERNAME" env-default:""`
	Password string `yaml:"-" env:"DATASOURCE_PASSWORD"` // Secret - not in YAML

	// Eager opens the pool during startup instead of on first use.
	Eager bool `yaml:"eager" env:"DATASOURCE_EAGER" env-default:"false"`
	// OpenRetries is how often a transient open failure is retried.
	OpenRetries int `yaml:"open_retries" env:"DATASOURCE_OPEN_RETRIES" env-default:"0"`

	// Properties are pool tuning and driver properties, in file order.
	Properties datasource.Properties `yaml:"properties"`
}

// Load reads configuration from config.yaml (or CONFIG_PATH) with
// environment variable overrides. The version parameter is injected at
// build time and set on the returned Config.
func Load(version string) (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return LoadFrom(path, version)
}

// LoadFrom reads configuration from path with environment variable overrides.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Datasource.OpenRetries < 0 {
		return fmt.Errorf("datasource.open_retries must not be negative, got %d", c.Datasource.OpenRetries)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("shutdown_timeout must not be negative, got %s", c.ShutdownTimeout)
	}
	if c.Datasource.Eager && !c.Datasource.IsConfigured() {
		return fmt.Errorf("datasource.eager requires datasource.url")
	}
	return nil
}

// IsConfigured returns true if a data source URL was provided.
func (d *DatasourceConfig) IsConfigured() bool {
	return strings.TrimSpace(d.URL) != ""
}

// Configuration returns a copy of the data source configuration, or nil if
// none was provided. It makes *Config a datasource.ConfigurationSource.
func (c *Config) Configuration() (*datasource.Configuration, error) {
	if c == nil || !c.Datasource.IsConfigured() {
		return nil, nil
	}
	return &datasource.Configuration{
		Driver:     c.Datasource.Driver,
		URL:        c.Datasource.URL,
		Username:   c.Datasource.Username,
		Password:   c.Datasource.Password,
		Properties: c.Datasource.Properties.Clone(),
	}, nil
}

// DataDirectory returns the root for relative database paths. It makes
// *Config a datasource.Environment.
func (c *Config) DataDirectory() string {
	if c == nil {
		return ""
	}
	return c.DataDir
}

var (
	_ datasource.ConfigurationSource = (*Config)(nil)
	_ datasource.Environment         = (*Config)(nil)
)
