package sqlite

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
)

// DefaultBusyTimeout is applied unless a busy_timeout pragma is configured.
const DefaultBusyTimeout = "5000"

const memoryPath = ":memory:"

// Config contains SQLite-specific connection options.
type Config struct {
	// Path is a file path or a "file:" URI without its query.
	Path  string
	Query url.Values
}

// FromSettings translates resolved pool settings into a SQLite config.
//
//	jdbc:sqlite:/srv/app/data.db
//	jdbc:sqlite::memory:
//	file:data.db?mode=ro
//
// "dataSource.*" properties become pragmas ("dataSource.journal_mode: WAL"),
// except names starting with "_", which are passed as driver parameters.
func FromSettings(settings *datasource.PoolSettings) (*Config, error) {
	raw := settings.JDBCURL
	if u, ok := datasource.ParseJDBCURL(raw); ok {
		if u.Subprotocol != "sqlite" {
			return nil, fmt.Errorf("not a SQLite URL: jdbc:%s", u.Subprotocol)
		}
		raw = u.Rest
	}

	p, rawQuery, _ := strings.Cut(raw, "?")
	if strings.TrimSpace(p) == "" || p == "file:" {
		return nil, fmt.Errorf("database path is required")
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid SQLite URL parameters: %w", err)
	}

	cfg := &Config{Path: p, Query: query}
	for _, prop := range settings.Properties.DriverProperties() {
		value := prop.Value.(string)
		if strings.HasPrefix(prop.Key, "_") {
			cfg.Query.Set(prop.Key, value)
			continue
		}
		cfg.Query.Add("_pragma", fmt.Sprintf("%s(%s)", prop.Key, value))
	}
	if !cfg.hasPragma("busy_timeout") {
		cfg.Query.Add("_pragma", "busy_timeout("+DefaultBusyTimeout+")")
	}
	return cfg, nil
}

func (c *Config) hasPragma(name string) bool {
	for _, v := range c.Query["_pragma"] {
		if strings.HasPrefix(strings.ToLower(v), name+"(") || strings.HasPrefix(strings.ToLower(v), name+"=") {
			return true
		}
	}
	return false
}

// InMemory reports whether the database lives only in memory. Each
// connection to such a database would see its own empty database.
func (c *Config) InMemory() bool {
	p := strings.TrimPrefix(c.Path, "file:")
	return p == memoryPath || p == "" || c.Query.Get("mode") == "memory"
}

// FilePath returns the on-disk location of the database, or "" when it is
// in memory.
func (c *Config) FilePath() string {
	if c.InMemory() {
		return ""
	}
	p := strings.TrimPrefix(c.Path, "file:")
	if strings.HasPrefix(c.Path, "file:") {
		if unescaped, err := url.PathUnescape(p); err == nil {
			p = unescaped
		}
	}
	return filepath.FromSlash(p)
}

// DSN renders the config for modernc.org/sqlite.
func (c *Config) DSN() string {
	if len(c.Query) == 0 {
		return c.Path
	}
	return c.Path + "?" + c.Query.Encode()
}
