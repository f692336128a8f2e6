package postgres

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	// ConnString is a libpq URL or keyword/value string understood by pgx.
	ConnString string
	// User and Password override credentials in ConnString when non-empty.
	User     string
	Password string
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// FromSettings translates resolved pool settings into a pgx connection string.
//
//	jdbc:postgresql://host:port/db?sslmode=disable -> postgres://host:port/db?sslmode=disable
//	jdbc:postgresql:db                             -> postgres://localhost/db
//
// Anything without a jdbc: prefix is used as a native pgx connection string.
// "dataSource.*" properties are added as connection parameters.
func FromSettings(settings *datasource.PoolSettings) (*Config, error) {
	connStr := settings.JDBCURL
	if u, ok := datasource.ParseJDBCURL(connStr); ok {
		switch u.Subprotocol {
		case "postgresql", "postgres", "pgsql":
		default:
			return nil, fmt.Errorf("not a PostgreSQL URL: jdbc:%s", u.Subprotocol)
		}
		rest := u.Rest
		if !strings.HasPrefix(rest, "//") {
			rest = "//localhost/" + rest
		}
		connStr = "postgres:" + rest
	}
	if strings.TrimSpace(connStr) == "" {
		return nil, fmt.Errorf("url is required")
	}

	connStr, err := appendParams(connStr, settings.Properties.DriverProperties())
	if err != nil {
		return nil, err
	}

	return &Config{
		ConnString: connStr,
		User:       settings.Username,
		Password:   settings.Password,
	}, nil
}

// appendParams adds driver properties to either connection string form.
func appendParams(connStr string, params []datasource.Property) (string, error) {
	if len(params) == 0 {
		return connStr, nil
	}

	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		u, err := url.Parse(connStr)
		if err != nil {
			return "", fmt.Errorf("invalid PostgreSQL URL: %w", err)
		}
		q := u.Query()
		for _, p := range params {
			q.Set(p.Key, p.Value.(string))
		}
		u.RawQuery = q.Encode()
		return u.String(), nil
	}

	var b strings.Builder
	b.WriteString(connStr)
	for _, p := range params {
		value := p.Value.(string)
		value = strings.ReplaceAll(value, `\`, `\\`)
		value = strings.ReplaceAll(value, `'`, `\'`)
		fmt.Fprintf(&b, " %s='%s'", p.Key, value)
	}
	return b.String(), nil
}
