package mysql

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/spf13/cast"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-datasource/pkg/config"
)

// DefaultPort returns the default MySQL port.
func DefaultPort() int {
	return 3306
}

// Config wraps the driver configuration plus the URL properties that had
// no driver equivalent.
type Config struct {
	Driver  *gomysql.Config
	Ignored []string
}

// FromSettings translates resolved pool settings into a driver config.
//
//	jdbc:mysql://host:3306/orders?connectTimeout=5000&serverTimezone=UTC
//	jdbc:mariadb://host/orders
//
// Anything without a jdbc: prefix is parsed as a native go-sql-driver DSN
// ("user:pass@tcp(host:3306)/orders"). "dataSource.*" properties become
// driver DSN parameters.
func FromSettings(settings *datasource.PoolSettings) (*Config, error) {
	var cfg *Config
	if u, ok := datasource.ParseJDBCURL(settings.JDBCURL); ok {
		switch u.Subprotocol {
		case "mysql", "mariadb":
		default:
			return nil, fmt.Errorf("not a MySQL URL: jdbc:%s", u.Subprotocol)
		}
		c, err := fromJDBC(u.Rest)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		if strings.TrimSpace(settings.JDBCURL) == "" {
			return nil, fmt.Errorf("url is required")
		}
		dc, err := gomysql.ParseDSN(settings.JDBCURL)
		if err != nil {
			return nil, fmt.Errorf("invalid MySQL DSN: %w", err)
		}
		cfg = &Config{Driver: dc}
	}

	if settings.Username != "" {
		cfg.Driver.User = settings.Username
	}
	if settings.Password != "" {
		cfg.Driver.Passwd = settings.Password
	}
	for _, p := range settings.Properties.DriverProperties() {
		if cfg.Driver.Params == nil {
			cfg.Driver.Params = make(map[string]string)
		}
		cfg.Driver.Params[p.Key] = p.Value.(string)
	}

	if cfg.Driver.Net == "tcp" {
		host, port, err := net.SplitHostPort(cfg.Driver.Addr)
		if err == nil {
			cfg.Driver.Addr = net.JoinHostPort(config.ResolveHostForDocker(host), port)
		}
	}
	return cfg, nil
}

// fromJDBC parses "//host[:port]/db?k=v&...".
func fromJDBC(rest string) (*Config, error) {
	if !strings.HasPrefix(rest, "//") {
		return nil, fmt.Errorf("invalid MySQL URL: expected jdbc:mysql://")
	}
	u, err := url.Parse("mysql:" + rest)
	if err != nil {
		return nil, fmt.Errorf("invalid MySQL URL: %w", err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("host is required")
	}
	if strings.Contains(u.Host, ",") {
		return nil, fmt.Errorf("multi-host MySQL URLs are not supported")
	}

	port := DefaultPort()
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("invalid port: %s", p)
		}
	}

	dc := gomysql.NewConfig()
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	dc.DBName = strings.TrimPrefix(u.Path, "/")
	dc.ParseTime = true
	if u.User != nil {
		dc.User = u.User.Username()
		dc.Passwd, _ = u.User.Password()
	}

	cfg := &Config{Driver: dc}
	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := cfg.apply(k, q.Get(k)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// apply maps a Connector/J property onto the driver config.
func (c *Config) apply(key, value string) error {
	dc := c.Driver
	switch strings.ToLower(key) {
	case "user":
		dc.User = value
	case "password":
		dc.Passwd = value
	case "connecttimeout":
		d, err := millis(key, value)
		if err != nil {
			return err
		}
		dc.Timeout = d
	case "sockettimeout":
		d, err := millis(key, value)
		if err != nil {
			return err
		}
		dc.ReadTimeout = d
		dc.WriteTimeout = d
	case "servertimezone", "connectiontimezone":
		loc, err := time.LoadLocation(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		dc.Loc = loc
	case "usessl":
		b, err := cast.ToBoolE(value)
		if err != nil {
			return fmt.Errorf("invalid useSSL %q: %w", value, err)
		}
		if b {
			dc.TLSConfig = "true"
		} else {
			dc.TLSConfig = "false"
		}
	case "sslmode":
		switch strings.ToUpper(value) {
		case "DISABLED":
			dc.TLSConfig = "false"
		case "PREFERRED":
			dc.TLSConfig = "preferred"
		case "REQUIRED":
			dc.TLSConfig = "skip-verify"
		case "VERIFY_CA", "VERIFY_IDENTITY":
			dc.TLSConfig = "true"
		default:
			return fmt.Errorf("invalid sslMode %q", value)
		}
	case "allowpublickeyretrieval", "useunicode", "autoreconnect":
		// the driver always behaves this way
	case "characterencoding":
		if strings.EqualFold(value, "utf-8") || strings.EqualFold(value, "utf8") {
			dc.Params = setParam(dc.Params, "charset", "utf8mb4")
		} else {
			dc.Params = setParam(dc.Params, "charset", value)
		}
	default:
		// Unknown parameters would be sent to the server as SET statements.
		c.Ignored = append(c.Ignored, key)
	}
	return nil
}

// DSN renders the config in go-sql-driver form.
func (c *Config) DSN() string {
	return c.Driver.FormatDSN()
}

func millis(key, value string) (time.Duration, error) {
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be milliseconds", key, value)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func setParam(params map[string]string, key, value string) map[string]string {
	if params == nil {
		params = make(map[string]string)
	}
	params[key] = value
	return params
}
