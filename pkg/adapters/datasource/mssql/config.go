package mssql

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/microsoft/go-mssqldb/azuread"
	"github.com/spf13/cast"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-datasource/pkg/config"
)

// Config contains SQL Server-specific connection options.
type Config struct {
	Host     string
	Instance string
	Port     int
	Database string

	// SQL Authentication fields. With FedAuth set they carry the Azure AD
	// client id and secret (or user and password) instead.
	Username string
	Password string

	// FedAuth selects Azure AD authentication, e.g. "ActiveDirectoryServicePrincipal".
	FedAuth string

	// Connection options
	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int // seconds

	// Params are passed to the driver unchanged.
	Params []datasource.Property

	// native holds a caller-supplied sqlserver:// or ADO connection string.
	native string
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// FromSettings translates resolved pool settings into a SQL Server config.
//
//	jdbc:sqlserver://host\instance:1433;databaseName=orders;encrypt=false
//
// Anything without a jdbc: prefix is used as a native go-mssqldb connection
// string. "dataSource.*" properties are applied like JDBC URL properties.
func FromSettings(settings *datasource.PoolSettings) (*Config, error) {
	cfg := &Config{
		Port:              DefaultPort(),
		Encrypt:           true,
		ConnectionTimeout: DefaultConnectionTimeout(),
	}

	u, ok := datasource.ParseJDBCURL(settings.JDBCURL)
	if !ok {
		if strings.TrimSpace(settings.JDBCURL) == "" {
			return nil, fmt.Errorf("url is required")
		}
		cfg.native = settings.JDBCURL
		cfg.Username = settings.Username
		cfg.Password = settings.Password
		cfg.Params = settings.Properties.DriverProperties()
		return cfg, nil
	}
	if u.Subprotocol != "sqlserver" {
		return nil, fmt.Errorf("not a SQL Server URL: jdbc:%s", u.Subprotocol)
	}

	rest, ok := strings.CutPrefix(u.Rest, "//")
	if !ok {
		return nil, fmt.Errorf("invalid SQL Server URL: expected jdbc:sqlserver://")
	}
	segments := strings.Split(rest, ";")
	if err := cfg.parseServer(segments[0]); err != nil {
		return nil, err
	}
	for _, seg := range segments[1:] {
		if strings.TrimSpace(seg) == "" {
			continue
		}
		key, value, _ := strings.Cut(seg, "=")
		if err := cfg.apply(strings.TrimSpace(key), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}
	for _, p := range settings.Properties.DriverProperties() {
		if err := cfg.apply(p.Key, p.Value.(string)); err != nil {
			return nil, err
		}
	}

	if settings.Username != "" {
		cfg.Username = settings.Username
	}
	if settings.Password != "" {
		cfg.Password = settings.Password
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseServer reads "host[\instance][:port]". IPv6 hosts are bracketed.
func (c *Config) parseServer(server string) error {
	hostPart := server
	if i := strings.LastIndex(server, ":"); i > strings.LastIndex(server, "]") {
		port, err := strconv.Atoi(server[i+1:])
		if err != nil {
			return fmt.Errorf("invalid port in %q: %w", server, err)
		}
		c.Port = port
		hostPart = server[:i]
	}
	host, instance, _ := strings.Cut(hostPart, `\`)
	c.Host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	c.Instance = instance
	return nil
}

// apply maps a JDBC connection property onto the config.
func (c *Config) apply(key, value string) error {
	switch strings.ToLower(key) {
	case "databasename", "database":
		c.Database = value
	case "servername":
		c.Host = value
	case "instancename":
		c.Instance = value
	case "portnumber", "port":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, value, err)
		}
		c.Port = port
	case "user", "username":
		c.Username = value
	case "password":
		c.Password = value
	case "encrypt":
		// "strict" and "mandatory" are JDBC spellings of true
		switch strings.ToLower(value) {
		case "strict", "mandatory":
			c.Encrypt = true
		case "optional":
			c.Encrypt = false
		default:
			b, err := cast.ToBoolE(value)
			if err != nil {
				return fmt.Errorf("invalid encrypt %q: %w", value, err)
			}
			c.Encrypt = b
		}
	case "trustservercertificate":
		b, err := cast.ToBoolE(value)
		if err != nil {
			return fmt.Errorf("invalid trustServerCertificate %q: %w", value, err)
		}
		c.TrustServerCertificate = b
	case "logintimeout":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid loginTimeout %q: %w", value, err)
		}
		c.ConnectionTimeout = n
	case "applicationname":
		c.Params = append(c.Params, datasource.Property{Key: "app name", Value: value})
	case "authentication":
		if !strings.EqualFold(value, "SqlPassword") && !strings.EqualFold(value, "NotSpecified") {
			c.FedAuth = value
		}
	default:
		c.Params = append(c.Params, datasource.Property{Key: key, Value: value})
	}
	return nil
}

// Validate checks if the config has all required fields.
func (c *Config) Validate() error {
	if c.native != "" {
		return nil
	}
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.ConnectionTimeout < 0 {
		return fmt.Errorf("invalid connection timeout: %d", c.ConnectionTimeout)
	}
	return nil
}

// DriverName returns the database/sql driver that understands the config.
func (c *Config) DriverName() string {
	if c.FedAuth != "" {
		return azuread.DriverName
	}
	return "sqlserver"
}

// ConnectionString renders the go-mssqldb URL form.
// When running in Docker, localhost is resolved to host.docker.internal.
func (c *Config) ConnectionString() string {
	if c.native != "" {
		return c.nativeConnectionString()
	}

	query := url.Values{}
	if c.Database != "" {
		query.Add("database", c.Database)
	}
	if c.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}
	if c.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}
	if c.ConnectionTimeout > 0 {
		query.Add("connection timeout", strconv.Itoa(c.ConnectionTimeout))
	}
	if c.FedAuth != "" {
		query.Add("fedauth", c.FedAuth)
	}
	for _, p := range c.Params {
		query.Add(p.Key, p.Value.(string))
	}

	u := url.URL{
		Scheme:   "sqlserver",
		Host:     net.JoinHostPort(config.ResolveHostForDocker(c.Host), strconv.Itoa(c.Port)),
		RawQuery: query.Encode(),
	}
	if c.Instance != "" {
		u.Path = "/" + c.Instance
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u.String()
}

// nativeConnectionString applies explicit credentials and driver properties
// to a caller-supplied connection string.
func (c *Config) nativeConnectionString() string {
	if strings.HasPrefix(strings.ToLower(c.native), "sqlserver://") {
		u, err := url.Parse(c.native)
		if err != nil {
			return c.native
		}
		if c.Username != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		}
		if len(c.Params) > 0 {
			q := u.Query()
			for _, p := range c.Params {
				q.Set(p.Key, p.Value.(string))
			}
			u.RawQuery = q.Encode()
		}
		return u.String()
	}

	// ADO form: server=...;database=...
	var b strings.Builder
	b.WriteString(strings.TrimRight(c.native, ";"))
	if c.Username != "" {
		fmt.Fprintf(&b, ";user id=%s;password=%s", c.Username, c.Password)
	}
	for _, p := range c.Params {
		fmt.Fprintf(&b, ";%s=%s", p.Key, p.Value)
	}
	return b.String()
}
