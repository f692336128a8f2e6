package datasource

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cast"

	"github.com/ekaya-inc/ekaya-datasource/pkg/apperrors"
)

// PathProperty is the property rewritten against the data directory when it
// holds a relative path.
const PathProperty = "path"

// Names under which explicit settings shadow passthrough properties.
const (
	DriverClassNameKey = "driverClassName"
	JDBCURLKey         = "jdbcUrl"
	UsernameKey        = "username"
	PasswordKey        = "password"
)

// Configuration describes the pooled data source to build.
// It is treated as immutable once handed to a Provider.
type Configuration struct {
	Driver     string
	URL        string // may contain {property} placeholders
	Username   string
	Password   string
	Properties Properties
}

// Clone returns a copy of c that shares no mutable state with it.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := *c
	out.Properties = c.Properties.Clone()
	return &out
}

// PoolSettings is the engine-facing description of a pool: the passthrough
// property bag plus the explicit connection fields.
type PoolSettings struct {
	DriverClassName string
	JDBCURL         string
	Username        string
	Password        string
	Properties      Properties
}

// Lookup returns a setting by name. Explicit fields take precedence over a
// passthrough property with the same name.
func (s *PoolSettings) Lookup(key string) (any, bool) {
	switch key {
	case DriverClassNameKey:
		return s.DriverClassName, true
	case JDBCURLKey:
		return s.JDBCURL, true
	case UsernameKey:
		return s.Username, true
	case PasswordKey:
		return s.Password, true
	}
	return s.Properties.Get(key)
}

// BuildSettings translates a Configuration into PoolSettings: every property
// is copied into the passthrough bag, the URL template is resolved against
// the properties, and the explicit fields are set last.
func BuildSettings(cfg Configuration) *PoolSettings {
	return &PoolSettings{
		Properties:      cfg.Properties.Clone(),
		DriverClassName: cfg.Driver,
		JDBCURL:         ResolveURL(cfg.URL, cfg.Properties),
		Username:        cfg.Username,
		Password:        cfg.Password,
	}
}

// NormalizePath rewrites a relative "path" property (one starting with ".")
// into an absolute, forward-slash path under dataDir. The input is never
// modified; a copy is returned. Non-string and non-relative values are left
// as they are.
func NormalizePath(props Properties, dataDir string) (Properties, error) {
	raw, ok := props.Get(PathProperty)
	if !ok {
		return props.Clone(), nil
	}
	p, ok := raw.(string)
	if !ok || !strings.HasPrefix(p, ".") {
		return props.Clone(), nil
	}

	if dataDir == "" {
		return nil, fmt.Errorf("%w: data directory is required to resolve relative path %q", apperrors.ErrMissingDependency, p)
	}
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory %q: %w", dataDir, err)
	}

	resolved := path.Join(filepath.ToSlash(absDir), strings.ReplaceAll(p, `\`, "/"))
	return props.With(PathProperty, resolved), nil
}

// ResolveURL substitutes {name} placeholders in template with the string
// form of the matching property. The template is scanned once from left to
// right: substituted text is never rescanned and placeholders without a
// matching property are kept literally.
func ResolveURL(template string, props Properties) string {
	if !strings.Contains(template, "{") {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	i := 0
	for i < len(template) {
		open := strings.IndexByte(template[i:], '{')
		if open < 0 {
			break
		}
		open += i

		end := strings.IndexByte(template[open+1:], '}')
		if end < 0 {
			break
		}
		end += open + 1

		b.WriteString(template[i:open])
		if v, ok := props.Get(template[open+1 : end]); ok {
			b.WriteString(stringify(v))
			i = end + 1
		} else {
			// Keep the brace and continue right after it so "{{path}" still resolves the inner placeholder.
			b.WriteByte('{')
			i = open + 1
		}
	}
	b.WriteString(template[i:])
	return b.String()
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
