package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-datasource/pkg/apperrors"
)

// DriverInfo describes a registered pool engine.
type DriverInfo struct {
	Type        string   `json:"type"`         // "postgres", "mssql", "mysql", "sqlite"
	DisplayName string   `json:"display_name"` // "PostgreSQL", "Microsoft SQL Server"
	Description string   `json:"description"`
	Aliases     []string `json:"aliases"` // driver class names and JDBC subprotocols
}

// DriverRegistration contains info + the function that opens a pool.
type DriverRegistration struct {
	Info DriverInfo
	Open Opener
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]DriverRegistration) // key: lower-cased type
	aliases    = make(map[string]string)             // lower-cased alias -> type key
)

// Register is called by each engine's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg DriverRegistration) {
	registryMu.Lock()
	defer registryMu.Unlock()

	key := strings.ToLower(reg.Info.Type)
	registry[key] = reg
	aliases[key] = key
	for _, alias := range reg.Info.Aliases {
		aliases[strings.ToLower(alias)] = key
	}
}

// RegisteredDrivers returns info for all registered engines, sorted by type.
func RegisteredDrivers() []DriverInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DriverInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// Lookup finds the engine registered under a type or alias (case-insensitive).
func Lookup(driver string) (DriverRegistration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	key, ok := aliases[strings.ToLower(driver)]
	if !ok {
		return DriverRegistration{}, false
	}
	reg, ok := registry[key]
	return reg, ok
}

// IsRegistered checks if an engine is available for driver.
func IsRegistered(driver string) bool {
	_, ok := Lookup(driver)
	return ok
}

// resolveDriver picks the engine for settings: the explicit driver class
// name when given, otherwise the JDBC subprotocol of the URL.
func resolveDriver(settings *PoolSettings) (DriverRegistration, error) {
	name := settings.DriverClassName
	if name == "" {
		u, ok := ParseJDBCURL(settings.JDBCURL)
		if !ok {
			return DriverRegistration{}, fmt.Errorf("%w: no driver configured and URL is not a jdbc: URL", apperrors.ErrUnsupportedDriver)
		}
		name = u.Subprotocol
	}

	reg, ok := Lookup(name)
	if !ok {
		return DriverRegistration{}, fmt.Errorf("%w: %s (not compiled in)", apperrors.ErrUnsupportedDriver, name)
	}
	return reg, nil
}

// Open opens a pool with the engine registered for the settings' driver.
// It is the default Opener of a Provider.
func Open(ctx context.Context, settings *PoolSettings, logger *zap.Logger) (DataSource, error) {
	reg, err := resolveDriver(settings)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return reg.Open(ctx, settings, logger.With(zap.String("driver", reg.Info.Type)))
}
