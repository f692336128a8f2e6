package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-datasource/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-datasource/pkg/config"
	"github.com/ekaya-inc/ekaya-datasource/pkg/logging"
)

// pingTimeout bounds the pool ping done by /ping.
const pingTimeout = 2 * time.Second

// DataSourceStatus is the part of *datasource.Provider the health endpoints use.
type DataSourceStatus interface {
	Initialized() bool
	Realized() bool
	GetDataSource(ctx context.Context) (datasource.DataSource, error)
}

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
	Datasource  string `json:"datasource"` // "ok", "error" or "not_open"
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status     string           `json:"status"`
	Datasource DataSourceHealth `json:"datasource"`
}

// DataSourceHealth reports the provider state without opening the pool.
type DataSourceHealth struct {
	Initialized bool   `json:"initialized"`
	Realized    bool   `json:"realized"`
	Type        string `json:"type,omitempty"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg      *config.Config
	provider DataSourceStatus
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. provider may be nil.
func NewHealthHandler(cfg *config.Config, provider DataSourceStatus, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, provider: provider, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ping", h.Ping)
}

// Health handles GET /health requests.
// It never opens the pool: a lazily configured data source stays closed
// until the application first needs it.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w)
		return
	}

	response := HealthResponse{Status: "ok"}
	if h.provider != nil {
		response.Datasource.Initialized = h.provider.Initialized()
		if ds := h.realized(r.Context()); ds != nil {
			response.Datasource.Realized = true
			response.Datasource.Type = ds.GetType()
		}
	}

	h.respond(w, http.StatusOK, response)
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment,
// and pings the pool when it is open.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.methodNotAllowed(w)
		return
	}

	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "ekaya-datasource",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
		Datasource:  "not_open",
	}
	statusCode := http.StatusOK

	if ds := h.realized(r.Context()); ds != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := ds.Ping(ctx); err != nil {
			h.logger.Warn("Data source ping failed",
				zap.String("type", ds.GetType()),
				zap.String("error", logging.SanitizeError(err)),
			)
			response.Status = "degraded"
			response.Datasource = "error"
			statusCode = http.StatusServiceUnavailable
		} else {
			response.Datasource = "ok"
		}
	}

	h.respond(w, statusCode, response)
}

// realized returns the pool if it is already open, without creating it.
func (h *HealthHandler) realized(ctx context.Context) datasource.DataSource {
	if h.provider == nil || !h.provider.Realized() {
		return nil
	}
	ds, err := h.provider.GetDataSource(ctx)
	if err != nil {
		// destroyed between the two calls
		return nil
	}
	return ds
}

func (h *HealthHandler) methodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Allow", http.MethodGet)
	h.respond(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:   "method_not_allowed",
		Message: "only GET is supported",
	})
}

// respond writes body as JSON. Health answers describe the pool at this
// instant, so they are never cached.
func (h *HealthHandler) respond(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response",
			zap.Int("status", statusCode),
			zap.Error(err),
		)
	}
}
