package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serve(t *testing.T, logger *zap.Logger, status int, body string) {
	t.Helper()
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
}

func TestRequestLogger_LogsRequests(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	serve(t, zap.New(core), http.StatusOK, `{"status":"ok"}`)

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "HTTP request" {
		t.Errorf("expected message 'HTTP request', got '%s'", entry.Message)
	}
	if entry.Level != zapcore.DebugLevel {
		t.Errorf("expected DEBUG level, got %s", entry.Level)
	}

	fields := entry.ContextMap()
	if fields["path"] != "/ping" {
		t.Errorf("expected path '/ping', got %v", fields["path"])
	}
	if fields["bytes"] != int64(len(`{"status":"ok"}`)) {
		t.Errorf("expected bytes=%d, got %v", len(`{"status":"ok"}`), fields["bytes"])
	}
}

func TestRequestLogger_ServerErrorsAtWarn(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	serve(t, zap.New(core), http.StatusServiceUnavailable, `{"status":"degraded"}`)

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Level != zapcore.WarnLevel {
		t.Errorf("expected WARN level, got %s", entry.Level)
	}
	if status := entry.ContextMap()["status"]; status != int64(http.StatusServiceUnavailable) {
		t.Errorf("expected status 503, got %v", status)
	}
}

func TestRequestLogger_NilLogger_PassesThrough(t *testing.T) {
	called := false
	handler := RequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	if !called {
		t.Error("expected handler to be called")
	}
}
