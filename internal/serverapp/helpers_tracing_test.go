package serverapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"document-hydrator/internal/config"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestWrapHTTPHandler_UsesHTTPRootSpanName(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	tp.RegisterSpanProcessor(recorder)
	originalTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(originalTP)
	})

	cfg := &config.Config{
		Observability: config.ObservabilityConfig{
			TracingEnabled: true,
		},
	}
	handler := wrapHTTPHandler(cfg, testLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hydrate", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Contains(t, names, "POST /hydrate")
}

func TestWrapHTTPHandler_RateLimitIsOutermost(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{RateLimitEnabled: true, RateLimitRPS: 1, RateLimitBurst: 1},
	}
	handler := wrapHTTPHandler(cfg, testLogger(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Request-ID"), "rejected requests never reach the logging middleware")
}

func TestNormalizeHTTPSpanRoute(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "hydrate", input: "/hydrate", expected: "/hydrate"},
		{name: "sources", input: "/sources", expected: "/sources"},
		{name: "health", input: "/health", expected: "/health"},
		{name: "metrics", input: "/metrics", expected: "/metrics"},
		{name: "unknown", input: "/users/123", expected: "/*"},
		{name: "empty", input: "", expected: "/*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeHTTPSpanRoute(tt.input))
		})
	}
}

func TestHTTPRootSpanName(t *testing.T) {
	assert.Equal(t, "HTTP /*", httpRootSpanName(nil))
	assert.Equal(t, "GET /health", httpRootSpanName(httptest.NewRequest(http.MethodGet, "/health", nil)))
}
