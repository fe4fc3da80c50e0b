package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avheartbeat/internal/config"
	"github.com/vyrodovalexey/avheartbeat/internal/diagnostics"
	"github.com/vyrodovalexey/avheartbeat/internal/heartbeat"
	"github.com/vyrodovalexey/avheartbeat/internal/observability"
)

func init() {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})
}

// newTestHandler builds a heartbeat handler over a single probe with
// the given outcome.
func newTestHandler(t *testing.T, probeErr error) *heartbeat.Handler {
	t.Helper()

	probe := diagnostics.ProbeFunc("upstream", func(context.Context) error {
		return probeErr
	})
	monitor := diagnostics.NewMonitor(diagnostics.NewRegistry(probe))

	return heartbeat.NewHandler(heartbeat.DefaultConfig(), heartbeat.StaticResolver(monitor))
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	t.Parallel()

	s := New(nil, newTestHandler(t, nil))
	require.NotNil(t, s)

	assert.NotNil(t, s.Engine())
	assert.False(t, s.IsRunning())
	assert.Equal(t, 8080, s.cfg.Server.Port)
}

func TestServer_HeartbeatRoute(t *testing.T) {
	t.Parallel()

	s := New(config.DefaultConfig(), newTestHandler(t, nil))

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/heartbeat", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"success":true`)
	assert.Contains(t, rec.Body.String(), `"processInformation"`)
}

func TestServer_HeartbeatRoute_Failure(t *testing.T) {
	t.Parallel()

	s := New(config.DefaultConfig(), newTestHandler(t, errors.New("upstream down")))

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/heartbeat", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Contains(t, rec.Body.String(), "upstream down")
}

func TestServer_MetricsRoute(t *testing.T) {
	t.Parallel()

	metrics := observability.NewMetrics("test_server_metrics")
	s := New(config.DefaultConfig(), newTestHandler(t, nil), WithServerMetrics(metrics))

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# HELP")
}

func TestServer_MetricsRoute_Disabled(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Observability.Metrics.Enabled = false

	metrics := observability.NewMetrics("test_server_metrics_disabled")
	s := New(cfg, newTestHandler(t, nil), WithServerMetrics(metrics))

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_NoRoute(t *testing.T) {
	t.Parallel()

	s := New(config.DefaultConfig(), newTestHandler(t, nil))

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"not found"}`, rec.Body.String())
}

func TestServer_RequestIDHeader(t *testing.T) {
	t.Parallel()

	s := New(config.DefaultConfig(), newTestHandler(t, nil))

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/heartbeat", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_RateLimit(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerSecond = 0.001
	cfg.RateLimit.Burst = 1

	s := New(cfg, newTestHandler(t, nil))
	defer s.rateLimiter.Stop()

	first := httptest.NewRecorder()
	s.Engine().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/heartbeat", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	s.Engine().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/heartbeat", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestServer_Start_AlreadyRunning(t *testing.T) {
	t.Parallel()

	s := New(config.DefaultConfig(), newTestHandler(t, nil))

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server already running")
}

func TestServer_Stop_NotRunning(t *testing.T) {
	t.Parallel()

	s := New(config.DefaultConfig(), newTestHandler(t, nil))
	assert.NoError(t, s.Stop(context.Background()))
}

func TestServer_StartStop(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	s := New(cfg, newTestHandler(t, nil))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(context.Background())
	}()

	require.Eventually(t, s.IsRunning, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}

	assert.False(t, s.IsRunning())
}
