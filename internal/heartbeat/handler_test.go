package heartbeat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avheartbeat/internal/diagnostics"
)

// stubHeartbeater is a scripted Heartbeater for handler tests.
type stubHeartbeater struct {
	results    *diagnostics.Results
	err        error
	panicValue any
	calls      int32
}

func (s *stubHeartbeater) Heartbeat(_ context.Context) (*diagnostics.Results, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.panicValue != nil {
		panic(s.panicValue)
	}
	return s.results, s.err
}

func (s *stubHeartbeater) callCount() int32 {
	return atomic.LoadInt32(&s.calls)
}

func passingResults() *diagnostics.Results {
	return diagnostics.NewResults([]diagnostics.ProbeResult{
		{Name: "redis", Success: true, ElapsedMilliseconds: 3},
	})
}

func failingResults() *diagnostics.Results {
	msg := "boom"
	return diagnostics.NewResults([]diagnostics.ProbeResult{
		{Name: "redis", Success: true, ElapsedMilliseconds: 3},
		{Name: "vault", Success: false, ElapsedMilliseconds: 9, ErrorMessage: &msg},
	})
}

// nextSpy records whether the downstream handler ran.
type nextSpy struct {
	called int32
}

func (n *nextSpy) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&n.called, 1)
		w.WriteHeader(http.StatusTeapot)
	})
}

func (n *nextSpy) wasCalled() bool {
	return atomic.LoadInt32(&n.called) > 0
}

func doRequest(t *testing.T, h *Handler, method, path string, header map[string]string) (*httptest.ResponseRecorder, *nextSpy) {
	t.Helper()

	next := &nextSpy{}
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.Middleware(next.handler()).ServeHTTP(rec, req)
	return rec, next
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, "DiagnosticsAPIKey", cfg.APIKeyHeader)
	assert.Equal(t, "/api/heartbeat", cfg.Route)
}

func TestConfig_NormalizeNil(t *testing.T) {
	t.Parallel()

	var cfg *Config
	norm := cfg.normalize()
	assert.Equal(t, DefaultAPIKeyHeader, norm.APIKeyHeader)
	assert.Equal(t, DefaultRoute, norm.Route)
}

func TestConfig_NormalizeRouteSlash(t *testing.T) {
	t.Parallel()

	norm := (&Config{Route: "status/heartbeat"}).normalize()
	assert.Equal(t, "/status/heartbeat", norm.Route)
}

func TestHandler_PassThroughOtherPath(t *testing.T) {
	t.Parallel()

	hb := &stubHeartbeater{results: passingResults()}
	h := NewHandler(DefaultConfig(), StaticResolver(hb))

	rec, next := doRequest(t, h, http.MethodGet, "/api/other", nil)
	assert.True(t, next.wasCalled())
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Zero(t, hb.callCount())
}

func TestHandler_PassThroughOtherMethod(t *testing.T) {
	t.Parallel()

	hb := &stubHeartbeater{results: passingResults()}
	h := NewHandler(DefaultConfig(), StaticResolver(hb))

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodHead} {
		rec, next := doRequest(t, h, method, "/api/heartbeat", nil)
		assert.True(t, next.wasCalled(), method)
		assert.Equal(t, http.StatusTeapot, rec.Code, method)
	}
	assert.Zero(t, hb.callCount())
}

func TestHandler_AllProbesPass(t *testing.T) {
	t.Parallel()

	h := NewHandler(DefaultConfig(), StaticResolver(&stubHeartbeater{results: passingResults()}))

	rec, next := doRequest(t, h, http.MethodGet, "/api/heartbeat", nil)
	assert.False(t, next.wasCalled())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.NotNil(t, body["processInformation"])
}

func TestHandler_ProbeFailureYields500WithBody(t *testing.T) {
	t.Parallel()

	h := NewHandler(DefaultConfig(), StaticResolver(&stubHeartbeater{results: failingResults()}))

	rec, _ := doRequest(t, h, http.MethodGet, "/api/heartbeat", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Results []struct {
			Name         string  `json:"name"`
			Success      bool    `json:"success"`
			ErrorMessage *string `json:"errorMessage"`
		} `json:"results"`
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.Len(t, body.Results, 2)
	require.NotNil(t, body.Results[1].ErrorMessage)
	assert.Equal(t, "boom", *body.Results[1].ErrorMessage)
}

func TestHandler_UnauthorizedEmptyBodyAndNoProbeRuns(t *testing.T) {
	t.Parallel()

	var probeRuns int32
	registry := diagnostics.NewRegistry(diagnostics.ProbeFunc("counted", func(ctx context.Context) error {
		atomic.AddInt32(&probeRuns, 1)
		return nil
	}))
	monitor := diagnostics.NewMonitor(registry)

	h := NewHandler(&Config{APIKey: "s3cret"}, StaticResolver(monitor))

	rec, next := doRequest(t, h, http.MethodGet, "/api/heartbeat", nil)
	assert.False(t, next.wasCalled())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	assert.Zero(t, atomic.LoadInt32(&probeRuns))
}

func TestHandler_AuthorizedWithExactKey(t *testing.T) {
	t.Parallel()

	h := NewHandler(&Config{APIKey: "s3cret"}, StaticResolver(&stubHeartbeater{results: passingResults()}))

	rec, _ := doRequest(t, h, http.MethodGet, "/api/heartbeat", map[string]string{
		"DiagnosticsAPIKey": "s3cret",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_KeyComparisonIsCaseSensitive(t *testing.T) {
	t.Parallel()

	hb := &stubHeartbeater{results: passingResults()}
	h := NewHandler(&Config{APIKey: "Secret"}, StaticResolver(hb))

	rec, _ := doRequest(t, h, http.MethodGet, "/api/heartbeat", map[string]string{
		"DiagnosticsAPIKey": "secret",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, hb.callCount())
}

func TestHandler_HeaderNameLookupIsCanonical(t *testing.T) {
	t.Parallel()

	h := NewHandler(&Config{APIKey: "s3cret"}, StaticResolver(&stubHeartbeater{results: passingResults()}))

	req := httptest.NewRequest(http.MethodGet, "/api/heartbeat", nil)
	req.Header.Set("diagnosticsapikey", "s3cret")
	rec := httptest.NewRecorder()
	h.Middleware(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_CustomHeaderAndRoute(t *testing.T) {
	t.Parallel()

	cfg := &Config{APIKey: "k", APIKeyHeader: "X-Heartbeat-Key", Route: "/status/deep"}
	h := NewHandler(cfg, StaticResolver(&stubHeartbeater{results: passingResults()}))

	rec, _ := doRequest(t, h, http.MethodGet, "/status/deep", map[string]string{"X-Heartbeat-Key": "k"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, next := doRequest(t, h, http.MethodGet, "/api/heartbeat", nil)
	assert.True(t, next.wasCalled())
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestHandler_EmptyKeyAdmitsEveryone(t *testing.T) {
	t.Parallel()

	h := NewHandler(&Config{APIKey: ""}, StaticResolver(&stubHeartbeater{results: passingResults()}))

	rec, _ := doRequest(t, h, http.MethodGet, "/api/heartbeat", map[string]string{
		"DiagnosticsAPIKey": "whatever",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_NilResolverAnswersEmptySuccess(t *testing.T) {
	t.Parallel()

	h := NewHandler(DefaultConfig(), nil)

	rec, _ := doRequest(t, h, http.MethodGet, "/api/heartbeat", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	results, ok := body["results"].([]any)
	require.True(t, ok)
	assert.Empty(t, results)
	assert.NotNil(t, body["processInformation"])
}

func TestHandler_ResolverErrorAnswersEmptySuccess(t *testing.T) {
	t.Parallel()

	resolver := func(context.Context) (Heartbeater, error) {
		return nil, errors.New("monitor not registered")
	}
	h := NewHandler(DefaultConfig(), resolver)

	rec, _ := doRequest(t, h, http.MethodGet, "/api/heartbeat", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"results":[]`)
}

func TestHandler_ResolverNilMonitorAnswersEmptySuccess(t *testing.T) {
	t.Parallel()

	resolver := func(context.Context) (Heartbeater, error) { return nil, nil }
	h := NewHandler(DefaultConfig(), resolver)

	rec, _ := doRequest(t, h, http.MethodGet, "/api/heartbeat", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)
}

func TestHandler_DispatchErrorAnswersBare500(t *testing.T) {
	t.Parallel()

	hb := &stubHeartbeater{err: errors.New("registry torn down")}
	h := NewHandler(DefaultConfig(), StaticResolver(hb))

	rec, _ := doRequest(t, h, http.MethodGet, "/api/heartbeat", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	assert.Empty(t, rec.Header().Get("Content-Type"))
}

func TestHandler_DispatchPanicAnswersBare500(t *testing.T) {
	t.Parallel()

	hb := &stubHeartbeater{panicValue: "wiring snapped"}
	h := NewHandler(DefaultConfig(), StaticResolver(hb))

	rec, _ := doRequest(t, h, http.MethodGet, "/api/heartbeat", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
}

func TestHandler_ProcessInformationIsFresh(t *testing.T) {
	t.Parallel()

	h := NewHandler(DefaultConfig(), StaticResolver(&stubHeartbeater{results: passingResults()}))

	uptime := func() float64 {
		rec, _ := doRequest(t, h, http.MethodGet, "/api/heartbeat", nil)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		info, ok := body["processInformation"].(map[string]any)
		require.True(t, ok)
		return info["uptimeMilliseconds"].(float64)
	}

	first := uptime()
	second := uptime()
	assert.GreaterOrEqual(t, second, first)
}

func TestHandler_EndToEndWithMonitor(t *testing.T) {
	t.Parallel()

	registry := diagnostics.NewRegistry(
		diagnostics.ProbeFunc("alpha", func(ctx context.Context) error { return nil }),
		diagnostics.ProbeFunc("beta", func(ctx context.Context) error { return errors.New("boom") }),
	)
	monitor := diagnostics.NewMonitor(registry)
	h := NewHandler(DefaultConfig(), StaticResolver(monitor))

	rec, _ := doRequest(t, h, http.MethodGet, "/api/heartbeat", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body struct {
		Results []struct {
			Name                string  `json:"name"`
			Success             bool    `json:"success"`
			ElapsedMilliseconds int64   `json:"elapsedMilliseconds"`
			ErrorMessage        *string `json:"errorMessage"`
		} `json:"results"`
		Success            bool `json:"success"`
		ProcessInformation *struct {
			StartTime          string `json:"startTime"`
			UptimeMilliseconds int64  `json:"uptimeMilliseconds"`
		} `json:"processInformation"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "alpha", body.Results[0].Name)
	assert.True(t, body.Results[0].Success)
	assert.Nil(t, body.Results[0].ErrorMessage)
	assert.Equal(t, "beta", body.Results[1].Name)
	assert.False(t, body.Results[1].Success)
	require.NotNil(t, body.Results[1].ErrorMessage)
	assert.Equal(t, "boom", *body.Results[1].ErrorMessage)
	require.NotNil(t, body.ProcessInformation)
	assert.NotEmpty(t, body.ProcessInformation.StartTime)
	assert.GreaterOrEqual(t, body.ProcessInformation.UptimeMilliseconds, int64(0))
}

func TestHandler_Route(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/api/heartbeat", NewHandler(nil, nil).Route())
	assert.Equal(t, "/deep", NewHandler(&Config{Route: "/deep"}, nil).Route())
}
