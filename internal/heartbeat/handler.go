package heartbeat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vyrodovalexey/avheartbeat/internal/diagnostics"
	"github.com/vyrodovalexey/avheartbeat/internal/observability"
)

const (
	// DefaultAPIKeyHeader is the request header carrying the access key.
	DefaultAPIKeyHeader = "DiagnosticsAPIKey"

	// DefaultRoute is the request path served by the endpoint.
	DefaultRoute = "/api/heartbeat"
)

// Config controls the heartbeat endpoint.
type Config struct {
	// APIKey guards the endpoint. Empty disables the check.
	APIKey string

	// APIKeyHeader is the request header compared against APIKey.
	// Empty selects DefaultAPIKeyHeader.
	APIKeyHeader string

	// Route is the absolute request path served. Empty selects
	// DefaultRoute.
	Route string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		APIKeyHeader: DefaultAPIKeyHeader,
		Route:        DefaultRoute,
	}
}

// normalize fills zero values with defaults.
func (c *Config) normalize() *Config {
	if c == nil {
		return DefaultConfig()
	}
	out := *c
	if out.APIKeyHeader == "" {
		out.APIKeyHeader = DefaultAPIKeyHeader
	}
	if out.Route == "" {
		out.Route = DefaultRoute
	}
	if !strings.HasPrefix(out.Route, "/") {
		out.Route = "/" + out.Route
	}
	return &out
}

// Heartbeater runs the diagnostics probes and aggregates their
// outcomes. *diagnostics.Monitor satisfies this interface.
type Heartbeater interface {
	Heartbeat(ctx context.Context) (*diagnostics.Results, error)
}

// Resolver locates the Heartbeater serving a request. Returning an
// error or nil marks the monitor as unresolvable for that request;
// the endpoint then reports an empty, successful result set.
type Resolver func(ctx context.Context) (Heartbeater, error)

// StaticResolver returns a Resolver that always yields hb.
func StaticResolver(hb Heartbeater) Resolver {
	return func(context.Context) (Heartbeater, error) {
		return hb, nil
	}
}

// Handler answers heartbeat requests. Create one with NewHandler and
// mount it with Middleware or GinMiddleware.
type Handler struct {
	cfg      *Config
	resolver Resolver
	logger   observability.Logger
	metrics  *observability.Metrics
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithLogger sets the handler's logger.
func WithLogger(logger observability.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMetrics enables request metrics recording.
func WithMetrics(metrics *observability.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// NewHandler creates a heartbeat handler.
func NewHandler(cfg *Config, resolver Resolver, opts ...HandlerOption) *Handler {
	h := &Handler{
		cfg:      cfg.normalize(),
		resolver: resolver,
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Route returns the request path the handler answers.
func (h *Handler) Route() string {
	return h.cfg.Route
}

// Middleware returns a pass-through middleware: requests matching the
// heartbeat route are answered in place, everything else is delegated
// to next.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.handles(r) {
			next.ServeHTTP(w, r)
			return
		}
		h.serve(w, r)
	})
}

// handles reports whether the request targets the heartbeat endpoint.
func (h *Handler) handles(r *http.Request) bool {
	return r.Method == http.MethodGet && r.URL.Path == h.cfg.Route
}

// serve answers a matching request and records telemetry for it.
func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := h.process(w, r)
	elapsed := time.Since(start)

	if h.metrics != nil {
		h.metrics.RecordRequest(status, elapsed)
	}
	h.logger.Info("heartbeat request completed",
		observability.String("method", r.Method),
		observability.String("path", r.URL.Path),
		observability.Int("status", status),
		observability.Duration("elapsed", elapsed),
	)
}

// process runs the authorization check and the diagnostics pipeline,
// writes the response, and returns the status code sent.
func (h *Handler) process(w http.ResponseWriter, r *http.Request) int {
	if !h.authorized(r) {
		if h.metrics != nil {
			h.metrics.RecordUnauthorized()
		}
		h.logger.Debug("heartbeat request rejected",
			observability.String("remote", r.RemoteAddr),
		)
		w.WriteHeader(http.StatusUnauthorized)
		return http.StatusUnauthorized
	}

	body, status, err := h.render(r.Context())
	if err != nil {
		h.logger.Error("heartbeat dispatch failed", observability.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	return status
}

// authorized reports whether the request may run the diagnostics. An
// empty configured key admits everyone; otherwise the header value
// must equal the key exactly, case included.
func (h *Handler) authorized(r *http.Request) bool {
	if h.cfg.APIKey == "" {
		return true
	}
	return r.Header.Get(h.cfg.APIKeyHeader) == h.cfg.APIKey
}

// render runs the diagnostics and encodes the response body before
// anything is written to the client. A panic anywhere in the pipeline
// is converted into an error so the caller can answer with a bare 500.
func (h *Handler) render(ctx context.Context) (body []byte, status int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			body, status = nil, 0
			err = fmt.Errorf("heartbeat dispatch panicked: %v", rec)
		}
	}()

	results, err := h.collect(ctx)
	if err != nil {
		return nil, 0, err
	}

	results.ProcessInformation = SampleProcessInfo()

	body, err = json.Marshal(results)
	if err != nil {
		return nil, 0, fmt.Errorf("encode heartbeat results: %w", err)
	}

	status = http.StatusOK
	if !results.Success {
		status = http.StatusInternalServerError
	}
	return body, status, nil
}

// collect resolves the monitor and runs it. An unresolvable monitor is
// not an error: the endpoint reports an empty, vacuously successful
// result set instead.
func (h *Handler) collect(ctx context.Context) (*diagnostics.Results, error) {
	hb := h.resolve(ctx)
	if hb == nil {
		return diagnostics.NewResults(nil), nil
	}
	return hb.Heartbeat(ctx)
}

// resolve locates the Heartbeater for this request, logging and
// returning nil when none is available.
func (h *Handler) resolve(ctx context.Context) Heartbeater {
	if h.resolver == nil {
		h.logger.Warn("heartbeat monitor not configured, reporting empty results")
		return nil
	}
	hb, err := h.resolver(ctx)
	if err != nil {
		h.logger.Warn("heartbeat monitor could not be resolved, reporting empty results",
			observability.Error(err),
		)
		return nil
	}
	if hb == nil {
		h.logger.Warn("heartbeat monitor resolver returned nil, reporting empty results")
		return nil
	}
	return hb
}
