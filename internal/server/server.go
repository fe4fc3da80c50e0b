// Package server provides the HTTP server for the heartbeat service.
//
// The server wires the ambient middleware chain (request ID, recovery,
// access logging, rate limiting), mounts the heartbeat middleware, and
// exposes the Prometheus metrics endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/avheartbeat/internal/config"
	"github.com/vyrodovalexey/avheartbeat/internal/heartbeat"
	"github.com/vyrodovalexey/avheartbeat/internal/middleware"
	"github.com/vyrodovalexey/avheartbeat/internal/observability"
)

// ginModeOnce ensures gin.SetMode is only called once to avoid race
// conditions.
var ginModeOnce sync.Once

// Server is the HTTP server hosting the heartbeat endpoint.
type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	cfg         *config.Config
	heartbeat   *heartbeat.Handler
	logger      observability.Logger
	metrics     *observability.Metrics
	rateLimiter *middleware.RateLimiter
	mu          sync.RWMutex
	running     bool
}

// Option is a functional option for configuring the server.
type Option func(*Server)

// WithServerLogger sets the logger.
func WithServerLogger(logger observability.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServerMetrics sets the metrics collector and enables the metrics
// endpoint.
func WithServerMetrics(metrics *observability.Metrics) Option {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// New creates a server for the given configuration. The heartbeat
// handler is mounted as pass-through middleware so the diagnostics
// route takes precedence over all other routing.
func New(cfg *config.Config, hb *heartbeat.Handler, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		engine:    gin.New(),
		cfg:       cfg,
		heartbeat: hb,
		logger:    observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Recovery(s.logger))

	if s.cfg.Observability.Logging.AccessLog {
		s.engine.Use(middleware.AccessLog(s.logger, s.cfg.Observability.Metrics.Path))
	}

	limit, limiter := middleware.RateLimitFromConfig(&s.cfg.RateLimit, s.logger)
	s.rateLimiter = limiter
	s.engine.Use(limit)

	if s.heartbeat != nil {
		s.engine.Use(s.heartbeat.GinMiddleware())
	}
}

func (s *Server) setupRoutes() {
	if s.metrics != nil && s.cfg.Observability.Metrics.Enabled {
		s.engine.GET(s.cfg.Observability.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// Engine returns the underlying gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start starts the HTTP server and blocks until it is shut down.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: s.cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  s.cfg.Server.IdleTimeout.Duration(),
	}
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", addr),
		observability.String("heartbeatRoute", s.cfg.Heartbeat.HeartbeatRoute),
	)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop shuts the HTTP server down gracefully and stops the rate
// limiter cleanup goroutine.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
