package health

import (
	"context"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vyrodovalexey/avheartbeat/internal/config"
	"github.com/vyrodovalexey/avheartbeat/internal/observability"
)

// Server runs a gRPC server exposing the health service.
type Server struct {
	cfg         *config.GRPCConfig
	health      *HealthServer
	grpcServer  *grpc.Server
	listener    net.Listener
	logger      observability.Logger
	cancelWatch context.CancelFunc
	mu          sync.Mutex
	running     bool
}

// ServerOption is a functional option for configuring the server.
type ServerOption func(*Server)

// WithGRPCServerLogger sets the logger for the server.
func WithGRPCServerLogger(logger observability.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a gRPC health server runner. A nil cfg uses defaults.
func NewServer(cfg *config.GRPCConfig, hs *HealthServer, opts ...ServerOption) *Server {
	if cfg == nil {
		g := config.DefaultConfig().GRPC
		cfg = &g
	}

	s := &Server{
		cfg:    cfg,
		health: hs,
		logger: observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start binds the listener and begins serving in the background. It
// also starts the periodic probe re-evaluation feeding Watch streams.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("grpc server already running")
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("listen on port %d: %w", s.cfg.Port, err)
	}

	s.listener = listener
	s.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	reflection.Register(s.grpcServer)

	watchCtx, cancel := context.WithCancel(context.Background())
	s.cancelWatch = cancel
	s.health.StartWatching(watchCtx, s.cfg.WatchInterval.Duration())

	s.running = true
	s.mu.Unlock()

	s.logger.Info("grpc health server listening",
		observability.String("address", listener.Addr().String()),
	)

	go func() {
		// Serve returns nil after Stop or GracefulStop.
		if err := s.grpcServer.Serve(listener); err != nil {
			s.logger.Error("grpc server terminated", observability.Error(err))
		}
	}()

	return nil
}

// Stop drains the server gracefully, forcing a hard stop when ctx
// expires first. Watch streams observe NOT_SERVING before the drain.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.cancelWatch()
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("grpc health server stopped")
	case <-ctx.Done():
		s.grpcServer.Stop()
		s.logger.Warn("grpc health server force stopped")
	}

	return nil
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
