package health

import (
	"context"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/vyrodovalexey/avheartbeat/internal/diagnostics"
	"github.com/vyrodovalexey/avheartbeat/internal/observability"
)

// ServiceName is the service label the heartbeat reports under, next
// to the empty overall-health service.
const ServiceName = "avheartbeat"

// Checker runs the diagnostic probes and reports the aggregate result.
type Checker interface {
	Heartbeat(ctx context.Context) (*diagnostics.Results, error)
}

// HealthServer implements the grpc.health.v1.Health service on top of
// the heartbeat diagnostics.
type HealthServer struct {
	healthpb.UnimplementedHealthServer
	checker  Checker
	services map[string]healthpb.HealthCheckResponse_ServingStatus
	watchers map[string][]chan healthpb.HealthCheckResponse_ServingStatus
	mu       sync.RWMutex
	logger   observability.Logger
	shutdown bool
}

// HealthOption is a functional option for configuring the health server.
type HealthOption func(*HealthServer)

// WithHealthLogger sets the logger for the health server.
func WithHealthLogger(logger observability.Logger) HealthOption {
	return func(hs *HealthServer) {
		if logger != nil {
			hs.logger = logger
		}
	}
}

// NewHealthServer creates a health server over checker. A nil checker
// yields a push-model server fed through SetServingStatus only.
func NewHealthServer(checker Checker, opts ...HealthOption) *HealthServer {
	hs := &HealthServer{
		checker:  checker,
		services: make(map[string]healthpb.HealthCheckResponse_ServingStatus),
		watchers: make(map[string][]chan healthpb.HealthCheckResponse_ServingStatus),
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(hs)
	}

	hs.services[""] = healthpb.HealthCheckResponse_SERVING
	hs.services[ServiceName] = healthpb.HealthCheckResponse_SERVING

	return hs
}

// Check implements the Check RPC. Known services are evaluated live
// against the probes; unknown services answer NotFound.
func (hs *HealthServer) Check(
	ctx context.Context,
	req *healthpb.HealthCheckRequest,
) (*healthpb.HealthCheckResponse, error) {
	service := req.GetService()

	hs.mu.RLock()
	down := hs.shutdown
	current, known := hs.services[service]
	hs.mu.RUnlock()

	if down {
		return &healthpb.HealthCheckResponse{
			Status: healthpb.HealthCheckResponse_NOT_SERVING,
		}, nil
	}
	if !known {
		return nil, statusError(codes.NotFound, "service not found: %s", service)
	}
	if hs.checker == nil {
		return &healthpb.HealthCheckResponse{Status: current}, nil
	}

	servingStatus := hs.evaluate(ctx)
	hs.setAll(servingStatus)

	return &healthpb.HealthCheckResponse{Status: servingStatus}, nil
}

// Watch implements the Watch RPC for streaming health updates.
func (hs *HealthServer) Watch(
	req *healthpb.HealthCheckRequest,
	stream healthpb.Health_WatchServer,
) error {
	service := req.GetService()

	updateCh := make(chan healthpb.HealthCheckResponse_ServingStatus, 1)

	hs.mu.Lock()
	hs.watchers[service] = append(hs.watchers[service], updateCh)

	initialStatus, ok := hs.services[service]
	if !ok {
		initialStatus = healthpb.HealthCheckResponse_SERVICE_UNKNOWN
	}
	hs.mu.Unlock()

	if err := stream.Send(&healthpb.HealthCheckResponse{Status: initialStatus}); err != nil {
		hs.removeWatcher(service, updateCh)
		return err
	}

	for {
		select {
		case servingStatus := <-updateCh:
			if err := stream.Send(&healthpb.HealthCheckResponse{Status: servingStatus}); err != nil {
				hs.removeWatcher(service, updateCh)
				return err
			}
		case <-stream.Context().Done():
			hs.removeWatcher(service, updateCh)
			return stream.Context().Err()
		}
	}
}

// StartWatching begins periodic probe re-evaluation so Watch streams
// observe heartbeat transitions. It returns immediately; evaluation
// stops when ctx is cancelled. No-op without a checker or with a
// non-positive interval.
func (hs *HealthServer) StartWatching(ctx context.Context, interval time.Duration) {
	if hs.checker == nil || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				hs.setAll(hs.evaluate(ctx))
			case <-ctx.Done():
				return
			}
		}
	}()
}

// evaluate maps the heartbeat outcome to a serving status.
func (hs *HealthServer) evaluate(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	results, err := hs.checker.Heartbeat(ctx)
	if err != nil {
		hs.logger.Warn("heartbeat evaluation failed", observability.Error(err))
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	if !results.Success {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}

// setAll applies a status to the overall service and the named
// heartbeat service.
func (hs *HealthServer) setAll(servingStatus healthpb.HealthCheckResponse_ServingStatus) {
	hs.SetServingStatus("", servingStatus)
	hs.SetServingStatus(ServiceName, servingStatus)
}

// SetServingStatus sets the serving status for a service.
func (hs *HealthServer) SetServingStatus(service string, servingStatus healthpb.HealthCheckResponse_ServingStatus) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.shutdown {
		return
	}

	hs.services[service] = servingStatus

	hs.logger.Debug("health status updated",
		observability.String("service", service),
		observability.String("status", servingStatus.String()),
	)

	hs.notifyWatchers(service, servingStatus)
}

// Shutdown sets all services to NOT_SERVING.
func (hs *HealthServer) Shutdown() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	hs.shutdown = true

	for service := range hs.services {
		hs.services[service] = healthpb.HealthCheckResponse_NOT_SERVING
		hs.notifyWatchers(service, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	hs.logger.Info("health server shutdown")
}

// Resume resumes the health server after shutdown.
func (hs *HealthServer) Resume() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	hs.shutdown = false

	hs.services[""] = healthpb.HealthCheckResponse_SERVING
	hs.services[ServiceName] = healthpb.HealthCheckResponse_SERVING
	hs.notifyWatchers("", healthpb.HealthCheckResponse_SERVING)
	hs.notifyWatchers(ServiceName, healthpb.HealthCheckResponse_SERVING)

	hs.logger.Info("health server resumed")
}

// GetServingStatus returns the serving status for a service.
func (hs *HealthServer) GetServingStatus(service string) (healthpb.HealthCheckResponse_ServingStatus, bool) {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	servingStatus, ok := hs.services[service]
	return servingStatus, ok
}

// GetAllStatuses returns a snapshot of all service statuses.
func (hs *HealthServer) GetAllStatuses() map[string]healthpb.HealthCheckResponse_ServingStatus {
	hs.mu.RLock()
	defer hs.mu.RUnlock()

	statuses := make(map[string]healthpb.HealthCheckResponse_ServingStatus, len(hs.services))
	for service, servingStatus := range hs.services {
		statuses[service] = servingStatus
	}
	return statuses
}

// notifyWatchers notifies all watchers of a status change.
// Must be called with lock held.
func (hs *HealthServer) notifyWatchers(service string, servingStatus healthpb.HealthCheckResponse_ServingStatus) {
	for _, ch := range hs.watchers[service] {
		select {
		case ch <- servingStatus:
		default:
			// Channel full, skip
		}
	}
}

// removeWatcher removes a watcher channel.
func (hs *HealthServer) removeWatcher(service string, ch chan healthpb.HealthCheckResponse_ServingStatus) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	watchers := hs.watchers[service]
	for i, w := range watchers {
		if w == ch {
			hs.watchers[service] = append(watchers[:i], watchers[i+1:]...)
			close(ch)
			break
		}
	}
}

// statusError creates a gRPC status error.
func statusError(code codes.Code, format string, args ...interface{}) error {
	return status.Errorf(code, format, args...)
}
