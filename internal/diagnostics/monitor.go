package diagnostics

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avheartbeat/internal/observability"
)

// ErrNilRegistry is returned by Heartbeat when the monitor was built
// without a probe registry.
var ErrNilRegistry = errors.New("diagnostics: nil probe registry")

// Monitor owns a probe registry and an execution policy, and exposes
// the single entry point the serving layer calls. It is safe for
// concurrent use.
type Monitor struct {
	registry *Registry
	parallel bool
	logger   observability.Logger
	metrics  *observability.Metrics
	tracer   trace.Tracer
}

// MonitorOption customizes a Monitor.
type MonitorOption func(*Monitor)

// WithParallel selects concurrent probe execution. The default is
// sequential, which preserves registration order in the results.
func WithParallel(parallel bool) MonitorOption {
	return func(m *Monitor) {
		m.parallel = parallel
	}
}

// WithMonitorLogger sets the monitor's logger.
func WithMonitorLogger(logger observability.Logger) MonitorOption {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMonitorMetrics enables per-run and per-probe metrics recording.
func WithMonitorMetrics(metrics *observability.Metrics) MonitorOption {
	return func(m *Monitor) {
		m.metrics = metrics
	}
}

// WithMonitorTracer enables a span around each diagnostics run.
func WithMonitorTracer(tracer trace.Tracer) MonitorOption {
	return func(m *Monitor) {
		m.tracer = tracer
	}
}

// NewMonitor creates a monitor over the given registry.
func NewMonitor(registry *Registry, opts ...MonitorOption) *Monitor {
	m := &Monitor{
		registry: registry,
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Parallel reports whether the monitor runs its probes concurrently.
func (m *Monitor) Parallel() bool {
	return m.parallel
}

// Registry returns the monitor's probe registry.
func (m *Monitor) Registry() *Registry {
	return m.registry
}

// Heartbeat runs every registered probe and returns the aggregated
// results. The only error condition is a misconfigured monitor; probe
// failures are reported inside the results, never as an error.
func (m *Monitor) Heartbeat(ctx context.Context) (*Results, error) {
	if m.registry == nil {
		return nil, ErrNilRegistry
	}

	var span trace.Span
	if m.tracer != nil {
		ctx, span = m.tracer.Start(ctx, "heartbeat.run")
		defer span.End()
	}

	probes := m.registry.Probes()
	start := time.Now()
	results := Run(ctx, probes, m.parallel)
	elapsed := time.Since(start)

	m.observe(results, elapsed, span)
	return results, nil
}

// observe emits telemetry for a completed run.
func (m *Monitor) observe(results *Results, elapsed time.Duration, span trace.Span) {
	if m.metrics != nil {
		m.metrics.RecordCheck(results.Success, elapsed)
		for _, r := range results.Results {
			m.metrics.RecordProbe(r.Name, r.Success, time.Duration(r.ElapsedMilliseconds)*time.Millisecond)
		}
	}

	if span != nil {
		span.SetAttributes(
			attribute.Int("heartbeat.probes", len(results.Results)),
			attribute.Bool("heartbeat.success", results.Success),
		)
		for _, r := range results.Results {
			span.AddEvent("probe", trace.WithAttributes(
				attribute.String("probe.name", r.Name),
				attribute.Bool("probe.success", r.Success),
				attribute.Int64("probe.elapsed_ms", r.ElapsedMilliseconds),
			))
		}
		if !results.Success {
			span.SetStatus(codes.Error, "one or more probes failed")
		}
	}

	for _, r := range results.Results {
		if r.Success {
			continue
		}
		msg := ""
		if r.ErrorMessage != nil {
			msg = *r.ErrorMessage
		}
		m.logger.Debug("probe failed",
			observability.String("probe", r.Name),
			observability.Int64("elapsed_ms", r.ElapsedMilliseconds),
			observability.String("error", msg),
		)
	}
}
