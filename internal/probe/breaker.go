package probe

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/vyrodovalexey/avheartbeat/internal/diagnostics"
	"github.com/vyrodovalexey/avheartbeat/internal/observability"
)

// Breaker probe default settings.
const (
	DefaultBreakerThreshold = 3
	DefaultBreakerTimeout   = 30 * time.Second
)

// BreakerProbe wraps another probe with a circuit breaker. While the
// circuit is open the check fails immediately with the breaker's
// error, sparing a dependency that is known to be down.
type BreakerProbe struct {
	inner  diagnostics.Probe
	cb     *gobreaker.CircuitBreaker
	logger observability.Logger
}

// BreakerProbeOption is a functional option for configuring the
// breaker probe.
type BreakerProbeOption func(*BreakerProbe)

// WithBreakerLogger sets the logger for state change events.
func WithBreakerLogger(logger observability.Logger) BreakerProbeOption {
	return func(p *BreakerProbe) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewBreakerProbe wraps inner with a circuit breaker. The circuit
// opens once at least threshold checks were made and half of them
// failed, and stays open for timeout before probing again.
func NewBreakerProbe(inner diagnostics.Probe, threshold int, timeout time.Duration, opts ...BreakerProbeOption) *BreakerProbe {
	if threshold <= 0 {
		threshold = DefaultBreakerThreshold
	}
	if timeout <= 0 {
		timeout = DefaultBreakerTimeout
	}

	p := &BreakerProbe{
		inner:  inner,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}

	thresholdU32 := safeIntToUint32(threshold)

	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: thresholdU32,
		Interval:    timeout,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= thresholdU32 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			p.logger.Info("probe circuit breaker state change",
				observability.String("probe", name),
				observability.String("from", from.String()),
				observability.String("to", to.String()),
			)
		},
	})

	return p
}

// safeIntToUint32 safely converts int to uint32.
func safeIntToUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	if n > int(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(n) //nolint:gosec // bounds checked above
}

// Name returns the wrapped probe's name.
func (p *BreakerProbe) Name() string {
	return p.inner.Name()
}

// State returns the current circuit state.
func (p *BreakerProbe) State() gobreaker.State {
	return p.cb.State()
}

// Check runs the wrapped probe through the circuit breaker.
func (p *BreakerProbe) Check(ctx context.Context) error {
	_, err := p.cb.Execute(func() (interface{}, error) {
		return nil, p.inner.Check(ctx)
	})
	return err
}
