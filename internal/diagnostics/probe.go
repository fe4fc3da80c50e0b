package diagnostics

import (
	"context"
	"reflect"
	"runtime"
	"strings"
)

// Probe is a single diagnostic check. Implementations may be bound
// methods on stateful components, closures, or free functions; the
// engine treats them uniformly.
//
// Check returns nil on success. Any non-nil error marks the probe as
// failed with the error's message; probes must not rely on the engine
// for timeouts or cancellation beyond the context they receive.
type Probe interface {
	// Name identifies the probe in results and telemetry.
	Name() string

	// Check performs the diagnostic check.
	Check(ctx context.Context) error
}

// probeFunc adapts a plain function to the Probe interface.
type probeFunc struct {
	name string
	fn   func(ctx context.Context) error
}

// ProbeFunc wraps fn as a Probe. When name is empty a best-effort name
// is derived from the function's runtime identity so the probe still
// reports under something recognizable.
func ProbeFunc(name string, fn func(ctx context.Context) error) Probe {
	if name == "" {
		name = functionName(fn)
	}
	return &probeFunc{name: name, fn: fn}
}

// Name returns the probe name.
func (p *probeFunc) Name() string {
	return p.name
}

// Check invokes the wrapped function.
func (p *probeFunc) Check(ctx context.Context) error {
	return p.fn(ctx)
}

// probeName resolves the reporting name for a probe, falling back to
// the implementation's type name when Name() yields nothing.
func probeName(p Probe) string {
	if p == nil {
		return "probe"
	}
	if name := p.Name(); name != "" {
		return name
	}
	return typeName(p)
}

// functionName derives a short name from a function value, e.g.
// "redis.(*Client).Ping" becomes "Ping". Anonymous functions keep
// their runtime suffix ("func1").
func functionName(fn func(ctx context.Context) error) string {
	if fn == nil {
		return "probe"
	}
	rf := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if rf == nil {
		return "probe"
	}
	name := rf.Name()
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.TrimSuffix(name, "-fm")
	if idx := strings.LastIndex(name, "."); idx >= 0 && idx+1 < len(name) {
		name = name[idx+1:]
	}
	if name == "" {
		return "probe"
	}
	return name
}

// typeName derives a short name from a probe's concrete type.
func typeName(p Probe) string {
	t := reflect.TypeOf(p)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "probe"
	}
	return t.Name()
}
