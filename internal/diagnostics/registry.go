package diagnostics

import "sync"

// Registry is an ordered, concurrency-safe collection of probes. The
// registration order is the execution order for sequential runs.
type Registry struct {
	mu     sync.RWMutex
	probes []Probe
}

// NewRegistry creates a registry seeded with the given probes.
func NewRegistry(probes ...Probe) *Registry {
	r := &Registry{}
	if len(probes) > 0 {
		r.probes = append(r.probes, probes...)
	}
	return r
}

// Register appends a probe to the registry.
func (r *Registry) Register(p Probe) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes = append(r.probes, p)
}

// Replace swaps the full probe set atomically. Used on configuration
// reload.
func (r *Registry) Replace(probes []Probe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes = append(r.probes[:0:0], probes...)
}

// Probes returns a snapshot of the registered probes in registration
// order. The caller owns the returned slice.
func (r *Registry) Probes() []Probe {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Probe, len(r.probes))
	copy(out, r.probes)
	return out
}

// Len reports the number of registered probes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.probes)
}
