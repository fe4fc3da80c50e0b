package probe

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryProbe checks the process heap allocation against a limit. A
// zero limit disables the check and the probe always passes, while
// still exercising the stats read.
type MemoryProbe struct {
	name          string
	maxAllocBytes uint64
}

// NewMemoryProbe creates a probe that fails once heap allocation
// exceeds maxAllocBytes.
func NewMemoryProbe(name string, maxAllocBytes uint64) *MemoryProbe {
	return &MemoryProbe{
		name:          name,
		maxAllocBytes: maxAllocBytes,
	}
}

// Name returns the probe name.
func (p *MemoryProbe) Name() string {
	return p.name
}

// Check reads the runtime memory stats and applies the limit.
func (p *MemoryProbe) Check(_ context.Context) error {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	if p.maxAllocBytes > 0 && stats.Alloc > p.maxAllocBytes {
		return fmt.Errorf("heap allocation %d bytes exceeds limit %d bytes", stats.Alloc, p.maxAllocBytes)
	}
	return nil
}
