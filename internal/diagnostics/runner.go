package diagnostics

import (
	"context"
	"fmt"
	"time"
)

// Run executes the given probes and aggregates their outcomes. With
// parallel false, probes run one after another and results keep the
// input order. With parallel true, every probe runs in its own
// goroutine and results arrive in completion order.
//
// A probe failure or panic is captured in its result entry and never
// interrupts the other probes. Run itself does not fail: it always
// returns a complete Results value, empty input included.
func Run(ctx context.Context, probes []Probe, parallel bool) *Results {
	if len(probes) == 0 {
		return NewResults(nil)
	}
	if parallel {
		return NewResults(runParallel(ctx, probes))
	}
	return NewResults(runSequential(ctx, probes))
}

// runSequential executes probes in order, one at a time.
func runSequential(ctx context.Context, probes []Probe) []ProbeResult {
	results := make([]ProbeResult, 0, len(probes))
	for _, p := range probes {
		results = append(results, executeProbe(ctx, p))
	}
	return results
}

// runParallel executes all probes concurrently and collects results as
// they complete.
func runParallel(ctx context.Context, probes []Probe) []ProbeResult {
	done := make(chan ProbeResult, len(probes))
	for _, p := range probes {
		go func(p Probe) {
			done <- executeProbe(ctx, p)
		}(p)
	}
	results := make([]ProbeResult, 0, len(probes))
	for range probes {
		results = append(results, <-done)
	}
	return results
}

// executeProbe runs a single probe, timing it and converting errors and
// panics into a failed result.
func executeProbe(ctx context.Context, p Probe) (result ProbeResult) {
	name := probeName(p)
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			result = newFailureResult(name, time.Since(start), fmt.Sprintf("%v", rec))
		}
	}()

	if err := p.Check(ctx); err != nil {
		return newFailureResult(name, time.Since(start), err.Error())
	}
	return newSuccessResult(name, time.Since(start))
}
