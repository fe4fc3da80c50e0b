// Package diagnostics implements the probe aggregation engine behind the
// heartbeat endpoint.
//
// A Probe is a named, independent check with no inputs that either
// succeeds or reports an error. The package runs an ordered collection
// of probes, sequentially or fanned out, isolating per-probe failures,
// timing each execution, and folding the outcomes into a single Results
// envelope with an aggregate success verdict.
//
// # Execution model
//
// Sequential runs preserve probe order in the output. Parallel runs
// launch every probe at once and collect results in completion order;
// the output order is deliberately unrelated to registration order.
// A probe that returns an error, or panics, produces a failed entry and
// never disturbs its siblings or the run itself.
//
// The engine imposes no per-probe or aggregate deadline and never
// cancels a launched probe; callers that need a bound put it on the
// context they pass in, and probes that care honor it.
//
// # Usage
//
//	registry := diagnostics.NewRegistry(
//	    probe.NewHTTPProbe("upstream", "https://example.com/healthz"),
//	    diagnostics.ProbeFunc("queue", queue.Ping),
//	)
//	monitor := diagnostics.NewMonitor(registry,
//	    diagnostics.WithParallel(true),
//	    diagnostics.WithMonitorLogger(logger),
//	)
//	results, err := monitor.Heartbeat(ctx)
package diagnostics
