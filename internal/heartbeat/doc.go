// Package heartbeat serves aggregated diagnostics over HTTP.
//
// The package exposes the diagnostics engine as a pass-through HTTP
// middleware: requests that match the configured route and method are
// answered in place, everything else continues down the chain. The
// endpoint answers GET requests only.
//
// # Protocol
//
// An authorized request runs every registered probe and returns the
// aggregated results as JSON, 200 when all probes passed and 500 when
// any failed. Process information (start time and uptime) is sampled
// at response time and attached to the payload.
//
// Access is guarded by a shared key carried in a request header. An
// empty configured key disables the check; otherwise the header value
// must match the key exactly and a mismatch yields 401 with an empty
// body, without running any probe.
//
// When no monitor can be resolved for a request the endpoint still
// answers 200 with an empty result set. A failure while dispatching
// the diagnostics run itself yields a bare 500 without a body.
//
// # Usage
//
//	monitor := diagnostics.NewMonitor(registry)
//	handler := heartbeat.NewHandler(heartbeat.DefaultConfig(),
//		heartbeat.StaticResolver(monitor),
//		heartbeat.WithLogger(logger),
//	)
//
//	mux := http.NewServeMux()
//	srv := &http.Server{Handler: handler.Middleware(mux)}
//
// Gin applications mount the same handler through GinMiddleware:
//
//	engine.Use(handler.GinMiddleware())
package heartbeat
