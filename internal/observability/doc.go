// Package observability provides logging, metrics, and tracing for the
// heartbeat service.
//
// # Logging
//
// Structured logging is built on zap behind a small Logger interface so
// that packages depend on the interface rather than on zap directly:
//
//	logger, err := observability.NewLogger(observability.LogConfig{
//	    Level:  "info",
//	    Format: "json",
//	})
//	logger.Info("probe registered", observability.String("probe", "redis"))
//
// # Metrics
//
// Prometheus metrics cover heartbeat runs and individual probes. The
// Metrics type owns its own registry; expose it with Handler():
//
//	metrics := observability.NewMetrics("heartbeat")
//	mux.Handle("/metrics", metrics.Handler())
//
// # Tracing
//
// OpenTelemetry tracing with an optional OTLP gRPC exporter. Each
// heartbeat run produces one span carrying the probe count and the
// aggregate outcome.
package observability
