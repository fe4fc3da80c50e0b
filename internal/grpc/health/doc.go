// Package health exposes the heartbeat diagnostics over the standard
// grpc.health.v1.Health service.
//
// Check evaluates the probes synchronously and maps the outcome to
// SERVING or NOT_SERVING. Watch streams status transitions driven by a
// periodic background re-evaluation.
//
// Example usage:
//
//	hs := health.NewHealthServer(monitor,
//	    health.WithHealthLogger(logger),
//	)
//	srv := health.NewServer(&cfg.GRPC, hs,
//	    health.WithGRPCServerLogger(logger),
//	)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Stop(ctx)
package health
