// Package middleware provides HTTP middleware for the heartbeat service.
//
// All middleware is gin-flavored and composes through engine.Use. The
// package covers the ambient request concerns of the service:
//
//   - RequestID tags every request with an X-Request-ID header and
//     propagates it through the request context.
//   - Recovery converts panics into JSON 500 responses.
//   - AccessLog emits one structured log line per request, leveled by
//     response status.
//   - RateLimit applies a token bucket limit, globally or per client.
package middleware
