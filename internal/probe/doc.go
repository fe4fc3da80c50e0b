// Package probe provides ready-made diagnostics probes for common
// infrastructure dependencies.
//
// Every probe implements diagnostics.Probe: a name plus a Check that
// returns nil when the dependency is reachable and healthy. Probes are
// safe for concurrent use and carry their own client timeouts, so a
// hanging dependency surfaces as a failed check instead of a stuck
// diagnostics run.
//
// Available probes:
//
//   - HTTPProbe dials an HTTP endpoint and requires a 2xx response.
//   - TCPProbe opens and closes a TCP connection.
//   - DNSProbe resolves a host name.
//   - RedisProbe pings a Redis server.
//   - VaultProbe requires Vault to be initialized and unsealed.
//   - MemoryProbe compares heap allocation against a limit.
//   - BreakerProbe wraps another probe with a circuit breaker so a
//     flapping dependency fails fast instead of being re-checked on
//     every run.
//
// FromConfig builds a probe set from declarative configuration,
// preserving declaration order.
package probe
