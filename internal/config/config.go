package config

import (
	"fmt"
	"strings"
	"time"
)

// Probe type identifiers accepted in configuration.
const (
	ProbeTypeHTTP   = "http"
	ProbeTypeTCP    = "tcp"
	ProbeTypeDNS    = "dns"
	ProbeTypeRedis  = "redis"
	ProbeTypeVault  = "vault"
	ProbeTypeMemory = "memory"
)

// Config holds all configuration settings for the heartbeat service.
type Config struct {
	// Server configures the HTTP server.
	Server ServerConfig `json:"server" yaml:"server"`

	// Heartbeat configures the diagnostics endpoint.
	Heartbeat HeartbeatConfig `json:"heartbeat" yaml:"heartbeat"`

	// Probes declares the diagnostics probes in execution order.
	Probes []ProbeConfig `json:"probes" yaml:"probes"`

	// Observability configures logging, metrics, and tracing.
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`

	// GRPC configures the gRPC health server.
	GRPC GRPCConfig `json:"grpc" yaml:"grpc"`

	// RateLimit configures request rate limiting.
	RateLimit RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address. Empty binds all interfaces.
	Host string `json:"host" yaml:"host"`

	// Port is the listen port.
	Port int `json:"port" yaml:"port"`

	ReadTimeout     Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout    Duration `json:"writeTimeout" yaml:"writeTimeout"`
	IdleTimeout     Duration `json:"idleTimeout" yaml:"idleTimeout"`
	ShutdownTimeout Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// HeartbeatConfig holds diagnostics endpoint settings.
type HeartbeatConfig struct {
	// APIKey guards the endpoint. Empty disables the check.
	APIKey string `json:"apiKey" yaml:"apiKey"`

	// APIKeyHeaderKey is the request header compared against APIKey.
	APIKeyHeaderKey string `json:"apiKeyHeaderKey" yaml:"apiKeyHeaderKey"`

	// HeartbeatRoute is the request path served by the endpoint.
	HeartbeatRoute string `json:"heartbeatRoute" yaml:"heartbeatRoute"`

	// Parallel selects concurrent probe execution. Sequential runs
	// preserve probe declaration order in the results.
	Parallel bool `json:"parallel" yaml:"parallel"`
}

// ProbeConfig declares a single diagnostics probe.
type ProbeConfig struct {
	// Name identifies the probe in results. Empty falls back to Type.
	Name string `json:"name" yaml:"name"`

	// Type selects the probe implementation: http, tcp, dns, redis,
	// vault, or memory.
	Type string `json:"type" yaml:"type"`

	// Target is the probe subject: a URL for http, host:port for tcp
	// and redis, a host name for dns, a server address for vault.
	// Unused by memory.
	Target string `json:"target" yaml:"target"`

	// Timeout bounds a single check where the probe supports it.
	Timeout Duration `json:"timeout" yaml:"timeout"`

	// Password authenticates redis probes.
	Password string `json:"password" yaml:"password"`

	// DB selects the redis database.
	DB int `json:"db" yaml:"db"`

	// Token authenticates vault probes. Optional, the health endpoint
	// is unauthenticated.
	Token string `json:"token" yaml:"token"`

	// MaxAllocBytes is the heap allocation limit for memory probes.
	// Zero disables the limit.
	MaxAllocBytes uint64 `json:"maxAllocBytes" yaml:"maxAllocBytes"`

	// Breaker optionally wraps the probe with a circuit breaker.
	Breaker BreakerConfig `json:"breaker" yaml:"breaker"`
}

// BreakerConfig holds circuit breaker settings for a probe.
type BreakerConfig struct {
	// Enabled turns the circuit breaker wrapper on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Threshold is the request count that arms the failure ratio trip.
	Threshold int `json:"threshold" yaml:"threshold"`

	// Timeout is how long the circuit stays open before re-probing.
	Timeout Duration `json:"timeout" yaml:"timeout"`
}

// ObservabilityConfig groups logging, metrics, and tracing settings.
type ObservabilityConfig struct {
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
	Tracing TracingConfig `json:"tracing" yaml:"tracing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, or error.
	Level string `json:"level" yaml:"level"`

	// Format is the output encoding: json or console.
	Format string `json:"format" yaml:"format"`

	// Output is the destination: stdout or stderr.
	Output string `json:"output" yaml:"output"`

	// AccessLog enables per-request logging on the server.
	AccessLog bool `json:"accessLog" yaml:"accessLog"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the metrics endpoint path.
	Path string `json:"path" yaml:"path"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace" yaml:"namespace"`
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	// Enabled turns span export on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// OTLPEndpoint is the OTLP gRPC collector address.
	OTLPEndpoint string `json:"otlpEndpoint" yaml:"otlpEndpoint"`

	// SamplingRate is the trace sampling ratio between 0 and 1.
	SamplingRate float64 `json:"samplingRate" yaml:"samplingRate"`
}

// GRPCConfig holds gRPC health server settings.
type GRPCConfig struct {
	// Enabled starts the gRPC health server.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Port is the listen port.
	Port int `json:"port" yaml:"port"`

	// WatchInterval is how often Watch streams re-evaluate the probes.
	WatchInterval Duration `json:"watchInterval" yaml:"watchInterval"`
}

// RateLimitConfig holds request rate limiting settings.
type RateLimitConfig struct {
	// Enabled turns rate limiting on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond"`

	// Burst is the maximum burst size.
	Burst int `json:"burst" yaml:"burst"`

	// PerClient applies the limit per client IP instead of globally.
	PerClient bool `json:"perClient" yaml:"perClient"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(10 * time.Second),
			WriteTimeout:    Duration(30 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Heartbeat: HeartbeatConfig{
			APIKeyHeaderKey: "DiagnosticsAPIKey",
			HeartbeatRoute:  "/api/heartbeat",
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:     "info",
				Format:    "json",
				Output:    "stdout",
				AccessLog: true,
			},
			Metrics: MetricsConfig{
				Enabled:   true,
				Path:      "/metrics",
				Namespace: "heartbeat",
			},
			Tracing: TracingConfig{
				OTLPEndpoint: "localhost:4317",
				SamplingRate: 1.0,
			},
		},
		GRPC: GRPCConfig{
			Port:          9090,
			WatchInterval: Duration(10 * time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             20,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	for i := range c.Probes {
		if err := c.Probes[i].Validate(); err != nil {
			return fmt.Errorf("probes[%d]: %w", i, err)
		}
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	if err := c.GRPC.Validate(); err != nil {
		return fmt.Errorf("grpc: %w", err)
	}
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rateLimit: %w", err)
	}
	return nil
}

// Validate checks the server settings.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Validate checks a probe declaration.
func (c *ProbeConfig) Validate() error {
	switch c.Type {
	case ProbeTypeHTTP, ProbeTypeTCP, ProbeTypeDNS, ProbeTypeRedis, ProbeTypeVault:
		if strings.TrimSpace(c.Target) == "" {
			return fmt.Errorf("probe type %q requires a target", c.Type)
		}
	case ProbeTypeMemory:
		// No target.
	case "":
		return fmt.Errorf("probe type is required")
	default:
		return fmt.Errorf("unknown probe type %q", c.Type)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", c.Timeout.Duration())
	}
	if c.Breaker.Enabled {
		if c.Breaker.Threshold < 0 {
			return fmt.Errorf("negative breaker threshold %d", c.Breaker.Threshold)
		}
		if c.Breaker.Timeout < 0 {
			return fmt.Errorf("negative breaker timeout %s", c.Breaker.Timeout.Duration())
		}
	}
	return nil
}

// EffectiveName returns the probe's reporting name, falling back to
// the probe type.
func (c *ProbeConfig) EffectiveName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Type
}

// Validate checks the observability settings.
func (c *ObservabilityConfig) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format %q", c.Logging.Format)
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return fmt.Errorf("sampling rate %g out of range [0, 1]", c.Tracing.SamplingRate)
	}
	return nil
}

// Validate checks the gRPC settings.
func (c *GRPCConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.WatchInterval < 0 {
		return fmt.Errorf("negative watch interval %s", c.WatchInterval.Duration())
	}
	return nil
}

// Validate checks the rate limit settings.
func (c *RateLimitConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requestsPerSecond must be positive, got %g", c.RequestsPerSecond)
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be at least 1, got %d", c.Burst)
	}
	return nil
}
