package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis probe default timeouts.
const (
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second
)

// RedisConfig holds connection settings for a Redis probe that owns
// its client.
type RedisConfig struct {
	Address  string
	Password string
	DB       int

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// normalize fills zero values with defaults.
func (c *RedisConfig) normalize() *RedisConfig {
	out := *c
	if out.DialTimeout <= 0 {
		out.DialTimeout = DefaultRedisDialTimeout
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = DefaultRedisReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = DefaultRedisWriteTimeout
	}
	return &out
}

// RedisProbe checks that a Redis server answers PING.
type RedisProbe struct {
	name       string
	client     redis.UniversalClient
	ownsClient bool
}

// NewRedisProbe creates a probe over an existing client. The caller
// keeps ownership of the client.
func NewRedisProbe(name string, client redis.UniversalClient) *RedisProbe {
	return &RedisProbe{
		name:   name,
		client: client,
	}
}

// NewRedisProbeFromConfig creates a probe that owns its own client.
// Close releases the client's connections.
func NewRedisProbeFromConfig(name string, cfg *RedisConfig) *RedisProbe {
	if cfg == nil {
		cfg = &RedisConfig{}
	}
	cfg = cfg.normalize()

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	return &RedisProbe{
		name:       name,
		client:     client,
		ownsClient: true,
	}
}

// Name returns the probe name.
func (p *RedisProbe) Name() string {
	return p.name
}

// Check pings the server.
func (p *RedisProbe) Check(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the client when the probe owns it.
func (p *RedisProbe) Close() error {
	if !p.ownsClient {
		return nil
	}
	return p.client.Close()
}
