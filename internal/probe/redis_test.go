package probe

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisConfig_Normalize(t *testing.T) {
	t.Parallel()

	cfg := (&RedisConfig{Address: "127.0.0.1:6379"}).normalize()

	assert.Equal(t, DefaultRedisDialTimeout, cfg.DialTimeout)
	assert.Equal(t, DefaultRedisReadTimeout, cfg.ReadTimeout)
	assert.Equal(t, DefaultRedisWriteTimeout, cfg.WriteTimeout)
}

func TestRedisConfig_Normalize_KeepsExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := (&RedisConfig{
		Address:      "127.0.0.1:6379",
		DialTimeout:  time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 3 * time.Second,
	}).normalize()

	assert.Equal(t, time.Second, cfg.DialTimeout)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
}

func TestNewRedisProbe(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewRedisProbe("cache", client)
	require.NotNil(t, p)

	assert.Equal(t, "cache", p.Name())
	assert.NoError(t, p.Check(context.Background()))
}

// TestRedisProbe_Close_CallerOwnedClient verifies that closing the
// probe leaves a caller-supplied client usable.
func TestRedisProbe_Close_CallerOwnedClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	p := NewRedisProbe("cache", client)
	require.NoError(t, p.Close())

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestNewRedisProbeFromConfig(t *testing.T) {
	mr := miniredis.RunT(t)

	p := NewRedisProbeFromConfig("cache", &RedisConfig{Address: mr.Addr()})
	require.NotNil(t, p)
	defer p.Close()

	assert.Equal(t, "cache", p.Name())
	assert.True(t, p.ownsClient)
	assert.NoError(t, p.Check(context.Background()))
}

func TestNewRedisProbeFromConfig_NilConfig(t *testing.T) {
	t.Parallel()

	p := NewRedisProbeFromConfig("cache", nil)
	require.NotNil(t, p)
	defer p.Close()

	assert.True(t, p.ownsClient)
}

func TestRedisProbe_Check_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)

	p := NewRedisProbeFromConfig("cache", &RedisConfig{
		Address:     mr.Addr(),
		DialTimeout: time.Second,
		ReadTimeout: time.Second,
	})
	defer p.Close()

	require.NoError(t, p.Check(context.Background()))

	mr.Close()

	err := p.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}

func TestRedisProbe_Check_ContextCancelled(t *testing.T) {
	mr := miniredis.RunT(t)

	p := NewRedisProbeFromConfig("cache", &RedisConfig{Address: mr.Addr()})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, p.Check(ctx))
}
