package probe

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingResolver never reaches the network; every lookup of a name
// outside the hosts file fails at dial time.
func failingResolver() *net.Resolver {
	return &net.Resolver{
		PreferGo: true,
		Dial: func(context.Context, string, string) (net.Conn, error) {
			return nil, errors.New("dns unreachable")
		},
	}
}

func TestNewDNSProbe(t *testing.T) {
	t.Parallel()

	p := NewDNSProbe("registry", "example.com")
	require.NotNil(t, p)

	assert.Equal(t, "registry", p.Name())
	assert.Equal(t, "example.com", p.host)
}

func TestNewDNSProbe_ExtractsHost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{name: "bare host", target: "example.com", want: "example.com"},
		{name: "host and port", target: "example.com:443", want: "example.com"},
		{name: "http url", target: "http://example.com/healthz", want: "example.com"},
		{name: "https url with port", target: "https://example.com:8443/path", want: "example.com"},
		{name: "ip and port", target: "10.0.0.1:53", want: "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewDNSProbe("registry", tt.target)
			assert.Equal(t, tt.want, p.host)
		})
	}
}

func TestDNSProbe_Check_Success(t *testing.T) {
	t.Parallel()

	// localhost is served from the hosts file, no network involved.
	p := NewDNSProbe("loopback", "localhost", WithResolver(failingResolver()))
	assert.NoError(t, p.Check(context.Background()))
}

func TestDNSProbe_Check_Failure(t *testing.T) {
	t.Parallel()

	p := NewDNSProbe("registry", "unresolvable.test", WithResolver(failingResolver()))
	err := p.Check(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve unresolvable.test")
}

func TestDNSProbe_Check_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewDNSProbe("registry", "unresolvable.test", WithResolver(failingResolver()))
	assert.Error(t, p.Check(ctx))
}
