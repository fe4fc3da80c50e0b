package probe

import (
	"context"
	"fmt"
	"net"
	"time"
)

// DefaultTCPTimeout is the default timeout for TCP probe dials.
const DefaultTCPTimeout = 5 * time.Second

// TCPProbe checks that a TCP endpoint accepts connections.
type TCPProbe struct {
	name    string
	address string
	timeout time.Duration
}

// TCPProbeOption is a functional option for configuring the TCP probe.
type TCPProbeOption func(*TCPProbe)

// WithTCPTimeout sets the dial timeout.
func WithTCPTimeout(timeout time.Duration) TCPProbeOption {
	return func(p *TCPProbe) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// NewTCPProbe creates a probe that dials address (host:port).
func NewTCPProbe(name, address string, opts ...TCPProbeOption) *TCPProbe {
	p := &TCPProbe{
		name:    name,
		address: address,
		timeout: DefaultTCPTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the probe name.
func (p *TCPProbe) Name() string {
	return p.name
}

// Check dials the endpoint and closes the connection immediately.
func (p *TCPProbe) Check(ctx context.Context) error {
	dialer := net.Dialer{Timeout: p.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", p.address, err)
	}
	return conn.Close()
}
