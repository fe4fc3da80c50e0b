package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"
)

// DNSProbe checks that a host name resolves to at least one address.
type DNSProbe struct {
	name     string
	host     string
	resolver *net.Resolver
}

// DNSProbeOption is a functional option for configuring the DNS probe.
type DNSProbeOption func(*DNSProbe)

// WithResolver sets the resolver used for lookups.
func WithResolver(resolver *net.Resolver) DNSProbeOption {
	return func(p *DNSProbe) {
		if resolver != nil {
			p.resolver = resolver
		}
	}
}

// NewDNSProbe creates a probe that resolves host. A URL is accepted
// too; its host part is extracted.
func NewDNSProbe(name, host string, opts ...DNSProbeOption) *DNSProbe {
	p := &DNSProbe{
		name:     name,
		host:     extractHost(host),
		resolver: net.DefaultResolver,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the probe name.
func (p *DNSProbe) Name() string {
	return p.name
}

// Check resolves the host.
func (p *DNSProbe) Check(ctx context.Context) error {
	addrs, err := p.resolver.LookupHost(ctx, p.host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", p.host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("no addresses for %s", p.host)
	}
	return nil
}

// extractHost strips scheme, port, and path from a URL-shaped target.
func extractHost(raw string) string {
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		return u.Hostname()
	}
	if host, _, err := net.SplitHostPort(raw); err == nil {
		return host
	}
	return raw
}
