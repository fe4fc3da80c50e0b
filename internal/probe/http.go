package probe

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// DefaultHTTPTimeout is the default timeout for HTTP probe requests.
const DefaultHTTPTimeout = 5 * time.Second

// HTTPProbe checks that an HTTP endpoint answers with a 2xx status.
type HTTPProbe struct {
	name   string
	url    string
	client *http.Client
}

// HTTPProbeOption is a functional option for configuring the HTTP probe.
type HTTPProbeOption func(*HTTPProbe)

// WithHTTPClient sets the HTTP client used by the probe.
func WithHTTPClient(client *http.Client) HTTPProbeOption {
	return func(p *HTTPProbe) {
		if client != nil {
			p.client = client
		}
	}
}

// WithHTTPTimeout sets the request timeout.
func WithHTTPTimeout(timeout time.Duration) HTTPProbeOption {
	return func(p *HTTPProbe) {
		if timeout > 0 {
			p.client.Timeout = timeout
		}
	}
}

// NewHTTPProbe creates a probe that issues a GET request against url.
func NewHTTPProbe(name, url string, opts ...HTTPProbeOption) *HTTPProbe {
	p := &HTTPProbe{
		name: name,
		url:  url,
		client: &http.Client{
			Timeout: DefaultHTTPTimeout,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the probe name.
func (p *HTTPProbe) Name() string {
	return p.name
}

// Check issues the request and verifies the response status.
func (p *HTTPProbe) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", p.url, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", p.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, p.url)
	}
	return nil
}
