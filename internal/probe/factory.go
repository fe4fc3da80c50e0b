package probe

import (
	"fmt"

	"github.com/vyrodovalexey/avheartbeat/internal/config"
	"github.com/vyrodovalexey/avheartbeat/internal/diagnostics"
	"github.com/vyrodovalexey/avheartbeat/internal/observability"
)

// FromConfig builds probes from the configured probe list, preserving
// declaration order. Entries with Breaker.Enabled are wrapped in a
// circuit breaker. The configuration is expected to be validated;
// unknown types are still rejected here so callers cannot bypass
// validation.
func FromConfig(cfgs []config.ProbeConfig, logger observability.Logger) ([]diagnostics.Probe, error) {
	if logger == nil {
		logger = observability.NopLogger()
	}

	probes := make([]diagnostics.Probe, 0, len(cfgs))
	for i := range cfgs {
		p, err := fromProbeConfig(&cfgs[i])
		if err != nil {
			return nil, fmt.Errorf("probes[%d]: %w", i, err)
		}
		if cfgs[i].Breaker.Enabled {
			p = NewBreakerProbe(p,
				cfgs[i].Breaker.Threshold,
				cfgs[i].Breaker.Timeout.Duration(),
				WithBreakerLogger(logger),
			)
		}
		probes = append(probes, p)
	}

	return probes, nil
}

func fromProbeConfig(cfg *config.ProbeConfig) (diagnostics.Probe, error) {
	name := cfg.EffectiveName()

	switch cfg.Type {
	case config.ProbeTypeHTTP:
		var opts []HTTPProbeOption
		if d := cfg.Timeout.Duration(); d > 0 {
			opts = append(opts, WithHTTPTimeout(d))
		}
		return NewHTTPProbe(name, cfg.Target, opts...), nil

	case config.ProbeTypeTCP:
		var opts []TCPProbeOption
		if d := cfg.Timeout.Duration(); d > 0 {
			opts = append(opts, WithTCPTimeout(d))
		}
		return NewTCPProbe(name, cfg.Target, opts...), nil

	case config.ProbeTypeDNS:
		return NewDNSProbe(name, cfg.Target), nil

	case config.ProbeTypeRedis:
		return NewRedisProbeFromConfig(name, &RedisConfig{
			Address:     cfg.Target,
			Password:    cfg.Password,
			DB:          cfg.DB,
			DialTimeout: cfg.Timeout.Duration(),
		}), nil

	case config.ProbeTypeVault:
		return NewVaultProbeFromConfig(name, cfg.Target, cfg.Token)

	case config.ProbeTypeMemory:
		return NewMemoryProbe(name, cfg.MaxAllocBytes), nil

	default:
		return nil, fmt.Errorf("unknown probe type %q", cfg.Type)
	}
}
