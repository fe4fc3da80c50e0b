package probe

import (
	"context"
	"errors"
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"
)

// Vault probe failure conditions.
var (
	// ErrVaultNotInitialized is returned when Vault reports it has not
	// been initialized.
	ErrVaultNotInitialized = errors.New("vault is not initialized")

	// ErrVaultSealed is returned when Vault reports it is sealed.
	ErrVaultSealed = errors.New("vault is sealed")
)

// VaultProbe checks that a Vault server is initialized and unsealed.
// Standby nodes count as healthy.
type VaultProbe struct {
	name   string
	client *vaultapi.Client
}

// NewVaultProbe creates a probe over an existing Vault API client.
func NewVaultProbe(name string, client *vaultapi.Client) *VaultProbe {
	return &VaultProbe{
		name:   name,
		client: client,
	}
}

// NewVaultProbeFromConfig creates a probe with its own client for the
// given address. The token is optional; the health endpoint is
// unauthenticated.
func NewVaultProbeFromConfig(name, address, token string) (*VaultProbe, error) {
	cfg := vaultapi.DefaultConfig()
	if address != "" {
		cfg.Address = address
	}

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	return &VaultProbe{name: name, client: client}, nil
}

// Name returns the probe name.
func (p *VaultProbe) Name() string {
	return p.name
}

// Check queries the Vault health endpoint.
func (p *VaultProbe) Check(ctx context.Context) error {
	health, err := p.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health: %w", err)
	}
	if !health.Initialized {
		return ErrVaultNotInitialized
	}
	if health.Sealed {
		return ErrVaultSealed
	}
	return nil
}
