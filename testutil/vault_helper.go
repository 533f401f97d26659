package testutil

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/vault"
	"github.com/testcontainers/testcontainers-go/wait"

	"cluster-provisioner/internal/config"
)

const vaultRootToken = "test-root-token"

type VaultHelper struct {
	Container *vault.VaultContainer
	Config    *config.Vault
}

func NewVaultContainer(t require.TestingT, ctx context.Context) (*VaultHelper, error) {
	hostPort, err := getPortManager().reservePort()
	if err != nil {
		return nil, err
	}

	vaultContainer, err := vault.Run(ctx,
		"hashicorp/vault:1.15",
		vault.WithToken(vaultRootToken),
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/v1/sys/health").WithPort("8200/tcp").WithStartupTimeout(1*time.Minute),
		),
		testcontainers.WithHostConfigModifier(func(hostConfig *container.HostConfig) {
			hostConfig.PortBindings = nat.PortMap{
				nat.Port("8200/tcp"): []nat.PortBinding{{HostPort: strconv.Itoa(hostPort)}},
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start Vault container: %w", err)
	}

	address, err := vaultContainer.HttpHostAddress(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get vault address: %w", err)
	}

	vaultConfig := &config.Vault{
		Address:    address,
		Token:      vaultRootToken,
		Mount:      "secret",
		PathPrefix: "clusters",
	}

	require.NoError(t, err, "Failed to start Vault container")

	return &VaultHelper{
		Container: vaultContainer,
		Config:    vaultConfig,
	}, nil
}

func (v *VaultHelper) Terminate(ctx context.Context) error {
	if v.Container != nil {
		return v.Container.Terminate(ctx)
	}
	return nil
}
