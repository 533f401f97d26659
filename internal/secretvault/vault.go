package secretvault

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/vault/api"
	"github.com/rs/zerolog"

	"cluster-provisioner/internal/config"
	"cluster-provisioner/pkg/log"
)

// Store keeps generated connection credentials out of the provisioning record:
// callers hold only the opaque ref it returns. The plaintext never leaves the
// vault once stored.
type Store interface {
	StoreConnectionString(ctx context.Context, clusterID, connectionString string) (string, error)
	Delete(ctx context.Context, ref string) error
	Exists(ctx context.Context, ref string) (bool, error)
}

type VaultStore struct {
	client     *api.Client
	mount      string
	pathPrefix string
	logger     zerolog.Logger
}

func NewVaultStore(ctx context.Context, cfg *config.Vault) (*VaultStore, error) {
	apiConfig := api.DefaultConfig()
	apiConfig.Address = cfg.Address

	if cfg.TLSSkipVerify || cfg.TLSCertFile != "" {
		tlsConfig := &api.TLSConfig{
			Insecure: cfg.TLSSkipVerify,
			CACert:   cfg.TLSCertFile,
		}
		if err := apiConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure vault TLS: %w", err)
		}
	}

	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	store := &VaultStore{
		client:     client,
		mount:      cfg.Mount,
		pathPrefix: cfg.PathPrefix,
		logger:     log.Logger.With().Str("component", "secret_vault").Logger(),
	}

	if err := store.authenticate(ctx, cfg); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *VaultStore) authenticate(ctx context.Context, cfg *config.Vault) error {
	if cfg.Token != "" {
		s.client.SetToken(cfg.Token)
		return nil
	}

	s.logger.Info().Str("app_role_mount", cfg.AppRoleMount).Msg("Authenticating with Vault via AppRole")
	loginPath := fmt.Sprintf("auth/%s/login", cfg.AppRoleMount)
	secret, err := s.client.Logical().WriteWithContext(ctx, loginPath, map[string]interface{}{
		"role_id":   cfg.AppRole,
		"secret_id": cfg.AppSecret,
	})
	if err != nil {
		return fmt.Errorf("failed to authenticate with vault approle: %w", err)
	}
	if secret == nil || secret.Auth == nil {
		return fmt.Errorf("vault approle login returned no auth data")
	}
	s.client.SetToken(secret.Auth.ClientToken)
	return nil
}

// StoreConnectionString writes the assembled connection string under a path
// derived from the cluster id and returns that path as the opaque ref. The
// plaintext itself is never logged.
func (s *VaultStore) StoreConnectionString(ctx context.Context, clusterID, connectionString string) (string, error) {
	ref := fmt.Sprintf("%s/%s", s.pathPrefix, clusterID)

	_, err := s.client.KVv2(s.mount).Put(ctx, ref, map[string]interface{}{
		"connection_string": connectionString,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("secret_ref", ref).Msg("Failed to store connection string")
		return "", fmt.Errorf("failed to store connection string: %w", err)
	}

	s.logger.Info().Str("secret_ref", ref).Msg("Stored connection string in vault")
	return ref, nil
}

func (s *VaultStore) Delete(ctx context.Context, ref string) error {
	if err := s.client.KVv2(s.mount).DeleteMetadata(ctx, ref); err != nil {
		s.logger.Error().Err(err).Str("secret_ref", ref).Msg("Failed to delete secret")
		return fmt.Errorf("failed to delete secret %s: %w", ref, err)
	}
	s.logger.Info().Str("secret_ref", ref).Msg("Deleted secret from vault")
	return nil
}

func (s *VaultStore) Exists(ctx context.Context, ref string) (bool, error) {
	_, err := s.client.KVv2(s.mount).Get(ctx, ref)
	if errors.Is(err, api.ErrSecretNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check secret %s: %w", ref, err)
	}
	return true, nil
}
