package core

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"cluster-provisioner/internal/bootstrap"
	"cluster-provisioner/internal/config"
	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/internal/invitation"
	repo "cluster-provisioner/internal/repository"
	psqlRepo "cluster-provisioner/internal/repository/postgres"
	"cluster-provisioner/internal/secretvault"
	"cluster-provisioner/internal/service/provisioner"
	"cluster-provisioner/pkg/db"
	"cluster-provisioner/pkg/db/migrations"
	"cluster-provisioner/pkg/log"
)

type Wiring struct {
	config *config.Config
	logger zerolog.Logger
}

func NewWiring(cfg *config.Config) *Wiring {
	var once sync.Once
	var instance *Wiring
	once.Do(func() {
		instance = &Wiring{
			config: cfg,
			logger: log.Logger.With().Str("component", "wiring").Logger(),
		}
	})
	return instance
}

func (w *Wiring) GetConfig() *config.Config {
	return w.config
}

func (w *Wiring) InitPostgresDataStore() *db.PostgresDatastore {
	var instance *db.PostgresDatastore
	var once sync.Once
	once.Do(func() {
		var err error
		instance, err = db.NewPostgresDatastore(&w.config.Postgres, migrations.NewPostgresMigration())
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to create Postgres datastore")
			os.Exit(-1)
		}
	})
	return instance
}

func (w *Wiring) InitClusterRepository() repo.ClusterRepository {
	return psqlRepo.NewClusterRepository(w.InitPostgresDataStore())
}

func (w *Wiring) InitControlPlaneClient() controlplane.Client {
	return controlplane.NewHTTPClient(&w.config.ControlPlane)
}

func (w *Wiring) InitVaultStore(ctx context.Context) secretvault.Store {
	var instance secretvault.Store
	var once sync.Once
	once.Do(func() {
		var err error
		instance, err = secretvault.NewVaultStore(ctx, &w.config.Vault)
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to create Vault secret store")
			os.Exit(-1)
		}
	})
	return instance
}

func (w *Wiring) InitInviter() invitation.Service {
	// Requesting users are addressed by email directly; no separate directory
	// is deployed alongside the provisioner.
	lookup := func(ctx context.Context, userID string) (string, error) {
		return userID, nil
	}
	return invitation.NewConsoleInviter(w.InitControlPlaneClient(), lookup)
}

func (w *Wiring) InitInitializer() bootstrap.Initializer {
	return bootstrap.NewMongoInitializer(0)
}

func (w *Wiring) InitProvisioner(ctx context.Context) *provisioner.Provisioner {
	return provisioner.NewProvisioner(
		w.config,
		w.InitControlPlaneClient(),
		w.InitClusterRepository(),
		w.InitVaultStore(ctx),
		w.InitInviter(),
		w.InitInitializer(),
	)
}
