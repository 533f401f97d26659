package provisioner

import (
	"context"
	"errors"
	"fmt"

	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/internal/models"
	"cluster-provisioner/internal/repository"
)

// Repair restores the connection secret of a ready cluster whose vault entry
// was lost or corrupted. It rotates the database credential, reassembles the
// connection string from the live cluster and stores a fresh secret. A record
// that is not ready is rejected: a half-provisioned cluster needs a
// deprovision-and-retry cycle, not a secret rewrite.
func (p *Provisioner) Repair(ctx context.Context, organizationID, actorID string) (*RepairResult, error) {
	record, err := p.repo.FindLatestByOrg(organizationID)
	if errors.Is(err, repository.ErrClusterNotFound) {
		return nil, ErrClusterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up provisioning record: %w", err)
	}

	if record.Status != models.StatusReady {
		return nil, fmt.Errorf("%w: record is %s", ErrNotRepairable, record.Status)
	}

	logger := p.operationLogger("repair", record)
	if actorID != "" {
		logger = logger.With().Str("actor_id", actorID).Logger()
	}

	if ref := record.GetSecretRef(); ref != "" {
		exists, err := p.vault.Exists(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to check secret %s: %w", ref, err)
		}
		if exists {
			logger.Info().Str("secret_ref", ref).Msg("Secret intact, nothing to repair")
			return &RepairResult{ClusterID: record.ClusterID, SecretRef: ref}, nil
		}
	}

	logger.Warn().Msg("Connection secret missing, rotating credential")

	cluster, err := p.controlPlane.GetCluster(ctx, record.ProjectID, record.RemoteClusterName)
	if err != nil {
		return nil, fmt.Errorf("failed to read cluster %s: %w", record.RemoteClusterName, err)
	}

	password, err := generatePassword()
	if err != nil {
		return nil, err
	}

	username := databaseUsername(record.OrganizationID)
	spec := controlplane.DatabaseUserSpec{
		Username:     username,
		Password:     password,
		DatabaseName: record.DatabaseName,
		ClusterName:  record.RemoteClusterName,
	}
	err = p.controlPlane.CreateDatabaseUser(ctx, record.ProjectID, spec)
	if errors.Is(err, controlplane.ErrAlreadyExists) {
		err = p.controlPlane.UpdateDatabaseUser(ctx, record.ProjectID, spec)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to rotate database credential %s: %w", username, err)
	}

	connectionString, err := buildConnectionString(
		cluster.ConnectionStrings.StandardSrv,
		username,
		password,
		record.DatabaseName,
	)
	if err != nil {
		return nil, err
	}

	secretRef, err := p.vault.StoreConnectionString(ctx, record.ClusterID, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to store connection secret: %w", err)
	}

	p.stepBootstrap(ctx, logger, record, connectionString)

	update := models.ClusterUpdate{
		SecretRef:        &secretRef,
		DatabaseUsername: &username,
	}
	if err := p.repo.UpdateStatus(record.ClusterID, models.StatusReady, "Connection secret repaired", update); err != nil {
		return nil, fmt.Errorf("failed to persist repaired secret ref: %w", err)
	}

	logger.Info().Str("secret_ref", secretRef).Msg("Connection secret repaired")
	return &RepairResult{
		ClusterID: record.ClusterID,
		SecretRef: secretRef,
		Rotated:   true,
	}, nil
}
