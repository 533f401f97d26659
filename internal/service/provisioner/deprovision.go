package provisioner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/internal/models"
	"cluster-provisioner/internal/repository"
)

// Deprovision tears down everything the provision workflow created for an
// organization, failed attempts included: a failed record may still own
// external resources that must be removed before provisioning can be retried.
// Unlike Provision, it never aborts on a substep failure: every teardown step
// runs, failures are collected as warnings, and the record always ends in the
// deleted state so a retry is possible against the control plane directly.
func (p *Provisioner) Deprovision(ctx context.Context, organizationID, actorID string) (*DeprovisionResult, error) {
	record, err := p.repo.FindLatestByOrg(organizationID)
	if errors.Is(err, repository.ErrClusterNotFound) {
		return nil, ErrClusterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up provisioning record: %w", err)
	}

	logger := p.operationLogger("deprovision", record)
	if actorID != "" {
		logger = logger.With().Str("actor_id", actorID).Logger()
	}
	logger.Info().Msg("Starting cluster deprovisioning")

	var warnings []string
	warn := func(step string, stepErr error) {
		logger.Warn().Err(stepErr).Str("step", step).Msg("Teardown step failed, continuing")
		warnings = append(warnings, fmt.Sprintf("%s: %v", step, stepErr))
	}

	if ref := record.GetInvitationRef(); ref != "" && record.ProjectID != "" {
		if err := p.inviter.Cancel(ctx, record.ProjectID, ref); err != nil {
			warn("cancel invitation", err)
		}
	}

	if record.ProjectID != "" && record.RemoteClusterName != "" {
		err := p.controlPlane.DeleteCluster(ctx, record.ProjectID, record.RemoteClusterName)
		if err != nil && !errors.Is(err, controlplane.ErrNotFound) {
			warn("delete cluster", err)
		} else {
			// The control plane deletes clusters asynchronously and rejects
			// project deletion while one is draining.
			if err := p.settle(ctx); err != nil {
				warn("settle delay", err)
			}
		}
	}

	if record.ProjectID != "" {
		err := p.controlPlane.DeleteProject(ctx, record.ProjectID)
		if err != nil && !errors.Is(err, controlplane.ErrNotFound) {
			warn("delete project", err)
		}
	}

	if ref := record.GetSecretRef(); ref != "" {
		if err := p.vault.Delete(ctx, ref); err != nil {
			warn("delete secret", err)
		}
	}

	message := "Cluster deprovisioned"
	if len(warnings) > 0 {
		message = fmt.Sprintf("Cluster deprovisioned with warnings: %s", strings.Join(warnings, "; "))
	}

	deletedAt := time.Now().UTC()
	update := models.ClusterUpdate{DeletedAt: &deletedAt}
	if err := p.repo.UpdateStatus(record.ClusterID, models.StatusDeleted, message, update); err != nil {
		return nil, fmt.Errorf("failed to mark record deleted: %w", err)
	}

	logger.Info().Int("warnings", len(warnings)).Msg("Cluster deprovisioning completed")
	return &DeprovisionResult{
		ClusterID: record.ClusterID,
		Warnings:  warnings,
	}, nil
}

func (p *Provisioner) settle(ctx context.Context) error {
	delay := p.cfg.Provisioning.ProjectDeleteSettleDelay
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
