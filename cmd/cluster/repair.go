package cluster

import (
	"errors"

	"github.com/spf13/cobra"

	"cluster-provisioner/internal/service/provisioner"
	"cluster-provisioner/pkg/log"
)

var repairCmd = &cobra.Command{
	Use:     "repair",
	Short:   "Restore a lost connection secret for a ready cluster",
	Long:    `Check the vault entry of a ready cluster and, when it is missing, rotate the database credential and store a fresh connection secret.`,
	Example: `cluster-provisioner cluster repair --org org_abc123 --config /path/to/config.yaml`,
	RunE:    runRepair,
}

func runRepair(cmd *cobra.Command, _ []string) error {
	logger := log.Logger.With().Str("component", "cluster-repair").Logger()

	wiring, err := loadWiring()
	if err != nil {
		logger.Error().Err(err).Msg("Error creating config")
		return err
	}

	ctx := cmd.Context()
	result, err := wiring.InitProvisioner(ctx).Repair(ctx, orgFlag, actorFlag)
	switch {
	case errors.Is(err, provisioner.ErrClusterNotFound):
		logger.Warn().Str("organization_id", orgFlag).Msg("No cluster for organization")
		return err
	case errors.Is(err, provisioner.ErrNotRepairable):
		logger.Warn().Err(err).Str("organization_id", orgFlag).Msg("Cluster is not in a repairable state")
		return err
	case err != nil:
		logger.Error().Err(err).Msg("Repair failed")
		return err
	}

	if result.Rotated {
		logger.Info().
			Str("cluster_id", result.ClusterID).
			Str("secret_ref", result.SecretRef).
			Msg("Credential rotated and secret restored")
		return nil
	}
	logger.Info().
		Str("cluster_id", result.ClusterID).
		Str("secret_ref", result.SecretRef).
		Msg("Secret intact, nothing to repair")
	return nil
}
