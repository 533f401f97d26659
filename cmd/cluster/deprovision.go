package cluster

import (
	"errors"

	"github.com/spf13/cobra"

	"cluster-provisioner/internal/service/provisioner"
	"cluster-provisioner/pkg/log"
)

var deprovisionCmd = &cobra.Command{
	Use:     "deprovision",
	Short:   "Tear down an organization's cluster",
	Long:    `Delete the cluster, project, invitation and connection secret. Teardown failures are reported as warnings and the record is still marked deleted.`,
	Example: `cluster-provisioner cluster deprovision --org org_abc123 --config /path/to/config.yaml`,
	RunE:    runDeprovision,
}

func runDeprovision(cmd *cobra.Command, _ []string) error {
	logger := log.Logger.With().Str("component", "cluster-deprovision").Logger()

	wiring, err := loadWiring()
	if err != nil {
		logger.Error().Err(err).Msg("Error creating config")
		return err
	}

	ctx := cmd.Context()
	result, err := wiring.InitProvisioner(ctx).Deprovision(ctx, orgFlag, actorFlag)
	if errors.Is(err, provisioner.ErrClusterNotFound) {
		logger.Warn().Str("organization_id", orgFlag).Msg("No cluster for organization")
		return err
	}
	if err != nil {
		logger.Error().Err(err).Msg("Deprovisioning failed")
		return err
	}

	for _, warning := range result.Warnings {
		logger.Warn().Str("cluster_id", result.ClusterID).Msg(warning)
	}
	logger.Info().
		Str("cluster_id", result.ClusterID).
		Int("warnings", len(result.Warnings)).
		Msg("Cluster deprovisioned")
	return nil
}
