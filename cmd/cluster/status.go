package cluster

import (
	"errors"

	"github.com/spf13/cobra"

	"cluster-provisioner/internal/service/provisioner"
	"cluster-provisioner/pkg/log"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the provisioning status of a cluster",
	Long:    `Show the persisted status of the newest provisioning record, failed attempts included, either for an organization or for a specific record id.`,
	Example: `cluster-provisioner cluster status --org org_abc123 --config /path/to/config.yaml`,
	RunE:    runStatus,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List every provisioning record, including failed and deleted ones",
	Example: `cluster-provisioner cluster list --config /path/to/config.yaml`,
	RunE:    runList,
}

func runStatus(cmd *cobra.Command, _ []string) error {
	logger := log.Logger.With().Str("component", "cluster-status").Logger()

	wiring, err := loadWiring()
	if err != nil {
		logger.Error().Err(err).Msg("Error creating config")
		return err
	}

	ctx := cmd.Context()
	prov := wiring.InitProvisioner(ctx)

	var result *provisioner.StatusResult
	if clusterIDFlag != "" {
		result, err = prov.GetStatusByID(ctx, clusterIDFlag)
	} else {
		result, err = prov.GetStatus(ctx, orgFlag)
	}
	if errors.Is(err, provisioner.ErrClusterNotFound) {
		logger.Warn().
			Str("organization_id", orgFlag).
			Str("cluster_id", clusterIDFlag).
			Msg("No provisioning record found")
		return err
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read status")
		return err
	}

	logger.Info().
		Str("cluster_id", result.ClusterID).
		Str("organization_id", result.OrganizationID).
		Str("status", result.Status.String()).
		Str("message", result.Message).
		Str("secret_ref", result.SecretRef).
		Str("invitation_status", result.InvitationStatus).
		Msg("Cluster status")
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	logger := log.Logger.With().Str("component", "cluster-list").Logger()

	wiring, err := loadWiring()
	if err != nil {
		logger.Error().Err(err).Msg("Error creating config")
		return err
	}

	clusters, err := wiring.InitProvisioner(cmd.Context()).ListClusters()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list clusters")
		return err
	}

	for _, cluster := range clusters {
		logger.Info().
			Str("cluster_id", cluster.ClusterID).
			Str("organization_id", cluster.OrganizationID).
			Str("status", cluster.Status.String()).
			Str("remote_cluster_name", cluster.RemoteClusterName).
			Time("created_at", cluster.CreatedAt).
			Msg("Provisioning record")
	}
	logger.Info().Int("total", len(clusters)).Msg("Listed provisioning records")
	return nil
}
