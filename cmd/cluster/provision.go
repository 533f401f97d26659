package cluster

import (
	"errors"

	"github.com/spf13/cobra"

	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/internal/service/provisioner"
	"cluster-provisioner/pkg/log"
)

var provisionCmd = &cobra.Command{
	Use:     "provision",
	Short:   "Provision a database cluster for an organization",
	Long:    `Create the project, cluster, credential and network access for an organization and store the connection secret in Vault.`,
	Example: `cluster-provisioner cluster provision --org org_abc123 --user dev@example.com --config /path/to/config.yaml`,
	RunE:    runProvision,
}

func runProvision(cmd *cobra.Command, _ []string) error {
	logger := log.Logger.With().Str("component", "cluster-provision").Logger()

	wiring, err := loadWiring()
	if err != nil {
		logger.Error().Err(err).Msg("Error creating config")
		return err
	}

	ctx := cmd.Context()
	prov := wiring.InitProvisioner(ctx)

	ack, done := prov.ProvisionAsync(ctx, provisioner.ProvisionRequest{
		OrganizationID: orgFlag,
		UserID:         userFlag,
		ClusterName:    clusterNameFlag,
		Provider:       providerFlag,
		Region:         regionFlag,
		DatabaseName:   databaseFlag,
	})
	logger.Info().
		Str("organization_id", ack.OrganizationID).
		Str("status", ack.Status.String()).
		Msg("Provisioning accepted")

	result := <-done
	if result.Error != nil {
		switch {
		case errors.Is(result.Error, provisioner.ErrAlreadyProvisioned):
			// Idempotent re-request, the existing cluster is the answer.
			logger.Warn().
				Str("cluster_id", result.ClusterID).
				Str("status", result.Status.String()).
				Msg("Organization already has a cluster")
			return nil
		case errors.Is(result.Error, controlplane.ErrWaitTimeout):
			logger.Warn().
				Str("cluster_id", result.ClusterID).
				Msg("Cluster did not become ready in time, check status later")
			return result.Error
		default:
			logger.Error().Err(result.Error).Msg("Provisioning failed")
			return result.Error
		}
	}

	logger.Info().
		Str("cluster_id", result.ClusterID).
		Str("secret_ref", result.SecretRef).
		Str("database_username", result.DatabaseUsername).
		Msg("Cluster provisioned")
	return nil
}
