package cluster

import (
	"os"

	"github.com/spf13/cobra"

	"cluster-provisioner/internal/config"
	"cluster-provisioner/internal/core"
	"cluster-provisioner/pkg/log"
)

var (
	orgFlag         string
	userFlag        string
	actorFlag       string
	clusterIDFlag   string
	clusterNameFlag string
	providerFlag    string
	regionFlag      string
	databaseFlag    string
)

var ClusterCmd = &cobra.Command{
	Use:   "cluster",
	Short: "Manage provisioned database clusters",
	Long:  `Provision, inspect, repair and tear down managed database clusters per organization.`,
}

func init() {
	ClusterCmd.AddCommand(provisionCmd)
	ClusterCmd.AddCommand(deprovisionCmd)
	ClusterCmd.AddCommand(statusCmd)
	ClusterCmd.AddCommand(repairCmd)
	ClusterCmd.AddCommand(listCmd)
	ClusterCmd.AddCommand(metricsCmd)

	for _, cmd := range []*cobra.Command{provisionCmd, deprovisionCmd, repairCmd, metricsCmd} {
		cmd.Flags().StringVarP(&orgFlag, "org", "o", "", "organization id")
		if err := cmd.MarkFlagRequired("org"); err != nil {
			log.Logger.Error().Err(err).Msg("Failed to mark org flag as required")
			os.Exit(-1)
		}
	}

	// status addresses a record either by organization or, for records of any
	// state, directly by cluster id.
	statusCmd.Flags().StringVarP(&orgFlag, "org", "o", "", "organization id")
	statusCmd.Flags().StringVar(&clusterIDFlag, "cluster-id", "", "provisioning record id")
	statusCmd.MarkFlagsOneRequired("org", "cluster-id")
	statusCmd.MarkFlagsMutuallyExclusive("org", "cluster-id")

	for _, cmd := range []*cobra.Command{deprovisionCmd, repairCmd} {
		cmd.Flags().StringVarP(&actorFlag, "actor", "a", "", "identity of the operator requesting the action (for audit logs)")
	}

	provisionCmd.Flags().StringVarP(&userFlag, "user", "u", "", "email of the requesting user to invite to the console")
	provisionCmd.Flags().StringVar(&clusterNameFlag, "cluster-name", "", "override the remote cluster name")
	provisionCmd.Flags().StringVar(&providerFlag, "provider", "", "override the cloud provider")
	provisionCmd.Flags().StringVar(&regionFlag, "region", "", "override the provider region")
	provisionCmd.Flags().StringVar(&databaseFlag, "database", "", "override the logical database name")

	metricsCmd.Flags().StringVar(&granularityFlag, "granularity", "PT1M", "measurement granularity (ISO 8601 duration)")
	metricsCmd.Flags().StringVar(&periodFlag, "period", "PT1H", "measurement period (ISO 8601 duration)")
}

// loadWiring builds the dependency container every subcommand starts from.
func loadWiring() (*core.Wiring, error) {
	appConfig, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	log.Init(appConfig.ID, appConfig.LogLevel)
	return core.NewWiring(appConfig), nil
}
