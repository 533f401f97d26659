package cluster

import (
	"errors"

	"github.com/spf13/cobra"

	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/internal/service/provisioner"
	"cluster-provisioner/pkg/log"
)

var (
	granularityFlag string
	periodFlag      string
)

var metricsCmd = &cobra.Command{
	Use:     "metrics",
	Short:   "Show recent measurements for an organization's cluster",
	Example: `cluster-provisioner cluster metrics --org org_abc123 --period PT1H --config /path/to/config.yaml`,
	RunE:    runMetrics,
}

func runMetrics(cmd *cobra.Command, _ []string) error {
	logger := log.Logger.With().Str("component", "cluster-metrics").Logger()

	wiring, err := loadWiring()
	if err != nil {
		logger.Error().Err(err).Msg("Error creating config")
		return err
	}

	ctx := cmd.Context()
	measurements, err := wiring.InitProvisioner(ctx).GetMetrics(ctx, orgFlag, controlplane.MetricsQuery{
		Granularity: granularityFlag,
		Period:      periodFlag,
	})
	if errors.Is(err, provisioner.ErrClusterNotFound) {
		logger.Warn().Str("organization_id", orgFlag).Msg("No cluster for organization")
		return err
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch measurements")
		return err
	}

	for _, measurement := range measurements {
		latest := "n/a"
		for i := len(measurement.DataPoints) - 1; i >= 0; i-- {
			if measurement.DataPoints[i].Value != nil {
				latest = measurement.DataPoints[i].Timestamp.String()
				break
			}
		}
		logger.Info().
			Str("name", measurement.Name).
			Str("units", measurement.Units).
			Int("data_points", len(measurement.DataPoints)).
			Str("latest", latest).
			Msg("Measurement")
	}
	logger.Info().Int("total", len(measurements)).Msg("Fetched cluster measurements")
	return nil
}
