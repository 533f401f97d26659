package provisioner

import (
	"context"
	"errors"
	"fmt"

	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/internal/models"
	"cluster-provisioner/internal/repository"
)

// GetMetrics fetches recent measurements for the organization's cluster from
// the control plane's monitoring endpoint.
func (p *Provisioner) GetMetrics(ctx context.Context, organizationID string, query controlplane.MetricsQuery) ([]controlplane.Measurement, error) {
	record, err := p.repo.FindLatestByOrg(organizationID)
	if errors.Is(err, repository.ErrClusterNotFound) {
		return nil, ErrClusterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up provisioning record: %w", err)
	}

	if record.Status != models.StatusReady {
		return nil, fmt.Errorf("cluster %s has no measurements yet, status is %s", record.ClusterID, record.Status)
	}

	measurements, err := p.controlPlane.GetClusterMetrics(ctx, record.ProjectID, record.RemoteClusterName, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cluster measurements: %w", err)
	}
	return measurements, nil
}
