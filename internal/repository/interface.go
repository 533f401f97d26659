package repository

import "cluster-provisioner/internal/models"

type ClusterRepository interface {
	// FindActiveByOrg returns the single record for the organization whose
	// status is neither failed nor deleted, or ErrClusterNotFound.
	FindActiveByOrg(organizationID string) (*models.ProvisionedCluster, error)
	// FindLatestByOrg returns the newest non-deleted record for the
	// organization, failed ones included, or ErrClusterNotFound. Lifecycle
	// operations that must reach failed attempts (teardown, status) use this
	// instead of FindActiveByOrg.
	FindLatestByOrg(organizationID string) (*models.ProvisionedCluster, error)
	Insert(cluster *models.ProvisionedCluster) error
	UpdateStatus(clusterID string, status models.ProvisionStatus, message string, fields models.ClusterUpdate) error
	FindByID(clusterID string) (*models.ProvisionedCluster, error)
	FindAll() ([]models.ProvisionedCluster, error)
	Close() error
}
