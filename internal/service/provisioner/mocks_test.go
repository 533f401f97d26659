package provisioner

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/internal/models"
)

// ********
//
// mockControlPlane is a mock implementation of the controlplane.Client interface
//
// ********
type mockControlPlane struct {
	mock.Mock
}

func (m *mockControlPlane) GetProjectByName(ctx context.Context, name string) (*controlplane.Project, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Project), args.Error(1)
}

func (m *mockControlPlane) CreateProject(ctx context.Context, name string) (*controlplane.Project, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Project), args.Error(1)
}

func (m *mockControlPlane) DeleteProject(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

func (m *mockControlPlane) ListClusters(ctx context.Context, projectID string) ([]controlplane.Cluster, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]controlplane.Cluster), args.Error(1)
}

func (m *mockControlPlane) GetCluster(ctx context.Context, projectID, clusterName string) (*controlplane.Cluster, error) {
	args := m.Called(ctx, projectID, clusterName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Cluster), args.Error(1)
}

func (m *mockControlPlane) CreateCluster(ctx context.Context, projectID string, spec controlplane.ClusterSpec) (*controlplane.Cluster, error) {
	args := m.Called(ctx, projectID, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Cluster), args.Error(1)
}

func (m *mockControlPlane) DeleteCluster(ctx context.Context, projectID, clusterName string) error {
	args := m.Called(ctx, projectID, clusterName)
	return args.Error(0)
}

func (m *mockControlPlane) WaitUntilClusterReady(ctx context.Context, projectID, clusterName string, timeout, pollInterval time.Duration) (*controlplane.Cluster, error) {
	args := m.Called(ctx, projectID, clusterName, timeout, pollInterval)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Cluster), args.Error(1)
}

func (m *mockControlPlane) CreateDatabaseUser(ctx context.Context, projectID string, spec controlplane.DatabaseUserSpec) error {
	args := m.Called(ctx, projectID, spec)
	return args.Error(0)
}

func (m *mockControlPlane) UpdateDatabaseUser(ctx context.Context, projectID string, spec controlplane.DatabaseUserSpec) error {
	args := m.Called(ctx, projectID, spec)
	return args.Error(0)
}

func (m *mockControlPlane) AddNetworkAccessEntries(ctx context.Context, projectID string, entries []controlplane.NetworkAccessEntry) error {
	args := m.Called(ctx, projectID, entries)
	return args.Error(0)
}

func (m *mockControlPlane) CreateInvitation(ctx context.Context, projectID string, spec controlplane.InvitationSpec) (*controlplane.Invitation, error) {
	args := m.Called(ctx, projectID, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Invitation), args.Error(1)
}

func (m *mockControlPlane) GetInvitation(ctx context.Context, projectID, invitationID string) (*controlplane.Invitation, error) {
	args := m.Called(ctx, projectID, invitationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Invitation), args.Error(1)
}

func (m *mockControlPlane) CancelInvitation(ctx context.Context, projectID, invitationID string) error {
	args := m.Called(ctx, projectID, invitationID)
	return args.Error(0)
}

func (m *mockControlPlane) GetClusterMetrics(ctx context.Context, projectID, clusterName string, query controlplane.MetricsQuery) ([]controlplane.Measurement, error) {
	args := m.Called(ctx, projectID, clusterName, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]controlplane.Measurement), args.Error(1)
}

// ********
//
// mockRepository is a mock implementation of the repository.ClusterRepository interface
//
// ********
type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) FindActiveByOrg(organizationID string) (*models.ProvisionedCluster, error) {
	args := m.Called(organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProvisionedCluster), args.Error(1)
}

func (m *mockRepository) FindLatestByOrg(organizationID string) (*models.ProvisionedCluster, error) {
	args := m.Called(organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProvisionedCluster), args.Error(1)
}

func (m *mockRepository) Insert(cluster *models.ProvisionedCluster) error {
	args := m.Called(cluster)
	return args.Error(0)
}

func (m *mockRepository) UpdateStatus(clusterID string, status models.ProvisionStatus, message string, fields models.ClusterUpdate) error {
	args := m.Called(clusterID, status, message, fields)
	return args.Error(0)
}

func (m *mockRepository) FindByID(clusterID string) (*models.ProvisionedCluster, error) {
	args := m.Called(clusterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProvisionedCluster), args.Error(1)
}

func (m *mockRepository) FindAll() ([]models.ProvisionedCluster, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProvisionedCluster), args.Error(1)
}

func (m *mockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ********
//
// mockVault is a mock implementation of the secretvault.Store interface
//
// ********
type mockVault struct {
	mock.Mock
}

func (m *mockVault) StoreConnectionString(ctx context.Context, clusterID, connectionString string) (string, error) {
	args := m.Called(ctx, clusterID, connectionString)
	return args.String(0), args.Error(1)
}

func (m *mockVault) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

func (m *mockVault) Exists(ctx context.Context, ref string) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

// ********
//
// mockInviter is a mock implementation of the invitation.Service interface
//
// ********
type mockInviter struct {
	mock.Mock
}

func (m *mockInviter) Invite(ctx context.Context, projectID, userID string) (*controlplane.Invitation, error) {
	args := m.Called(ctx, projectID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*controlplane.Invitation), args.Error(1)
}

func (m *mockInviter) Status(ctx context.Context, projectID, invitationID string) (string, error) {
	args := m.Called(ctx, projectID, invitationID)
	return args.String(0), args.Error(1)
}

func (m *mockInviter) Cancel(ctx context.Context, projectID, invitationID string) error {
	args := m.Called(ctx, projectID, invitationID)
	return args.Error(0)
}

// ********
//
// mockInitializer is a mock implementation of the bootstrap.Initializer interface
//
// ********
type mockInitializer struct {
	mock.Mock
}

func (m *mockInitializer) Initialize(ctx context.Context, connectionString, databaseName string) error {
	args := m.Called(ctx, connectionString, databaseName)
	return args.Error(0)
}
