package provisioner

import (
	"github.com/stretchr/testify/mock"

	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/internal/models"
	"cluster-provisioner/internal/repository"
)

func (suite *ProvisionerTestSuite) TestRepair() {
	suite.Run("is a no-op when the secret is intact", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(suite.activeRecord(models.StatusReady), nil)
		suite.mockVault.On("Exists", mock.Anything, "secret/data/clusters/existing").
			Return(true, nil)

		result, err := suite.newProvisioner().Repair(suite.ctx, suite.orgID, "ops@example.com")

		suite.NoError(err)
		suite.False(result.Rotated)
		suite.Equal("secret/data/clusters/existing", result.SecretRef)
		suite.mockControlPlane.AssertNotCalled(suite.T(), "CreateDatabaseUser", mock.Anything, mock.Anything, mock.Anything)
	})

	suite.Run("rotates the credential and stores a fresh secret when missing", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(suite.activeRecord(models.StatusReady), nil)
		suite.stubUpdateStatus()
		suite.mockVault.On("Exists", mock.Anything, "secret/data/clusters/existing").
			Return(false, nil)

		cluster := &controlplane.Cluster{ID: "rc-1", Name: "cluster0", StateName: controlplane.ClusterStateIdle}
		cluster.ConnectionStrings.StandardSrv = "mongodb+srv://cluster0.ab12c.example.net"
		suite.mockControlPlane.On("GetCluster", mock.Anything, "p-1", "cluster0").Return(cluster, nil)
		suite.mockControlPlane.On("CreateDatabaseUser", mock.Anything, "p-1", mock.Anything).
			Return(controlplane.ErrAlreadyExists)
		suite.mockControlPlane.On("UpdateDatabaseUser", mock.Anything, "p-1", mock.Anything).Return(nil)
		suite.mockVault.On("StoreConnectionString", mock.Anything, "cl-1", mock.Anything).
			Return("secret/data/clusters/rotated", nil)
		suite.mockInitializer.On("Initialize", mock.Anything, mock.Anything, "app").Return(nil)

		result, err := suite.newProvisioner().Repair(suite.ctx, suite.orgID, "ops@example.com")

		suite.NoError(err)
		suite.True(result.Rotated)
		suite.Equal("secret/data/clusters/rotated", result.SecretRef)
		suite.Equal([]models.ProvisionStatus{models.StatusReady}, suite.statusHistory)
		suite.Equal("secret/data/clusters/rotated", suite.persisted.GetSecretRef())
	})

	suite.Run("rejects a record that is not ready", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(suite.activeRecord(models.StatusCreatingCluster), nil)

		_, err := suite.newProvisioner().Repair(suite.ctx, suite.orgID, "ops@example.com")

		suite.ErrorIs(err, ErrNotRepairable)
		suite.mockVault.AssertNotCalled(suite.T(), "Exists", mock.Anything, mock.Anything)
	})

	suite.Run("rejects a failed attempt instead of hiding it", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(suite.activeRecord(models.StatusFailed), nil)

		_, err := suite.newProvisioner().Repair(suite.ctx, suite.orgID, "ops@example.com")

		suite.ErrorIs(err, ErrNotRepairable)
	})

	suite.Run("maps a missing record to ErrClusterNotFound", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(nil, repository.ErrClusterNotFound)

		_, err := suite.newProvisioner().Repair(suite.ctx, suite.orgID, "ops@example.com")

		suite.ErrorIs(err, ErrClusterNotFound)
	})
}
