package provisioner

import (
	"github.com/stretchr/testify/mock"

	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/internal/models"
	"cluster-provisioner/internal/repository"
)

func (suite *ProvisionerTestSuite) TestDeprovision() {
	suite.Run("tears everything down and marks the record deleted", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(suite.activeRecord(models.StatusReady), nil)
		suite.stubUpdateStatus()

		suite.mockInviter.On("Cancel", mock.Anything, "p-1", "inv-0").Return(nil)
		suite.mockControlPlane.On("DeleteCluster", mock.Anything, "p-1", "cluster0").Return(nil)
		suite.mockControlPlane.On("DeleteProject", mock.Anything, "p-1").Return(nil)
		suite.mockVault.On("Delete", mock.Anything, "secret/data/clusters/existing").Return(nil)

		result, err := suite.newProvisioner().Deprovision(suite.ctx, suite.orgID, "ops@example.com")

		suite.NoError(err)
		suite.Empty(result.Warnings)
		suite.Equal([]models.ProvisionStatus{models.StatusDeleted}, suite.statusHistory)
		suite.NotNil(suite.persisted.DeletedAt)
	})

	suite.Run("tears down a failed attempt so provisioning can be retried", func() {
		record := suite.activeRecord(models.StatusFailed)
		record.StatusMessage = "Provisioning failed at configuring_network: boom"
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).Return(record, nil)
		suite.stubUpdateStatus()

		suite.mockInviter.On("Cancel", mock.Anything, "p-1", "inv-0").Return(nil)
		suite.mockControlPlane.On("DeleteCluster", mock.Anything, "p-1", "cluster0").Return(nil)
		suite.mockControlPlane.On("DeleteProject", mock.Anything, "p-1").Return(nil)
		suite.mockVault.On("Delete", mock.Anything, "secret/data/clusters/existing").Return(nil)

		result, err := suite.newProvisioner().Deprovision(suite.ctx, suite.orgID, "ops@example.com")

		suite.NoError(err)
		suite.Empty(result.Warnings)
		suite.Equal([]models.ProvisionStatus{models.StatusDeleted}, suite.statusHistory)
		suite.NotNil(suite.persisted.DeletedAt)
	})

	suite.Run("still reaches deleted when every teardown step fails", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(suite.activeRecord(models.StatusReady), nil)
		suite.stubUpdateStatus()

		apiErr := &controlplane.APIError{StatusCode: 500, Detail: "unavailable"}
		suite.mockInviter.On("Cancel", mock.Anything, "p-1", "inv-0").Return(apiErr)
		suite.mockControlPlane.On("DeleteCluster", mock.Anything, "p-1", "cluster0").Return(apiErr)
		suite.mockControlPlane.On("DeleteProject", mock.Anything, "p-1").Return(apiErr)
		suite.mockVault.On("Delete", mock.Anything, "secret/data/clusters/existing").Return(apiErr)

		result, err := suite.newProvisioner().Deprovision(suite.ctx, suite.orgID, "ops@example.com")

		suite.NoError(err)
		suite.Len(result.Warnings, 4)
		suite.Equal(models.StatusDeleted, suite.persisted.Status)
		suite.Contains(suite.persisted.StatusMessage, "warnings")
	})

	suite.Run("tolerates resources the control plane already dropped", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(suite.activeRecord(models.StatusReady), nil)
		suite.stubUpdateStatus()

		suite.mockInviter.On("Cancel", mock.Anything, "p-1", "inv-0").Return(nil)
		suite.mockControlPlane.On("DeleteCluster", mock.Anything, "p-1", "cluster0").
			Return(controlplane.ErrNotFound)
		suite.mockControlPlane.On("DeleteProject", mock.Anything, "p-1").
			Return(controlplane.ErrNotFound)
		suite.mockVault.On("Delete", mock.Anything, "secret/data/clusters/existing").Return(nil)

		result, err := suite.newProvisioner().Deprovision(suite.ctx, suite.orgID, "ops@example.com")

		suite.NoError(err)
		suite.Empty(result.Warnings)
		suite.Equal(models.StatusDeleted, suite.persisted.Status)
	})

	suite.Run("deprovisions a half-provisioned record without remote ids", func() {
		record := &models.ProvisionedCluster{
			ClusterID:      "cl-2",
			OrganizationID: suite.orgID,
			Status:         models.StatusCreatingProject,
		}
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).Return(record, nil)
		suite.stubUpdateStatus()

		result, err := suite.newProvisioner().Deprovision(suite.ctx, suite.orgID, "ops@example.com")

		suite.NoError(err)
		suite.Empty(result.Warnings)
		suite.mockControlPlane.AssertNotCalled(suite.T(), "DeleteCluster", mock.Anything, mock.Anything, mock.Anything)
		suite.mockControlPlane.AssertNotCalled(suite.T(), "DeleteProject", mock.Anything, mock.Anything)
		suite.mockVault.AssertNotCalled(suite.T(), "Delete", mock.Anything, mock.Anything)
	})

	suite.Run("maps a missing record to ErrClusterNotFound", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(nil, repository.ErrClusterNotFound)

		_, err := suite.newProvisioner().Deprovision(suite.ctx, suite.orgID, "ops@example.com")

		suite.ErrorIs(err, ErrClusterNotFound)
	})
}
