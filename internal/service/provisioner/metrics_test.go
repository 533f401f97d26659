package provisioner

import (
	"github.com/stretchr/testify/mock"

	"cluster-provisioner/internal/controlplane"
	"cluster-provisioner/internal/models"
	"cluster-provisioner/internal/repository"
)

func (suite *ProvisionerTestSuite) TestGetMetrics() {
	suite.Run("fetches measurements for a ready cluster", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(suite.activeRecord(models.StatusReady), nil)
		suite.mockControlPlane.On("GetClusterMetrics", mock.Anything, "p-1", "cluster0", mock.Anything).
			Return([]controlplane.Measurement{{Name: "CONNECTIONS", Units: "SCALAR"}}, nil)

		measurements, err := suite.newProvisioner().GetMetrics(suite.ctx, suite.orgID, controlplane.MetricsQuery{
			Granularity: "PT1M",
			Period:      "PT1H",
		})

		suite.NoError(err)
		suite.Len(measurements, 1)
		suite.Equal("CONNECTIONS", measurements[0].Name)
	})

	suite.Run("rejects a cluster that is still provisioning", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(suite.activeRecord(models.StatusCreatingCluster), nil)

		_, err := suite.newProvisioner().GetMetrics(suite.ctx, suite.orgID, controlplane.MetricsQuery{})

		suite.Error(err)
		suite.mockControlPlane.AssertNotCalled(suite.T(), "GetClusterMetrics", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	suite.Run("maps a missing record to ErrClusterNotFound", func() {
		suite.mockRepo.On("FindLatestByOrg", suite.orgID).
			Return(nil, repository.ErrClusterNotFound)

		_, err := suite.newProvisioner().GetMetrics(suite.ctx, suite.orgID, controlplane.MetricsQuery{})

		suite.ErrorIs(err, ErrClusterNotFound)
	})
}
