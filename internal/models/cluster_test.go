package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProvisionStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status   ProvisionStatus
		terminal bool
	}{
		{StatusPending, false},
		{StatusCreatingProject, false},
		{StatusCreatingCluster, false},
		{StatusCreatingUser, false},
		{StatusConfiguringNetwork, false},
		{StatusReady, true},
		{StatusFailed, true},
		{StatusDeleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestProvisionStatusIsActive(t *testing.T) {
	assert.True(t, StatusPending.IsActive())
	assert.True(t, StatusCreatingCluster.IsActive())
	assert.True(t, StatusReady.IsActive())
	assert.False(t, StatusFailed.IsActive())
	assert.False(t, StatusDeleted.IsActive())
}

func TestClusterUpdateApply(t *testing.T) {
	cluster := &ProvisionedCluster{
		ClusterID:      "c1",
		OrganizationID: "org1",
		ProjectID:      "p1",
		Status:         StatusCreatingCluster,
	}

	remoteID := "remote-1"
	remoteName := "cluster0"
	completed := time.Now()

	cluster.Apply(ClusterUpdate{
		RemoteClusterID:         &remoteID,
		RemoteClusterName:       &remoteName,
		ProvisioningCompletedAt: &completed,
	})

	assert.Equal(t, "remote-1", cluster.RemoteClusterID)
	assert.Equal(t, "cluster0", cluster.RemoteClusterName)
	assert.Equal(t, "p1", cluster.ProjectID, "untouched fields are preserved")
	assert.NotNil(t, cluster.ProvisioningCompletedAt)
}

func TestGetSecretRef(t *testing.T) {
	cluster := &ProvisionedCluster{}
	assert.Empty(t, cluster.GetSecretRef())

	ref := "secret/data/clusters/c1"
	cluster.SecretRef = &ref
	assert.Equal(t, ref, cluster.GetSecretRef())
}
