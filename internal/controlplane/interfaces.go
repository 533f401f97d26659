package controlplane

import (
	"context"
	"time"
)

// Client is the typed surface of the infrastructure control plane consumed by
// the provisioner. Implementations return ErrNotFound / ErrAlreadyExists via
// errors.Is for the corresponding provider responses.
type Client interface {
	GetProjectByName(ctx context.Context, name string) (*Project, error)
	CreateProject(ctx context.Context, name string) (*Project, error)
	DeleteProject(ctx context.Context, projectID string) error

	ListClusters(ctx context.Context, projectID string) ([]Cluster, error)
	GetCluster(ctx context.Context, projectID, clusterName string) (*Cluster, error)
	CreateCluster(ctx context.Context, projectID string, spec ClusterSpec) (*Cluster, error)
	DeleteCluster(ctx context.Context, projectID, clusterName string) error
	WaitUntilClusterReady(ctx context.Context, projectID, clusterName string, timeout, pollInterval time.Duration) (*Cluster, error)

	CreateDatabaseUser(ctx context.Context, projectID string, spec DatabaseUserSpec) error
	UpdateDatabaseUser(ctx context.Context, projectID string, spec DatabaseUserSpec) error

	AddNetworkAccessEntries(ctx context.Context, projectID string, entries []NetworkAccessEntry) error

	CreateInvitation(ctx context.Context, projectID string, spec InvitationSpec) (*Invitation, error)
	GetInvitation(ctx context.Context, projectID, invitationID string) (*Invitation, error)
	CancelInvitation(ctx context.Context, projectID, invitationID string) error

	GetClusterMetrics(ctx context.Context, projectID, clusterName string, query MetricsQuery) ([]Measurement, error)
}
