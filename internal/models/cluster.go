package models

import "time"

// ProvisionStatus represents where a provisioning attempt currently stands.
// Transitions are strictly forward; failed and deleted are reachable from any
// non-terminal status.
const (
	StatusPending            ProvisionStatus = "pending"
	StatusCreatingProject    ProvisionStatus = "creating_project"
	StatusCreatingCluster    ProvisionStatus = "creating_cluster"
	StatusCreatingUser       ProvisionStatus = "creating_user"
	StatusConfiguringNetwork ProvisionStatus = "configuring_network"
	StatusReady              ProvisionStatus = "ready"
	StatusFailed             ProvisionStatus = "failed"
	StatusDeleted            ProvisionStatus = "deleted"
)

type ProvisionStatus string

func (s ProvisionStatus) String() string {
	return string(s)
}

func (s ProvisionStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed || s == StatusDeleted
}

// IsActive reports whether a record with this status blocks a new provisioning
// attempt for the same organization. An organization has at most one record
// whose status is active.
func (s ProvisionStatus) IsActive() bool {
	return s != StatusFailed && s != StatusDeleted
}

// ProvisionedCluster is the per-organization provisioning record. It is
// exclusively owned and mutated by the provisioner; it is never hard-deleted,
// deletion is represented by StatusDeleted.
type ProvisionedCluster struct {
	ClusterID         string `db:"cluster_id"`
	OrganizationID    string `db:"organization_id"`
	ProjectID         string `db:"project_id"`
	ProjectName       string `db:"project_name"`
	RemoteClusterID   string `db:"remote_cluster_id"`
	RemoteClusterName string `db:"remote_cluster_name"`

	Provider     string `db:"provider"`
	Region       string `db:"region"`
	InstanceSize string `db:"instance_size"`
	DatabaseName string `db:"database_name"`

	Status        ProvisionStatus `db:"status"`
	StatusMessage string          `db:"status_message"`

	SecretRef        *string `db:"secret_ref"`
	InvitationRef    *string `db:"invitation_ref"`
	DatabaseUsername string  `db:"database_username"`

	ProvisioningStartedAt   time.Time  `db:"provisioning_started_at"`
	ProvisioningCompletedAt *time.Time `db:"provisioning_completed_at"`
	CreatedAt               time.Time  `db:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at"`
	DeletedAt               *time.Time `db:"deleted_at"`
}

func (c *ProvisionedCluster) SetStatus(status ProvisionStatus, message string) {
	c.Status = status
	c.StatusMessage = message
}

func (c *ProvisionedCluster) GetSecretRef() string {
	if c.SecretRef == nil {
		return ""
	}
	return *c.SecretRef
}

func (c *ProvisionedCluster) GetInvitationRef() string {
	if c.InvitationRef == nil {
		return ""
	}
	return *c.InvitationRef
}

// ClusterUpdate carries the field-level changes persisted alongside a status
// transition. Nil fields are left untouched.
type ClusterUpdate struct {
	ProjectID               *string
	ProjectName             *string
	RemoteClusterID         *string
	RemoteClusterName       *string
	SecretRef               *string
	InvitationRef           *string
	DatabaseUsername        *string
	ProvisioningCompletedAt *time.Time
	DeletedAt               *time.Time
}

// Apply copies the non-nil fields of the update onto the record.
func (c *ProvisionedCluster) Apply(u ClusterUpdate) {
	if u.ProjectID != nil {
		c.ProjectID = *u.ProjectID
	}
	if u.ProjectName != nil {
		c.ProjectName = *u.ProjectName
	}
	if u.RemoteClusterID != nil {
		c.RemoteClusterID = *u.RemoteClusterID
	}
	if u.RemoteClusterName != nil {
		c.RemoteClusterName = *u.RemoteClusterName
	}
	if u.SecretRef != nil {
		c.SecretRef = u.SecretRef
	}
	if u.InvitationRef != nil {
		c.InvitationRef = u.InvitationRef
	}
	if u.DatabaseUsername != nil {
		c.DatabaseUsername = *u.DatabaseUsername
	}
	if u.ProvisioningCompletedAt != nil {
		c.ProvisioningCompletedAt = u.ProvisioningCompletedAt
	}
	if u.DeletedAt != nil {
		c.DeletedAt = u.DeletedAt
	}
}
