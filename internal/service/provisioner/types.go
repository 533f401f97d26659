package provisioner

import (
	"cluster-provisioner/internal/models"
)

// ProvisionRequest describes a provisioning attempt for one organization.
// Optional fields fall back to the configured defaults.
type ProvisionRequest struct {
	OrganizationID string
	UserID         string

	ClusterName  string
	Provider     string
	Region       string
	DatabaseName string
}

// ProvisionResult is what callers get back. SecretRef is the opaque vault
// reference; the raw connection string is never part of any result.
type ProvisionResult struct {
	ClusterID        string
	OrganizationID   string
	Status           models.ProvisionStatus
	SecretRef        string
	DatabaseUsername string
	Error            error
}

type DeprovisionResult struct {
	ClusterID string
	// Warnings collects cleanup sub-step failures. A non-empty list still
	// means the record reached deleted.
	Warnings []string
}

type RepairResult struct {
	ClusterID string
	SecretRef string
	// Rotated is false when the existing secret ref was still valid and
	// nothing had to change.
	Rotated bool
}

type StatusResult struct {
	ClusterID      string
	OrganizationID string
	Status         models.ProvisionStatus
	Message        string
	SecretRef      string
	// InvitationStatus is filled best effort from the control plane when the
	// record carries an invitation ref. Empty when there is no invitation or
	// the lookup failed.
	InvitationStatus string
}
