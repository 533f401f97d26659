package provisioner

import (
	"errors"
)

var (
	// ErrNotConfigured is returned before any record is created when the
	// control plane credentials or the parent organization id are missing.
	ErrNotConfigured = errors.New("auto provisioning is not configured")

	// ErrAlreadyProvisioned guards against double provisioning: an active
	// record already exists for the organization.
	ErrAlreadyProvisioned = errors.New("organization already has an active provisioned cluster")

	// ErrClusterNotFound means no active record exists for the organization.
	ErrClusterNotFound = errors.New("no provisioned cluster for organization")

	// ErrNotRepairable rejects repair on records that are not ready.
	ErrNotRepairable = errors.New("cluster record is not in a repairable state")
)
