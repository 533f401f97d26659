package repository

import (
	"errors"
)

var (
	ErrClusterNotFound        = errors.New("provisioned cluster not found")
	ErrDuplicateActiveCluster = errors.New("organization already has an active provisioned cluster")
	ErrDatabaseUnavailable    = errors.New("database is unavailable")
	ErrDatabaseGeneric        = errors.New("database error occurred while processing request")
)
