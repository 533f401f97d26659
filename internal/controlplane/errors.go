package controlplane

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrNotFound      = errors.New("control plane resource not found")
	ErrAlreadyExists = errors.New("control plane resource already exists")
	ErrWaitTimeout   = errors.New("timed out waiting for cluster to become ready")
)

// APIError carries the error envelope returned by the control plane. Code and
// Detail are preserved for operator troubleshooting; callers branch on the
// sentinel errors via errors.Is.
type APIError struct {
	StatusCode int
	Code       string `json:"errorCode"`
	Detail     string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("control plane error %s (http %d): %s", e.Code, e.StatusCode, e.Detail)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || strings.Contains(e.Code, "NOT_FOUND")
	case ErrAlreadyExists:
		return e.StatusCode == http.StatusConflict ||
			strings.Contains(e.Code, "ALREADY_EXISTS") ||
			strings.Contains(e.Code, "DUPLICATE")
	}
	return false
}

// IsTransient reports whether the request may succeed on retry.
func (e *APIError) IsTransient() bool {
	return e.StatusCode >= http.StatusInternalServerError ||
		e.StatusCode == http.StatusTooManyRequests
}
