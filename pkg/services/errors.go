// Package services provides the operations shared by the CLI and the HTTP API.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/operion-odata/pkg/odata"
	"github.com/dukex/operion-odata/pkg/registry"
)

var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest = errors.New("invalid request")
	ErrNodeIDRequired = errors.New("node id is required")

	// Not Found Errors (404 Not Found).
	ErrNodeTypeNotFound = errors.New("node type not found")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrNodeIDRequired) ||
		odata.IsValidationError(err)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNodeTypeNotFound) ||
		errors.Is(err, registry.ErrNodeNotRegistered)
}

// IsUpstreamError checks if the OData service failed and the caller should see HTTP 502.
func IsUpstreamError(err error) bool {
	return odata.IsTransportError(err)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
