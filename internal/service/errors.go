package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/lexibox/internal/domain"
)

// Common service errors - sentinel errors used across service implementations.
// Each wraps a domain error kind so the API layer can map it to a status code.
var (
	// ErrGenerationUnavailable is returned when AI generation is requested but
	// no generator is configured.
	ErrGenerationUnavailable = fmt.Errorf("%w: proposal generation is not configured", domain.ErrInvalidInput)

	// ErrGenerationInProgress is returned when generation is requested for a
	// session that is already generating.
	ErrGenerationInProgress = fmt.Errorf("%w: generation already in progress", domain.ErrConflict)

	// ErrNoProposalIDs is returned by bulk operations that require explicit ids.
	ErrNoProposalIDs = fmt.Errorf("%w: proposal_ids cannot be empty", domain.ErrInvalidInput)
)

// ServiceError is a custom error type for service errors. The wrapped error
// keeps its domain kind for errors.Is.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// errorKind names the domain kind of err for reports that must not leak
// internal details.
func errorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrAlreadyConsumed):
		return "already_consumed"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrTransient):
		return "transient"
	default:
		return "internal"
	}
}
