// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by every layer. Entity-specific errors wrap one of these
// so callers can classify failures with errors.Is regardless of origin.
var (
	// ErrNotFound is returned when an entity is missing, not owned by the
	// caller, or no longer visible because it has expired.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for malformed ids, out-of-range ratings and
	// any other validation failure. It is never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when concurrent updates to the same entity could
	// not be reconciled.
	ErrConflict = errors.New("conflict")

	// ErrTransient is returned when the store timed out or was unavailable.
	// Operations failing with it are safe to retry.
	ErrTransient = errors.New("transient failure")

	// ErrAlreadyConsumed is returned when a proposal has already been accepted
	// or rejected.
	ErrAlreadyConsumed = errors.New("already consumed")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)

// Validation errors. All of them are InvalidInput.
var (
	ErrValidation       = fmt.Errorf("%w: validation failed", ErrInvalidInput)
	ErrInvalidID        = fmt.Errorf("%w: invalid ID", ErrInvalidInput)
	ErrInvalidRating    = fmt.Errorf("%w: invalid rating", ErrInvalidInput)
	ErrInvalidBoxLevel  = fmt.Errorf("%w: box level out of range", ErrInvalidInput)
	ErrEmptyContent     = fmt.Errorf("%w: content cannot be empty", ErrInvalidInput)
	ErrInvalidTimestamp = fmt.Errorf("%w: invalid timestamp", ErrInvalidInput)
)

// ValidationError describes a single invalid field. It wraps ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Message)
}

// Unwrap returns ErrValidation so the error classifies as InvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a ValidationError for the named field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
