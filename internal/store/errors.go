package store

import (
	"errors"
	"fmt"

	"github.com/phrazzld/lexibox/internal/domain"
)

// Common store errors used across all store implementations. Each wraps a
// domain error kind so callers can classify store failures with errors.Is.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = fmt.Errorf("%w: entity not found", domain.ErrNotFound)

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a user with the same email). It is invalid
	// input rather than a conflict: repeating the write cannot succeed.
	ErrDuplicate = fmt.Errorf("%w: entity already exists", domain.ErrInvalidInput)

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored or violates a database constraint.
	ErrInvalidEntity = fmt.Errorf("%w: invalid entity", domain.ErrInvalidInput)

	// ErrConflict is returned when a concurrent update won the race for a row,
	// or the database aborted the transaction on a serialization failure.
	ErrConflict = fmt.Errorf("%w: concurrent update", domain.ErrConflict)

	// ErrTransient is returned when the database timed out or was unreachable.
	ErrTransient = fmt.Errorf("%w: database unavailable", domain.ErrTransient)

	// ErrTransactionFailed is returned when a database transaction fails
	// to begin or commit.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrUserNotFound indicates that the requested user does not exist in the store.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrCardNotFound indicates that the requested card does not exist in the store.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)

	// ErrBoxEntryNotFound indicates that the card has no scheduling state.
	ErrBoxEntryNotFound = fmt.Errorf("%w: box entry", ErrNotFound)

	// ErrImportSessionNotFound indicates that the import session does not exist.
	ErrImportSessionNotFound = fmt.Errorf("%w: import session", ErrNotFound)

	// ErrProposalNotFound indicates that the proposed card does not exist.
	ErrProposalNotFound = fmt.Errorf("%w: proposal", ErrNotFound)

	// ErrTaskNotFound indicates that the task does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// Entity-specific "duplicate" and "consumed" errors

	// ErrEmailExists indicates that a user with the given email already exists.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)

	// ErrProposalConsumed indicates that the proposal was already accepted or rejected.
	ErrProposalConsumed = fmt.Errorf("%w: proposal", domain.ErrAlreadyConsumed)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsRetryable reports whether the operation that produced err may be retried
// without changing its input.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrTransient)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "card", "proposal")
	Operation string // The operation that failed (e.g., "create", "update")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
