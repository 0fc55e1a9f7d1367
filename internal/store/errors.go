package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is the generic version of the entity-specific not found
	// errors (e.g., ErrComputationNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity. For computations this signals that another submission
	// with the same dedup key won the check-and-insert race.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored, or violates a relational constraint. Check the wrapped
	// error for specific details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the entity does not exist or the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrCorrelationNotFound indicates that the requested correlation does
	// not exist in the store.
	ErrCorrelationNotFound = fmt.Errorf("%w: correlation", ErrNotFound)

	// ErrComputationNotFound indicates that the requested computation does
	// not exist in the store.
	ErrComputationNotFound = fmt.Errorf("%w: computation", ErrNotFound)

	// ErrPluginNotFound indicates that the requested plugin is not registered
	// in the directory.
	ErrPluginNotFound = fmt.Errorf("%w: plugin", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrDedupKeyExists indicates that a live computation with the given
	// dedup key already exists. The caller should treat the existing record
	// as authoritative.
	ErrDedupKeyExists = fmt.Errorf("%w: dedup key", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
