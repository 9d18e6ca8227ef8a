package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// Entity-specific "not found" errors

	// ErrBatchNotFound indicates that the requested batch does not exist in the store.
	ErrBatchNotFound = fmt.Errorf("%w: batch", ErrNotFound)

	// ErrResultNotFound indicates that the requested result record does not exist in the store.
	ErrResultNotFound = fmt.Errorf("%w: result", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrBatchExists indicates that a batch with the given ID already exists.
	ErrBatchExists = fmt.Errorf("%w: batch", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
