package history

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Storage.Get for an unknown ID.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateID is returned by Storage.Store when the ID already exists.
var ErrDuplicateID = errors.New("duplicate record id")

// StorageError wraps a backend failure with the operation that failed.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("history storage [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}
