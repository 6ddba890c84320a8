package repositories

import (
	"errors"
	"fmt"
)

// ErrInvalidID is returned when an identifier is empty or not a valid store ID.
// Handlers translate it into HTTP 400.
var ErrInvalidID = errors.New("invalid ID")

// ErrNotFound is returned when no record matches the identifier.
// Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("record not found")

// StoreError wraps a failure reported by the underlying store driver
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsStoreError reports whether err carries a *StoreError
func IsStoreError(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}
