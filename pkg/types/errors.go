package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced node or edge does not
	// exist in the graph.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyRunning is returned when a maintenance run is requested
	// while another run is in flight. Requests are rejected, not queued.
	ErrAlreadyRunning = errors.New("maintenance run already in progress")

	// ErrInconsistentMerge is returned when a consolidation group's
	// keeper cannot be determined deterministically.
	ErrInconsistentMerge = errors.New("cannot determine merge keeper")
)

// StoreError wraps a failure from the graph store (connectivity, timeout,
// query syntax).
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err with the failing operation name.
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// IsStoreError reports whether err is (or wraps) a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
