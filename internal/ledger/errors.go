package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAccount is returned when a manual posting names an account
	// the directory does not hold.
	ErrUnknownAccount = errors.New("unknown account")

	// ErrInvalidAmount is returned for non-positive manual posting amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrDerivedPosting is returned when deleting a posting derived from a movement.
	ErrDerivedPosting = errors.New("derived postings cannot be deleted")

	// ErrNotLoaded is returned by Reload before the first Load.
	ErrNotLoaded = errors.New("ledger not loaded")
)

// LoadError reports a failed ledger load. The store publishes an empty
// ledger when it returns one; retrying the load is safe.
type LoadError struct {
	Step string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading ledger (%s): %v", e.Step, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// MutationError reports a failed add or delete. In-memory state is unchanged.
type MutationError struct {
	Op  string
	Err error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
