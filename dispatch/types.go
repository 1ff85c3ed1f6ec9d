package dispatch

import (
	"errors"
	"fmt"
)

// Job lifecycle states. Pending and Processing are transient; Resolved and
// Rejected are terminal.
const (
	StatePending    = "pending"
	StateProcessing = "processing"
	StateResolved   = "resolved"
	StateRejected   = "rejected"
)

var validTransitions = map[string][]string{
	StatePending:    {StateProcessing, StateRejected},
	StateProcessing: {StateResolved, StateRejected},
}

// CanTransition reports whether from -> to is a legal state change.
func CanTransition(from, to string) bool {
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// ErrInvalidState is returned when an operation finds the job outside the
// state it requires, including duplicate solution callbacks for a job that
// already resolved.
var ErrInvalidState = errors.New("dispatch: job is not in a valid state for this operation")

// ValidationError is a rejected input: an incomplete job, an unresolvable
// entity reference, or a malformed solution payload. Nothing is persisted
// when one is returned.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Detail
}

// DispatchFailedError means the optimizer could not be reached or refused
// the request. The job remains Pending and may be dispatched again.
type DispatchFailedError struct {
	Status int
	Body   string
	Err    error
}

func (e *DispatchFailedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("dispatch failed: optimizer HTTP %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("dispatch failed: %v", e.Err)
}

func (e *DispatchFailedError) Unwrap() error { return e.Err }

// PersistenceError wraps a storage failure during solution ingest. The
// transaction was rolled back; the callback may be retried.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
