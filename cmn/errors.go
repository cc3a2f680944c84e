package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// PreconditionFailure means the user's request or the instance's state
// violates a sanity rule checked before the first step runs (spec §4.7).
type PreconditionFailure struct{ Reason string }

func (e *PreconditionFailure) Error() string { return "precondition failed: " + e.Reason }

// NewPreconditionFailure wraps a reason into a PreconditionFailure.
func NewPreconditionFailure(format string, args ...interface{}) error {
	return &PreconditionFailure{Reason: fmt.Sprintf(format, args...)}
}

// WaiterTimeout means a poll loop exceeded its budget. Fatal for the
// current invocation, safely retried on the next.
type WaiterTimeout struct {
	Step string
	Wait string
}

func (e *WaiterTimeout) Error() string {
	return fmt.Sprintf("step %q: timed out waiting for %s", e.Step, e.Wait)
}

// StepFailure wraps a non-retryable provider error returned from a
// handler's side effect. The step is not advanced.
type StepFailure struct {
	Step  string
	Cause error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Cause)
}
func (e *StepFailure) Unwrap() error { return e.Cause }

// NewStepFailure wraps cause with step context, preserving it for
// errors.Cause / errors.As.
func NewStepFailure(step string, cause error) error {
	if cause == nil {
		return nil
	}
	return &StepFailure{Step: step, Cause: errors.WithStack(cause)}
}

// PersistenceFailure means the job record store could not be reached.
// Always fatal; the operator must restore access before retrying.
type PersistenceFailure struct{ Cause error }

func (e *PersistenceFailure) Error() string { return "job record store unavailable: " + e.Cause.Error() }
func (e *PersistenceFailure) Unwrap() error { return e.Cause }

// NewPersistenceFailure wraps a store error.
func NewPersistenceFailure(cause error) error {
	if cause == nil {
		return nil
	}
	return &PersistenceFailure{Cause: cause}
}

// IrreversibleDivergence means a post-checkpoint step failed in a way that
// cannot be re-converged by re-running it (e.g. an external actor destroyed
// a resource the tool expected to still exist).
type IrreversibleDivergence struct {
	Step   string
	Detail string
}

func (e *IrreversibleDivergence) Error() string {
	return fmt.Sprintf("step %q: irreversible divergence: %s — inspect the persisted job record and reconstruct manually", e.Step, e.Detail)
}

// NewIrreversibleDivergence builds the error, always including the advice
// to inspect the persisted record (spec §7).
func NewIrreversibleDivergence(step, detail string) error {
	return &IrreversibleDivergence{Step: step, Detail: detail}
}
