package provisioning

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStepNotExecuted is returned when a lookup names a step type that has not completed in this run.
	ErrStepNotExecuted = errors.New("step has not executed in this run")
	// ErrPropertyNotFound is returned when a completed step did not produce the requested property.
	ErrPropertyNotFound = errors.New("property not found")
	// ErrNotApplicable is returned when a required value carries the "not applicable" sentinel.
	ErrNotApplicable = errors.New("property is not applicable")
	// ErrMissingSetting is returned by Init when a required step setting is absent.
	ErrMissingSetting = errors.New("required setting is missing")
	// ErrInvalidTransition is returned when a step is driven through an illegal status change.
	ErrInvalidTransition = errors.New("invalid step status transition")
	// ErrDuplicateStep is returned when a pipeline contains the same step type or id twice.
	ErrDuplicateStep = errors.New("duplicate step in pipeline")
	// ErrStepFailed marks a step that completed but reported a FAILURE result.
	ErrStepFailed = errors.New("step reported failure")
)

// InitError is a fatal initialization failure. It aborts the run before any step executes.
type InitError struct {
	StepType string
	StepID   string
	Err      error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initializing %s (%s): %v", e.StepType, e.StepID, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// ExecutionError terminates the current step and halts forward progress of the run.
type ExecutionError struct {
	StepType string
	StepID   string
	Op       string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s (%s) %s: %v", e.StepType, e.StepID, e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// RollbackError records a failed compensation. It never stops rollback of other steps.
type RollbackError struct {
	StepType string
	StepID   string
	Err      error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rolling back %s (%s): %v", e.StepType, e.StepID, e.Err)
}

func (e *RollbackError) Unwrap() error { return e.Err }

// RunError is returned by Pipeline.Run for a failed run. It carries the triggering
// error and the manifest of compensations attempted.
type RunError struct {
	RunID      string
	FailedStep string
	Cause      error
	Rollbacks  []RollbackOutcome
	// RollbackErr aggregates every RollbackError, nil when all compensations succeeded.
	RollbackErr error
}

func (e *RunError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s failed at %s: %v", e.RunID, e.FailedStep, e.Cause)
	if len(e.Rollbacks) > 0 {
		parts := make([]string, 0, len(e.Rollbacks))
		for _, rb := range e.Rollbacks {
			parts = append(parts, fmt.Sprintf("%s=%s", rb.StepType, rb.Result))
		}
		fmt.Fprintf(&b, " (rolled back: %s)", strings.Join(parts, ", "))
	}
	if e.RollbackErr != nil {
		fmt.Fprintf(&b, "; %v", e.RollbackErr)
	}
	return b.String()
}

func (e *RunError) Unwrap() []error {
	if e.RollbackErr == nil {
		return []error{e.Cause}
	}
	return []error{e.Cause, e.RollbackErr}
}
