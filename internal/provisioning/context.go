package provisioning

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// RunContext is the shared record of one provisioning run.
//
// It holds the requisition and the ordered list of steps that reached Execute.
// Steps communicate only through it, by step-type-qualified property lookups.
// The step list is append-only while steps run and read-only during rollback;
// the pipeline drives steps sequentially so no locking is needed.
type RunContext struct {
	runID       string
	requisition Requisition
	observer    Observer
	steps       []Step
	byType      map[string]Step
}

// RunContextOption configures a RunContext.
type RunContextOption func(*RunContext)

// WithObserver sets the observer steps and the pipeline report to.
func WithObserver(o Observer) RunContextOption {
	return func(rc *RunContext) { rc.observer = o }
}

// NewRunContext creates the context for one run. An empty runID is replaced by a random UUID.
func NewRunContext(runID string, req Requisition, opts ...RunContextOption) *RunContext {
	if runID == "" {
		runID = uuid.NewString()
	}
	rc := &RunContext{
		runID:       runID,
		requisition: req,
		observer:    NewLogrObserver(logr.Discard()),
		byType:      make(map[string]Step),
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// RunID returns the run identifier.
func (rc *RunContext) RunID() string { return rc.runID }

// Requisition returns a copy of the run's requisition.
func (rc *RunContext) Requisition() Requisition { return rc.requisition }

// Observer returns the run observer.
func (rc *RunContext) Observer() Observer { return rc.observer }

// append records that step has reached Execute.
func (rc *RunContext) append(step Step) error {
	if _, exists := rc.byType[step.Type()]; exists {
		return fmt.Errorf("%w: %s already executed in run %s", ErrDuplicateStep, step.Type(), rc.runID)
	}
	rc.steps = append(rc.steps, step)
	rc.byType[step.Type()] = step
	return nil
}

// Step returns the step of the given type if it has completed in this run.
func (rc *RunContext) Step(stepType string) (Step, error) {
	step, ok := rc.byType[stepType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStepNotExecuted, stepType)
	}
	switch step.Status() {
	case StatusCompleted, StatusRolledBack:
		return step, nil
	default:
		return nil, fmt.Errorf("%w: %s is %s", ErrStepNotExecuted, stepType, step.Status())
	}
}

// Property returns the named result property of step.
func (rc *RunContext) Property(step Step, name string) (Value, error) {
	return PropertyOf(step, name)
}

// Lookup returns property name produced by the step of type stepType.
func (rc *RunContext) Lookup(stepType, name string) (Value, error) {
	step, err := rc.Step(stepType)
	if err != nil {
		return Value{}, err
	}
	return PropertyOf(step, name)
}

// Steps returns every step that reached Execute, in execution order.
func (rc *RunContext) Steps() []Step {
	out := make([]Step, len(rc.steps))
	copy(out, rc.steps)
	return out
}

// Completed returns the steps currently in COMPLETED status, in execution order.
func (rc *RunContext) Completed() []Step {
	var out []Step
	for _, s := range rc.steps {
		if s.Status() == StatusCompleted {
			out = append(out, s)
		}
	}
	return out
}

// PropertyOf returns the named result property of step.
func PropertyOf(step Step, name string) (Value, error) {
	for _, p := range step.Properties() {
		if p.Name() == name {
			return valueOf(p), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %s.%s", ErrPropertyNotFound, step.Type(), name)
}
