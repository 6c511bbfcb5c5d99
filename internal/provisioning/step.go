package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Variant is one execution variant of a step. A nil error with OutcomeFailure
// completes the step with a FAILURE result; a non-nil error fails the step.
type Variant func(ctx context.Context) ([]Property, Outcome, error)

// Variants holds the step-specific execution variants. The fail variant is
// provided by Base.
type Variants struct {
	Run      Variant
	Simulate Variant
}

var errNotInitialized = errors.New("step was not initialized")

// Base carries the identity and status bookkeeping shared by every step.
// Concrete steps embed it and implement Execute and Rollback on top of
// Dispatch and Compensate.
type Base struct {
	stepType string
	id       string

	rc       *RunContext
	settings Settings
	log      Observer

	status   StepStatus
	result   StepResult
	method   Mode
	props    []Property
	started  time.Time
	finished time.Time
}

// NewBase creates the embedded helper. An empty id is replaced by a generated one.
func NewBase(stepType, id string) Base {
	if id == "" {
		id = fmt.Sprintf("%s-%s", stepType, uuid.NewString()[:8])
	}
	return Base{stepType: stepType, id: id}
}

// Type implements Step.
func (b *Base) Type() string { return b.stepType }

// ID implements Step.
func (b *Base) ID() string { return b.id }

// Status implements Step.
func (b *Base) Status() StepStatus { return b.status }

// Result implements Step.
func (b *Base) Result() StepResult { return b.result }

// Method returns the mode the step executed with, empty before Execute.
func (b *Base) Method() Mode { return b.method }

// Duration returns how long the execution variant took.
func (b *Base) Duration() time.Duration { return b.finished.Sub(b.started) }

// Properties implements Step.
func (b *Base) Properties() []Property {
	out := make([]Property, len(b.props))
	copy(out, b.props)
	return out
}

// Init wires the step to its run context and settings. Concrete steps that
// need settings call it first and then validate what they need.
func (b *Base) Init(rc *RunContext, settings Settings) error {
	if rc == nil {
		return b.InitErr(errors.New("run context is nil"))
	}
	if b.rc != nil {
		return b.InitErr(errors.New("step already initialized"))
	}
	if settings == nil {
		settings = Settings{}
	}
	b.rc = rc
	b.settings = settings
	b.log = rc.Observer().WithFields(map[string]string{"stepId": b.id})
	return nil
}

// InitErr wraps err as an InitError for this step.
func (b *Base) InitErr(err error) error {
	var ie *InitError
	if errors.As(err, &ie) {
		return err
	}
	return &InitError{StepType: b.stepType, StepID: b.id, Err: err}
}

// RunContext returns the run context the step was initialized with.
func (b *Base) RunContext() *RunContext { return b.rc }

// Settings returns the step settings.
func (b *Base) Settings() Settings { return b.settings }

// Observer returns the run observer.
func (b *Base) Observer() Observer {
	if b.rc == nil {
		return NewLogrObserver(logr.Discard())
	}
	return b.rc.Observer()
}

// Logf logs a message prefixed with the step type and tagged with the step id.
func (b *Base) Logf(format string, v ...interface{}) {
	log := b.log
	if log == nil {
		log = b.Observer()
	}
	log.Printf("[%s] "+format, append([]interface{}{b.stepType}, v...)...)
}

// Lookup reads a property from an earlier step of this run.
func (b *Base) Lookup(stepType, name string) (Value, error) {
	if b.rc == nil {
		return Value{}, errNotInitialized
	}
	return b.rc.Lookup(stepType, name)
}

// Dispatch runs exactly one variant selected by mode and records the terminal
// status and result. The returned properties always start with stepExecutionMethod.
func (b *Base) Dispatch(ctx context.Context, mode Mode, v Variants) ([]Property, error) {
	if b.rc == nil {
		return nil, b.execErr(mode, errNotInitialized)
	}
	if err := b.transition(StatusRunning); err != nil {
		return nil, b.execErr(mode, err)
	}

	var variant Variant
	switch mode {
	case ModeRun:
		variant = v.Run
	case ModeSimulate:
		variant = v.Simulate
	case ModeFail:
		variant = b.fail
	}

	obs := b.Observer()
	LogStepStarted(obs, b, mode)
	b.method = mode
	b.started = time.Now()

	var (
		props   []Property
		outcome Outcome
		err     error
	)
	if variant == nil {
		err = fmt.Errorf("no %q variant", mode)
	} else {
		props, outcome, err = variant(ctx)
	}
	b.finished = time.Now()

	method := NewProperty(PropertyExecutionMethod, string(mode))
	if err != nil {
		b.props = []Property{method}
		b.update(StatusFailed, ResultFailure)
		execErr := b.execErr(mode, err)
		LogStepFailed(obs, b, execErr)
		return b.Properties(), execErr
	}

	b.props = append([]Property{method}, props...)
	result := ResultSuccess
	if outcome == OutcomeFailure {
		result = ResultFailure
	}
	b.update(StatusCompleted, result)
	LogStepCompleted(obs, b, result, b.Duration())
	return b.Properties(), nil
}

// fail is the forced-failure variant shared by all steps.
func (b *Base) fail(_ context.Context) ([]Property, Outcome, error) {
	return nil, OutcomeFailure, nil
}

// Compensate performs a rollback. fn runs only when the step completed in run
// mode; a nil fn means there is nothing to undo. Calling it on a step that is
// not COMPLETED is a no-op.
func (b *Base) Compensate(ctx context.Context, fn func(context.Context) error) error {
	if b.status != StatusCompleted {
		return nil
	}

	obs := b.Observer()
	var err error
	if b.method == ModeRun && fn != nil {
		err = fn(ctx)
	}
	if err != nil {
		b.update(StatusRolledBack, ResultFailure)
		rbErr := &RollbackError{StepType: b.stepType, StepID: b.id, Err: err}
		LogStepRollbackFailed(obs, b, rbErr)
		return rbErr
	}

	b.update(StatusRolledBack, ResultSuccess)
	LogStepRolledBack(obs, b)
	return nil
}

// NoRollback is the rollback of steps without side effects.
func (b *Base) NoRollback(ctx context.Context) error {
	return b.Compensate(ctx, nil)
}

// update records the terminal status and result of an operation.
func (b *Base) update(status StepStatus, result StepResult) {
	// transitions out of Dispatch and Compensate are always legal
	_ = b.transition(status)
	b.result = result
}

func (b *Base) transition(next StepStatus) error {
	if !b.status.canTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.status, next)
	}
	b.status = next
	return nil
}

func (b *Base) execErr(mode Mode, err error) error {
	var ee *ExecutionError
	if errors.As(err, &ee) && ee.StepType == b.stepType {
		return err
	}
	return &ExecutionError{StepType: b.stepType, StepID: b.id, Op: string(mode), Err: err}
}
