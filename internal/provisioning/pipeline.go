package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/looplab/fsm"
)

// stage pairs a step with the settings it is initialized with.
type stage struct {
	step     Step
	settings Settings
}

// Pipeline drives a static sequence of steps strictly sequentially.
//
// It initializes every step, executes them in order, stops at the first step
// that fails or reports a FAILURE result and then rolls back every completed
// step in reverse execution order.
type Pipeline struct {
	stages  []stage
	modes   ModeSelector
	metrics *Metrics
}

// NewPipeline creates a pipeline of steps with empty settings.
func NewPipeline(steps ...Step) *Pipeline {
	p := &Pipeline{modes: Modes{Default: ModeRun}}
	for _, s := range steps {
		p.Add(s, nil)
	}
	return p
}

// Add appends a step with its settings.
func (p *Pipeline) Add(step Step, settings Settings) *Pipeline {
	p.stages = append(p.stages, stage{step: step, settings: settings})
	return p
}

// WithModes sets the execution mode selector.
func (p *Pipeline) WithModes(modes ModeSelector) *Pipeline {
	p.modes = modes
	return p
}

// WithMetrics sets the metrics recorder.
func (p *Pipeline) WithMetrics(m *Metrics) *Pipeline {
	p.metrics = m
	return p
}

// Steps returns the steps in sequence order.
func (p *Pipeline) Steps() []Step {
	out := make([]Step, 0, len(p.stages))
	for _, st := range p.stages {
		out = append(out, st.step)
	}
	return out
}

// Run executes the pipeline against rc.
//
// A successful run returns a report with status RUN_SUCCEEDED and a nil error.
// A failed run returns a report with status RUN_FAILED and a *RunError.
func (p *Pipeline) Run(ctx context.Context, rc *RunContext) (*Report, error) {
	start := time.Now()
	obs := rc.Observer()
	report := &Report{RunID: rc.RunID(), Status: RunPending}
	machine := newRunMachine(report, obs)

	obs.Printf("Starting provisioning run %s with %d steps...", rc.RunID(), len(p.stages))

	if err := p.checkUnique(); err != nil {
		return p.abort(machine, report, "", err, start)
	}

	for _, st := range p.stages {
		if err := st.step.Init(rc, st.settings); err != nil {
			var ie *InitError
			if !errors.As(err, &ie) {
				err = &InitError{StepType: st.step.Type(), StepID: st.step.ID(), Err: err}
			}
			return p.abort(machine, report, st.step.Type(), err, start)
		}
	}

	if err := machine.fire(evStart); err != nil {
		return report, err
	}

	var (
		failed Step
		cause  error
	)
	for i, st := range p.stages {
		step := st.step
		mode := p.modeFor(step)

		if err := ctx.Err(); err != nil {
			failed = step
			cause = &ExecutionError{StepType: step.Type(), StepID: step.ID(), Op: string(mode), Err: err}
			break
		}
		if err := rc.append(step); err != nil {
			failed, cause = step, err
			break
		}

		obs.Printf("[%s (%d/%d)] executing in %s mode", step.Type(), i+1, len(p.stages), mode)
		stepStart := time.Now()
		_, err := step.Execute(ctx, mode)
		elapsed := time.Since(stepStart)

		report.Steps = append(report.Steps, StepReport{
			StepType:   step.Type(),
			StepID:     step.ID(),
			Mode:       mode,
			Status:     step.Status(),
			Result:     step.Result(),
			Properties: step.Properties(),
			Duration:   elapsed,
		})
		p.metrics.observeStep(step, mode, elapsed)

		if err != nil {
			failed, cause = step, err
			break
		}
		if step.Result() == ResultFailure {
			failed = step
			cause = &ExecutionError{StepType: step.Type(), StepID: step.ID(), Op: string(mode), Err: ErrStepFailed}
			break
		}
	}

	if failed == nil {
		report.Duration = time.Since(start)
		if err := machine.fire(evSucceed); err != nil {
			return report, err
		}
		p.metrics.observeRun(RunSucceeded)
		obs.Event(Event{
			Type:    EventRunSucceeded,
			Message: fmt.Sprintf("provisioning completed in %v", report.Duration.Round(time.Millisecond)),
		})
		return report, nil
	}

	report.FailedStep = failed.Type()
	report.Cause = cause

	if err := machine.fire(evRollback); err != nil {
		return report, err
	}
	// Compensation must run even when ctx was cancelled.
	rbErr := p.rollback(context.WithoutCancel(ctx), rc, failed, report)

	return p.finishFailed(machine, report, rbErr, start)
}

// rollback calls Rollback on every COMPLETED step except failed, latest first.
// Failures are collected and never stop the remaining compensations.
func (p *Pipeline) rollback(ctx context.Context, rc *RunContext, failed Step, report *Report) error {
	var result *multierror.Error

	executed := rc.Steps()
	for i := len(executed) - 1; i >= 0; i-- {
		step := executed[i]
		if step.ID() == failed.ID() || step.Status() != StatusCompleted {
			continue
		}

		err := step.Rollback(ctx)
		if err != nil {
			var rbErr *RollbackError
			if !errors.As(err, &rbErr) {
				err = &RollbackError{StepType: step.Type(), StepID: step.ID(), Err: err}
			}
			result = multierror.Append(result, err)
		}
		report.Rollbacks = append(report.Rollbacks, RollbackOutcome{
			StepType: step.Type(),
			StepID:   step.ID(),
			Result:   rollbackResult(step, err),
			Err:      err,
		})
		p.metrics.observeRollback(step)
	}

	return result.ErrorOrNil()
}

func rollbackResult(step Step, err error) StepResult {
	if err != nil {
		return ResultFailure
	}
	if step.Status() == StatusRolledBack {
		return step.Result()
	}
	return ResultSuccess
}

// abort ends a run that failed before any step executed.
func (p *Pipeline) abort(machine *runMachine, report *Report, stepType string, cause error, start time.Time) (*Report, error) {
	report.FailedStep = stepType
	report.Cause = cause
	return p.finishFailed(machine, report, nil, start)
}

func (p *Pipeline) finishFailed(machine *runMachine, report *Report, rbErr error, start time.Time) (*Report, error) {
	report.Duration = time.Since(start)
	if err := machine.fire(evFail); err != nil {
		return report, err
	}
	p.metrics.observeRun(RunFailed)

	runErr := &RunError{
		RunID:       report.RunID,
		FailedStep:  report.FailedStep,
		Cause:       report.Cause,
		Rollbacks:   report.Rollbacks,
		RollbackErr: rbErr,
	}
	machine.observer.Event(Event{
		Type:    EventRunFailed,
		Step:    report.FailedStep,
		Message: "provisioning failed",
		Err:     runErr,
	})
	return report, runErr
}

func (p *Pipeline) modeFor(step Step) Mode {
	if p.modes == nil {
		return ModeRun
	}
	return p.modes.ModeFor(step.Type(), step.ID())
}

// checkUnique rejects pipelines that repeat a step type or id.
func (p *Pipeline) checkUnique() error {
	types := make(map[string]bool, len(p.stages))
	ids := make(map[string]bool, len(p.stages))
	for _, st := range p.stages {
		if types[st.step.Type()] {
			return fmt.Errorf("%w: type %s", ErrDuplicateStep, st.step.Type())
		}
		if ids[st.step.ID()] {
			return fmt.Errorf("%w: id %s", ErrDuplicateStep, st.step.ID())
		}
		types[st.step.Type()] = true
		ids[st.step.ID()] = true
	}
	return nil
}

// Run state machine events.
const (
	evStart    = "start"
	evSucceed  = "succeed"
	evRollback = "rollback"
	evFail     = "fail"
)

// runMachine tracks the run status:
// PENDING -> RUNNING -> {RUN_SUCCEEDED | ROLLING_BACK -> RUN_FAILED}.
// Init failures go straight from PENDING to RUN_FAILED.
type runMachine struct {
	fsm      *fsm.FSM
	observer Observer
}

func newRunMachine(report *Report, observer Observer) *runMachine {
	m := &runMachine{observer: observer}
	m.fsm = fsm.NewFSM(
		string(RunPending),
		fsm.Events{
			{Name: evStart, Src: []string{string(RunPending)}, Dst: string(RunRunning)},
			{Name: evSucceed, Src: []string{string(RunRunning)}, Dst: string(RunSucceeded)},
			{Name: evRollback, Src: []string{string(RunRunning)}, Dst: string(RunRollingBack)},
			{Name: evFail, Src: []string{string(RunPending), string(RunRollingBack)}, Dst: string(RunFailed)},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				report.Status = RunStatus(e.Dst)
				observer.Event(Event{
					Type:    EventRunStateChanged,
					Message: fmt.Sprintf("%s -> %s", e.Src, e.Dst),
				})
			},
		},
	)
	return m
}

func (m *runMachine) fire(event string) error {
	if err := m.fsm.Event(context.Background(), event); err != nil {
		return fmt.Errorf("run state %s: event %s: %w", m.fsm.Current(), event, err)
	}
	return nil
}
