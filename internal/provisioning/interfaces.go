package provisioning

import "context"

// Step is one provisioning action in a pipeline.
//
// A step is constructed, initialized exactly once, executed exactly once and
// optionally rolled back exactly once. Steps are never reused across runs.
type Step interface {
	// Type returns the step type key, unique within a run (e.g. "DETERMINE_VPC_TYPE").
	Type() string

	// ID returns the instance id of the step within its run.
	ID() string

	// Init wires the step to the run context and validates its settings.
	Init(rc *RunContext, settings Settings) error

	// Execute dispatches to the run, simulate or fail variant selected by mode
	// and returns the result properties it produced.
	Execute(ctx context.Context, mode Mode) ([]Property, error)

	// Rollback compensates whatever Execute did. It is safe to call on a step
	// that never ran or produced no side effect.
	Rollback(ctx context.Context) error

	Status() StepStatus
	Result() StepResult
	Properties() []Property
}

// ModeSelector chooses the execution mode of each step before a run starts.
type ModeSelector interface {
	ModeFor(stepType, stepID string) Mode
}

// Modes selects Default for every step unless Overrides names the step id or type.
// Overrides keyed by step id win over overrides keyed by type.
type Modes struct {
	Default   Mode
	Overrides map[string]Mode
}

// ModeFor implements ModeSelector.
func (m Modes) ModeFor(stepType, stepID string) Mode {
	if mode, ok := m.Overrides[stepID]; ok {
		return mode
	}
	if mode, ok := m.Overrides[stepType]; ok {
		return mode
	}
	if m.Default == "" {
		return ModeRun
	}
	return m.Default
}
