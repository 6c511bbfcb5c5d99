package testing

import (
	"context"
	"sync"

	"github.com/cloudprov/provisioner/internal/provisioning"
)

// stubStep returns fixed properties in every mode and has nothing to undo.
type stubStep struct {
	provisioning.Base
	props []provisioning.Property
}

// StubStep creates a step of stepType that produces props. It stands in for
// an upstream step whose properties a step under test reads.
func StubStep(stepType string, props ...provisioning.Property) provisioning.Step {
	return &stubStep{Base: provisioning.NewBase(stepType, ""), props: props}
}

func (s *stubStep) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	fixed := func(context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
		return s.props, provisioning.OutcomeSuccess, nil
	}
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: fixed, Simulate: fixed})
}

func (s *stubStep) Rollback(ctx context.Context) error {
	return s.NoRollback(ctx)
}

// Journal is a concurrency-safe, ordered record of step activity.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Add appends an entry.
func (j *Journal) Add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

// Entries returns a copy of the recorded entries.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]string, len(j.entries))
	copy(out, j.entries)
	return out
}

// RecordingStep journals "execute:<type>" and "rollback:<type>" and otherwise
// behaves like a side-effect-free step.
type RecordingStep struct {
	provisioning.Base

	journal *Journal
	// RunErr makes the run variant fail with an execution error.
	RunErr error
	// RollbackErr makes the compensation fail.
	RollbackErr error
}

// NewRecordingStep creates a RecordingStep of stepType writing to journal.
func NewRecordingStep(stepType string, journal *Journal) *RecordingStep {
	return &RecordingStep{Base: provisioning.NewBase(stepType, ""), journal: journal}
}

func (s *RecordingStep) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	s.journal.Add("execute:" + s.Type())
	return s.Dispatch(ctx, mode, provisioning.Variants{
		Run: func(context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
			if s.RunErr != nil {
				return nil, provisioning.OutcomeSuccess, s.RunErr
			}
			return []provisioning.Property{provisioning.NewProperty("recorded", s.Type())}, provisioning.OutcomeSuccess, nil
		},
		Simulate: func(context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
			return []provisioning.Property{provisioning.NewProperty("recorded", "simulated")}, provisioning.OutcomeSuccess, nil
		},
	})
}

func (s *RecordingStep) Rollback(ctx context.Context) error {
	return s.Compensate(ctx, func(context.Context) error {
		s.journal.Add("rollback:" + s.Type())
		return s.RollbackErr
	})
}
