package provisioning

import (
	"context"
	"errors"
)

// fakeStep is a configurable Step built on Base.
type fakeStep struct {
	Base

	initErr     error
	run         Variant
	simulate    Variant
	rollbackErr error
	log         *[]string
}

func newFakeStep(stepType string, log *[]string) *fakeStep {
	s := &fakeStep{Base: NewBase(stepType, stepType+"-id"), log: log}
	s.run = func(context.Context) ([]Property, Outcome, error) {
		return []Property{NewProperty("value", stepType)}, OutcomeSuccess, nil
	}
	s.simulate = func(context.Context) ([]Property, Outcome, error) {
		return []Property{NewProperty("value", "simulated")}, OutcomeSuccess, nil
	}
	return s
}

func (s *fakeStep) failing(err error) *fakeStep {
	s.run = func(context.Context) ([]Property, Outcome, error) { return nil, OutcomeSuccess, err }
	return s
}

func (s *fakeStep) reportingFailure() *fakeStep {
	s.run = func(context.Context) ([]Property, Outcome, error) {
		return []Property{BoolProperty("ok", false)}, OutcomeFailure, nil
	}
	return s
}

func (s *fakeStep) Init(rc *RunContext, settings Settings) error {
	if err := s.Base.Init(rc, settings); err != nil {
		return err
	}
	if s.initErr != nil {
		return s.InitErr(s.initErr)
	}
	return nil
}

func (s *fakeStep) Execute(ctx context.Context, mode Mode) ([]Property, error) {
	s.record("exec:" + s.Type())
	return s.Dispatch(ctx, mode, Variants{Run: s.run, Simulate: s.simulate})
}

func (s *fakeStep) Rollback(ctx context.Context) error {
	return s.Compensate(ctx, func(context.Context) error {
		s.record("rollback:" + s.Type())
		return s.rollbackErr
	})
}

func (s *fakeStep) record(entry string) {
	if s.log != nil {
		*s.log = append(*s.log, entry)
	}
}

var errBoom = errors.New("boom")
