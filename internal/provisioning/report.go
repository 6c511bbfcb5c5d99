package provisioning

import "time"

// Report summarizes a finished run.
type Report struct {
	RunID      string
	Status     RunStatus
	FailedStep string
	Cause      error
	Steps      []StepReport
	Rollbacks  []RollbackOutcome
	Duration   time.Duration
}

// StepReport is the execution outcome of one step, captured before any rollback.
type StepReport struct {
	StepType   string
	StepID     string
	Mode       Mode
	Status     StepStatus
	Result     StepResult
	Properties []Property
	Duration   time.Duration
}

// RollbackOutcome records one compensation attempted during ROLLING_BACK.
type RollbackOutcome struct {
	StepType string
	StepID   string
	Result   StepResult
	Err      error
}

// Succeeded reports whether the run reached RUN_SUCCEEDED.
func (r *Report) Succeeded() bool {
	return r.Status == RunSucceeded
}

// RolledBack returns the step types that were rolled back, in rollback order.
func (r *Report) RolledBack() []string {
	out := make([]string, 0, len(r.Rollbacks))
	for _, rb := range r.Rollbacks {
		out = append(out, rb.StepType)
	}
	return out
}
