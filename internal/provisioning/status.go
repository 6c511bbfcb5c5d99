package provisioning

import (
	"fmt"
	"strings"
)

// StepStatus is the lifecycle position of a step within a run.
type StepStatus int

const (
	StatusNotStarted StepStatus = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusRolledBack
)

func (s StepStatus) String() string {
	switch s {
	case StatusNotStarted:
		return "NOT_STARTED"
	case StatusRunning:
		return "RUNNING"
	case StatusCompleted:
		return "COMPLETED"
	case StatusFailed:
		return "FAILED"
	case StatusRolledBack:
		return "ROLLED_BACK"
	default:
		return fmt.Sprintf("StepStatus(%d)", int(s))
	}
}

// canTransition reports whether a step may move from s to next.
func (s StepStatus) canTransition(next StepStatus) bool {
	switch s {
	case StatusNotStarted:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusCompleted || next == StatusFailed
	case StatusCompleted:
		return next == StatusRolledBack
	default:
		return false
	}
}

// StepResult is the outcome a step reports. It is orthogonal to StepStatus:
// a COMPLETED step may carry a FAILURE result.
type StepResult int

const (
	ResultNone StepResult = iota
	ResultSuccess
	ResultFailure
)

func (r StepResult) String() string {
	switch r {
	case ResultNone:
		return "NONE"
	case ResultSuccess:
		return "SUCCESS"
	case ResultFailure:
		return "FAILURE"
	default:
		return fmt.Sprintf("StepResult(%d)", int(r))
	}
}

// Mode selects which execution variant a step runs.
type Mode string

const (
	// ModeRun performs the real external side effects.
	ModeRun Mode = "run"
	// ModeSimulate returns canned result properties without touching any collaborator.
	ModeSimulate Mode = "simulate"
	// ModeFail forces a FAILURE result without touching any collaborator.
	ModeFail Mode = "fail"
)

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRun:
		return ModeRun, nil
	case ModeSimulate:
		return ModeSimulate, nil
	case ModeFail:
		return ModeFail, nil
	default:
		return "", fmt.Errorf("unknown execution mode %q (valid: run, simulate, fail)", s)
	}
}

// Outcome is what an execution variant reports when it returns without error.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
)

// RunStatus is the state of a whole pipeline run.
type RunStatus string

const (
	RunPending     RunStatus = "PENDING"
	RunRunning     RunStatus = "RUNNING"
	RunRollingBack RunStatus = "ROLLING_BACK"
	RunSucceeded   RunStatus = "RUN_SUCCEEDED"
	RunFailed      RunStatus = "RUN_FAILED"
)
