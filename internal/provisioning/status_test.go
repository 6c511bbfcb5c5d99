package provisioning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepStatus_Transitions(t *testing.T) {
	t.Parallel()
	all := []StepStatus{StatusNotStarted, StatusRunning, StatusCompleted, StatusFailed, StatusRolledBack}
	allowed := map[StepStatus][]StepStatus{
		StatusNotStarted: {StatusRunning},
		StatusRunning:    {StatusCompleted, StatusFailed},
		StatusCompleted:  {StatusRolledBack},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.canTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestStrings(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ROLLED_BACK", StatusRolledBack.String())
	assert.Equal(t, "StepStatus(42)", StepStatus(42).String())
	assert.Equal(t, "NONE", ResultNone.String())
	assert.Equal(t, "StepResult(9)", StepResult(9).String())
}

func TestParseMode(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Mode{"run": ModeRun, "SIMULATE": ModeSimulate, " Fail ": ModeFail} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("dry-run")
	assert.Error(t, err)
}

func TestRunError(t *testing.T) {
	t.Parallel()
	err := &RunError{RunID: "r", FailedStep: "B", Cause: errBoom}
	assert.Equal(t, "run r failed at B: boom", err.Error())
	assert.ErrorIs(t, err, errBoom)
}
