package provisioning

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunContext(t *testing.T) {
	t.Parallel()
	req := Requisition{AccountName: "payments", Region: "us-east-1"}

	rc := NewRunContext("", req)
	_, err := uuid.Parse(rc.RunID())
	require.NoError(t, err, "empty run id is replaced by a uuid")
	assert.Equal(t, req, rc.Requisition())
	assert.NotNil(t, rc.Observer())

	obs := NewMockObserver()
	rc = NewRunContext("r-1", req, WithObserver(obs))
	assert.Equal(t, "r-1", rc.RunID())
	assert.Same(t, obs, rc.Observer())
}

func TestRunContext_Lookup(t *testing.T) {
	t.Parallel()
	rc := NewRunContext("r-1", Requisition{})

	a := newFakeStep("A", nil)
	a.run = func(context.Context) ([]Property, Outcome, error) {
		return []Property{NewProperty("vpcId", "vpc-123"), NotApplicable("cidr")}, OutcomeSuccess, nil
	}
	require.NoError(t, a.Init(rc, nil))

	_, err := rc.Lookup("A", "vpcId")
	assert.ErrorIs(t, err, ErrStepNotExecuted, "unknown step")

	require.NoError(t, rc.append(a))
	_, err = rc.Lookup("A", "vpcId")
	assert.ErrorIs(t, err, ErrStepNotExecuted, "appended but not yet completed")

	_, err = a.Execute(context.Background(), ModeRun)
	require.NoError(t, err)

	v, err := rc.Lookup("A", "vpcId")
	require.NoError(t, err)
	assert.Equal(t, "vpc-123", v.String())
	assert.False(t, v.NotApplicable())

	v, err = rc.Lookup("A", "cidr")
	require.NoError(t, err)
	assert.True(t, v.NotApplicable())
	_, err = v.Require()
	assert.ErrorIs(t, err, ErrNotApplicable)

	_, err = rc.Lookup("A", "missing")
	assert.ErrorIs(t, err, ErrPropertyNotFound)

	m, err := rc.Lookup("A", PropertyExecutionMethod)
	require.NoError(t, err)
	assert.Equal(t, "run", m.String())

	step, err := rc.Step("A")
	require.NoError(t, err)
	v, err = rc.Property(step, "vpcId")
	require.NoError(t, err)
	assert.Equal(t, "vpc-123", v.String())
}

func TestRunContext_FailedStepNotVisible(t *testing.T) {
	t.Parallel()
	rc := NewRunContext("r-1", Requisition{})
	a := newFakeStep("A", nil).failing(errBoom)
	require.NoError(t, a.Init(rc, nil))
	require.NoError(t, rc.append(a))
	_, err := a.Execute(context.Background(), ModeRun)
	require.Error(t, err)

	_, err = rc.Lookup("A", PropertyExecutionMethod)
	assert.ErrorIs(t, err, ErrStepNotExecuted)
	assert.Len(t, rc.Steps(), 1)
	assert.Empty(t, rc.Completed())
}

func TestRunContext_AppendDuplicate(t *testing.T) {
	t.Parallel()
	rc := NewRunContext("r-1", Requisition{})
	require.NoError(t, rc.append(newFakeStep("A", nil)))
	assert.ErrorIs(t, rc.append(newFakeStep("A", nil)), ErrDuplicateStep)
}

func TestRunContext_StepsOrder(t *testing.T) {
	t.Parallel()
	rc := NewRunContext("r-1", Requisition{})
	for _, typ := range []string{"A", "B", "C"} {
		s := newFakeStep(typ, nil)
		require.NoError(t, s.Init(rc, nil))
		require.NoError(t, rc.append(s))
		_, err := s.Execute(context.Background(), ModeRun)
		require.NoError(t, err)
	}

	var types []string
	for _, s := range rc.Completed() {
		types = append(types, s.Type())
	}
	assert.Equal(t, []string{"A", "B", "C"}, types)

	steps := rc.Steps()
	steps[0] = nil
	assert.NotNil(t, rc.Steps()[0], "Steps returns a copy")
}
