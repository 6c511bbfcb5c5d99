package testing

import (
	"context"
	"testing"
	"time"

	"github.com/cloudprov/provisioner/internal/provisioning"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// NewRequisition returns a requisition for a new HIPAA account with a VPC.
func NewRequisition() provisioning.Requisition {
	return provisioning.Requisition{
		AccountName:      "payments-prod",
		Region:           "us-east-1",
		ComplianceClass:  "HIPAA",
		Requestor:        "jdoe",
		Owner:            "payments-team",
		VpcType:          "1",
		FinancialAccount: "FA-1001",
	}
}

// Stage is one step of a test pipeline.
type Stage struct {
	Step     provisioning.Step
	Settings provisioning.Settings
}

// Run executes stages in a fresh run context. A nil modes runs every step in run mode.
func Run(t *testing.T, req provisioning.Requisition, modes provisioning.ModeSelector, stages ...Stage) (*provisioning.RunContext, *provisioning.Report, error) {
	t.Helper()
	rc := provisioning.NewRunContext("test-run", req, provisioning.WithObserver(NewMockObserver()))
	p := provisioning.NewPipeline()
	for _, st := range stages {
		p.Add(st.Step, st.Settings)
	}
	if modes != nil {
		p.WithModes(modes)
	}
	report, err := p.Run(TestContext(t), rc)
	return rc, report, err
}

// Modes selects mode for every step.
func Modes(mode provisioning.Mode) provisioning.Modes {
	return provisioning.Modes{Default: mode}
}
