package account

import (
	"context"
	"strings"

	"github.com/cloudprov/provisioner/internal/messaging"
	"github.com/cloudprov/provisioner/internal/provisioning"
)

// financialStatusActive is the only status that can be billed.
const financialStatusActive = "ACTIVE"

// VerifyFinancial checks that the requisition's financial account can be billed
// for a new account. A closed, unknown or missing financial account completes
// the step with a FAILURE result.
type VerifyFinancial struct {
	provisioning.Base

	pools     messaging.Pools
	financial provisioning.PoolBinding
}

// NewVerifyFinancial creates the step.
func NewVerifyFinancial(id string, pools messaging.Pools) *VerifyFinancial {
	return &VerifyFinancial{Base: provisioning.NewBase(TypeVerifyFinancial, id), pools: pools}
}

// Init implements provisioning.Step.
func (s *VerifyFinancial) Init(rc *provisioning.RunContext, settings provisioning.Settings) error {
	if err := s.Base.Init(rc, settings); err != nil {
		return err
	}
	binding, err := provisioning.BindPool(s.pools, settings)
	if err != nil {
		return s.InitErr(err)
	}
	s.financial = binding
	return nil
}

// Execute implements provisioning.Step.
func (s *VerifyFinancial) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.simulate})
}

func (s *VerifyFinancial) run(ctx context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	createNew, err := createNewAccount(&s.Base)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	if !createNew {
		return []provisioning.Property{
			provisioning.NotApplicable(PropFinancialAccountValid),
			provisioning.NotApplicable(PropFinancialAccountNumber),
		}, provisioning.OutcomeSuccess, nil
	}

	req := s.RunContext().Requisition()
	number := strings.TrimSpace(req.FinancialAccount)
	if number == "" {
		s.Logf("requisition has no financial account")
		return []provisioning.Property{
			provisioning.BoolProperty(PropFinancialAccountValid, false),
			provisioning.NotApplicable(PropFinancialAccountNumber),
		}, provisioning.OutcomeFailure, nil
	}

	result := s.financial.Query(ctx, messaging.Request{
		Service: serviceFinancial,
		Action:  messaging.ActionQuery,
		Object:  objectFinancialAccount,
		Fields:  map[string]string{"financialAccountNumber": number, "owner": req.Owner},
	}, messaging.ExactlyOne)

	switch result.Outcome() {
	case messaging.OutcomeTransportError:
		return nil, provisioning.OutcomeFailure, result.Err()
	case messaging.OutcomeWrongCardinality:
		if result.Count() == 0 {
			s.Logf("financial account %s is unknown", number)
			return []provisioning.Property{
				provisioning.BoolProperty(PropFinancialAccountValid, false),
				provisioning.NewProperty(PropFinancialAccountNumber, number),
			}, provisioning.OutcomeFailure, nil
		}
		return nil, provisioning.OutcomeFailure, result.Err()
	}

	account, _ := result.One()
	status, _ := account.Get("status")
	valid := strings.EqualFold(status, financialStatusActive)
	props := []provisioning.Property{
		provisioning.BoolProperty(PropFinancialAccountValid, valid),
		provisioning.NewProperty(PropFinancialAccountNumber, number),
	}
	if !valid {
		s.Logf("financial account %s has status %q", number, status)
		return props, provisioning.OutcomeFailure, nil
	}
	return props, provisioning.OutcomeSuccess, nil
}

func (s *VerifyFinancial) simulate(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	number := s.RunContext().Requisition().FinancialAccount
	if number == "" {
		number = "FA-SIMULATED"
	}
	return []provisioning.Property{
		provisioning.BoolProperty(PropFinancialAccountValid, true),
		provisioning.NewProperty(PropFinancialAccountNumber, number),
	}, provisioning.OutcomeSuccess, nil
}

// Rollback implements provisioning.Step. Verification is a read.
func (s *VerifyFinancial) Rollback(ctx context.Context) error {
	return s.NoRollback(ctx)
}
