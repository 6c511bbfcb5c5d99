package account

import (
	"context"
	"fmt"

	"github.com/cloudprov/provisioner/internal/messaging"
	"github.com/cloudprov/provisioner/internal/provisioning"
)

// simulatedAccountID is returned by the simulate variant.
const simulatedAccountID = "123456789012"

// GenerateNewAccount allocates a new account from the account service.
// Its compensation deletes the allocated account.
type GenerateNewAccount struct {
	provisioning.Base

	pools    messaging.Pools
	accounts provisioning.PoolBinding

	allocated string
}

// NewGenerateNewAccount creates the step.
func NewGenerateNewAccount(id string, pools messaging.Pools) *GenerateNewAccount {
	return &GenerateNewAccount{Base: provisioning.NewBase(TypeGenerateNewAccount, id), pools: pools}
}

// Init implements provisioning.Step.
func (s *GenerateNewAccount) Init(rc *provisioning.RunContext, settings provisioning.Settings) error {
	if err := s.Base.Init(rc, settings); err != nil {
		return err
	}
	binding, err := provisioning.BindPool(s.pools, settings)
	if err != nil {
		return s.InitErr(err)
	}
	s.accounts = binding
	return nil
}

// Execute implements provisioning.Step.
func (s *GenerateNewAccount) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.simulate})
}

func (s *GenerateNewAccount) run(ctx context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	createNew, err := createNewAccount(&s.Base)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	if !createNew {
		return []provisioning.Property{
			provisioning.NotApplicable(PropNewAccountID),
			provisioning.BoolProperty(PropAllocatedNewAccount, false),
		}, provisioning.OutcomeSuccess, nil
	}

	req := s.RunContext().Requisition()
	account, err := s.accounts.One(ctx, messaging.Request{
		Service: serviceAccount,
		Action:  messaging.ActionGenerate,
		Object:  objectAccount,
		Fields: map[string]string{
			"accountName":            req.AccountName,
			"owner":                  req.Owner,
			"requestor":              req.Requestor,
			"region":                 req.Region,
			"complianceClass":        req.ComplianceClass,
			"financialAccountNumber": req.FinancialAccount,
			"runId":                  s.RunContext().RunID(),
		},
	})
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	accountID, err := account.Require("accountId")
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}

	s.allocated = accountID
	s.Logf("allocated account %s", accountID)
	return []provisioning.Property{
		provisioning.NewProperty(PropNewAccountID, accountID),
		provisioning.BoolProperty(PropAllocatedNewAccount, true),
	}, provisioning.OutcomeSuccess, nil
}

func (s *GenerateNewAccount) simulate(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	return []provisioning.Property{
		provisioning.NewProperty(PropNewAccountID, simulatedAccountID),
		provisioning.BoolProperty(PropAllocatedNewAccount, true),
	}, provisioning.OutcomeSuccess, nil
}

// Rollback implements provisioning.Step. It deletes the allocated account.
func (s *GenerateNewAccount) Rollback(ctx context.Context) error {
	return s.Compensate(ctx, func(ctx context.Context) error {
		if s.allocated == "" {
			return nil
		}
		result := s.accounts.Query(ctx, messaging.Request{
			Service: serviceAccount,
			Action:  messaging.ActionDelete,
			Object:  objectAccount,
			Fields:  map[string]string{"accountId": s.allocated},
		}, messaging.Any)
		if err := result.Err(); err != nil {
			return fmt.Errorf("deleting account %s: %w", s.allocated, err)
		}
		s.Logf("deleted account %s", s.allocated)
		return nil
	})
}

// TargetAccount returns the account later steps provision into: the newly
// allocated account, or the requisition's existing account.
func TargetAccount(rc *provisioning.RunContext) (string, error) {
	createNew, err := rc.Lookup(TypeDetermineAccount, PropCreateNewAccount)
	if err != nil {
		return "", err
	}
	isNew, err := createNew.Bool()
	if err != nil {
		return "", err
	}
	if isNew {
		v, err := rc.Lookup(TypeGenerateNewAccount, PropNewAccountID)
		if err != nil {
			return "", err
		}
		return v.Require()
	}
	v, err := rc.Lookup(TypeDetermineAccount, PropAccountID)
	if err != nil {
		return "", err
	}
	return v.Require()
}
