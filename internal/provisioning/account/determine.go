package account

import (
	"context"
	"strings"

	"github.com/cloudprov/provisioner/internal/provisioning"
)

// DetermineAccount decides whether the run creates a new account. A
// requisition without an account id asks for a new one.
type DetermineAccount struct {
	provisioning.Base
}

// NewDetermineAccount creates the step.
func NewDetermineAccount(id string) *DetermineAccount {
	return &DetermineAccount{Base: provisioning.NewBase(TypeDetermineAccount, id)}
}

// Execute implements provisioning.Step.
func (s *DetermineAccount) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.simulate})
}

func (s *DetermineAccount) run(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	accountID := strings.TrimSpace(s.RunContext().Requisition().AccountID)
	if accountID == "" {
		s.Logf("no account id on requisition, a new account will be created")
		return []provisioning.Property{
			provisioning.BoolProperty(PropCreateNewAccount, true),
			provisioning.NotApplicable(PropAccountID),
		}, provisioning.OutcomeSuccess, nil
	}

	s.Logf("using existing account %s", accountID)
	return []provisioning.Property{
		provisioning.BoolProperty(PropCreateNewAccount, false),
		provisioning.NewProperty(PropAccountID, accountID),
	}, provisioning.OutcomeSuccess, nil
}

func (s *DetermineAccount) simulate(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	return []provisioning.Property{
		provisioning.BoolProperty(PropCreateNewAccount, true),
		provisioning.NotApplicable(PropAccountID),
	}, provisioning.OutcomeSuccess, nil
}

// Rollback implements provisioning.Step. Deciding has no side effect.
func (s *DetermineAccount) Rollback(ctx context.Context) error {
	return s.NoRollback(ctx)
}

// createNewAccount reads the decision of DETERMINE_NEW_OR_EXISTING_ACCOUNT.
func createNewAccount(b *provisioning.Base) (bool, error) {
	v, err := b.Lookup(TypeDetermineAccount, PropCreateNewAccount)
	if err != nil {
		return false, err
	}
	return v.Bool()
}
