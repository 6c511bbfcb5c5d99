package account

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudprov/provisioner/internal/messaging"
	"github.com/cloudprov/provisioner/internal/provisioning"
)

// AuthorizeRequestor checks with the identity service that the requestor may
// create accounts. An unauthorized requestor completes the step with a
// FAILURE result, which stops the run.
type AuthorizeRequestor struct {
	provisioning.Base

	pools    messaging.Pools
	identity provisioning.PoolBinding
}

// NewAuthorizeRequestor creates the step. The identity pool is taken from pools
// by the producerPool setting.
func NewAuthorizeRequestor(id string, pools messaging.Pools) *AuthorizeRequestor {
	return &AuthorizeRequestor{Base: provisioning.NewBase(TypeAuthorizeRequestor, id), pools: pools}
}

// Init implements provisioning.Step.
func (s *AuthorizeRequestor) Init(rc *provisioning.RunContext, settings provisioning.Settings) error {
	if err := s.Base.Init(rc, settings); err != nil {
		return err
	}
	binding, err := provisioning.BindPool(s.pools, settings)
	if err != nil {
		return s.InitErr(err)
	}
	s.identity = binding
	return nil
}

// Execute implements provisioning.Step.
func (s *AuthorizeRequestor) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.simulate})
}

func (s *AuthorizeRequestor) run(ctx context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	createNew, err := createNewAccount(&s.Base)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	if !createNew {
		return []provisioning.Property{provisioning.NotApplicable(PropIsAuthorized)}, provisioning.OutcomeSuccess, nil
	}

	requestor := strings.TrimSpace(s.RunContext().Requisition().Requestor)
	if requestor == "" {
		return nil, provisioning.OutcomeFailure, fmt.Errorf("requisition has no requestor")
	}

	person, err := s.identity.One(ctx, messaging.Request{
		Service: serviceIdentity,
		Action:  messaging.ActionQuery,
		Object:  objectPerson,
		Fields:  map[string]string{"userId": requestor},
	})
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}

	raw, err := person.Require("authorizedAccountCreator")
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	authorized, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, provisioning.OutcomeFailure, fmt.Errorf("invalid authorizedAccountCreator %q: %w", raw, err)
	}

	props := []provisioning.Property{provisioning.BoolProperty(PropIsAuthorized, authorized)}
	if !authorized {
		s.Logf("requestor %s is not authorized to create accounts", requestor)
		return props, provisioning.OutcomeFailure, nil
	}
	return props, provisioning.OutcomeSuccess, nil
}

func (s *AuthorizeRequestor) simulate(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	return []provisioning.Property{provisioning.BoolProperty(PropIsAuthorized, true)}, provisioning.OutcomeSuccess, nil
}

// Rollback implements provisioning.Step. Authorization is a read.
func (s *AuthorizeRequestor) Rollback(ctx context.Context) error {
	return s.NoRollback(ctx)
}
