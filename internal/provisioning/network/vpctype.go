package network

import (
	"context"
	"strings"

	"github.com/cloudprov/provisioner/internal/provisioning"
)

// DetermineVpcType reads the requested VPC type. Type "0" or no type means the
// run creates no network and every later network step reports not applicable.
type DetermineVpcType struct {
	provisioning.Base
}

// NewDetermineVpcType creates the step.
func NewDetermineVpcType(id string) *DetermineVpcType {
	return &DetermineVpcType{Base: provisioning.NewBase(TypeDetermineVpcType, id)}
}

// Execute implements provisioning.Step.
func (s *DetermineVpcType) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.simulate})
}

func (s *DetermineVpcType) run(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	vpcType := strings.TrimSpace(s.RunContext().Requisition().VpcType)
	if vpcType == "" {
		vpcType = noVpcType
	}
	create := vpcType != noVpcType
	if !create {
		s.Logf("no VPC requested")
	}
	return []provisioning.Property{
		provisioning.NewProperty(PropVpcType, vpcType),
		provisioning.BoolProperty(PropCreateVpc, create),
	}, provisioning.OutcomeSuccess, nil
}

func (s *DetermineVpcType) simulate(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	vpcType := strings.TrimSpace(s.RunContext().Requisition().VpcType)
	if vpcType == "" || vpcType == noVpcType {
		vpcType = "1"
	}
	return []provisioning.Property{
		provisioning.NewProperty(PropVpcType, vpcType),
		provisioning.BoolProperty(PropCreateVpc, true),
	}, provisioning.OutcomeSuccess, nil
}

// Rollback implements provisioning.Step.
func (s *DetermineVpcType) Rollback(ctx context.Context) error {
	return s.NoRollback(ctx)
}

// createVpc reads the decision of DETERMINE_VPC_TYPE.
func createVpc(b *provisioning.Base) (bool, error) {
	v, err := b.Lookup(TypeDetermineVpcType, PropCreateVpc)
	if err != nil {
		return false, err
	}
	return v.Bool()
}

// DetermineConnectionMethod picks how the VPC connects to the corporate
// network. HIPAA accounts get a VPN, everything else a transit gateway.
type DetermineConnectionMethod struct {
	provisioning.Base
}

// NewDetermineConnectionMethod creates the step.
func NewDetermineConnectionMethod(id string) *DetermineConnectionMethod {
	return &DetermineConnectionMethod{Base: provisioning.NewBase(TypeDetermineConnection, id)}
}

// Execute implements provisioning.Step.
func (s *DetermineConnectionMethod) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.run})
}

func (s *DetermineConnectionMethod) run(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	create, err := createVpc(&s.Base)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	if !create {
		return []provisioning.Property{provisioning.NotApplicable(PropVpcConnectionMethod)}, provisioning.OutcomeSuccess, nil
	}
	method := ConnectionTransitGateway
	if strings.EqualFold(s.RunContext().Requisition().ComplianceClass, hipaaCompliance) {
		method = ConnectionVPN
	}
	return []provisioning.Property{provisioning.NewProperty(PropVpcConnectionMethod, method)}, provisioning.OutcomeSuccess, nil
}

// Rollback implements provisioning.Step.
func (s *DetermineConnectionMethod) Rollback(ctx context.Context) error {
	return s.NoRollback(ctx)
}
