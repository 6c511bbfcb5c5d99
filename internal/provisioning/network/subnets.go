package network

import (
	"context"
	"fmt"

	"github.com/cloudprov/provisioner/internal/config"
	"github.com/cloudprov/provisioner/internal/provisioning"
)

// Subnet names in the order they are produced and created.
const (
	SubnetMgmt1    = "mgmt1"
	SubnetMgmt2    = "mgmt2"
	SubnetPublic1  = "public1"
	SubnetPublic2  = "public2"
	SubnetPrivate1 = "private1"
	SubnetPrivate2 = "private2"
)

// SubnetNames lists every subnet of a VPC layout in order.
var SubnetNames = []string{SubnetMgmt1, SubnetMgmt2, SubnetPublic1, SubnetPublic2, SubnetPrivate1, SubnetPrivate2}

// subnetRule places one subnet inside the VPC network.
type subnetRule struct {
	name    string
	newbits int
	netnum  int
}

// The lower half of the network is split into four management and public
// subnets, the upper half into two private subnets.
var subnetRules = []subnetRule{
	{SubnetMgmt1, 3, 0},
	{SubnetMgmt2, 3, 1},
	{SubnetPublic1, 3, 2},
	{SubnetPublic2, 3, 3},
	{SubnetPrivate1, 2, 2},
	{SubnetPrivate2, 2, 3},
}

// Layout maps a subnet name to its CIDR.
type Layout map[string]string

// SubnetLayout derives the six subnets of network.
func SubnetLayout(network string) (Layout, error) {
	layout := make(Layout, len(subnetRules))
	for _, r := range subnetRules {
		cidr, err := config.CIDRSubnet(network, r.newbits, r.netnum)
		if err != nil {
			return nil, fmt.Errorf("failed to compute %s subnet of %s: %w", r.name, network, err)
		}
		layout[r.name] = cidr
	}
	return layout, nil
}

// SubnetIDProperty names the property CREATE_VPC_SUBNETS reports for subnet.
func SubnetIDProperty(subnet string) string {
	return subnet + "SubnetId"
}

// ComputeVpcSubnets splits the reserved network into the subnet layout.
type ComputeVpcSubnets struct {
	provisioning.Base
}

// NewComputeVpcSubnets creates the step.
func NewComputeVpcSubnets(id string) *ComputeVpcSubnets {
	return &ComputeVpcSubnets{Base: provisioning.NewBase(TypeComputeVpcSubnets, id)}
}

// Execute implements provisioning.Step.
func (s *ComputeVpcSubnets) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.simulate})
}

func (s *ComputeVpcSubnets) run(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	network, err := s.Lookup(TypeReserveVpcCidr, PropVpcNetwork)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	if network.NotApplicable() {
		props := []provisioning.Property{provisioning.NotApplicable(PropVpcNetwork)}
		for _, name := range SubnetNames {
			props = append(props, provisioning.NotApplicable(name))
		}
		return props, provisioning.OutcomeSuccess, nil
	}
	return s.layout(network.String())
}

func (s *ComputeVpcSubnets) simulate(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	return s.layout(simulatedNetwork)
}

func (s *ComputeVpcSubnets) layout(network string) ([]provisioning.Property, provisioning.Outcome, error) {
	layout, err := SubnetLayout(network)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	props := []provisioning.Property{provisioning.NewProperty(PropVpcNetwork, network)}
	for _, name := range SubnetNames {
		props = append(props, provisioning.NewProperty(name, layout[name]))
	}
	return props, provisioning.OutcomeSuccess, nil
}

// Rollback implements provisioning.Step.
func (s *ComputeVpcSubnets) Rollback(ctx context.Context) error {
	return s.NoRollback(ctx)
}
