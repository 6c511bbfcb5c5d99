package network

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	awsplatform "github.com/cloudprov/provisioner/internal/platform/aws"
	"github.com/cloudprov/provisioner/internal/provisioning"
)

// CreateVpc creates the VPC for the reserved network in the target account.
type CreateVpc struct {
	provisioning.Base
	access

	vpcID string
}

// NewCreateVpc creates the step.
func NewCreateVpc(id string, factory awsplatform.ClientFactory) *CreateVpc {
	return &CreateVpc{Base: provisioning.NewBase(TypeCreateVpc, id), access: access{factory: factory}}
}

// Init implements provisioning.Step.
func (s *CreateVpc) Init(rc *provisioning.RunContext, settings provisioning.Settings) error {
	if err := s.Base.Init(rc, settings); err != nil {
		return err
	}
	if err := s.access.setup(settings); err != nil {
		return s.InitErr(err)
	}
	return nil
}

// Execute implements provisioning.Step.
func (s *CreateVpc) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.simulate})
}

func (s *CreateVpc) run(ctx context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	network, err := s.Lookup(TypeReserveVpcCidr, PropVpcNetwork)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	if network.NotApplicable() {
		return []provisioning.Property{provisioning.NotApplicable(PropVpcID)}, provisioning.OutcomeSuccess, nil
	}

	client, err := s.connect(ctx, &s.Base)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	name := s.RunContext().Requisition().AccountName + "-vpc"
	out, err := client.CreateVpc(ctx, &ec2.CreateVpcInput{
		CidrBlock:         aws.String(network.String()),
		TagSpecifications: tags(&s.Base, ec2types.ResourceTypeVpc, name),
	})
	if err != nil {
		return nil, provisioning.OutcomeFailure, fmt.Errorf("failed to create VPC %s: %w", network, err)
	}
	if out.Vpc == nil || aws.ToString(out.Vpc.VpcId) == "" {
		return nil, provisioning.OutcomeFailure, fmt.Errorf("create VPC %s returned no VPC id", network)
	}
	s.vpcID = aws.ToString(out.Vpc.VpcId)
	s.Logf("created VPC %s (%s)", s.vpcID, network)
	return []provisioning.Property{provisioning.NewProperty(PropVpcID, s.vpcID)}, provisioning.OutcomeSuccess, nil
}

func (s *CreateVpc) simulate(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	return []provisioning.Property{provisioning.NewProperty(PropVpcID, "vpc-simulated")}, provisioning.OutcomeSuccess, nil
}

// Rollback implements provisioning.Step. It deletes the VPC.
func (s *CreateVpc) Rollback(ctx context.Context) error {
	return s.Compensate(ctx, func(ctx context.Context) error {
		if s.vpcID == "" {
			return nil
		}
		err := s.deleteWithRetry(ctx, &s.Base, "VPC "+s.vpcID, func(ctx context.Context) error {
			_, err := s.client.DeleteVpc(ctx, &ec2.DeleteVpcInput{VpcId: aws.String(s.vpcID)})
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to delete VPC %s: %w", s.vpcID, err)
		}
		s.Logf("deleted VPC %s", s.vpcID)
		return nil
	})
}
