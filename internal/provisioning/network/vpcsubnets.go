package network

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/hashicorp/go-multierror"

	awsplatform "github.com/cloudprov/provisioner/internal/platform/aws"
	"github.com/cloudprov/provisioner/internal/provisioning"
)

// createdSubnet is a subnet this step created.
type createdSubnet struct {
	name string
	id   string
}

// CreateVpcSubnets creates the six subnets of the layout in the VPC. The first
// subnet of each pair goes to the first availability zone, the second to the next.
type CreateVpcSubnets struct {
	provisioning.Base
	access

	zones   []string
	created []createdSubnet
}

// NewCreateVpcSubnets creates the step.
func NewCreateVpcSubnets(id string, factory awsplatform.ClientFactory) *CreateVpcSubnets {
	return &CreateVpcSubnets{Base: provisioning.NewBase(TypeCreateVpcSubnets, id), access: access{factory: factory}}
}

// Init implements provisioning.Step.
func (s *CreateVpcSubnets) Init(rc *provisioning.RunContext, settings provisioning.Settings) error {
	if err := s.Base.Init(rc, settings); err != nil {
		return err
	}
	if err := s.access.setup(settings); err != nil {
		return s.InitErr(err)
	}
	s.zones = splitList(settings.Optional(SettingAvailabilityZones, ""))
	if len(s.zones) == 0 {
		s.zones = []string{s.creds.Region + "a", s.creds.Region + "b"}
	}
	return nil
}

// Execute implements provisioning.Step.
func (s *CreateVpcSubnets) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.simulate})
}

func (s *CreateVpcSubnets) run(ctx context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	vpcID, err := upstreamVpc(&s.Base)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	if vpcID == "" {
		props := make([]provisioning.Property, 0, len(SubnetNames))
		for _, name := range SubnetNames {
			props = append(props, provisioning.NotApplicable(SubnetIDProperty(name)))
		}
		return props, provisioning.OutcomeSuccess, nil
	}

	cidrs := make(map[string]string, len(SubnetNames))
	for _, name := range SubnetNames {
		v, err := s.Lookup(TypeComputeVpcSubnets, name)
		if err != nil {
			return nil, provisioning.OutcomeFailure, err
		}
		if cidrs[name], err = v.Require(); err != nil {
			return nil, provisioning.OutcomeFailure, fmt.Errorf("subnet %s: %w", name, err)
		}
	}

	client, err := s.connect(ctx, &s.Base)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}

	prefix := s.RunContext().Requisition().AccountName
	props := make([]provisioning.Property, 0, len(SubnetNames))
	for i, name := range SubnetNames {
		zone := s.zones[i%2%len(s.zones)]
		out, err := client.CreateSubnet(ctx, &ec2.CreateSubnetInput{
			VpcId:             aws.String(vpcID),
			CidrBlock:         aws.String(cidrs[name]),
			AvailabilityZone:  aws.String(zone),
			TagSpecifications: tags(&s.Base, ec2types.ResourceTypeSubnet, prefix+"-"+name),
		})
		if err == nil && (out.Subnet == nil || aws.ToString(out.Subnet.SubnetId) == "") {
			err = fmt.Errorf("no subnet id returned")
		}
		if err != nil {
			cause := fmt.Errorf("failed to create subnet %s (%s): %w", name, cidrs[name], err)
			// The pipeline only compensates completed steps.
			if cleanupErr := s.deleteCreated(ctx); cleanupErr != nil {
				return nil, provisioning.OutcomeFailure, multierror.Append(cause, cleanupErr)
			}
			return nil, provisioning.OutcomeFailure, cause
		}
		id := aws.ToString(out.Subnet.SubnetId)
		s.created = append(s.created, createdSubnet{name: name, id: id})
		s.Logf("created subnet %s %s in %s", name, id, zone)
		props = append(props, provisioning.NewProperty(SubnetIDProperty(name), id))
	}
	return props, provisioning.OutcomeSuccess, nil
}

func (s *CreateVpcSubnets) simulate(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	props := make([]provisioning.Property, 0, len(SubnetNames))
	for _, name := range SubnetNames {
		props = append(props, provisioning.NewProperty(SubnetIDProperty(name), "subnet-simulated-"+name))
	}
	return props, provisioning.OutcomeSuccess, nil
}

// deleteCreated removes created subnets, latest first. Every subnet is tried.
func (s *CreateVpcSubnets) deleteCreated(ctx context.Context) error {
	var result *multierror.Error
	remaining := s.created[:0:0]
	for i := len(s.created) - 1; i >= 0; i-- {
		sn := s.created[i]
		err := s.deleteWithRetry(ctx, &s.Base, "subnet "+sn.id, func(ctx context.Context) error {
			_, err := s.client.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{SubnetId: aws.String(sn.id)})
			return err
		})
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to delete subnet %s (%s): %w", sn.name, sn.id, err))
			remaining = append([]createdSubnet{sn}, remaining...)
			continue
		}
		s.Logf("deleted subnet %s %s", sn.name, sn.id)
	}
	s.created = remaining
	return result.ErrorOrNil()
}

// Rollback implements provisioning.Step. It deletes the created subnets.
func (s *CreateVpcSubnets) Rollback(ctx context.Context) error {
	return s.Compensate(ctx, s.deleteCreated)
}
