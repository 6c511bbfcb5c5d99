package network

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/hashicorp/go-multierror"

	awsplatform "github.com/cloudprov/provisioner/internal/platform/aws"
	"github.com/cloudprov/provisioner/internal/provisioning"
)

// routedSubnets are associated with the private route table.
var routedSubnets = []string{SubnetPrivate1, SubnetPrivate2}

// AssociateRouteTable creates the private route table of the VPC and associates
// it with the private subnets.
type AssociateRouteTable struct {
	provisioning.Base
	access

	routeTableID string
	associations []string
}

// NewAssociateRouteTable creates the step.
func NewAssociateRouteTable(id string, factory awsplatform.ClientFactory) *AssociateRouteTable {
	return &AssociateRouteTable{Base: provisioning.NewBase(TypeAssociateRouteTable, id), access: access{factory: factory}}
}

// Init implements provisioning.Step.
func (s *AssociateRouteTable) Init(rc *provisioning.RunContext, settings provisioning.Settings) error {
	if err := s.Base.Init(rc, settings); err != nil {
		return err
	}
	if err := s.access.setup(settings); err != nil {
		return s.InitErr(err)
	}
	return nil
}

// Execute implements provisioning.Step.
func (s *AssociateRouteTable) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.simulate})
}

func (s *AssociateRouteTable) run(ctx context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	vpcID, err := upstreamVpc(&s.Base)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	if vpcID == "" {
		return []provisioning.Property{
			provisioning.NotApplicable(PropRouteTableID),
			provisioning.NotApplicable(PropRouteTableAssociationIDs),
		}, provisioning.OutcomeSuccess, nil
	}

	subnets := make([]string, 0, len(routedSubnets))
	for _, name := range routedSubnets {
		v, err := s.Lookup(TypeCreateVpcSubnets, SubnetIDProperty(name))
		if err != nil {
			return nil, provisioning.OutcomeFailure, err
		}
		id, err := v.Require()
		if err != nil {
			return nil, provisioning.OutcomeFailure, fmt.Errorf("subnet %s: %w", name, err)
		}
		subnets = append(subnets, id)
	}

	client, err := s.connect(ctx, &s.Base)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}

	name := s.RunContext().Requisition().AccountName + "-private"
	out, err := client.CreateRouteTable(ctx, &ec2.CreateRouteTableInput{
		VpcId:             aws.String(vpcID),
		TagSpecifications: tags(&s.Base, ec2types.ResourceTypeRouteTable, name),
	})
	if err == nil && (out.RouteTable == nil || aws.ToString(out.RouteTable.RouteTableId) == "") {
		err = fmt.Errorf("no route table id returned")
	}
	if err != nil {
		return nil, provisioning.OutcomeFailure, fmt.Errorf("failed to create route table in %s: %w", vpcID, err)
	}
	s.routeTableID = aws.ToString(out.RouteTable.RouteTableId)
	s.Logf("created route table %s", s.routeTableID)

	for _, subnetID := range subnets {
		assoc, err := client.AssociateRouteTable(ctx, &ec2.AssociateRouteTableInput{
			RouteTableId: aws.String(s.routeTableID),
			SubnetId:     aws.String(subnetID),
		})
		if err == nil && aws.ToString(assoc.AssociationId) == "" {
			err = fmt.Errorf("no association id returned")
		}
		if err != nil {
			cause := fmt.Errorf("failed to associate %s with %s: %w", s.routeTableID, subnetID, err)
			if cleanupErr := s.undo(ctx); cleanupErr != nil {
				return nil, provisioning.OutcomeFailure, multierror.Append(cause, cleanupErr)
			}
			return nil, provisioning.OutcomeFailure, cause
		}
		s.associations = append(s.associations, aws.ToString(assoc.AssociationId))
	}

	return []provisioning.Property{
		provisioning.NewProperty(PropRouteTableID, s.routeTableID),
		provisioning.NewProperty(PropRouteTableAssociationIDs, strings.Join(s.associations, ",")),
	}, provisioning.OutcomeSuccess, nil
}

func (s *AssociateRouteTable) simulate(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	return []provisioning.Property{
		provisioning.NewProperty(PropRouteTableID, "rtb-simulated"),
		provisioning.NewProperty(PropRouteTableAssociationIDs, "rtbassoc-simulated-1,rtbassoc-simulated-2"),
	}, provisioning.OutcomeSuccess, nil
}

// undo disassociates the route table and deletes it. The table is only deleted
// once every association is gone.
func (s *AssociateRouteTable) undo(ctx context.Context) error {
	var result *multierror.Error
	var remaining []string
	for i := len(s.associations) - 1; i >= 0; i-- {
		id := s.associations[i]
		_, err := s.client.DisassociateRouteTable(ctx, &ec2.DisassociateRouteTableInput{AssociationId: aws.String(id)})
		if err != nil && !awsplatform.IsNotFound(err) {
			result = multierror.Append(result, fmt.Errorf("failed to disassociate %s: %w", id, err))
			remaining = append(remaining, id)
		}
	}
	s.associations = remaining
	if len(remaining) > 0 || s.routeTableID == "" {
		return result.ErrorOrNil()
	}

	err := s.deleteWithRetry(ctx, &s.Base, "route table "+s.routeTableID, func(ctx context.Context) error {
		_, err := s.client.DeleteRouteTable(ctx, &ec2.DeleteRouteTableInput{RouteTableId: aws.String(s.routeTableID)})
		return err
	})
	if err != nil {
		return multierror.Append(result, fmt.Errorf("failed to delete route table %s: %w", s.routeTableID, err)).ErrorOrNil()
	}
	s.Logf("deleted route table %s", s.routeTableID)
	s.routeTableID = ""
	return result.ErrorOrNil()
}

// Rollback implements provisioning.Step.
func (s *AssociateRouteTable) Rollback(ctx context.Context) error {
	return s.Compensate(ctx, s.undo)
}

// splitList splits a comma separated setting, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
