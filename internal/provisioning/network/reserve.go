package network

import (
	"context"
	"fmt"

	"github.com/cloudprov/provisioner/internal/config"
	"github.com/cloudprov/provisioner/internal/messaging"
	"github.com/cloudprov/provisioner/internal/provisioning"
)

// ReserveVpcCidr reserves an address range for the VPC from the network
// operations service. Rollback releases the reservation.
type ReserveVpcCidr struct {
	provisioning.Base
	pools       messaging.Pools
	networkOps  provisioning.PoolBinding
	space       string
	reservation string
}

// NewReserveVpcCidr creates the step.
func NewReserveVpcCidr(id string, pools messaging.Pools) *ReserveVpcCidr {
	return &ReserveVpcCidr{Base: provisioning.NewBase(TypeReserveVpcCidr, id), pools: pools}
}

// Init implements provisioning.Step.
func (s *ReserveVpcCidr) Init(rc *provisioning.RunContext, settings provisioning.Settings) error {
	if err := s.Base.Init(rc, settings); err != nil {
		return err
	}
	binding, err := provisioning.BindPool(s.pools, settings)
	if err != nil {
		return s.InitErr(err)
	}
	s.networkOps = binding
	if space := settings.Optional(SettingAddressSpace, ""); space != "" {
		if s.space, err = config.CIDRSubnet(space, 0, 0); err != nil {
			return s.InitErr(fmt.Errorf("%s: %w", SettingAddressSpace, err))
		}
	}
	return nil
}

// Execute implements provisioning.Step.
func (s *ReserveVpcCidr) Execute(ctx context.Context, mode provisioning.Mode) ([]provisioning.Property, error) {
	return s.Dispatch(ctx, mode, provisioning.Variants{Run: s.run, Simulate: s.simulate})
}

func (s *ReserveVpcCidr) run(ctx context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	create, err := createVpc(&s.Base)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	if !create {
		return []provisioning.Property{
			provisioning.NotApplicable(PropVpcNetwork),
			provisioning.NotApplicable(PropReservationID),
		}, provisioning.OutcomeSuccess, nil
	}

	vpcType, err := s.Lookup(TypeDetermineVpcType, PropVpcType)
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	req := s.RunContext().Requisition()
	obj, err := s.networkOps.One(ctx, messaging.Request{
		Service: serviceNetworkOps,
		Action:  messaging.ActionGenerate,
		Object:  objectVpcNetwork,
		Fields: map[string]string{
			"vpcType": vpcType.String(),
			"region":  req.Region,
			"owner":   req.Owner,
			"runId":   s.RunContext().RunID(),
		},
	})
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	reservation, err := obj.Require("reservationId")
	if err != nil {
		return nil, provisioning.OutcomeFailure, err
	}
	// Release as soon as the reservation is known, even if the answer is unusable.
	s.reservation = reservation

	raw, err := obj.Require("cidr")
	if err != nil {
		return nil, provisioning.OutcomeFailure, s.release(ctx, err)
	}
	network, err := config.CIDRSubnet(raw, 0, 0)
	if err != nil {
		return nil, provisioning.OutcomeFailure, s.release(ctx, fmt.Errorf("reserved network %q: %w", raw, err))
	}
	if s.space != "" {
		inside, err := config.CIDRContains(s.space, network)
		if err != nil {
			return nil, provisioning.OutcomeFailure, s.release(ctx, err)
		}
		if !inside {
			return nil, provisioning.OutcomeFailure, s.release(ctx, fmt.Errorf("reserved network %s is outside %s", network, s.space))
		}
	}
	s.Logf("reserved %s (%s)", network, reservation)
	return []provisioning.Property{
		provisioning.NewProperty(PropVpcNetwork, network),
		provisioning.NewProperty(PropReservationID, reservation),
	}, provisioning.OutcomeSuccess, nil
}

func (s *ReserveVpcCidr) simulate(_ context.Context) ([]provisioning.Property, provisioning.Outcome, error) {
	return []provisioning.Property{
		provisioning.NewProperty(PropVpcNetwork, simulatedNetwork),
		provisioning.NewProperty(PropReservationID, "reservation-simulated"),
	}, provisioning.OutcomeSuccess, nil
}

// release frees a reservation the step cannot use. A failed step is never
// rolled back by the pipeline, so it cleans up after itself.
func (s *ReserveVpcCidr) release(ctx context.Context, cause error) error {
	if err := s.deleteReservation(ctx); err != nil {
		return fmt.Errorf("%w (release failed: %v)", cause, err)
	}
	return cause
}

func (s *ReserveVpcCidr) deleteReservation(ctx context.Context) error {
	if s.reservation == "" {
		return nil
	}
	result := s.networkOps.Query(ctx, messaging.Request{
		Service: serviceNetworkOps,
		Action:  messaging.ActionDelete,
		Object:  objectVpcNetwork,
		Fields:  map[string]string{"reservationId": s.reservation},
	}, messaging.Any)
	if err := result.Err(); err != nil {
		return fmt.Errorf("releasing reservation %s: %w", s.reservation, err)
	}
	s.Logf("released reservation %s", s.reservation)
	s.reservation = ""
	return nil
}

// Rollback implements provisioning.Step. It releases the reserved range.
func (s *ReserveVpcCidr) Rollback(ctx context.Context) error {
	return s.Compensate(ctx, s.deleteReservation)
}
