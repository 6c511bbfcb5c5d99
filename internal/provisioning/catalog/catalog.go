// Package catalog maps step types named in a pipeline file to step
// implementations and assembles the pipeline of a run.
package catalog

import (
	"fmt"
	"sort"

	"github.com/cloudprov/provisioner/internal/config"
	"github.com/cloudprov/provisioner/internal/messaging"
	awsplatform "github.com/cloudprov/provisioner/internal/platform/aws"
	"github.com/cloudprov/provisioner/internal/provisioning"
	"github.com/cloudprov/provisioner/internal/provisioning/account"
	"github.com/cloudprov/provisioner/internal/provisioning/manifest"
	"github.com/cloudprov/provisioner/internal/provisioning/network"
)

// Deps are the collaborators steps are constructed with.
type Deps struct {
	Pools messaging.Pools
	AWS   awsplatform.ClientFactory
	Store manifest.ObjectStore
}

// Constructor creates a step with the given id.
type Constructor func(id string, deps Deps) provisioning.Step

// Registry maps step types to constructors.
type Registry map[string]Constructor

// Default returns a registry of every built-in step.
func Default() Registry {
	return Registry{
		account.TypeDetermineAccount: func(id string, _ Deps) provisioning.Step {
			return account.NewDetermineAccount(id)
		},
		account.TypeAuthorizeRequestor: func(id string, d Deps) provisioning.Step {
			return account.NewAuthorizeRequestor(id, d.Pools)
		},
		account.TypeVerifyFinancial: func(id string, d Deps) provisioning.Step {
			return account.NewVerifyFinancial(id, d.Pools)
		},
		account.TypeGenerateNewAccount: func(id string, d Deps) provisioning.Step {
			return account.NewGenerateNewAccount(id, d.Pools)
		},
		network.TypeDetermineVpcType: func(id string, _ Deps) provisioning.Step {
			return network.NewDetermineVpcType(id)
		},
		network.TypeReserveVpcCidr: func(id string, d Deps) provisioning.Step {
			return network.NewReserveVpcCidr(id, d.Pools)
		},
		network.TypeComputeVpcSubnets: func(id string, _ Deps) provisioning.Step {
			return network.NewComputeVpcSubnets(id)
		},
		network.TypeDetermineConnection: func(id string, _ Deps) provisioning.Step {
			return network.NewDetermineConnectionMethod(id)
		},
		network.TypeCreateVpc: func(id string, d Deps) provisioning.Step {
			return network.NewCreateVpc(id, d.AWS)
		},
		network.TypeCreateVpcSubnets: func(id string, d Deps) provisioning.Step {
			return network.NewCreateVpcSubnets(id, d.AWS)
		},
		network.TypeAssociateRouteTable: func(id string, d Deps) provisioning.Step {
			return network.NewAssociateRouteTable(id, d.AWS)
		},
		manifest.TypeArchiveManifest: func(id string, d Deps) provisioning.Step {
			return manifest.NewArchiveManifest(id, d.Store)
		},
	}
}

// Types returns the registered step types, sorted.
func (r Registry) Types() []string {
	out := make([]string, 0, len(r))
	for t := range r {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Check reports every step of cfg whose type is not registered.
func (r Registry) Check(cfg *config.Config) error {
	var unknown []string
	for _, s := range cfg.Steps {
		if _, ok := r[s.Type]; !ok {
			unknown = append(unknown, s.Type)
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown step types: %v", unknown)
	}
	return nil
}

// Build assembles the pipeline described by cfg. Steps are not initialized;
// that happens when the pipeline runs.
func (r Registry) Build(cfg *config.Config, deps Deps) (*provisioning.Pipeline, error) {
	if err := r.Check(cfg); err != nil {
		return nil, err
	}
	modes, err := cfg.Modes()
	if err != nil {
		return nil, err
	}

	p := provisioning.NewPipeline().WithModes(modes)
	for _, sc := range cfg.Steps {
		settings := make(provisioning.Settings, len(sc.Settings)+1)
		for k, v := range sc.Settings {
			settings[k] = v
		}
		if sc.Type == manifest.TypeArchiveManifest && settings[manifest.SettingBucket] == "" && cfg.AWS.Bucket != "" {
			settings[manifest.SettingBucket] = cfg.AWS.Bucket
		}
		p.Add(r[sc.Type](sc.ID, deps), settings)
	}
	return p, nil
}
