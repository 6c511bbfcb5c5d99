package testing

import (
	"maps"
	"time"

	"github.com/cloudprov/provisioner/internal/config"
	"github.com/cloudprov/provisioner/internal/provisioning"
)

// ConfigBuilder provides a fluent interface for constructing pipeline files.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a builder with the requisition from NewRequisition and no steps.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: config.Config{
			RunID:       "test-run",
			Mode:        string(provisioning.ModeRun),
			Requisition: NewRequisition(),
			AWS:         config.AWSConfig{Region: "us-east-1"},
		},
	}
}

// WithMode sets the default execution mode.
func (b *ConfigBuilder) WithMode(mode provisioning.Mode) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Mode = string(mode)
	return nb
}

// WithRequisition replaces the requisition.
func (b *ConfigBuilder) WithRequisition(req provisioning.Requisition) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Requisition = req
	return nb
}

// WithBucket sets the manifest bucket.
func (b *ConfigBuilder) WithBucket(bucket string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.AWS.Bucket = bucket
	return nb
}

// WithPool adds a producer pool.
func (b *ConfigBuilder) WithPool(name, endpoint string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Pools = append(nb.cfg.Pools, config.PoolConfig{
		Name:     name,
		Endpoint: endpoint,
		Size:     1,
		Timeout:  time.Second,
	})
	return nb
}

// WithStep appends a step with settings.
func (b *ConfigBuilder) WithStep(stepType string, settings map[string]string) *ConfigBuilder {
	nb := b.clone()
	nb.cfg.Steps = append(nb.cfg.Steps, config.StepConfig{Type: stepType, Settings: maps.Clone(settings)})
	return nb
}

// WithStepMode sets the mode of the last added step.
func (b *ConfigBuilder) WithStepMode(mode provisioning.Mode) *ConfigBuilder {
	nb := b.clone()
	if n := len(nb.cfg.Steps); n > 0 {
		nb.cfg.Steps[n-1].Mode = string(mode)
	}
	return nb
}

// Build returns the built config.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.clone().cfg
	return &cfg
}

func (b *ConfigBuilder) clone() *ConfigBuilder {
	cfg := b.cfg
	cfg.Pools = append([]config.PoolConfig(nil), b.cfg.Pools...)
	cfg.Steps = make([]config.StepConfig, len(b.cfg.Steps))
	for i, s := range b.cfg.Steps {
		s.Settings = maps.Clone(s.Settings)
		cfg.Steps[i] = s
	}
	return &ConfigBuilder{cfg: cfg}
}
