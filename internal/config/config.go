package config

import (
	"fmt"
	"time"

	"github.com/cloudprov/provisioner/internal/provisioning"
)

// Config is a parsed pipeline file.
type Config struct {
	// RunID identifies the run; generated when empty.
	RunID string `yaml:"runId"`

	// Mode is the default execution mode of every step (run, simulate, fail).
	Mode string `yaml:"mode"`

	Requisition provisioning.Requisition `yaml:"requisition"`
	Pools       []PoolConfig             `yaml:"pools"`
	AWS         AWSConfig                `yaml:"aws"`
	Steps       []StepConfig             `yaml:"steps"`
}

// PoolConfig describes one producer pool.
type PoolConfig struct {
	Name     string            `yaml:"name"`
	Endpoint string            `yaml:"endpoint"`
	Size     int               `yaml:"size"`
	Timeout  time.Duration     `yaml:"timeout"`
	Headers  map[string]string `yaml:"headers"`
}

// AWSConfig holds defaults for steps that talk to AWS.
type AWSConfig struct {
	Region string `yaml:"region"`
	// Bucket receives run manifests.
	Bucket string `yaml:"bucket"`
}

// StepConfig is one entry of the static step sequence.
type StepConfig struct {
	Type     string            `yaml:"type"`
	ID       string            `yaml:"id"`
	Mode     string            `yaml:"mode"`
	Settings map[string]string `yaml:"settings"`
}

// Modes builds the mode selector of the run. Per-step modes are keyed by step id
// when one is set and by step type otherwise.
func (c *Config) Modes() (provisioning.Modes, error) {
	modes := provisioning.Modes{Default: provisioning.ModeRun, Overrides: map[string]provisioning.Mode{}}
	if c.Mode != "" {
		m, err := provisioning.ParseMode(c.Mode)
		if err != nil {
			return modes, err
		}
		modes.Default = m
	}
	for _, s := range c.Steps {
		if s.Mode == "" {
			continue
		}
		m, err := provisioning.ParseMode(s.Mode)
		if err != nil {
			return modes, fmt.Errorf("step %s: %w", s.Type, err)
		}
		key := s.ID
		if key == "" {
			key = s.Type
		}
		modes.Overrides[key] = m
	}
	return modes, nil
}

// Pool returns the named pool config.
func (c *Config) Pool(name string) (PoolConfig, bool) {
	for _, p := range c.Pools {
		if p.Name == name {
			return p, true
		}
	}
	return PoolConfig{}, false
}
