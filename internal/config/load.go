package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads and parses a pipeline file from path.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a pipeline file, applies defaults, expands ${VAR} references in
// step settings and validates the result. Validation warnings do not fail.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	cfg.applyDefaults(LoadTimeouts())
	cfg.expandEnv()

	if errs := Errors(cfg.Validate()); len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed:\n  %s", joinErrors(errs))
	}
	return &cfg, nil
}

// applyDefaults fills in values the file left unset.
func (c *Config) applyDefaults(t *Timeouts) {
	if c.Mode == "" {
		c.Mode = "run"
	}
	for i := range c.Pools {
		if c.Pools[i].Size == 0 {
			c.Pools[i].Size = t.PoolSize
		}
		if c.Pools[i].Timeout == 0 {
			c.Pools[i].Timeout = t.RequestTimeout
		}
	}
	for i := range c.Steps {
		if c.Steps[i].Settings == nil {
			c.Steps[i].Settings = map[string]string{}
		}
		if _, ok := c.Steps[i].Settings["region"]; !ok {
			region := c.AWS.Region
			if region == "" {
				region = c.Requisition.Region
			}
			if region != "" {
				c.Steps[i].Settings["region"] = region
			}
		}
	}
}

// expandEnv replaces ${VAR} and $VAR references in step settings and pool
// headers so credentials can stay out of the file.
func (c *Config) expandEnv() {
	for i := range c.Steps {
		for k, v := range c.Steps[i].Settings {
			c.Steps[i].Settings[k] = os.ExpandEnv(v)
		}
	}
	for i := range c.Pools {
		for k, v := range c.Pools[i].Headers {
			c.Pools[i].Headers[k] = os.ExpandEnv(v)
		}
	}
}

func joinErrors(errs []ValidationError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n  ")
}
