package config

import (
	"fmt"

	"github.com/cloudprov/provisioner/internal/provisioning"
)

// ValidationError represents a configuration validation error or warning.
type ValidationError struct {
	Field    string // Configuration field that failed validation
	Message  string // Human-readable error message
	Severity string // "error" or "warning"
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", ve.Severity, ve.Field, ve.Message)
}

// IsError returns true if this is an error (not a warning).
func (ve ValidationError) IsError() bool {
	return ve.Severity == "error"
}

// Errors returns only the entries with error severity.
func Errors(all []ValidationError) []ValidationError {
	var out []ValidationError
	for _, ve := range all {
		if ve.IsError() {
			out = append(out, ve)
		}
	}
	return out
}

// Warnings returns only the entries with warning severity.
func Warnings(all []ValidationError) []ValidationError {
	var out []ValidationError
	for _, ve := range all {
		if !ve.IsError() {
			out = append(out, ve)
		}
	}
	return out
}

func errorf(field, format string, args ...interface{}) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: "error"}
}

func warnf(field, format string, args ...interface{}) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Severity: "warning"}
}

// Validate runs all checks and returns any errors or warnings.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	// --- Mode ---

	if c.Mode != "" {
		if _, err := provisioning.ParseMode(c.Mode); err != nil {
			errs = append(errs, errorf("mode", "%v", err))
		}
	}

	// --- Pools ---

	pools := make(map[string]bool, len(c.Pools))
	for i, p := range c.Pools {
		field := fmt.Sprintf("pools[%d]", i)
		if p.Name == "" {
			errs = append(errs, errorf(field+".name", "pool name is required"))
			continue
		}
		if pools[p.Name] {
			errs = append(errs, errorf(field+".name", "duplicate pool %q", p.Name))
		}
		pools[p.Name] = true
		if p.Endpoint == "" {
			errs = append(errs, errorf(field+".endpoint", "endpoint is required for pool %q", p.Name))
		}
		if p.Size < 0 {
			errs = append(errs, errorf(field+".size", "size must not be negative, got %d", p.Size))
		}
		if p.Timeout < 0 {
			errs = append(errs, errorf(field+".timeout", "timeout must not be negative, got %s", p.Timeout))
		}
	}

	// --- Steps ---

	if len(c.Steps) == 0 {
		errs = append(errs, errorf("steps", "at least one step is required"))
	}

	types := make(map[string]bool, len(c.Steps))
	ids := make(map[string]bool, len(c.Steps))
	for i, s := range c.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		if s.Type == "" {
			errs = append(errs, errorf(field+".type", "step type is required"))
			continue
		}
		if types[s.Type] {
			errs = append(errs, errorf(field+".type", "step type %s appears more than once", s.Type))
		}
		types[s.Type] = true

		if s.ID != "" {
			if ids[s.ID] {
				errs = append(errs, errorf(field+".id", "duplicate step id %q", s.ID))
			}
			ids[s.ID] = true
		}

		if s.Mode != "" {
			if _, err := provisioning.ParseMode(s.Mode); err != nil {
				errs = append(errs, errorf(field+".mode", "%v", err))
			}
		}

		if name, ok := s.Settings[provisioning.SettingProducerPool]; ok && !pools[name] {
			errs = append(errs, errorf(field+".settings."+provisioning.SettingProducerPool,
				"step %s references unknown pool %q", s.Type, name))
		}
	}

	// --- Requisition ---

	if c.Requisition.Region == "" && c.AWS.Region == "" {
		errs = append(errs, warnf("requisition.region", "no region set; AWS steps need a region setting"))
	}
	if c.Requisition.Requestor == "" {
		errs = append(errs, warnf("requisition.requestor", "requestor is empty; authorization steps will fail"))
	}
	switch c.Requisition.VpcType {
	case "", "0", "1", "2":
	default:
		errs = append(errs, warnf("requisition.vpcType", "unexpected VPC type %q", c.Requisition.VpcType))
	}

	return errs
}
