package provisioning

import (
	"fmt"
	"strconv"
)

const (
	// PropertyExecutionMethod is always the first result property of a step.
	// Its value is the Mode the step executed with.
	PropertyExecutionMethod = "stepExecutionMethod"

	// NotApplicableValue marks a result that a step skipped on purpose.
	NotApplicableValue = "not applicable"
)

// Property is an immutable name/value pair produced by a step.
type Property struct {
	name  string
	value string
}

// NewProperty creates a property.
func NewProperty(name, value string) Property {
	return Property{name: name, value: value}
}

// NotApplicable creates a property carrying the "not applicable" sentinel.
func NotApplicable(name string) Property {
	return Property{name: name, value: NotApplicableValue}
}

// BoolProperty creates a property holding "true" or "false".
func BoolProperty(name string, v bool) Property {
	return Property{name: name, value: strconv.FormatBool(v)}
}

// Name returns the property name.
func (p Property) Name() string { return p.name }

// Value returns the raw string value.
func (p Property) Value() string { return p.value }

// IsNotApplicable reports whether the property carries the "not applicable" sentinel.
func (p Property) IsNotApplicable() bool { return p.value == NotApplicableValue }

func (p Property) String() string {
	return fmt.Sprintf("%s=%s", p.name, p.value)
}

// Value is a property found by a lookup. It is either a real value or "not applicable";
// an absent property is always reported as an error and never as a Value.
type Value struct {
	raw           string
	notApplicable bool
}

func valueOf(p Property) Value {
	return Value{raw: p.value, notApplicable: p.IsNotApplicable()}
}

// String returns the raw value, including the sentinel text for not-applicable values.
func (v Value) String() string { return v.raw }

// NotApplicable reports whether the producing step skipped this value on purpose.
func (v Value) NotApplicable() bool { return v.notApplicable }

// Require returns the value, or ErrNotApplicable.
func (v Value) Require() (string, error) {
	if v.notApplicable {
		return "", ErrNotApplicable
	}
	return v.raw, nil
}

// Bool parses the value as a boolean. Not-applicable values return ErrNotApplicable.
func (v Value) Bool() (bool, error) {
	raw, err := v.Require()
	if err != nil {
		return false, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q: %w", raw, err)
	}
	return b, nil
}
