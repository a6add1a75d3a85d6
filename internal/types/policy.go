// Package types defines shared type definitions used across all guardrail packages.
package types

import (
	"fmt"
	"strings"
)

// Effect names that change resources when a policy is assigned.
const (
	EffectAppend            = "append"
	EffectModify            = "modify"
	EffectDeployIfNotExists = "deployifnotexists"
)

// Effect names that only report.
const (
	EffectDisabled         = "disabled"
	EffectAudit            = "audit"
	EffectAuditIfNotExists = "auditifnotexists"
)

// EffectParameter is the parameter name that switches a policy's effect.
const EffectParameter = "effect"

// DeprecatedMarker prefixes the display name of deprecated policies.
const DeprecatedMarker = "[Deprecated]"

// Cardinality classifies a policy by how its parameters must be supplied.
type Cardinality int

const (
	// NoParams means the policy declares no parameters.
	NoParams Cardinality = iota
	// ParamsOptional means every parameter has a default value.
	ParamsOptional
	// ParamsRequired means at least one parameter lacks a default value.
	ParamsRequired
)

// Cardinalities lists every classification in display order.
var Cardinalities = []Cardinality{NoParams, ParamsOptional, ParamsRequired}

// String returns the snake_case classification name.
func (c Cardinality) String() string {
	switch c {
	case NoParams:
		return "no_params"
	case ParamsOptional:
		return "params_optional"
	case ParamsRequired:
		return "params_required"
	default:
		return fmt.Sprintf("cardinality(%d)", int(c))
	}
}

// RequirementLabel returns the label used in initiative names.
func (c Cardinality) RequirementLabel() string {
	switch c {
	case NoParams:
		return "NoParams"
	case ParamsOptional:
		return "ParamsOptional"
	case ParamsRequired:
		return "ParamsRequired"
	default:
		return ""
	}
}

// MarshalText renders the classification as its snake_case name.
func (c Cardinality) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts any form ParseCardinality does.
func (c *Cardinality) UnmarshalText(text []byte) error {
	parsed, err := ParseCardinality(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCardinality accepts "none", "optional", "required", the snake_case
// names and the requirement labels, case-insensitively.
func ParseCardinality(s string) (Cardinality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "no_params", "noparams", "no-params":
		return NoParams, nil
	case "optional", "params_optional", "paramsoptional", "params-optional":
		return ParamsOptional, nil
	case "required", "params_required", "paramsrequired", "params-required":
		return ParamsRequired, nil
	}
	return 0, fmt.Errorf("invalid parameter requirement %q (must be none, optional, or required)", s)
}

// ParameterDefinition is one declared input of a policy.
type ParameterDefinition struct {
	// Name is unique within a policy.
	Name string `json:"name"`

	// Type is the declared parameter type (String, Array, Object, ...).
	Type string `json:"type,omitempty"`

	// DisplayName and Description come from the parameter metadata.
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`

	// DefaultValue is nil when the parameter has no default, which makes it required.
	DefaultValue *Value `json:"default_value,omitempty"`

	// AllowedValues may be empty.
	AllowedValues []Value `json:"allowed_values,omitempty"`
}

// HasDefault reports whether the parameter declares a non-null default.
func (p ParameterDefinition) HasDefault() bool {
	return p.DefaultValue != nil && !p.DefaultValue.IsNull()
}

// Default returns the default value, or null.
func (p ParameterDefinition) Default() Value {
	if p.DefaultValue == nil {
		return Null()
	}
	return *p.DefaultValue
}

// PolicyDefinition is one normalized governance rule.
// Identity is the pair (ServiceName, DisplayName).
type PolicyDefinition struct {
	ServiceName string `json:"service_name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`

	// ID is the full resource ID; Name and ShortID are the trailing GUID.
	ID      string `json:"id"`
	Name    string `json:"name"`
	ShortID string `json:"short_id"`

	Category string `json:"category,omitempty"`
	Version  string `json:"version,omitempty"`

	// FileName is the source document name and Link its upstream location.
	FileName string `json:"file_name,omitempty"`
	Link     string `json:"link,omitempty"`

	IsDeprecated bool `json:"is_deprecated"`

	// Parameters are kept in declaration order.
	Parameters []ParameterDefinition `json:"parameters,omitempty"`

	// AllowedEffects are lower-cased and de-duplicated in first-seen order.
	AllowedEffects []string `json:"allowed_effects"`
}

// Cardinality derives the parameter classification from the parameter set.
func (p *PolicyDefinition) Cardinality() Cardinality {
	if len(p.Parameters) == 0 {
		return NoParams
	}
	for _, param := range p.Parameters {
		if !param.HasDefault() {
			return ParamsRequired
		}
	}
	return ParamsOptional
}

// NoParams reports whether the policy declares no parameters.
func (p *PolicyDefinition) NoParams() bool { return p.Cardinality() == NoParams }

// ParamsOptional reports whether every declared parameter has a default.
func (p *PolicyDefinition) ParamsOptional() bool { return p.Cardinality() == ParamsOptional }

// ParamsRequired reports whether some parameter has no default.
func (p *PolicyDefinition) ParamsRequired() bool { return p.Cardinality() == ParamsRequired }

// ParameterNames returns the declared parameter names in order.
func (p *PolicyDefinition) ParameterNames() []string {
	names := make([]string, len(p.Parameters))
	for i, param := range p.Parameters {
		names[i] = param.Name
	}
	return names
}

// Parameter looks up a declared parameter by name.
func (p *PolicyDefinition) Parameter(name string) (ParameterDefinition, bool) {
	for _, param := range p.Parameters {
		if param.Name == name {
			return param, true
		}
	}
	return ParameterDefinition{}, false
}

// HasEffectParameter reports whether the policy declares an effect switch.
func (p *PolicyDefinition) HasEffectParameter() bool {
	_, ok := p.Parameter(EffectParameter)
	return ok
}

// OptionalParameters returns the names of parameters with defaults.
// Empty unless the policy is ParamsOptional.
func (p *PolicyDefinition) OptionalParameters() []string {
	if p.Cardinality() != ParamsOptional {
		return nil
	}
	return p.ParameterNames()
}

// RequiredParameters returns the names of parameters without defaults.
// Empty unless the policy is ParamsRequired.
func (p *PolicyDefinition) RequiredParameters() []string {
	if p.Cardinality() != ParamsRequired {
		return nil
	}
	var names []string
	for _, param := range p.Parameters {
		if !param.HasDefault() {
			names = append(names, param.Name)
		}
	}
	return names
}

// HasEffect reports whether effect is among the allowed effects.
func (p *PolicyDefinition) HasEffect(effect string) bool {
	effect = strings.ToLower(effect)
	for _, e := range p.AllowedEffects {
		if e == effect {
			return true
		}
	}
	return false
}

// ModifiesResources reports whether the policy can append, modify or
// deploy resources.
func (p *PolicyDefinition) ModifiesResources() bool {
	return p.HasEffect(EffectAppend) || p.HasEffect(EffectModify) || p.HasEffect(EffectDeployIfNotExists)
}

// AuditOnly reports whether every allowed effect only reports.
// A policy with no known effects is audit-only.
func (p *PolicyDefinition) AuditOnly() bool {
	for _, e := range p.AllowedEffects {
		switch e {
		case EffectDisabled, EffectAudit, EffectAuditIfNotExists:
		default:
			return false
		}
	}
	return true
}

// PolicyRef identifies a selected policy inside an initiative.
type PolicyRef struct {
	DisplayName string `json:"display_name" validate:"required"`
	ShortID     string `json:"short_id" validate:"required"`
}
