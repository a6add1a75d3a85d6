package initiative

import "github.com/ancients-collective/guardrail/internal/types"

// ParameterValue is one serialized parameter assignment.
type ParameterValue struct {
	ParameterName  string `json:"parameter_name"`
	ParameterValue string `json:"parameter_value"`
}

// Document is an assembled initiative, ready for a template renderer.
type Document struct {
	Name             string `json:"name"`
	SubscriptionName string `json:"subscription_name"`
	ManagementGroup  string `json:"management_group"`
	Enforce          bool   `json:"-"`

	// EnforcementMode is "true" or "false".
	EnforcementMode string `json:"enforcement_mode"`
	Category        string `json:"category"`

	// PolicyIDPairs maps service → short id → policy.
	PolicyIDPairs map[string]map[string]types.PolicyRef `json:"policy_id_pairs"`

	// ParameterBlocks maps service → display name → parameter → value.
	// Every (service, display name) here also appears in PolicyIDPairs.
	ParameterBlocks map[string]map[string]map[string]ParameterValue `json:"policy_definition_reference_parameters"`
}

// Mapping returns the document as plain nested maps with the same keys as
// its JSON form.
func (d *Document) Mapping() map[string]any {
	pairs := make(map[string]any, len(d.PolicyIDPairs))
	for svc, refs := range d.PolicyIDPairs {
		m := make(map[string]any, len(refs))
		for id, ref := range refs {
			m[id] = map[string]any{
				"display_name": ref.DisplayName,
				"short_id":     ref.ShortID,
			}
		}
		pairs[svc] = m
	}

	blocks := make(map[string]any, len(d.ParameterBlocks))
	for svc, policies := range d.ParameterBlocks {
		pm := make(map[string]any, len(policies))
		for display, params := range policies {
			vm := make(map[string]any, len(params))
			for name, pv := range params {
				vm[name] = map[string]any{
					"parameter_name":  pv.ParameterName,
					"parameter_value": pv.ParameterValue,
				}
			}
			pm[display] = vm
		}
		blocks[svc] = pm
	}

	return map[string]any{
		"name":                                   d.Name,
		"subscription_name":                      d.SubscriptionName,
		"management_group":                       d.ManagementGroup,
		"enforcement_mode":                       d.EnforcementMode,
		"category":                               d.Category,
		"policy_id_pairs":                        pairs,
		"policy_definition_reference_parameters": blocks,
	}
}
