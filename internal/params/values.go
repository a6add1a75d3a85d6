// Package params reads parameter value files and resolves the value of every
// declared parameter of a selected policy.
package params

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ancients-collective/guardrail/internal/types"
)

// PolicyIDKey is the reserved key that records a policy's short id in a
// values file. It is never a parameter.
const PolicyIDKey = "policy_id"

// PolicyValues holds what a values file supplies for one policy.
type PolicyValues struct {
	// PolicyID is the optional short id bookkeeping entry.
	PolicyID string

	// Parameters are the supplied values in file order.
	Parameters []types.Member
}

// Get returns the supplied value of a parameter.
func (p PolicyValues) Get(name string) (types.Value, bool) {
	for _, m := range p.Parameters {
		if m.Key == name {
			return m.Value, true
		}
	}
	return types.Value{}, false
}

// Values maps service → display name → supplied values.
type Values map[string]map[string]PolicyValues

// Lookup returns the supplied values of one policy.
func (v Values) Lookup(service, displayName string) (PolicyValues, bool) {
	pv, ok := v[service][displayName]
	return pv, ok
}

// Load reads a YAML values file.
func Load(path string) (Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	values, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return values, nil
}

// Decode reads a YAML values document shaped
// service → display name → {policy_id?, parameter: value, ...}.
// An empty document yields no values.
func Decode(r io.Reader) (Values, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return Values{}, nil
		}
		return nil, fmt.Errorf("failed to parse YAML values: %w", err)
	}

	doc, err := types.FromYAML(&node)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML values: %w", err)
	}
	if doc.IsNull() {
		return Values{}, nil
	}
	if doc.Kind() != types.KindMapping {
		return nil, fmt.Errorf("values document must be a mapping of services, got %s", doc.Kind())
	}

	values := make(Values, doc.Len())
	for _, svc := range doc.Members() {
		policies, err := decodeService(svc.Key, svc.Value)
		if err != nil {
			return nil, err
		}
		values[svc.Key] = policies
	}
	return values, nil
}

func decodeService(service string, v types.Value) (map[string]PolicyValues, error) {
	out := make(map[string]PolicyValues, v.Len())
	if v.IsNull() {
		return out, nil
	}
	if v.Kind() != types.KindMapping {
		return nil, fmt.Errorf("%s: must be a mapping of display names, got %s", service, v.Kind())
	}

	for _, policy := range v.Members() {
		pv := PolicyValues{}
		if !policy.Value.IsNull() && policy.Value.Kind() != types.KindMapping {
			return nil, fmt.Errorf("%s/%s: must be a mapping of parameters, got %s",
				service, policy.Key, policy.Value.Kind())
		}
		for _, m := range policy.Value.Members() {
			if m.Key != PolicyIDKey {
				pv.Parameters = append(pv.Parameters, m)
				continue
			}
			switch m.Value.Kind() {
			case types.KindString:
				pv.PolicyID, _ = m.Value.AsString()
			case types.KindNull:
			default:
				return nil, fmt.Errorf("%s/%s: %s must be a string, got %s",
					service, policy.Key, PolicyIDKey, m.Value.Kind())
			}
		}
		out[policy.Key] = pv
	}
	return out, nil
}
