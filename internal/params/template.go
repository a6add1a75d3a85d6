package params

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ancients-collective/guardrail/internal/catalog"
	"github.com/ancients-collective/guardrail/internal/types"
)

// Template renders a values document for the selected policies. Parameters
// with defaults are pre-filled; parameters without one are null and marked
// required. Policies without parameters are left out.
func Template(cat *catalog.Catalog, selected map[string]map[string]types.PolicyRef) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	services := make([]string, 0, len(selected))
	for svc := range selected {
		services = append(services, svc)
	}
	sort.Strings(services)

	for _, svc := range services {
		var displays []string
		for _, ref := range selected[svc] {
			displays = append(displays, ref.DisplayName)
		}
		sort.Strings(displays)

		svcNode := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, display := range displays {
			def, ok := cat.Lookup(svc, display)
			if !ok || len(def.Parameters) == 0 {
				continue
			}

			policyNode := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			policyNode.Content = append(policyNode.Content,
				strNode(PolicyIDKey), strNode(def.ShortID))
			for _, p := range def.Parameters {
				value := p.Default().YAMLNode()
				if !p.HasDefault() {
					value.LineComment = "required"
				}
				policyNode.Content = append(policyNode.Content, strNode(p.Name), value)
			}
			svcNode.Content = append(svcNode.Content, strNode(display), policyNode)
		}
		if len(svcNode.Content) > 0 {
			root.Content = append(root.Content, strNode(svc), svcNode)
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("failed to render values template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to render values template: %w", err)
	}
	return buf.Bytes(), nil
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}
