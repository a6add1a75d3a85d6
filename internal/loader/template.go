package loader

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const configTemplateHeader = `# guardrail selection config
#
# Every key is optional. Empty strings are padding and are ignored.
# exclude_policies lists display names per service.
`

// configTemplate mirrors engine.Options with a fixed key order.
type configTemplate struct {
	ExcludePolicies   map[string][]string `yaml:"exclude_policies"`
	ExcludeServices   []string            `yaml:"exclude_services"`
	MatchOnlyKeywords []string            `yaml:"match_only_keywords"`
	ExcludeKeywords   []string            `yaml:"exclude_keywords"`
}

// ConfigTemplate renders a starter selection config listing every service
// with empty-string padding. The result is accepted by DecodeConfig.
func ConfigTemplate(services []string) ([]byte, error) {
	tmpl := configTemplate{
		ExcludePolicies:   make(map[string][]string, len(services)),
		ExcludeServices:   []string{""},
		MatchOnlyKeywords: []string{""},
		ExcludeKeywords:   []string{""},
	}
	for _, svc := range services {
		tmpl.ExcludePolicies[svc] = []string{""}
	}

	var buf bytes.Buffer
	buf.WriteString(configTemplateHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(tmpl); err != nil {
		return nil, fmt.Errorf("failed to render config template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to render config template: %w", err)
	}
	return buf.Bytes(), nil
}
