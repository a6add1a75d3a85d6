// Package definition normalizes raw policy definition documents into
// types.PolicyDefinition records.
package definition

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ancients-collective/guardrail/internal/types"
)

// UpstreamBaseURL is the browsable location of the built-in policy corpus.
const UpstreamBaseURL = "https://github.com/Azure/azure-policy/tree/master/built-in-policies/policyDefinitions"

// Option configures normalization.
type Option func(*normalizer)

// WithLogger sets the logger used for heuristic debug records.
func WithLogger(l *slog.Logger) Option {
	return func(n *normalizer) {
		if l != nil {
			n.log = l
		}
	}
}

type normalizer struct {
	log *slog.Logger
}

func newNormalizer(opts []Option) *normalizer {
	n := &normalizer{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Parse decodes and normalizes one raw policy document. The file name is
// optional and only used for error reports and the upstream link.
func Parse(data []byte, service, file string, opts ...Option) (*types.PolicyDefinition, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedDocumentError{Service: service, File: file, Reason: "invalid JSON", Err: err}
	}
	if err := validateStructure(raw); err != nil {
		return nil, &MalformedDocumentError{Service: service, File: file, Reason: "schema validation failed", Err: err}
	}

	doc, err := types.ParseJSON(data)
	if err != nil {
		return nil, &MalformedDocumentError{Service: service, File: file, Reason: "invalid JSON", Err: err}
	}
	return FromValue(doc, service, file, opts...)
}

// FromValue normalizes an already decoded document.
func FromValue(doc types.Value, service, file string, opts ...Option) (*types.PolicyDefinition, error) {
	n := newNormalizer(opts)

	props, ok := doc.Get("properties")
	if !ok || props.Kind() != types.KindMapping {
		return nil, &MalformedDocumentError{Service: service, File: file, Reason: "missing properties object"}
	}
	rule, ok := props.Get("policyRule")
	if !ok || rule.Kind() != types.KindMapping {
		return nil, &MalformedDocumentError{Service: service, File: file, Reason: "missing properties.policyRule object"}
	}

	def := &types.PolicyDefinition{
		ServiceName: service,
		ID:          stringAt(doc, "id"),
		Name:        stringAt(doc, "name"),
		DisplayName: stringAt(props, "displayName"),
		Description: stringAt(props, "description"),
		Category:    stringAt(props, "metadata", "category"),
		Version:     stringAt(props, "metadata", "version"),
		FileName:    file,
		Link:        upstreamLink(service, file),
	}
	def.ShortID = def.Name
	if def.DisplayName == "" {
		def.DisplayName = def.Name
	}

	def.Parameters = parseParameters(props)
	def.IsDeprecated = isDeprecated(props, def.DisplayName)
	def.AllowedEffects = n.allowedEffects(def, rule)

	return def, nil
}

func parseParameters(props types.Value) []types.ParameterDefinition {
	raw, ok := props.Get("parameters")
	if !ok {
		return nil
	}

	var params []types.ParameterDefinition
	for _, m := range raw.Members() {
		p := types.ParameterDefinition{
			Name:        m.Key,
			Type:        stringAt(m.Value, "type"),
			DisplayName: stringAt(m.Value, "metadata", "displayName"),
			Description: stringAt(m.Value, "metadata", "description"),
		}
		if def, ok := m.Value.Get("defaultValue"); ok {
			p.DefaultValue = &def
		}
		if allowed, ok := m.Value.Get("allowedValues"); ok {
			p.AllowedValues = allowed.Items()
		}
		params = append(params, p)
	}
	return params
}

// isDeprecated checks both conventions used by the corpus: the metadata
// flag and the display name marker.
func isDeprecated(props types.Value, displayName string) bool {
	if strings.HasPrefix(displayName, types.DeprecatedMarker) {
		return true
	}
	flag, ok := props.Path("metadata", "deprecated")
	if !ok {
		return false
	}
	if b, ok := flag.AsBool(); ok {
		return b
	}
	if s, ok := flag.AsString(); ok {
		return strings.EqualFold(strings.TrimSpace(s), "true")
	}
	return false
}

func upstreamLink(service, file string) string {
	if service == "" || file == "" {
		return ""
	}
	return UpstreamBaseURL + "/" + url.PathEscape(service) + "/" + url.PathEscape(file)
}

// stringAt returns the string found at the given key path, or "".
func stringAt(v types.Value, keys ...string) string {
	found, ok := v.Path(keys...)
	if !ok {
		return ""
	}
	s, _ := found.AsString()
	return s
}
