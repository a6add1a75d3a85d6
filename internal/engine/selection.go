// Package engine decides which policies are eligible for an initiative.
//
// Two layers are applied. SelectionPolicy encodes user intent from the
// selection config. QualityGate encodes corpus-quality heuristics that hold
// regardless of configuration.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Options is the declarative selection config. Every key is optional.
type Options struct {
	ExcludePolicies   map[string][]string `yaml:"exclude_policies" json:"exclude_policies,omitempty" validate:"dive,keys,guardrail_keyword,endkeys,dive,guardrail_keyword"`
	ExcludeServices   []string            `yaml:"exclude_services" json:"exclude_services,omitempty" validate:"dive,guardrail_keyword"`
	MatchOnlyKeywords []string            `yaml:"match_only_keywords" json:"match_only_keywords,omitempty" validate:"dive,guardrail_keyword"`
	ExcludeKeywords   []string            `yaml:"exclude_keywords" json:"exclude_keywords,omitempty" validate:"dive,guardrail_keyword"`
}

// ConfigValidationError reports a selection config that references
// something outside the known catalog.
type ConfigValidationError struct {
	Field      string
	Value      string
	Reason     string
	Suggestion string
}

func (e *ConfigValidationError) Error() string {
	msg := fmt.Sprintf("invalid config %s: %q %s", e.Field, e.Value, e.Reason)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

// PolicyOption configures a SelectionPolicy.
type PolicyOption func(*SelectionPolicy)

// WithLogger sets the logger used by Screen for skip records.
func WithLogger(l *slog.Logger) PolicyOption {
	return func(p *SelectionPolicy) {
		if l != nil {
			p.log = l
		}
	}
}

// SelectionPolicy is an immutable, validated selection config. All methods
// are safe for concurrent use.
type SelectionPolicy struct {
	matchOnly       []string
	excludeKeywords []string
	excludeServices map[string]struct{}
	excludePolicies map[string]map[string]struct{}
	normalized      Options
	log             *slog.Logger
}

// NewSelectionPolicy validates opts against the known service names and
// returns the normalized policy. Keywords are lower-cased. Empty strings are
// template padding and are dropped without error.
func NewSelectionPolicy(opts Options, knownServices []string, popts ...PolicyOption) (*SelectionPolicy, error) {
	known := make(map[string]struct{}, len(knownServices))
	for _, s := range knownServices {
		known[s] = struct{}{}
	}
	checkService := func(field, name string) error {
		if _, ok := known[name]; ok {
			return nil
		}
		err := &ConfigValidationError{Field: field, Value: name, Reason: "is not a known service"}
		if s := Suggest(name, knownServices); len(s) > 0 {
			err.Suggestion = s[0]
		}
		return err
	}

	p := &SelectionPolicy{
		excludeServices: make(map[string]struct{}),
		excludePolicies: make(map[string]map[string]struct{}),
		log:             slog.New(slog.DiscardHandler),
	}
	for _, opt := range popts {
		opt(p)
	}

	p.matchOnly = normalizeKeywords(opts.MatchOnlyKeywords)
	p.excludeKeywords = normalizeKeywords(opts.ExcludeKeywords)

	var services []string
	for i, svc := range opts.ExcludeServices {
		if svc == "" {
			continue
		}
		if err := checkService(fmt.Sprintf("exclude_services[%d]", i), svc); err != nil {
			return nil, err
		}
		if _, dup := p.excludeServices[svc]; !dup {
			p.excludeServices[svc] = struct{}{}
			services = append(services, svc)
		}
	}

	keys := make([]string, 0, len(opts.ExcludePolicies))
	for svc := range opts.ExcludePolicies {
		keys = append(keys, svc)
	}
	sort.Strings(keys)

	policies := make(map[string][]string)
	for _, svc := range keys {
		if svc == "" {
			continue
		}
		if err := checkService("exclude_policies", svc); err != nil {
			return nil, err
		}
		set := make(map[string]struct{})
		var names []string
		for _, name := range opts.ExcludePolicies[svc] {
			if name == "" {
				continue
			}
			if _, dup := set[name]; !dup {
				set[name] = struct{}{}
				names = append(names, name)
			}
		}
		if len(set) == 0 {
			continue
		}
		p.excludePolicies[svc] = set
		policies[svc] = names
	}

	p.normalized = Options{
		MatchOnlyKeywords: p.matchOnly,
		ExcludeKeywords:   p.excludeKeywords,
		ExcludeServices:   services,
	}
	if len(policies) > 0 {
		p.normalized.ExcludePolicies = policies
	}
	return p, nil
}

func normalizeKeywords(keywords []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		if k == "" {
			continue
		}
		k = strings.ToLower(k)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// IsExcluded reports whether the policy is removed by the selection config.
func (p *SelectionPolicy) IsExcluded(service, displayName string) bool {
	excluded, _ := p.Explain(service, displayName)
	return excluded
}

// Explain is IsExcluded with the reason for an exclusion. Rules are
// evaluated in a fixed order and the first match wins: match-only keywords,
// exclude keywords, excluded services, excluded policies.
func (p *SelectionPolicy) Explain(service, displayName string) (excluded bool, reason string) {
	lower := strings.ToLower(displayName)

	if len(p.matchOnly) > 0 && !containsAny(lower, p.matchOnly) {
		return true, fmt.Sprintf("display name matches none of match_only_keywords [%s]",
			strings.Join(p.matchOnly, ", "))
	}

	for _, k := range p.excludeKeywords {
		if strings.Contains(lower, k) {
			return true, fmt.Sprintf("display name contains excluded keyword %q", k)
		}
	}

	if p.IsServiceExcluded(service) {
		return true, fmt.Sprintf("service %q is excluded", service)
	}

	if _, ok := p.excludePolicies[service][displayName]; ok {
		return true, fmt.Sprintf("policy is listed in exclude_policies[%q]", service)
	}

	return false, ""
}

// IsServiceExcluded reports whether the whole service is excluded.
func (p *SelectionPolicy) IsServiceExcluded(service string) bool {
	_, ok := p.excludeServices[service]
	return ok
}

// Options returns a copy of the normalized config.
func (p *SelectionPolicy) Options() Options {
	out := Options{
		MatchOnlyKeywords: append([]string(nil), p.normalized.MatchOnlyKeywords...),
		ExcludeKeywords:   append([]string(nil), p.normalized.ExcludeKeywords...),
		ExcludeServices:   append([]string(nil), p.normalized.ExcludeServices...),
	}
	if p.normalized.ExcludePolicies != nil {
		out.ExcludePolicies = make(map[string][]string, len(p.normalized.ExcludePolicies))
		for k, v := range p.normalized.ExcludePolicies {
			out.ExcludePolicies[k] = append([]string(nil), v...)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
