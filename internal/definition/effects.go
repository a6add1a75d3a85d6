package definition

import (
	"strings"

	"github.com/gowebpki/jcs"

	"github.com/ancients-collective/guardrail/internal/types"
)

// allowedEffects derives the effect set of a policy.
//
// The declared schema only lists effects for policies with an effect
// parameter, so the rule body is also scanned for remediation keywords.
// This is a literal substring heuristic over the canonical lower-cased rule
// text. It misses remediation kinds spelled with other keywords.
func (n *normalizer) allowedEffects(def *types.PolicyDefinition, rule types.Value) []string {
	var effects []string

	if p, ok := def.Parameter(types.EffectParameter); ok {
		for _, v := range p.AllowedValues {
			if s, ok := v.AsString(); ok {
				effects = append(effects, s)
			}
		}
	}

	// A literal then.effect is a fixed effect; "[parameters('effect')]" is not.
	if then, ok := rule.Path("then", "effect"); ok {
		if s, ok := then.AsString(); ok && !strings.Contains(s, "parameters") {
			effects = append(effects, s)
		}
	}

	text := canonicalRuleText(rule)
	hasDeploy := strings.Contains(text, types.EffectDeployIfNotExists)
	hasModify := strings.Contains(text, types.EffectModify)
	log := n.log.With("service", def.ServiceName, "policy", def.DisplayName)

	switch {
	case hasDeploy && hasModify:
		log.Debug("found both deployIfNotExists and modify in policy rule")
		effects = append(effects, types.EffectDeployIfNotExists, types.EffectModify)
	case hasDeploy:
		log.Debug("found deployIfNotExists in policy rule")
		effects = append(effects, types.EffectDeployIfNotExists)
	case hasModify:
		log.Debug("found modify in policy rule")
		effects = append(effects, types.EffectModify)
	case strings.Contains(text, types.EffectAppend):
		log.Debug("found append in policy rule")
		effects = append(effects, types.EffectAppend)
	}

	return dedupeLower(effects)
}

// canonicalRuleText renders the rule as RFC 8785 canonical JSON, lower-cased.
func canonicalRuleText(rule types.Value) string {
	data := []byte(rule.JSON())
	if canonical, err := jcs.Transform(data); err == nil {
		data = canonical
	}
	return strings.ToLower(string(data))
}

// dedupeLower lower-cases values and drops repeats, keeping first-seen order.
// The result is never nil.
func dedupeLower(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(v)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
