package engine

import (
	"strings"

	"github.com/ancients-collective/guardrail/internal/types"
)

// deployPrefix marks remediation-only policies in the built-in corpus.
const deployPrefix = "Deploy "

// QualityGate determines if a policy should be skipped regardless of the
// selection config. Returns skip=true with a reason for deprecated policies
// and for remediation-only policies that cannot be switched to audit.
func QualityGate(def *types.PolicyDefinition) (skip bool, reason string) {
	if strings.HasPrefix(def.DisplayName, types.DeprecatedMarker+": ") {
		return true, "display name carries the deprecation marker"
	}

	// These only deploy resources; without an effect switch they cannot
	// be assigned in audit mode.
	if strings.HasPrefix(def.DisplayName, deployPrefix) && !def.HasEffectParameter() {
		return true, "remediation-only policy without an effect parameter"
	}

	if def.IsDeprecated {
		return true, "policy metadata marks it deprecated"
	}

	return false, ""
}

// Screen applies the quality gate and then the selection policy. A nil
// policy only applies the gate. Each skip is logged at debug level.
func Screen(def *types.PolicyDefinition, policy *SelectionPolicy) (skip bool, reason string) {
	skip, reason = QualityGate(def)
	if !skip && policy != nil {
		skip, reason = policy.Explain(def.ServiceName, def.DisplayName)
	}
	if skip && policy != nil {
		policy.log.Debug("skipping policy",
			"service", def.ServiceName,
			"policy", def.DisplayName,
			"reason", reason)
	}
	return skip, reason
}
