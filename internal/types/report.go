package types

import "time"

// CatalogReport is the top-level structure for a policy listing.
// It is serialized directly to JSON for the --format=json output.
type CatalogReport struct {
	// Version is the guardrail version that produced this report.
	Version string `json:"version"`

	// Timestamp is when the listing was built.
	Timestamp time.Time `json:"timestamp"`

	// Filters describes which selection filters were applied.
	Filters ReportFilters `json:"filters"`

	// Summary provides aggregate statistics.
	Summary ReportSummary `json:"summary"`

	// Services holds the eligible policies per service, sorted by service name.
	Services []ServiceListing `json:"services"`
}

// ReportFilters records the selection configuration active for a listing.
type ReportFilters struct {
	// Parameters is the cardinality filter, empty when all classes are listed.
	Parameters string `json:"parameters,omitempty"`

	// Service is set when a single service was targeted by --service.
	Service string `json:"service,omitempty"`

	MatchOnlyKeywords []string            `json:"match_only_keywords,omitempty"`
	ExcludeKeywords   []string            `json:"exclude_keywords,omitempty"`
	ExcludeServices   []string            `json:"exclude_services,omitempty"`
	ExcludePolicies   map[string][]string `json:"exclude_policies,omitempty"`
}

// ReportSummary provides aggregate statistics for a listing.
type ReportSummary struct {
	// TotalPolicies is the number of normalized policies in the listed services.
	TotalPolicies int `json:"total_policies"`

	// Eligible is the number of policies that passed the quality gate and the selection policy.
	Eligible int `json:"eligible"`

	// Skipped is the number of policies removed by the quality gate or the selection policy.
	Skipped int `json:"skipped"`

	NoParams       int `json:"no_params"`
	ParamsOptional int `json:"params_optional"`
	ParamsRequired int `json:"params_required"`

	// Malformed is the number of documents that failed normalization.
	Malformed int `json:"malformed"`
}

// ServiceListing groups the eligible policies of one service.
type ServiceListing struct {
	Service  string          `json:"service"`
	Policies []PolicyListing `json:"policies"`
}

// PolicyListing is one row of a listing.
type PolicyListing struct {
	DisplayName       string      `json:"display_name"`
	ShortID           string      `json:"short_id"`
	Category          string      `json:"category,omitempty"`
	Cardinality       Cardinality `json:"cardinality"`
	AllowedEffects    []string    `json:"allowed_effects"`
	ModifiesResources bool        `json:"modifies_resources"`
	AuditOnly         bool        `json:"audit_only"`
	Parameters        []string    `json:"parameters,omitempty"`
	Link              string      `json:"link,omitempty"`
}
