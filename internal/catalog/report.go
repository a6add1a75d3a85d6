package catalog

import (
	"github.com/ancients-collective/guardrail/internal/engine"
	"github.com/ancients-collective/guardrail/internal/types"
)

// Filter narrows a listing report.
type Filter struct {
	// Service limits the listing to one service when set.
	Service string

	// Cardinality limits the listing to one class when set.
	Cardinality *types.Cardinality
}

// Report builds a listing of the eligible policies. Version and Timestamp
// are left for the caller.
func (c *Catalog) Report(policy *engine.SelectionPolicy, filter Filter) *types.CatalogReport {
	report := &types.CatalogReport{
		Services: []types.ServiceListing{},
	}
	report.Summary.Malformed = c.malformed
	report.Filters.Service = filter.Service
	if filter.Cardinality != nil {
		report.Filters.Parameters = filter.Cardinality.String()
	}
	if policy != nil {
		opts := policy.Options()
		report.Filters.MatchOnlyKeywords = opts.MatchOnlyKeywords
		report.Filters.ExcludeKeywords = opts.ExcludeKeywords
		report.Filters.ExcludeServices = opts.ExcludeServices
		report.Filters.ExcludePolicies = opts.ExcludePolicies
	}

	for _, name := range c.ServiceNames() {
		if filter.Service != "" && name != filter.Service {
			continue
		}
		svc := c.services[name]
		listing := types.ServiceListing{Service: name}

		for _, display := range svc.DisplayNames() {
			def := svc.policies[display]
			card := def.Cardinality()
			if filter.Cardinality != nil && card != *filter.Cardinality {
				continue
			}
			report.Summary.TotalPolicies++

			if skip, _ := engine.Screen(def, policy); skip {
				report.Summary.Skipped++
				continue
			}

			report.Summary.Eligible++
			switch card {
			case types.NoParams:
				report.Summary.NoParams++
			case types.ParamsOptional:
				report.Summary.ParamsOptional++
			case types.ParamsRequired:
				report.Summary.ParamsRequired++
			}

			listing.Policies = append(listing.Policies, types.PolicyListing{
				DisplayName:       def.DisplayName,
				ShortID:           def.ShortID,
				Category:          def.Category,
				Cardinality:       card,
				AllowedEffects:    def.AllowedEffects,
				ModifiesResources: def.ModifiesResources(),
				AuditOnly:         def.AuditOnly(),
				Parameters:        def.ParameterNames(),
				Link:              def.Link,
			})
		}

		if len(listing.Policies) > 0 {
			report.Services = append(report.Services, listing)
		}
	}
	return report
}
