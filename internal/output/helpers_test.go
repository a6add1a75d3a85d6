package output

import (
	"time"

	"github.com/ancients-collective/guardrail/internal/types"
)

// testTimestamp is a fixed time for deterministic test output.
var testTimestamp = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

// newTestReport builds a representative CatalogReport for testing.
func newTestReport() *types.CatalogReport {
	return &types.CatalogReport{
		Version:   "1.0.0",
		Timestamp: testTimestamp,
		Filters: types.ReportFilters{
			ExcludeKeywords: []string{"preview"},
			ExcludePolicies: map[string][]string{"Storage": {"Storage accounts should use private link"}},
		},
		Summary: types.ReportSummary{
			TotalPolicies:  6,
			Eligible:       4,
			Skipped:        2,
			NoParams:       1,
			ParamsOptional: 2,
			ParamsRequired: 1,
			Malformed:      1,
		},
		Services: []types.ServiceListing{
			{
				Service: "Compute",
				Policies: []types.PolicyListing{
					{
						DisplayName:    "Allowed virtual machine size SKUs",
						ShortID:        "cccf280f-c08d-4b36-a6cb-1f8a6a7c1d58",
						Category:       "Compute",
						Cardinality:    types.ParamsRequired,
						AllowedEffects: []string{"deny"},
						Parameters:     []string{"listOfAllowedSKUs"},
						Link:           "https://example.test/Compute/VMSkusAllowed_Deny.json",
					},
					{
						DisplayName:    "Audit virtual machines without disaster recovery configured",
						ShortID:        "0015ea4d-51ff-4ce3-8d8c-f3f8f0179a56",
						Category:       "Compute",
						Cardinality:    types.NoParams,
						AllowedEffects: []string{"auditifnotexists"},
						AuditOnly:      true,
					},
				},
			},
			{
				Service: "Storage",
				Policies: []types.PolicyListing{
					{
						DisplayName:       "Configure storage accounts to disable public network access",
						ShortID:           "a06d0189-92e8-4dba-b0c4-08d7669fce7d",
						Category:          "Storage",
						Cardinality:       types.ParamsOptional,
						AllowedEffects:    []string{"modify", "disabled"},
						ModifiesResources: true,
						Parameters:        []string{"effect"},
					},
					{
						DisplayName:    "Secure transfer to storage accounts should be enabled",
						ShortID:        "404c3081-a854-4457-ae30-26a93ef643f9",
						Category:       "Storage",
						Cardinality:    types.ParamsOptional,
						AllowedEffects: []string{"audit", "deny", "disabled"},
						Parameters:     []string{"effect"},
					},
				},
			},
		},
	}
}

// newEmptyReport builds a listing where every policy was filtered out.
func newEmptyReport() *types.CatalogReport {
	return &types.CatalogReport{
		Version:   "1.0.0",
		Timestamp: testTimestamp,
		Filters:   types.ReportFilters{Service: "Compute", Parameters: "params_required"},
		Summary:   types.ReportSummary{TotalPolicies: 3, Skipped: 3},
		Services:  []types.ServiceListing{},
	}
}
