package output

import (
	"io"

	"github.com/ancients-collective/guardrail/internal/types"
)

// JSONLFormatter writes a policy listing as newline-delimited JSON.
// The first line is a header with filters and summary. Each following
// line is one eligible policy tagged with its service.
type JSONLFormatter struct{}

// Write renders the listing as JSONL: header line + one line per policy.
func (f *JSONLFormatter) Write(w io.Writer, report *types.CatalogReport) error {
	enc := newEncoder(w, false)

	header := struct {
		Type      string              `json:"type"`
		Version   string              `json:"version"`
		Timestamp string              `json:"timestamp"`
		Filters   types.ReportFilters `json:"filters"`
		Summary   types.ReportSummary `json:"summary"`
	}{
		Type:      "header",
		Version:   report.Version,
		Timestamp: report.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		Filters:   report.Filters,
		Summary:   report.Summary,
	}
	if err := enc.Encode(header); err != nil {
		return err
	}

	for _, svc := range report.Services {
		for _, p := range svc.Policies {
			line := struct {
				Type    string              `json:"type"`
				Service string              `json:"service"`
				Policy  types.PolicyListing `json:"policy"`
			}{
				Type:    "policy",
				Service: svc.Service,
				Policy:  p,
			}
			if err := enc.Encode(line); err != nil {
				return err
			}
		}
	}
	return nil
}
