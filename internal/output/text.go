package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/ancients-collective/guardrail/internal/types"
)

// ─── Layout constants ────────────────────────────────────────────────
//
// Every policy line follows a fixed column grid:
//
//     col 0    4   6       14      16                          maxLine
//     │margin│ I │ BADGE   │2sp│ DISPLAY NAME ...          EFFECTS │
//
// Detail blocks start at colDetail and use labelWidth-padded labels
// so every value begins at colValue.
//
const (
	colMargin  = 4   // left margin for policy and detail lines
	colDetail  = 16  // column where detail-block lines start
	labelWidth = 9   // fixed label field: "Params:  " / "Link:    "
	colValue   = 25  // colDetail + labelWidth
	badgeWidth = 6   // visible width of a badge, e.g. "[REQ] "
	maxLine    = 110 // hard wrap cap, even on ultra-wide terminals
	ruleWidth  = 64  // width of horizontal divider rules
)

// TextFormatter writes a colored, human-readable policy listing.
type TextFormatter struct {
	Details bool // show parameters, short id and upstream link per policy
	Width   int  // terminal width for wrapping; 0 = unknown
	Dumb    bool // TERM=dumb, use single-char ASCII icons
}

// Color helpers, each returns a sprint function.
var (
	cBold   = color.New(color.Bold).SprintFunc()
	cGreen  = color.New(color.FgGreen).SprintFunc()
	cYellow = color.New(color.FgYellow).SprintFunc()
	cCyan   = color.New(color.FgCyan).SprintFunc()
	cDim    = color.New(color.Faint).SprintFunc()

	cRedBold    = color.New(color.FgRed, color.Bold).SprintFunc()
	cYellowBold = color.New(color.FgYellow, color.Bold).SprintFunc()
	cGreenBold  = color.New(color.FgGreen, color.Bold).SprintFunc()
)

// IsDumbTerm returns true when the terminal doesn't support Unicode.
func IsDumbTerm() bool {
	t := os.Getenv("TERM")
	return t == "dumb" || t == ""
}

// wrapWidth returns the effective line width: min(terminal, maxLine).
func (f *TextFormatter) wrapWidth() int {
	if f.Width > 0 && f.Width < maxLine {
		return f.Width
	}
	return maxLine
}

// ─── Public entry point ──────────────────────────────────────────────

// Write renders the full text listing.
func (f *TextFormatter) Write(w io.Writer, report *types.CatalogReport) error {
	f.writeHeader(w, report)
	f.writeLoading(w, report)
	f.writeServices(w, report)
	f.writeSummary(w, report)
	f.writeHints(w, report)
	fmt.Fprintln(w)
	return nil
}

// ─── Header ──────────────────────────────────────────────────────────

func (f *TextFormatter) writeHeader(w io.Writer, r *types.CatalogReport) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s  v%s\n", cBold("guardrail"), r.Version)
	fmt.Fprintf(w, "  %s %s\n", cDim("Listed:"), r.Timestamp.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintln(w)
}

// ─── Loading ─────────────────────────────────────────────────────────

func (f *TextFormatter) writeLoading(w io.Writer, r *types.CatalogReport) {
	line := fmt.Sprintf("Loaded %d policies", r.Summary.TotalPolicies)
	if r.Summary.Malformed > 0 {
		line += fmt.Sprintf(" (%d malformed document(s) ignored)", r.Summary.Malformed)
	}
	fmt.Fprintf(w, "  %s %s\n", cBold(f.icon("section")), line)

	if filters := describeFilters(r.Filters); len(filters) > 0 {
		fmt.Fprintf(w, "    Filters: %s\n", f.wrap(strings.Join(filters, " · "), 13, 13))
	}
	fmt.Fprintln(w)
}

func describeFilters(fl types.ReportFilters) []string {
	var out []string
	if fl.Service != "" {
		out = append(out, "service="+fl.Service)
	}
	if fl.Parameters != "" {
		out = append(out, "params="+fl.Parameters)
	}
	if len(fl.MatchOnlyKeywords) > 0 {
		out = append(out, "match_only="+strings.Join(fl.MatchOnlyKeywords, ","))
	}
	if len(fl.ExcludeKeywords) > 0 {
		out = append(out, "exclude_keywords="+strings.Join(fl.ExcludeKeywords, ","))
	}
	if len(fl.ExcludeServices) > 0 {
		out = append(out, "exclude_services="+strings.Join(fl.ExcludeServices, ","))
	}
	if n := len(fl.ExcludePolicies); n > 0 {
		total := 0
		for _, names := range fl.ExcludePolicies {
			total += len(names)
		}
		out = append(out, fmt.Sprintf("exclude_policies=%d in %d service(s)", total, n))
	}
	return out
}

// ─── Services ────────────────────────────────────────────────────────

func (f *TextFormatter) writeServices(w io.Writer, r *types.CatalogReport) {
	fmt.Fprintf(w, "  %s\n", cBold(f.icon("section")+" Policies"))

	if len(r.Services) == 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s(no policies match the current filters)\n", colPad(colMargin))
		fmt.Fprintln(w)
		return
	}

	for _, svc := range r.Services {
		f.writeServiceHeader(w, svc.Service, len(svc.Policies))
		for _, p := range svc.Policies {
			f.writePolicyLine(w, p)
			if f.Details {
				f.writeDetailBlock(w, p)
			}
		}
		fmt.Fprintln(w)
	}
}

func (f *TextFormatter) writeServiceHeader(w io.Writer, service string, count int) {
	label := strings.ToUpper(service)
	tally := fmt.Sprintf("(%d)", count)
	fill := ruleWidth - 5 - len(label) - len(tally)
	if fill < 1 {
		fill = 1
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s%s %s %s %s\n", colPad(colMargin), cDim("──"), cBold(label), cDim(tally), cDim(strings.Repeat("─", fill)))
	fmt.Fprintln(w)
}

// writePolicyLine renders: margin icon badge  name ... effects.
func (f *TextFormatter) writePolicyLine(w io.Writer, p types.PolicyListing) {
	effects := strings.Join(p.AllowedEffects, ",")
	if effects == "" {
		effects = "-"
	}
	ww := f.wrapWidth()
	nameCol := colMargin + 2 + badgeWidth + 1
	pad := ww - nameCol - len(p.DisplayName) - len(effects)
	name := p.DisplayName
	if pad < 2 {
		pad = 2
	}

	fmt.Fprintf(w, "%s%s %s %s%s%s\n",
		colPad(colMargin),
		f.policyIcon(p),
		f.cardinalityBadge(p.Cardinality),
		name,
		strings.Repeat(" ", pad),
		cDim(effects),
	)
}

func (f *TextFormatter) writeDetailBlock(w io.Writer, p types.PolicyListing) {
	prefix := colPad(colDetail)
	f.writeLabel(w, prefix, "ID:", cDim, p.ShortID)
	if len(p.Parameters) > 0 {
		f.writeLabel(w, prefix, "Params:", cCyan, strings.Join(sortedCopy(p.Parameters), ", "))
	}
	if p.ModifiesResources {
		f.writeLabel(w, prefix, "Note:", cYellowBold, "can modify or deploy resources")
	}
	if p.Link != "" {
		f.writeLabel(w, prefix, "Link:", cDim, p.Link)
	}
}

// writeLabel emits one detail line: prefix, colored label padded to labelWidth, wrapped value.
func (f *TextFormatter) writeLabel(w io.Writer, prefix, label string, colorFn func(a ...interface{}) string, value string) {
	colored := colorFn(fmt.Sprintf("%-*s", labelWidth, label))
	fmt.Fprintf(w, "%s%s%s\n", prefix, colored, f.wrap(value, colValue, colValue))
}

func (f *TextFormatter) policyIcon(p types.PolicyListing) string {
	switch {
	case p.ModifiesResources:
		return cYellow(f.icon("modify"))
	case p.AuditOnly:
		return cGreen(f.icon("audit"))
	default:
		return cDim(f.icon("other"))
	}
}

func (f *TextFormatter) cardinalityBadge(c types.Cardinality) string {
	switch c {
	case types.NoParams:
		return cGreenBold("[NONE]")
	case types.ParamsOptional:
		return cYellowBold("[OPT] ")
	case types.ParamsRequired:
		return cRedBold("[REQ] ")
	default:
		return "[?]   "
	}
}

// ─── Summary ─────────────────────────────────────────────────────────

func (f *TextFormatter) writeSummary(w io.Writer, r *types.CatalogReport) {
	rule := cDim(strings.Repeat("─", ruleWidth))
	fmt.Fprintf(w, "  %s\n", rule)

	s := r.Summary
	eligible := cGreenBold(fmt.Sprintf("%d eligible", s.Eligible))
	skipped := cDim(fmt.Sprintf("%d skipped", s.Skipped))
	extra := ""
	if s.Malformed > 0 {
		extra = " · " + cRedBold(fmt.Sprintf("%d malformed", s.Malformed))
	}
	fmt.Fprintf(w, "  %s  %s · %s%s\n", cBold("Summary:"), eligible, skipped, extra)
	fmt.Fprintf(w, "  %s  %d none · %d optional · %d required\n",
		cDim("Parameters:"), s.NoParams, s.ParamsOptional, s.ParamsRequired)
	fmt.Fprintf(w, "  %s\n", rule)
}

// ─── Hints ───────────────────────────────────────────────────────────

func (f *TextFormatter) writeHints(w io.Writer, r *types.CatalogReport) {
	var hints []string
	if r.Summary.Eligible > 0 && !f.Details {
		hints = append(hints, "Run with --details for parameters and upstream links")
	}
	if r.Summary.Skipped > 0 {
		hints = append(hints, "Run with --debug to see why policies were skipped")
	}
	if r.Summary.Malformed > 0 {
		hints = append(hints, "Run guardrail validate to list malformed documents")
	}
	if len(hints) == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, h := range hints {
		fmt.Fprintf(w, "  %s %s\n", cDim("›"), cDim(h))
	}
}

// ─── Text wrapping ───────────────────────────────────────────────────

func (f *TextFormatter) wrap(text string, startCol, wrapCol int) string {
	w := f.wrapWidth()
	if startCol+len(text) <= w {
		return text
	}

	avail := w - startCol
	if avail < 20 {
		return text
	}

	wrapPad := strings.Repeat(" ", wrapCol)
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		if i == 0 {
			b.WriteString(word)
			lineLen = len(word)
			continue
		}
		if lineLen+1+len(word) > avail {
			b.WriteByte('\n')
			b.WriteString(wrapPad)
			b.WriteString(word)
			lineLen = len(word)
			avail = w - wrapCol
		} else {
			b.WriteByte(' ')
			b.WriteString(word)
			lineLen += 1 + len(word)
		}
	}
	return b.String()
}

// ─── Icons ───────────────────────────────────────────────────────────

func (f *TextFormatter) icon(name string) string {
	if f.Dumb {
		switch name {
		case "audit":
			return "+"
		case "modify":
			return "!"
		case "other":
			return "-"
		case "section":
			return ">"
		default:
			return "?"
		}
	}
	switch name {
	case "audit":
		return "✓"
	case "modify":
		return "⚠"
	case "other":
		return "○"
	case "section":
		return "▸"
	default:
		return "?"
	}
}

func colPad(n int) string {
	return strings.Repeat(" ", n)
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
