package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ancients-collective/guardrail/internal/catalog"
	"github.com/ancients-collective/guardrail/internal/output"
)

type listFlags struct {
	service    string
	params     string
	format     string
	details    bool
	outputFile string
}

func newListCmd(a *app) *cobra.Command {
	f := &listFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the policies eligible for an initiative",
		Example: `  guardrail list
  guardrail list --service Storage --params optional
  guardrail list --config selection.yaml --format json -o listing.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.service, "service", "s", "", "List a single service")
	cmd.Flags().StringVar(&f.params, "params", "", "Parameter class: none, optional, required (default: all)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: text, json, jsonl")
	cmd.Flags().BoolVar(&f.details, "details", false, "Show short ids, parameters and upstream links")
	cmd.Flags().StringVarP(&f.outputFile, "output", "o", "", "Write output to file (default: stdout)")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, f *listFlags) error {
	switch f.format {
	case "text", "json", "jsonl":
	default:
		return fmt.Errorf("invalid --format value %q (must be text, json, or jsonl)", f.format)
	}
	card, err := parseParamsFlag(f.params)
	if err != nil {
		return err
	}

	isDumb := output.IsDumbTerm()
	if f.format != "text" || f.outputFile != "" || isDumb {
		color.NoColor = true
	}

	cat, err := a.loadCatalog(cmd.Context())
	if err != nil {
		return err
	}
	if f.service != "" {
		if err := a.requireService(cat, f.service); err != nil {
			return err
		}
	}
	policy, err := a.loadSelection(cat)
	if err != nil {
		return err
	}

	report := cat.Report(policy, catalog.Filter{Service: f.service, Cardinality: card})
	report.Version = version
	report.Timestamp = time.Now().UTC()

	var formatter output.Formatter
	switch f.format {
	case "json":
		formatter = &output.JSONFormatter{}
	case "jsonl":
		formatter = &output.JSONLFormatter{}
	default:
		width := 0
		if f.outputFile == "" {
			width = a.terminalWidth()
		}
		formatter = &output.TextFormatter{Details: f.details, Width: width, Dumb: isDumb}
	}

	var buf bytes.Buffer
	if err := formatter.Write(&buf, report); err != nil {
		return fmt.Errorf("failed to render listing: %w", err)
	}
	if err := a.writeTo(f.outputFile, buf.Bytes()); err != nil {
		return err
	}
	if f.outputFile != "" {
		fmt.Fprintf(a.stderr, "  ✓ %d eligible · %d skipped, written to %s\n",
			report.Summary.Eligible, report.Summary.Skipped, f.outputFile)
	}
	return nil
}
