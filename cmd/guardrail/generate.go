package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ancients-collective/guardrail/internal/initiative"
	"github.com/ancients-collective/guardrail/internal/output"
	"github.com/ancients-collective/guardrail/internal/params"
	"github.com/ancients-collective/guardrail/internal/types"
)

type generateFlags struct {
	subscription    string
	managementGroup string
	valuesFile      string
	params          string
	service         string
	enforce         bool
	category        string
	outputFile      string
	compare         string
}

func newGenerateCmd(a *app) *cobra.Command {
	f := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Assemble an initiative document for one parameter class",
		Example: `  guardrail generate --subscription prod-sub
  guardrail generate --management-group platform --params required --values values.yaml
  guardrail generate --subscription prod-sub --enforce -o initiative.json --compare initiative.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.subscription, "subscription", "", "Target subscription name")
	fl.StringVar(&f.managementGroup, "management-group", "", "Target management group name")
	fl.StringVar(&f.valuesFile, "values", "", "Parameter values file (YAML)")
	fl.StringVar(&f.params, "params", "none", "Parameter class: none, optional, required")
	fl.StringVarP(&f.service, "service", "s", "", "Limit the initiative to a single service")
	fl.BoolVar(&f.enforce, "enforce", false, "Assign in enforcement mode instead of audit")
	fl.StringVar(&f.category, "category", initiative.DefaultCategory, "Initiative category metadata")
	fl.StringVarP(&f.outputFile, "output", "o", "", "Write the document to file (default: stdout)")
	fl.StringVar(&f.compare, "compare", "", "Report changes against a previously generated document")
	cmd.MarkFlagsMutuallyExclusive("subscription", "management-group")
	cmd.MarkFlagsOneRequired("subscription", "management-group")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, f *generateFlags) error {
	card, err := parseParamsFlag(f.params)
	if err != nil {
		return err
	}
	if card == nil {
		return fmt.Errorf("generate needs a single parameter class (--params none, optional, or required)")
	}

	var previous []byte
	if f.compare != "" {
		// Read up front: --compare and --output may name the same file.
		previous, err = os.ReadFile(f.compare)
		if err != nil {
			return fmt.Errorf("failed to read --compare document: %w", err)
		}
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

	values := params.Values{}
	if f.valuesFile != "" {
		values, err = params.Load(f.valuesFile)
		if err != nil {
			return err
		}
	}
	resolver := params.NewResolver(cat, values, params.WithLogger(a.log))

	selected := cat.Select(*card, policy)
	if f.service != "" {
		selected = map[string]map[string]types.PolicyRef{f.service: selected[f.service]}
		if selected[f.service] == nil {
			delete(selected, f.service)
		}
	}
	a.reportMissing(resolver, selected)

	doc, err := initiative.Assemble(initiative.Request{
		Subscription:     f.subscription,
		ManagementGroup:  f.managementGroup,
		RequirementLabel: card.RequirementLabel(),
		Enforce:          f.enforce,
		Category:         f.category,
		Policies:         selected,
	}, resolver,
		initiative.WithLogger(a.log),
		initiative.WithKnownServices(cat.ServiceNames()),
	)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := output.WriteDocument(&buf, doc); err != nil {
		return err
	}

	if previous != nil {
		if _, err := output.WriteDiff(a.stderr, previous, buf.Bytes()); err != nil {
			return err
		}
	}

	if err := a.writeTo(f.outputFile, buf.Bytes()); err != nil {
		return err
	}
	if f.outputFile != "" {
		fmt.Fprintf(a.stderr, "  ✓ %s: %d policies in %d service(s), written to %s\n",
			doc.Name, countPolicies(selected), len(selected), f.outputFile)
	}
	return nil
}

// reportMissing warns about required parameters that have no value.
func (a *app) reportMissing(resolver *params.Resolver, selected map[string]map[string]types.PolicyRef) {
	services := make([]string, 0, len(selected))
	for svc := range selected {
		services = append(services, svc)
	}
	sort.Strings(services)

	for _, svc := range services {
		displays := make([]string, 0, len(selected[svc]))
		for _, ref := range selected[svc] {
			displays = append(displays, ref.DisplayName)
		}
		sort.Strings(displays)
		for _, display := range displays {
			if missing := resolver.Missing(svc, display); len(missing) > 0 {
				a.log.Warn("required parameters have no value",
					"service", svc,
					"policy", display,
					"parameters", missing)
			}
		}
	}
}

func countPolicies(selected map[string]map[string]types.PolicyRef) int {
	n := 0
	for _, refs := range selected {
		n += len(refs)
	}
	return n
}
