package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ancients-collective/guardrail/internal/loader"
	"github.com/ancients-collective/guardrail/internal/params"
	"github.com/ancients-collective/guardrail/internal/types"
)

type validateFlags struct {
	valuesFile string
	verify     bool
}

func newValidateCmd(a *app) *cobra.Command {
	f := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check policy documents, the selection config and parameter values",
		Long: `validate loads every policy document and reports the ones that cannot be
normalized. With --config it also checks the selection config against the
loaded services, and with --values it lists required parameters that have
no value.

Exit codes: 0 everything valid, 1 invalid config or values, 2 malformed
documents were skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.valuesFile, "values", "", "Parameter values file (YAML) to check")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "Check policy directory ownership and permissions")
	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, f *validateFlags) error {
	if f.verify {
		fmt.Fprintf(a.stderr, "  ▸ Verifying policy directory: %s ...\n", a.policiesDir)
		if warnings := loader.VerifyPolicyDirectory(a.policiesDir); len(warnings) > 0 {
			for _, w := range warnings {
				fmt.Fprintf(a.stderr, "    ✗ %s\n", w)
			}
			return fmt.Errorf("policy directory failed integrity verification (%d issue(s))", len(warnings))
		}
	}

	cat, err := a.loadCatalog(cmd.Context())
	if err != nil {
		return err
	}

	policy, err := a.loadSelection(cat)
	if err != nil {
		return err
	}

	if f.valuesFile != "" {
		values, err := params.Load(f.valuesFile)
		if err != nil {
			return err
		}
		resolver := params.NewResolver(cat, values, params.WithLogger(a.log))

		missing := 0
		selected := cat.Select(types.ParamsRequired, policy)
		for _, svc := range cat.ServiceNames() {
			for _, display := range displayNames(selected[svc]) {
				names := resolver.Missing(svc, display)
				for _, name := range names {
					fmt.Fprintf(a.stderr, "    ✗ %s/%s: no value for required parameter %q\n", svc, display, name)
				}
				missing += len(names)
			}
		}
		if missing > 0 {
			return fmt.Errorf("%s: %d required parameter value(s) missing", f.valuesFile, missing)
		}
	}

	if a.partial {
		fmt.Fprintf(a.stdout, "  %d malformed document(s) skipped; %d policies in %d services are valid\n",
			cat.Malformed(), cat.Len(), len(cat.ServiceNames()))
		return nil
	}
	fmt.Fprintf(a.stdout, "  ✓ All %d policies in %d services are valid\n", cat.Len(), len(cat.ServiceNames()))
	return nil
}

func displayNames(refs map[string]types.PolicyRef) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.DisplayName)
	}
	sort.Strings(out)
	return out
}
