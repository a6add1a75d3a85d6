package main

import (
	"github.com/spf13/cobra"

	"github.com/ancients-collective/guardrail/internal/loader"
	"github.com/ancients-collective/guardrail/internal/params"
	"github.com/ancients-collective/guardrail/internal/types"
)

func newTemplateCmd(a *app) *cobra.Command {
	var outputFile string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write starter files for the loaded policy corpus",
	}
	cmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "Write the template to file (default: stdout)")

	cmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Write a selection config listing every service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			data, err := loader.ConfigTemplate(cat.ServiceNames())
			if err != nil {
				return err
			}
			return a.writeTo(outputFile, data)
		},
	})

	var paramsFlag string
	paramsCmd := &cobra.Command{
		Use:   "parameters",
		Short: "Write a parameter values file pre-filled with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			card, err := parseParamsFlag(paramsFlag)
			if err != nil {
				return err
			}
			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			policy, err := a.loadSelection(cat)
			if err != nil {
				return err
			}

			classes := types.Cardinalities
			if card != nil {
				classes = []types.Cardinality{*card}
			}
			selected := make(map[string]map[string]types.PolicyRef)
			for _, c := range classes {
				for svc, refs := range cat.Select(c, policy) {
					if selected[svc] == nil {
						selected[svc] = make(map[string]types.PolicyRef, len(refs))
					}
					for id, ref := range refs {
						selected[svc][id] = ref
					}
				}
			}

			data, err := params.Template(cat, selected)
			if err != nil {
				return err
			}
			return a.writeTo(outputFile, data)
		},
	}
	paramsCmd.Flags().StringVar(&paramsFlag, "params", "", "Parameter class: none, optional, required (default: all)")
	cmd.AddCommand(paramsCmd)
	return cmd
}
