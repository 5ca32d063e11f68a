package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/crp/internal/compare"
	"github.com/rgehrsitz/crp/internal/transform"
	"github.com/spf13/cobra"
)

func compareCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [input-file]",
		Short: "Compare climate scenarios against a base scenario",
		Long: `Compare a base scenario against stress templates and other scenarios in the
input file. Every scenario is priced against the same reference, so premium
differences are directly comparable.

Examples:
  crp compare plant.yaml --base stated_policies --with carbon_x2,retire_10yr
  crp compare plant.yaml --base no_policy --alternatives net_zero,hot_house --format csv
  crp compare --list-templates`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list, _ := cmd.Flags().GetBool("list-templates"); list {
				codYear, _ := cmd.Flags().GetInt("cod-year")
				fmt.Fprint(cmd.OutOrStdout(), transform.GetTemplateHelp(transform.CreateBuiltInTemplates(codYear)))
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("input file required for comparison (use --list-templates to see available templates)")
			}

			input, err := a.load(args[0])
			if err != nil {
				return err
			}

			baseName, _ := cmd.Flags().GetString("base")
			if baseName == "" {
				baseName = input.Options.BaselineScenario
			}
			if baseName == "" {
				return fmt.Errorf("--base flag is required when the input sets no baseline_scenario")
			}
			templatesStr, _ := cmd.Flags().GetString("with")
			alternatives, _ := cmd.Flags().GetStringSlice("alternatives")
			templates := transform.ParseTemplateList(templatesStr)
			if len(templates) == 0 && len(alternatives) == 0 {
				return fmt.Errorf("nothing to compare: pass --with templates and/or --alternatives scenarios")
			}

			engine := compare.NewCompareEngine(a.engine(input))
			compSet, err := engine.Compare(cmd.Context(), input.Plant, input.Scenarios, compare.CompareOptions{
				BaseScenarioName: baseName,
				Templates:        templates,
				Alternatives:     alternatives,
			})
			if err != nil {
				return fmt.Errorf("comparison failed: %w", err)
			}
			compSet.ConfigPath = args[0]

			format, _ := cmd.Flags().GetString("format")
			var out string
			switch strings.ToLower(format) {
			case "csv":
				out, err = (&compare.CSVFormatter{}).Format(compSet)
			case "json":
				out, err = (&compare.JSONFormatter{Pretty: true}).Format(compSet)
			case "compact":
				out = (&compare.TableFormatter{}).FormatCompact(compSet) + "\n"
			case "table", "console", "":
				out = (&compare.TableFormatter{}).Format(compSet)
			default:
				return fmt.Errorf("unknown output format: %s (valid: table, compact, csv, json)", format)
			}
			if err != nil {
				return fmt.Errorf("failed to format comparison: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().String("base", "", "Base scenario name (defaults to options.baseline_scenario)")
	cmd.Flags().String("with", "", "Comma-separated list of templates to apply to the base")
	cmd.Flags().StringSlice("alternatives", nil, "Other scenarios from the input file to compare")
	cmd.Flags().StringP("format", "f", "table", "Output format (table, compact, csv, json)")
	cmd.Flags().Bool("list-templates", false, "List all available scenario templates")
	cmd.Flags().Int("cod-year", 2025, "COD year used to resolve retirement templates in --list-templates")
	return cmd
}
