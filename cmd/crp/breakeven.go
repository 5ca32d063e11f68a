package main

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/crp/internal/breakeven"
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// goalAliases lets the CLI accept short goal names.
var goalAliases = map[string]breakeven.Goal{
	"investment_grade": breakeven.GoalLoseInvestmentGrade,
	"ig":               breakeven.GoalLoseInvestmentGrade,
	"crp":              breakeven.GoalTargetCRP,
	"floor":            breakeven.GoalRatingFloor,
	"npv":              breakeven.GoalZeroNPV,
}

func parseGoal(s string) breakeven.Goal {
	s = strings.ToLower(strings.TrimSpace(s))
	if g, ok := goalAliases[s]; ok {
		return g
	}
	return breakeven.Goal(s)
}

func breakEvenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "break-even [input-file]",
		Short: "Find the stress level at which a scenario crosses a credit or premium threshold",
		Long: `Search one stress input (or all of them) for the least severe value at which the
scenario loses investment grade, falls below a rating floor, reaches a target
premium, or turns equity NPV negative.

Examples:
  crp break-even plant.yaml --scenario stated_policies --target carbon_scale
  crp break-even plant.yaml --scenario no_policy --target flat_carbon_price --goal crp --crp-bps 100
  crp break-even plant.yaml --scenario net_zero --target all --goal floor --rating-floor BB`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := a.load(args[0])
			if err != nil {
				return err
			}
			base, err := baseScenario(cmd, input)
			if err != nil {
				return err
			}

			goalStr, _ := cmd.Flags().GetString("goal")
			goal := parseGoal(goalStr)
			constraints, err := breakEvenConstraints(cmd)
			if err != nil {
				return err
			}

			iterations, _ := cmd.Flags().GetInt("max-iterations")
			options := breakeven.DefaultSolverOptions()
			if iterations > 0 {
				options.MaxIterations = iterations
			}
			solver := breakeven.NewSolver(a.engine(input), options)

			format, _ := cmd.Flags().GetString("format")
			asJSON := strings.EqualFold(format, "json")
			target, _ := cmd.Flags().GetString("target")

			var out string
			if strings.EqualFold(target, "all") {
				multi, err := solver.SolveAllTargets(cmd.Context(), input.Plant, base, goal, constraints)
				if err != nil {
					return fmt.Errorf("break-even analysis failed: %w", err)
				}
				if asJSON {
					out, err = (&breakeven.JSONFormatter{Pretty: true}).FormatMultiTarget(multi)
					if err != nil {
						return err
					}
				} else {
					out = (&breakeven.TableFormatter{}).FormatMultiTarget(multi)
				}
			} else {
				result, err := solver.Solve(cmd.Context(), breakeven.Request{
					Plant:       input.Plant,
					Base:        base,
					Target:      breakeven.SearchTarget(target),
					Goal:        goal,
					Constraints: constraints,
				})
				if err != nil {
					return fmt.Errorf("break-even analysis failed: %w", err)
				}
				if asJSON {
					out, err = (&breakeven.JSONFormatter{Pretty: true}).Format(result)
					if err != nil {
						return err
					}
				} else {
					out = (&breakeven.TableFormatter{}).Format(result)
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	targets := make([]string, 0, len(breakeven.AllTargets()))
	for _, t := range breakeven.AllTargets() {
		targets = append(targets, string(t))
	}
	cmd.Flags().StringP("scenario", "s", "", "Scenario to stress (defaults to options.baseline_scenario, then the first scenario)")
	cmd.Flags().String("target", string(breakeven.TargetCarbonScale), fmt.Sprintf("Stress input to search (%s, all)", strings.Join(targets, ", ")))
	cmd.Flags().String("goal", string(breakeven.GoalLoseInvestmentGrade), "Threshold to locate (investment_grade, crp, floor, npv)")
	cmd.Flags().Float64("crp-bps", 0, "Premium threshold in bps for the crp goal")
	cmd.Flags().String("rating-floor", "", "Worst acceptable rating for the floor goal, e.g. BB")
	cmd.Flags().String("min", "", "Lower search bound (target units)")
	cmd.Flags().String("max", "", "Upper search bound (target units)")
	cmd.Flags().Int("max-iterations", 0, "Maximum bisection steps (0 uses the default)")
	cmd.Flags().StringP("format", "f", "table", "Output format (table, json)")
	return cmd
}

func breakEvenConstraints(cmd *cobra.Command) (breakeven.Constraints, error) {
	var c breakeven.Constraints

	if bps, _ := cmd.Flags().GetFloat64("crp-bps"); bps != 0 {
		v := decimal.NewFromFloat(bps)
		c.TargetCRPBps = &v
	}
	if floor, _ := cmd.Flags().GetString("rating-floor"); floor != "" {
		r, err := domain.ParseRating(floor)
		if err != nil {
			return c, err
		}
		c.RatingFloor = r
	}
	for _, bound := range []struct {
		flag string
		dst  **decimal.Decimal
	}{
		{"min", &c.Min},
		{"max", &c.Max},
	} {
		raw, _ := cmd.Flags().GetString(bound.flag)
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return c, fmt.Errorf("invalid --%s: %w", bound.flag, err)
		}
		*bound.dst = &v
	}
	return c, nil
}
