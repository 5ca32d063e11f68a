package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rgehrsitz/crp/internal/calculation"
	"github.com/rgehrsitz/crp/internal/config"
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/rgehrsitz/crp/internal/output"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func sensitivityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensitivity [input-file]",
		Short: "Sweep stress parameters and report how the premium responds",
		Long: `Perform sensitivity analysis to see how the rating and climate risk premium of
a scenario respond to changes in carbon price, hazard intensity, dispatch, and
market prices.

Examples:
  # Single parameter with its default range
  crp sensitivity plant.yaml --scenario net_zero --parameter carbon_price_scale

  # Explicit sweep points
  crp sensitivity plant.yaml --scenario net_zero --parameter carbon_price_scale --values 0.5,1,1.5

  # Custom range (name:min-max:steps) for several parameters
  crp sensitivity plant.yaml --parameter carbon_price_scale:0.5-2:4 --parameter hazard_scale:0-3:4

  # Two-parameter matrix
  crp sensitivity plant.yaml --parameter carbon_price_scale --parameter dispatch_penalty --analysis-type matrix

  # Every common parameter
  crp sensitivity plant.yaml --parameter-set common`,
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
			parameters, err := sensitivityParameters(cmd, input.Plant)
			if err != nil {
				return err
			}

			analyzer := calculation.NewSensitivityAnalyzer(a.engine(input))
			analysisType, _ := cmd.Flags().GetString("analysis-type")

			var analysis interface{}
			switch {
			case analysisType == "matrix":
				if len(parameters) != 2 {
					return fmt.Errorf("matrix analysis needs exactly two parameters, got %d", len(parameters))
				}
				analysis, err = analyzer.AnalyzeParameterMatrix(cmd.Context(), input.Plant, base, parameters[0], parameters[1])
			case len(parameters) == 1:
				analysis, err = analyzer.AnalyzeSingleParameter(cmd.Context(), input.Plant, base, parameters[0])
			default:
				analysis, err = analyzer.AnalyzeMultipleParameters(cmd.Context(), input.Plant, base, parameters)
			}
			if err != nil {
				return fmt.Errorf("sensitivity analysis failed: %w", err)
			}

			format, _ := cmd.Flags().GetString("format")
			out, err := output.NewSensitivityFormatter(format).FormatSensitivityAnalysis(analysis)
			if err != nil {
				return fmt.Errorf("failed to format output: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringP("scenario", "s", "", "Scenario to stress (defaults to options.baseline_scenario, then the first scenario)")
	cmd.Flags().StringArray("parameter", nil, "Parameter to sweep: name or name:min-max:steps (repeatable)")
	cmd.Flags().String("values", "", "Comma-separated, evenly spaced sweep points for a single --parameter")
	cmd.Flags().String("parameter-set", "", "Use a predefined parameter set (common, transition, physical)")
	cmd.Flags().String("analysis-type", "auto", "Analysis type (auto, matrix)")
	cmd.Flags().StringP("format", "f", "console", "Output format (console, csv, json)")
	return cmd
}

// baseScenario resolves --scenario, then the configured baseline, then the first scenario.
func baseScenario(cmd *cobra.Command, input *config.AnalysisInput) (*domain.ScenarioBundle, error) {
	name, _ := cmd.Flags().GetString("scenario")
	if name == "" {
		name = input.Options.BaselineScenario
	}
	if name == "" {
		name = input.Scenarios[0].Name
	}
	bundle, ok := input.Scenario(name)
	if !ok {
		return nil, fmt.Errorf("scenario %s not found (available: %s)", name, strings.Join(input.ScenarioNames(), ", "))
	}
	return bundle, nil
}

func sensitivityParameters(cmd *cobra.Command, plant domain.PlantParameters) ([]domain.SensitivityParameter, error) {
	setName, _ := cmd.Flags().GetString("parameter-set")
	specs, _ := cmd.Flags().GetStringArray("parameter")
	valuesStr, _ := cmd.Flags().GetString("values")

	if setName != "" {
		if len(specs) > 0 {
			return nil, fmt.Errorf("--parameter-set and --parameter are mutually exclusive")
		}
		return predefinedParameterSet(setName)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("must specify either --parameter or --parameter-set")
	}

	parameters := make([]domain.SensitivityParameter, 0, len(specs))
	for _, spec := range specs {
		param, err := parseParameterString(spec, plant)
		if err != nil {
			return nil, fmt.Errorf("error parsing parameter %q: %w", spec, err)
		}
		parameters = append(parameters, param)
	}

	if valuesStr != "" {
		if len(parameters) != 1 {
			return nil, fmt.Errorf("--values applies to a single --parameter, got %d", len(parameters))
		}
		if err := applyValues(&parameters[0], valuesStr); err != nil {
			return nil, err
		}
	}
	return parameters, nil
}

func predefinedParameterSet(setName string) ([]domain.SensitivityParameter, error) {
	switch setName {
	case "common":
		return domain.GetCommonParameters(), nil
	case "transition":
		return []domain.SensitivityParameter{domain.CarbonPriceScaleParam, domain.DispatchPenaltyParam}, nil
	case "physical":
		return []domain.SensitivityParameter{domain.HazardScaleParam}, nil
	default:
		return nil, fmt.Errorf("unknown parameter set: %s (valid: common, transition, physical)", setName)
	}
}

// parseParameterString accepts "name" or "name:min-max:steps".
func parseParameterString(spec string, plant domain.PlantParameters) (domain.SensitivityParameter, error) {
	parts := strings.Split(spec, ":")
	name := strings.TrimSpace(parts[0])

	param, err := lookupParameter(name, plant)
	if err != nil {
		return domain.SensitivityParameter{}, err
	}
	if len(parts) == 1 {
		return param, nil
	}
	if len(parts) != 3 {
		return domain.SensitivityParameter{}, fmt.Errorf("invalid parameter format: %s (expected name or name:min-max:steps)", spec)
	}

	minValue, maxValue, err := parseRange(parts[1])
	if err != nil {
		return domain.SensitivityParameter{}, err
	}
	steps, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || steps < 1 {
		return domain.SensitivityParameter{}, fmt.Errorf("invalid steps value: %s", parts[2])
	}

	param.MinValue = minValue
	param.MaxValue = maxValue
	param.Steps = steps
	return param, nil
}

// lookupParameter returns the common definition of name. Retirement year has no
// plant-independent default, so its range spans the plant's operating life.
func lookupParameter(name string, plant domain.PlantParameters) (domain.SensitivityParameter, error) {
	if name == domain.ParamRetirementYear {
		end := decimal.NewFromInt(int64(plant.CODYear + plant.DesignLifeYears))
		return domain.SensitivityParameter{
			Name:        name,
			MinValue:    decimal.NewFromInt(int64(plant.CODYear + 5)),
			MaxValue:    end,
			Steps:       6,
			BaseValue:   end,
			Unit:        "year",
			Description: "Policy-mandated retirement year",
		}, nil
	}
	return domain.LookupCommonParameter(name)
}

func parseRange(rangeStr string) (decimal.Decimal, decimal.Decimal, error) {
	minMax := strings.Split(rangeStr, "-")
	if len(minMax) != 2 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid range format: %s (expected min-max)", rangeStr)
	}
	minValue, err := decimal.NewFromString(strings.TrimSpace(minMax[0]))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid min value: %w", err)
	}
	maxValue, err := decimal.NewFromString(strings.TrimSpace(minMax[1]))
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("invalid max value: %w", err)
	}
	if minValue.GreaterThan(maxValue) {
		return decimal.Zero, decimal.Zero, fmt.Errorf("min %s exceeds max %s", minValue, maxValue)
	}
	return minValue, maxValue, nil
}

// applyValues turns an explicit list of sweep points into a range. Sweeps are
// generated on an even grid, so the points must be ascending and evenly spaced.
func applyValues(param *domain.SensitivityParameter, valuesStr string) error {
	raw := strings.Split(valuesStr, ",")
	values := make([]decimal.Decimal, 0, len(raw))
	for _, r := range raw {
		v, err := decimal.NewFromString(strings.TrimSpace(r))
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", r, err)
		}
		values = append(values, v)
	}
	if len(values) == 1 {
		param.MinValue, param.MaxValue, param.BaseValue = values[0], values[0], values[0]
		param.Steps = 1
		return nil
	}

	step := values[1].Sub(values[0])
	if !step.IsPositive() {
		return fmt.Errorf("--values must be ascending")
	}
	for i := 2; i < len(values); i++ {
		if !values[i].Sub(values[i-1]).Equal(step) {
			return fmt.Errorf("--values must be evenly spaced, got step %s then %s", step, values[i].Sub(values[i-1]))
		}
	}
	param.MinValue = values[0]
	param.MaxValue = values[len(values)-1]
	param.Steps = len(values)
	return nil
}
