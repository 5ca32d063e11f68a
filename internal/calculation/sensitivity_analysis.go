package calculation

import (
	"context"
	"fmt"
	"sort"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/rgehrsitz/crp/internal/transform"
	"github.com/shopspring/decimal"
)

// SensitivityAnalyzer performs parameter sweep analysis
type SensitivityAnalyzer struct {
	calculationEngine *CalculationEngine
}

// NewSensitivityAnalyzer creates a sensitivity analyzer on top of engine; nil uses
// a default engine.
func NewSensitivityAnalyzer(engine *CalculationEngine) *SensitivityAnalyzer {
	if engine == nil {
		engine = NewCalculationEngine()
	}
	return &SensitivityAnalyzer{calculationEngine: engine}
}

// AnalyzeSingleParameter sweeps one parameter and records the outcome at each point.
func (sa *SensitivityAnalyzer) AnalyzeSingleParameter(
	ctx context.Context,
	plant domain.PlantParameters,
	base *domain.ScenarioBundle,
	parameter domain.SensitivityParameter,
) (*domain.ParameterSensitivityAnalysis, error) {
	if base == nil {
		return nil, fmt.Errorf("base scenario cannot be nil")
	}

	values := parameter.Values()
	results := make([]domain.SensitivityResult, 0, len(values))
	for _, value := range values {
		result, err := sa.runPoint(ctx, plant, base, map[string]decimal.Decimal{parameter.Name: value})
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	baseIdx := closestIndex(values, parameter.BaseValue)
	fillChanges(results, results[baseIdx].KeyMetrics)

	summary := domain.SensitivitySummary{
		MostSensitiveParameter: parameter.Name,
		SensitivityScores:      map[string]decimal.Decimal{parameter.Name: maxCRPSwing(results)},
	}
	summary.RiskLevel = summary.DetermineRiskLevel()
	summary.Recommendations = summary.GenerateRecommendations()

	sa.calculationEngine.logger().Debugf("sensitivity %s on %s: %d points, risk %s",
		parameter.Name, base.Name, len(results), summary.RiskLevel)

	return &domain.ParameterSensitivityAnalysis{
		BaseScenarioName: base.Name,
		Parameters:       []domain.SensitivityParameter{parameter},
		Results:          results,
		Summary:          summary,
		AnalysisType:     "single",
	}, nil
}

// AnalyzeMultipleParameters runs independent single-parameter sweeps and ranks the
// parameters by their CRP swing.
func (sa *SensitivityAnalyzer) AnalyzeMultipleParameters(
	ctx context.Context,
	plant domain.PlantParameters,
	base *domain.ScenarioBundle,
	parameters []domain.SensitivityParameter,
) (*domain.ParameterSensitivityAnalysis, error) {
	if len(parameters) == 0 {
		return nil, fmt.Errorf("at least one parameter is required")
	}

	allResults := make([]domain.SensitivityResult, 0)
	scores := make(map[string]decimal.Decimal, len(parameters))
	maxScore := decimal.NewFromInt(-1)
	mostSensitive := ""

	for _, param := range parameters {
		analysis, err := sa.AnalyzeSingleParameter(ctx, plant, base, param)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze parameter %s: %w", param.Name, err)
		}
		allResults = append(allResults, analysis.Results...)

		score := analysis.Summary.SensitivityScores[param.Name]
		scores[param.Name] = score
		if score.GreaterThan(maxScore) {
			maxScore = score
			mostSensitive = param.Name
		}
	}

	summary := domain.SensitivitySummary{
		MostSensitiveParameter: mostSensitive,
		SensitivityScores:      scores,
	}
	summary.RiskLevel = summary.DetermineRiskLevel()
	summary.Recommendations = summary.GenerateRecommendations()

	return &domain.ParameterSensitivityAnalysis{
		BaseScenarioName: base.Name,
		Parameters:       parameters,
		Results:          allResults,
		Summary:          summary,
		AnalysisType:     "multi",
	}, nil
}

// AnalyzeParameterMatrix sweeps two parameters jointly.
func (sa *SensitivityAnalyzer) AnalyzeParameterMatrix(
	ctx context.Context,
	plant domain.PlantParameters,
	base *domain.ScenarioBundle,
	param1, param2 domain.SensitivityParameter,
) (*domain.SensitivityMatrix, error) {
	if base == nil {
		return nil, fmt.Errorf("base scenario cannot be nil")
	}
	if param1.Name == param2.Name {
		return nil, fmt.Errorf("matrix parameters must differ, got %s twice", param1.Name)
	}

	values1 := param1.Values()
	values2 := param2.Values()

	matrix := make([][]domain.SensitivityResult, len(values1))
	for i, v1 := range values1 {
		matrix[i] = make([]domain.SensitivityResult, len(values2))
		for j, v2 := range values2 {
			result, err := sa.runPoint(ctx, plant, base, map[string]decimal.Decimal{
				param1.Name: v1,
				param2.Name: v2,
			})
			if err != nil {
				return nil, err
			}
			matrix[i][j] = result
		}
	}

	bi := closestIndex(values1, param1.BaseValue)
	bj := closestIndex(values2, param2.BaseValue)
	baseMetrics := matrix[bi][bj].KeyMetrics
	for i := range matrix {
		fillChanges(matrix[i], baseMetrics)
	}

	return &domain.SensitivityMatrix{
		BaseScenarioName: base.Name,
		Parameter1:       param1,
		Parameter2:       param2,
		MatrixResults:    matrix,
		Summary:          matrixSummary(matrix, bi, bj, param1, param2),
	}, nil
}

func (sa *SensitivityAnalyzer) runPoint(
	ctx context.Context,
	plant domain.PlantParameters,
	base *domain.ScenarioBundle,
	values map[string]decimal.Decimal,
) (domain.SensitivityResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SensitivityResult{}, err
	}

	bundle := base.DeepCopy()
	name := base.Name
	for _, param := range sortedNames(values) {
		value := values[param]
		var err error
		plant, bundle, err = applyParameter(plant, bundle, param, value)
		if err != nil {
			return domain.SensitivityResult{}, fmt.Errorf("failed to apply %s=%s: %w", param, value, err)
		}
		name = fmt.Sprintf("%s_%s_%s", name, param, value.StringFixed(3))
	}
	bundle.Name = name

	res, err := sa.calculationEngine.RunScenario(ctx, plant, bundle)
	if err != nil {
		return domain.SensitivityResult{}, fmt.Errorf("failed to run scenario %s: %w", name, err)
	}

	return domain.SensitivityResult{
		ParameterValues: values,
		ScenarioName:    name,
		KeyMetrics:      domain.NewSensitivityMetrics(res),
	}, nil
}

// applyParameter sets one swept parameter on a copy of the inputs. Scenario
// parameters go through the transform layer; plant price scales edit the plant.
func applyParameter(plant domain.PlantParameters, bundle *domain.ScenarioBundle, name string, value decimal.Decimal) (domain.PlantParameters, *domain.ScenarioBundle, error) {
	var t transform.ScenarioTransform
	switch name {
	case domain.ParamCarbonPriceScale:
		t = &transform.ScaleCarbonPrice{Factor: value}
	case domain.ParamHazardScale:
		t = &transform.ScaleHazards{Factor: value}
	case domain.ParamDispatchPenalty:
		t = &transform.SetDispatchPenalty{Penalty: value}
	case domain.ParamRetirementYear:
		t = &transform.SetRetirementYear{Year: int(value.Round(0).IntPart())}
	case domain.ParamPowerPriceScale:
		plant.PowerPrice = plant.PowerPrice.Mul(value)
		return plant, bundle, nil
	case domain.ParamFuelPriceScale:
		plant.FuelPrice = plant.FuelPrice.Mul(value)
		return plant, bundle, nil
	default:
		return plant, nil, fmt.Errorf("unknown sensitivity parameter: %s", name)
	}

	out, err := transform.ApplyTransforms(bundle, []transform.ScenarioTransform{t})
	if err != nil {
		return plant, nil, err
	}
	return plant, out, nil
}

func sortedNames(values map[string]decimal.Decimal) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func closestIndex(values []decimal.Decimal, target decimal.Decimal) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i].Sub(target).Abs().LessThan(values[best].Sub(target).Abs()) {
			best = i
		}
	}
	return best
}

func fillChanges(results []domain.SensitivityResult, base domain.SensitivityMetrics) {
	for i := range results {
		m := &results[i].KeyMetrics
		m.NPVChange = m.NPV.Sub(base.NPV)
		m.CRPChangeBps = m.CRPBps.Sub(base.CRPBps)
		m.RatingMove = notchMove(base.Rating, m.Rating)
	}
}

// notchMove is zero when either side is unrated.
func notchMove(from, to domain.Rating) int {
	if !from.Valid() || !to.Valid() {
		return 0
	}
	return int(to) - int(from)
}

func maxCRPSwing(results []domain.SensitivityResult) decimal.Decimal {
	swing := decimal.Zero
	for _, r := range results {
		if c := r.KeyMetrics.CRPChangeBps.Abs(); c.GreaterThan(swing) {
			swing = c
		}
	}
	return swing
}

func matrixSummary(matrix [][]domain.SensitivityResult, bi, bj int, param1, param2 domain.SensitivityParameter) domain.SensitivityMatrixSummary {
	crp := func(i, j int) decimal.Decimal { return matrix[i][j].KeyMetrics.CRPBps }

	var summary domain.SensitivityMatrixSummary
	first := true
	for i := range matrix {
		for j := range matrix[i] {
			if first || crp(i, j).GreaterThan(summary.MaxCRPBps) {
				first = false
				summary.MaxCRPBps = crp(i, j)
				summary.MostSensitiveCombination = fmt.Sprintf("%s=%s, %s=%s",
					param1.Name, matrix[i][j].ParameterValues[param1.Name].StringFixed(3),
					param2.Name, matrix[i][j].ParameterValues[param2.Name].StringFixed(3))
			}

			// joint effect beyond the sum of the two one-way effects
			interaction := crp(i, j).Sub(crp(i, bj)).Sub(crp(bi, j)).Add(crp(bi, bj))
			if interaction.Abs().GreaterThan(summary.InteractionEffectBps.Abs()) {
				summary.InteractionEffectBps = interaction
			}
		}
	}

	swing := summary.MaxCRPBps.Sub(crp(bi, bj))
	summary.RiskLevel = domain.RiskLevelForCRPSwing(swing)
	summary.Recommendations = []string{
		fmt.Sprintf("Peak CRP of %s bps at %s", summary.MaxCRPBps.StringFixed(1), summary.MostSensitiveCombination),
	}
	if summary.InteractionEffectBps.Abs().GreaterThan(decimal.NewFromInt(10)) {
		summary.Recommendations = append(summary.Recommendations,
			fmt.Sprintf("⚠️ %s and %s compound: stress them jointly", param1.Name, param2.Name))
	}
	return summary
}
