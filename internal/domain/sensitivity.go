package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Sensitivity parameter names understood by the analyzer. Scale parameters are
// multipliers with a base value of 1.
const (
	ParamCarbonPriceScale = "carbon_price_scale"
	ParamHazardScale      = "hazard_scale"
	ParamDispatchPenalty  = "dispatch_penalty"
	ParamRetirementYear   = "retirement_year"
	ParamPowerPriceScale  = "power_price_scale"
	ParamFuelPriceScale   = "fuel_price_scale"
)

// SensitivityParameter represents a parameter to sweep in sensitivity analysis
type SensitivityParameter struct {
	Name        string          `yaml:"name" json:"name" validate:"required"`
	MinValue    decimal.Decimal `yaml:"min_value" json:"min_value"`
	MaxValue    decimal.Decimal `yaml:"max_value" json:"max_value"`
	Steps       int             `yaml:"steps" json:"steps" validate:"gte=1"`
	BaseValue   decimal.Decimal `yaml:"base_value" json:"base_value"`
	Unit        string          `yaml:"unit" json:"unit"` // "multiplier", "fraction", "year"
	Description string          `yaml:"description" json:"description"`
}

// ParameterSensitivityAnalysis represents a complete parameter sensitivity analysis
type ParameterSensitivityAnalysis struct {
	BaseScenarioName string                 `json:"base_scenario_name"`
	Parameters       []SensitivityParameter `json:"parameters"`
	Results          []SensitivityResult    `json:"results"`
	Summary          SensitivitySummary     `json:"summary"`
	AnalysisType     string                 `json:"analysis_type"` // "single", "multi"
}

// SensitivityResult is one point of a parameter sweep.
type SensitivityResult struct {
	ParameterValues map[string]decimal.Decimal `json:"parameter_values"`
	ScenarioName    string                     `json:"scenario_name"`
	KeyMetrics      SensitivityMetrics         `json:"key_metrics"`
}

// SensitivityMetrics are the headline outputs tracked across a sweep.
type SensitivityMetrics struct {
	NPV           decimal.Decimal `json:"npv"`
	Rating        Rating          `json:"rating"`
	MinDSCR       Measure         `json:"min_dscr"`
	DebtSpreadBps decimal.Decimal `json:"debt_spread_bps"`
	WACC          decimal.Decimal `json:"wacc"`
	CRPBps        decimal.Decimal `json:"crp_bps"`

	// Changes against the sweep point closest to the parameter's base value.
	NPVChange    decimal.Decimal `json:"npv_change"`
	CRPChangeBps decimal.Decimal `json:"crp_change_bps"`
	RatingMove   int             `json:"rating_move"` // notches, positive is a downgrade
}

// NewSensitivityMetrics extracts the tracked outputs from a scenario result.
func NewSensitivityMetrics(r *ScenarioResult) SensitivityMetrics {
	return SensitivityMetrics{
		NPV:           r.Metrics.NPV,
		Rating:        r.Rating.Overall,
		MinDSCR:       r.Metrics.MinDSCR,
		DebtSpreadBps: r.Financing.DebtSpreadBps,
		WACC:          r.Financing.WACCAdjusted,
		CRPBps:        r.Financing.CRPBps,
	}
}

// SensitivitySummary provides overall analysis summary
type SensitivitySummary struct {
	MostSensitiveParameter string                     `json:"most_sensitive_parameter"`
	SensitivityScores      map[string]decimal.Decimal `json:"sensitivity_scores"` // max |CRP change| in bps
	Recommendations        []string                   `json:"recommendations"`
	RiskLevel              string                     `json:"risk_level"` // "LOW", "MEDIUM", "HIGH", "CRITICAL"
}

// SensitivityMatrix represents a 2D parameter sweep
type SensitivityMatrix struct {
	BaseScenarioName string                   `json:"base_scenario_name"`
	Parameter1       SensitivityParameter     `json:"parameter1"`
	Parameter2       SensitivityParameter     `json:"parameter2"`
	MatrixResults    [][]SensitivityResult    `json:"matrix_results"`
	Summary          SensitivityMatrixSummary `json:"summary"`
}

// SensitivityMatrixSummary provides matrix analysis summary
type SensitivityMatrixSummary struct {
	MostSensitiveCombination string          `json:"most_sensitive_combination"`
	MaxCRPBps                decimal.Decimal `json:"max_crp_bps"`
	InteractionEffectBps     decimal.Decimal `json:"interaction_effect_bps"`
	Recommendations          []string        `json:"recommendations"`
	RiskLevel                string          `json:"risk_level"`
}

// Common sensitivity parameters
var (
	CarbonPriceScaleParam = SensitivityParameter{
		Name:        ParamCarbonPriceScale,
		MinValue:    decimal.NewFromFloat(0.5),
		MaxValue:    decimal.NewFromInt(3),
		Steps:       6,
		BaseValue:   decimal.NewFromInt(1),
		Unit:        "multiplier",
		Description: "Multiplier on every carbon price point",
	}

	HazardScaleParam = SensitivityParameter{
		Name:        ParamHazardScale,
		MinValue:    decimal.Zero,
		MaxValue:    decimal.NewFromInt(3),
		Steps:       7,
		BaseValue:   decimal.NewFromInt(1),
		Unit:        "multiplier",
		Description: "Multiplier on physical hazard rates",
	}

	DispatchPenaltyParam = SensitivityParameter{
		Name:        ParamDispatchPenalty,
		MinValue:    decimal.Zero,
		MaxValue:    decimal.NewFromFloat(0.3),
		Steps:       7,
		BaseValue:   decimal.Zero,
		Unit:        "fraction",
		Description: "Flat reduction of the design capacity factor",
	}

	PowerPriceScaleParam = SensitivityParameter{
		Name:        ParamPowerPriceScale,
		MinValue:    decimal.NewFromFloat(0.8),
		MaxValue:    decimal.NewFromFloat(1.2),
		Steps:       5,
		BaseValue:   decimal.NewFromInt(1),
		Unit:        "multiplier",
		Description: "Multiplier on the starting power price",
	}

	FuelPriceScaleParam = SensitivityParameter{
		Name:        ParamFuelPriceScale,
		MinValue:    decimal.NewFromFloat(0.8),
		MaxValue:    decimal.NewFromFloat(1.5),
		Steps:       8,
		BaseValue:   decimal.NewFromInt(1),
		Unit:        "multiplier",
		Description: "Multiplier on the starting fuel price",
	}
)

// GetCommonParameters returns a list of common sensitivity parameters
func GetCommonParameters() []SensitivityParameter {
	return []SensitivityParameter{
		CarbonPriceScaleParam,
		HazardScaleParam,
		DispatchPenaltyParam,
		PowerPriceScaleParam,
		FuelPriceScaleParam,
	}
}

// LookupCommonParameter returns the common parameter with the given name.
func LookupCommonParameter(name string) (SensitivityParameter, error) {
	for _, p := range GetCommonParameters() {
		if p.Name == name {
			return p, nil
		}
	}
	return SensitivityParameter{}, fmt.Errorf("unknown sensitivity parameter: %s", name)
}

// Values generates the evenly spaced sweep points from MinValue to MaxValue.
// A single step yields only the base value.
func (p SensitivityParameter) Values() []decimal.Decimal {
	if p.Steps <= 1 {
		return []decimal.Decimal{p.BaseValue}
	}

	stepSize := p.MaxValue.Sub(p.MinValue).Div(decimal.NewFromInt(int64(p.Steps - 1)))
	values := make([]decimal.Decimal, 0, p.Steps)
	for i := 0; i < p.Steps; i++ {
		values = append(values, p.MinValue.Add(stepSize.Mul(decimal.NewFromInt(int64(i)))))
	}
	return values
}

// DetermineRiskLevel grades the largest CRP swing in the summary.
func (ss *SensitivitySummary) DetermineRiskLevel() string {
	maxScore := decimal.Zero
	for _, score := range ss.SensitivityScores {
		if score.GreaterThan(maxScore) {
			maxScore = score
		}
	}
	return RiskLevelForCRPSwing(maxScore)
}

// RiskLevelForCRPSwing maps a CRP swing in basis points to a risk level.
func RiskLevelForCRPSwing(bps decimal.Decimal) string {
	switch {
	case bps.LessThan(decimal.NewFromInt(25)):
		return "LOW"
	case bps.LessThan(decimal.NewFromInt(100)):
		return "MEDIUM"
	case bps.LessThan(decimal.NewFromInt(250)):
		return "HIGH"
	default:
		return "CRITICAL"
	}
}

// GenerateRecommendations generates recommendations based on sensitivity analysis
func (ss *SensitivitySummary) GenerateRecommendations() []string {
	recommendations := []string{}

	switch ss.DetermineRiskLevel() {
	case "LOW":
		recommendations = append(recommendations, "Financing terms are robust to the swept parameters")
	case "MEDIUM":
		recommendations = append(recommendations, "Monitor the swept parameters at each refinancing")
	case "HIGH":
		recommendations = append(recommendations, "Cost of capital is sensitive to the swept parameters")
		recommendations = append(recommendations, "Consider covenants or reserves sized to the stressed case")
	case "CRITICAL":
		recommendations = append(recommendations, "⚠️ Cost of capital is highly sensitive to the swept parameters")
		recommendations = append(recommendations, "Stress the financing case before committing debt")
		recommendations = append(recommendations, "Consider a shorter tenor or lower gearing")
	}

	switch ss.MostSensitiveParameter {
	case ParamCarbonPriceScale:
		recommendations = append(recommendations, "Consider carbon price hedging or pass-through clauses")
	case ParamHazardScale:
		recommendations = append(recommendations, "Consider site resilience capex or parametric insurance")
	case ParamDispatchPenalty, ParamRetirementYear:
		recommendations = append(recommendations, "Align debt tenor with the expected policy dispatch path")
	case ParamPowerPriceScale:
		recommendations = append(recommendations, "Consider contracted offtake to fix revenue")
	case ParamFuelPriceScale:
		recommendations = append(recommendations, "Consider fuel supply indexation")
	}

	return recommendations
}
