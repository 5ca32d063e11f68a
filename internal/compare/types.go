package compare

import (
	"fmt"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/rgehrsitz/crp/internal/rating"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

var hundred = decimal.NewFromInt(100)

// ComparisonResult represents a single scenario comparison with calculated metrics
type ComparisonResult struct {
	ScenarioName string                 `json:"scenario_name"`
	Description  string                 `json:"description,omitempty"`
	Result       *domain.ScenarioResult `json:"-"`

	// Key Metrics
	Rating         domain.Rating   `json:"rating"`
	NPV            decimal.Decimal `json:"npv"`
	IRR            domain.Measure  `json:"irr"`
	MinDSCR        domain.Measure  `json:"min_dscr"`
	DebtSpreadBps  decimal.Decimal `json:"debt_spread_bps"`
	WACC           decimal.Decimal `json:"wacc"`
	CRPBps         decimal.Decimal `json:"crp_bps"`
	StrandedDebt   decimal.Decimal `json:"stranded_debt"`
	OperatingYears int             `json:"operating_years"`

	// Comparison to Base
	NPVDiffFromBase    decimal.Decimal   `json:"npv_diff_from_base"`
	NPVPctFromBase     decimal.Decimal   `json:"npv_pct_from_base"`
	CRPDiffFromBaseBps decimal.Decimal   `json:"crp_diff_from_base_bps"`
	WACCDiffFromBase   decimal.Decimal   `json:"wacc_diff_from_base"`
	Migration          *rating.Migration `json:"migration,omitempty"`
}

// ComparisonSet represents a collection of scenario comparisons
type ComparisonSet struct {
	BaseScenarioName   string             `json:"base_scenario_name"`
	PlantName          string             `json:"plant_name"`
	BaseResult         *ComparisonResult  `json:"base_result"`
	AlternativeResults []ComparisonResult `json:"alternative_results"`
	Statistics         *SetStatistics     `json:"statistics,omitempty"`
	Recommendations    []string           `json:"recommendations"`
	ConfigPath         string             `json:"config_path,omitempty"`
}

// SetStatistics summarises the premium distribution across every scenario in a set.
type SetStatistics struct {
	Scenarios       int             `json:"scenarios"`
	MeanCRPBps      decimal.Decimal `json:"mean_crp_bps"`
	StdDevCRPBps    decimal.Decimal `json:"std_dev_crp_bps"`
	MinCRPBps       decimal.Decimal `json:"min_crp_bps"`
	MaxCRPBps       decimal.Decimal `json:"max_crp_bps"`
	MeanNPV         decimal.Decimal `json:"mean_npv"`
	InvestmentGrade int             `json:"investment_grade"`
}

// All returns the base followed by the alternatives.
func (cs *ComparisonSet) All() []ComparisonResult {
	all := make([]ComparisonResult, 0, len(cs.AlternativeResults)+1)
	if cs.BaseResult != nil {
		all = append(all, *cs.BaseResult)
	}
	return append(all, cs.AlternativeResults...)
}

// MetricsCalculator extracts key metrics from scenario results
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics pulls the headline figures out of a scenario result
func (mc *MetricsCalculator) CalculateMetrics(r *domain.ScenarioResult) ComparisonResult {
	return ComparisonResult{
		ScenarioName:   r.ScenarioName,
		Result:         r,
		Rating:         r.Rating.Overall,
		NPV:            r.Metrics.NPV,
		IRR:            r.Metrics.IRR,
		MinDSCR:        r.Metrics.MinDSCR,
		DebtSpreadBps:  r.Financing.DebtSpreadBps,
		WACC:           r.Financing.WACCAdjusted,
		CRPBps:         r.Financing.CRPBps,
		StrandedDebt:   r.Metrics.StrandedDebt,
		OperatingYears: r.OperatingYears,
	}
}

// CalculateComparison computes deltas between a scenario and a base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.NPVDiffFromBase = scenario.NPV.Sub(base.NPV)
	if !base.NPV.IsZero() {
		scenario.NPVPctFromBase = scenario.NPVDiffFromBase.Div(base.NPV.Abs()).Mul(hundred)
	}
	scenario.CRPDiffFromBaseBps = scenario.CRPBps.Sub(base.CRPBps)
	scenario.WACCDiffFromBase = scenario.WACC.Sub(base.WACC)

	if scenario.Result != nil && base.Result != nil {
		m := rating.Migrate(base.Result.Rating, scenario.Result.Rating)
		scenario.Migration = &m
	}
	return scenario
}

// CalculateStatistics summarises premiums across results. Nil for an empty slice.
func (mc *MetricsCalculator) CalculateStatistics(results []ComparisonResult) *SetStatistics {
	if len(results) == 0 {
		return nil
	}

	crps := make([]float64, len(results))
	npvs := make([]float64, len(results))
	s := &SetStatistics{
		Scenarios: len(results),
		MinCRPBps: results[0].CRPBps,
		MaxCRPBps: results[0].CRPBps,
	}
	for i, r := range results {
		crps[i] = r.CRPBps.InexactFloat64()
		npvs[i] = r.NPV.InexactFloat64()
		s.MinCRPBps = decimal.Min(s.MinCRPBps, r.CRPBps)
		s.MaxCRPBps = decimal.Max(s.MaxCRPBps, r.CRPBps)
		if r.Rating.IsInvestmentGrade() {
			s.InvestmentGrade++
		}
	}

	s.MeanCRPBps = decimal.NewFromFloat(stat.Mean(crps, nil)).Round(2)
	s.MeanNPV = decimal.NewFromFloat(stat.Mean(npvs, nil)).Round(0)
	if len(crps) > 1 {
		s.StdDevCRPBps = decimal.NewFromFloat(stat.StdDev(crps, nil)).Round(2)
	}
	return s
}

// GenerateRecommendations creates recommendations based on comparison results
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil || len(compSet.AlternativeResults) == 0 {
		return recommendations
	}
	base := compSet.BaseResult

	// Highest premium
	worst := compSet.AlternativeResults[0]
	for _, alt := range compSet.AlternativeResults[1:] {
		if alt.CRPBps.GreaterThan(worst.CRPBps) {
			worst = alt
		}
	}
	if worst.CRPDiffFromBaseBps.IsPositive() {
		recommendations = append(recommendations,
			fmt.Sprintf("Largest Premium: %s adds %s bps to the cost of capital over %s",
				worst.ScenarioName, worst.CRPDiffFromBaseBps.StringFixed(0), base.ScenarioName))
	}

	// Investment grade losses
	for _, alt := range compSet.AlternativeResults {
		if alt.Migration != nil && alt.Migration.LostInvestmentGrade {
			recommendations = append(recommendations,
				fmt.Sprintf("⚠️ %s falls to %s and loses investment grade", alt.ScenarioName, alt.Rating))
		}
	}

	// Equity value destruction
	for _, alt := range compSet.AlternativeResults {
		if base.NPV.IsPositive() && !alt.NPV.IsPositive() {
			recommendations = append(recommendations,
				fmt.Sprintf("%s turns equity NPV negative ($%s)", alt.ScenarioName, alt.NPV.StringFixed(0)))
		}
	}

	// Benign scenarios
	benign := 0
	for _, alt := range compSet.AlternativeResults {
		if alt.Migration != nil && !alt.Migration.Downgraded() && !alt.CRPDiffFromBaseBps.IsPositive() {
			benign++
		}
	}
	if benign == len(compSet.AlternativeResults) {
		recommendations = append(recommendations,
			"No alternative scenario raises the premium or downgrades the rating relative to the base")
	}

	return recommendations
}
