package domain

import (
	"github.com/shopspring/decimal"
)

// FinancialMetrics summarises a cash flow series.
type FinancialMetrics struct {
	DiscountRate      decimal.Decimal `json:"discount_rate"`
	NPV               decimal.Decimal `json:"npv"`
	ProjectNPV        decimal.Decimal `json:"project_npv"`
	IRR               Measure         `json:"irr"`
	AvgDSCR           Measure         `json:"avg_dscr"`
	MinDSCR           Measure         `json:"min_dscr"`
	LLCR              Measure         `json:"llcr"`
	PaybackYears      Measure         `json:"payback_years"`
	DSCRExcludedYears int             `json:"dscr_excluded_years"`
	StrandedDebt      decimal.Decimal `json:"stranded_debt"`
	TotalEBITDA       decimal.Decimal `json:"total_ebitda"`
	TotalGeneration   decimal.Decimal `json:"total_generation_mwh"`
}

// FinancingImpact is the cost-of-capital outcome of a scenario.
type FinancingImpact struct {
	Mode            CRPMode `json:"mode"`
	ReferenceRating Rating  `json:"reference_rating"`

	ReferenceNPV         decimal.Decimal `json:"reference_npv"`
	NPVLoss              decimal.Decimal `json:"npv_loss"`
	ExpectedLossPct      decimal.Decimal `json:"expected_loss_pct"`
	RatingSpreadBps      decimal.Decimal `json:"rating_spread_bps"`
	SensitivitySpreadBps decimal.Decimal `json:"sensitivity_spread_bps"`
	DebtSpreadBps        decimal.Decimal `json:"debt_spread_bps"`
	EquityPremium        decimal.Decimal `json:"equity_premium"`
	CostOfDebt           decimal.Decimal `json:"cost_of_debt"`
	CostOfEquity         decimal.Decimal `json:"cost_of_equity"`
	WACCReference        decimal.Decimal `json:"wacc_reference"`
	WACCAdjusted         decimal.Decimal `json:"wacc_adjusted"`
	CRPBps               decimal.Decimal `json:"crp_bps"`
}

// ScenarioResult is the complete, immutable outcome of running one scenario bundle.
type ScenarioResult struct {
	ScenarioName   string          `json:"scenario_name"`
	PlantName      string          `json:"plant_name"`
	Sources        ResolvedSources `json:"sources"`
	OperatingYears int             `json:"operating_years"`
	RetiredEarly   bool            `json:"retired_early"`

	Adjustments  []YearlyAdjustment `json:"adjustments"`
	CashFlows    []CashFlowYear     `json:"cash_flows"`
	Metrics      FinancialMetrics   `json:"metrics"`
	RatingInputs RatingMetrics      `json:"rating_inputs"`
	Rating       RatingAssessment   `json:"rating"`
	RatingPath   []YearRating       `json:"rating_path"`
	Financing    FinancingImpact    `json:"financing"`

	Diagnostics []string `json:"diagnostics,omitempty"`
}

// CRPBps is a shortcut for the scenario's climate risk premium.
func (r *ScenarioResult) CRPBps() decimal.Decimal {
	return r.Financing.CRPBps
}
