package domain

import (
	"github.com/shopspring/decimal"
)

// HoursPerYear is the number of hours used to convert capacity into annual energy.
const HoursPerYear = 8760

// PlantParameters describes the physical, economic, and financing characteristics of a
// single thermal generating asset. It is treated as an immutable value by every stage of
// the pipeline.
type PlantParameters struct {
	Name string `yaml:"name" json:"name"`

	// Physical characteristics
	CapacityMW         decimal.Decimal `yaml:"capacity_mw" json:"capacity_mw" validate:"gt=0"`
	CapacityFactor     decimal.Decimal `yaml:"capacity_factor" json:"capacity_factor" validate:"gt=0,lte=1"`
	HeatRate           decimal.Decimal `yaml:"heat_rate" json:"heat_rate" validate:"gt=0"`                     // MMBtu/MWh
	EmissionsIntensity decimal.Decimal `yaml:"emissions_intensity" json:"emissions_intensity" validate:"gte=0"` // tCO2/MWh

	// Market
	FuelPrice            decimal.Decimal `yaml:"fuel_price" json:"fuel_price" validate:"gte=0"` // $/MMBtu
	FuelPriceEscalation  decimal.Decimal `yaml:"fuel_price_escalation,omitempty" json:"fuel_price_escalation,omitempty" validate:"gte=-0.5,lte=1"`
	PowerPrice           decimal.Decimal `yaml:"power_price" json:"power_price" validate:"gte=0"` // $/MWh
	PowerPriceEscalation decimal.Decimal `yaml:"power_price_escalation,omitempty" json:"power_price_escalation,omitempty" validate:"gte=-0.5,lte=1"`

	// Operating costs
	FixedOMPerKWYear decimal.Decimal `yaml:"fixed_om_per_kw_year" json:"fixed_om_per_kw_year" validate:"gte=0"`
	VariableOMPerMWh decimal.Decimal `yaml:"variable_om_per_mwh" json:"variable_om_per_mwh" validate:"gte=0"`

	// Capital
	TotalCapex      decimal.Decimal `yaml:"total_capex" json:"total_capex" validate:"gt=0"`
	SustainingCapex decimal.Decimal `yaml:"sustaining_capex,omitempty" json:"sustaining_capex,omitempty" validate:"gte=0"` // $/yr

	// Financing structure
	DebtFraction     decimal.Decimal `yaml:"debt_fraction" json:"debt_fraction" validate:"gte=0,lte=1"`
	DebtInterestRate decimal.Decimal `yaml:"debt_interest_rate" json:"debt_interest_rate" validate:"gte=0,lt=1"`
	DebtTenorYears   int             `yaml:"debt_tenor_years" json:"debt_tenor_years" validate:"gte=0,lte=60"`
	TaxRate          decimal.Decimal `yaml:"tax_rate" json:"tax_rate" validate:"gte=0,lt=1"`

	// Schedule
	DesignLifeYears   int `yaml:"design_life_years" json:"design_life_years" validate:"gt=0,lte=80"`
	CODYear           int `yaml:"cod_year" json:"cod_year" validate:"gte=1900,lte=2200"`
	DepreciationYears int `yaml:"depreciation_years,omitempty" json:"depreciation_years,omitempty" validate:"gte=0,lte=80"`
}

// CapacityKW returns nameplate capacity in kW.
func (p PlantParameters) CapacityKW() decimal.Decimal {
	return p.CapacityMW.Mul(decimal.NewFromInt(1000))
}

// InitialDebt is the debt raised at financial close.
func (p PlantParameters) InitialDebt() decimal.Decimal {
	return p.TotalCapex.Mul(p.DebtFraction)
}

// InitialEquity is the sponsor equity contributed at financial close.
func (p PlantParameters) InitialEquity() decimal.Decimal {
	return p.TotalCapex.Sub(p.InitialDebt())
}

// EquityFraction returns 1 - DebtFraction.
func (p PlantParameters) EquityFraction() decimal.Decimal {
	return decimal.NewFromInt(1).Sub(p.DebtFraction)
}

// EffectiveDepreciationYears falls back to the design life when no explicit
// depreciation period is configured.
func (p PlantParameters) EffectiveDepreciationYears() int {
	if p.DepreciationYears > 0 {
		return p.DepreciationYears
	}
	return p.DesignLifeYears
}

// CRPMode selects the reference against which the premium is measured.
type CRPMode string

const (
	// CRPModeCounterfactual measures against a hypothetical no-risk rating and valuation.
	CRPModeCounterfactual CRPMode = "counterfactual"
	// CRPModeBaseline measures against the literal baseline scenario.
	CRPModeBaseline CRPMode = "baseline"
)

// Valid reports whether m is a known mode.
func (m CRPMode) Valid() bool {
	return m == CRPModeCounterfactual || m == CRPModeBaseline
}

// FinancingParameters controls how expected loss and rating feed the cost of capital.
type FinancingParameters struct {
	RiskFreeRate      decimal.Decimal `yaml:"risk_free_rate" json:"risk_free_rate" validate:"gte=0,lt=1"`
	EquityBaseReturn  decimal.Decimal `yaml:"equity_base_return" json:"equity_base_return" validate:"gte=0,lt=1"`
	EquitySlope       decimal.Decimal `yaml:"equity_slope" json:"equity_slope" validate:"gte=0"`           // pp of premium per pp of expected loss
	SpreadSlopeBps    decimal.Decimal `yaml:"spread_slope_bps" json:"spread_slope_bps" validate:"gte=0"`   // bps per pp of expected loss
	BaselineSpreadBps decimal.Decimal `yaml:"baseline_spread_bps" json:"baseline_spread_bps" validate:"gte=0"`
	DiscountRate      decimal.Decimal `yaml:"discount_rate,omitempty" json:"discount_rate,omitempty" validate:"gte=0,lt=1"` // zero means use the base WACC

	CRPMode              CRPMode `yaml:"crp_mode,omitempty" json:"crp_mode,omitempty"`
	CounterfactualRating Rating  `yaml:"counterfactual_rating,omitempty" json:"counterfactual_rating,omitempty"`
}

// DefaultFinancingParameters returns the calibration used when an input omits financing.
func DefaultFinancingParameters() FinancingParameters {
	return FinancingParameters{
		RiskFreeRate:         decimal.NewFromFloat(0.03),
		EquityBaseReturn:     decimal.NewFromFloat(0.12),
		EquitySlope:          decimal.NewFromFloat(0.8),
		SpreadSlopeBps:       decimal.NewFromInt(50),
		BaselineSpreadBps:    decimal.NewFromInt(150),
		CRPMode:              CRPModeCounterfactual,
		CounterfactualRating: RatingA,
	}
}

// WithDefaults fills unset optional fields.
func (f FinancingParameters) WithDefaults() FinancingParameters {
	if f.CRPMode == "" {
		f.CRPMode = CRPModeCounterfactual
	}
	if f.CounterfactualRating == Unrated {
		f.CounterfactualRating = RatingA
	}
	return f
}
