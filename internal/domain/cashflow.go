package domain

import (
	"github.com/shopspring/decimal"
)

// YearlyAdjustment is the per-year output of the risk layer consumed by the cash flow engine.
type YearlyAdjustment struct {
	Year int `json:"year"`

	TransitionCF       decimal.Decimal `json:"transition_cf"`
	OutageRate         decimal.Decimal `json:"outage_rate"`
	CapacityDerate     decimal.Decimal `json:"capacity_derate"`
	EfficiencyLoss     decimal.Decimal `json:"efficiency_loss"`
	CompoundMultiplier decimal.Decimal `json:"compound_multiplier"`
	PhysicalMultiplier decimal.Decimal `json:"physical_multiplier"` // (1 - derate) * (1 - outage)
	EffectiveCF        decimal.Decimal `json:"effective_cf"`
	CarbonPrice        decimal.Decimal `json:"carbon_price"`

	// Clamped is set when an input would have pushed the capacity factor above design.
	Clamped bool `json:"clamped,omitempty"`
}

// CashFlowYear is one operating year of the project cash flow series.
type CashFlowYear struct {
	Year          int `json:"year"`
	OperatingYear int `json:"operating_year"` // 1-based

	Generation      decimal.Decimal `json:"generation_mwh"`
	PowerPrice      decimal.Decimal `json:"power_price"`
	Revenue         decimal.Decimal `json:"revenue"`
	FuelCost        decimal.Decimal `json:"fuel_cost"`
	CarbonCost      decimal.Decimal `json:"carbon_cost"`
	FixedOM         decimal.Decimal `json:"fixed_om"`
	VariableOM      decimal.Decimal `json:"variable_om"`
	EBITDA          decimal.Decimal `json:"ebitda"`
	Depreciation    decimal.Decimal `json:"depreciation"`
	EBIT            decimal.Decimal `json:"ebit"`
	Tax             decimal.Decimal `json:"tax"`
	Capex           decimal.Decimal `json:"capex"`
	Interest        decimal.Decimal `json:"interest"`
	Principal       decimal.Decimal `json:"principal"`
	DebtService     decimal.Decimal `json:"debt_service"`
	DebtOutstanding decimal.Decimal `json:"debt_outstanding"` // balance at start of year
	CFADS           decimal.Decimal `json:"cfads"`
	FreeCashFlow    decimal.Decimal `json:"free_cash_flow"`
	DSCR            Measure         `json:"dscr"`
}

// OperatingCosts returns fuel, carbon, and O&M costs.
func (c CashFlowYear) OperatingCosts() decimal.Decimal {
	return c.FuelCost.Add(c.CarbonCost).Add(c.FixedOM).Add(c.VariableOM)
}

// Measure is a numeric result that may be mathematically undefined, for example an IRR
// over a series with no sign change. Callers must check Defined before using Value.
type Measure struct {
	Value   decimal.Decimal `json:"value"`
	Defined bool            `json:"defined"`
	Reason  string          `json:"reason,omitempty"`
}

// DefinedMeasure wraps a well-defined value.
func DefinedMeasure(v decimal.Decimal) Measure {
	return Measure{Value: v, Defined: true}
}

// UndefinedMeasure returns the sentinel for a degenerate result.
func UndefinedMeasure(reason string) Measure {
	return Measure{Reason: reason}
}

// String renders the value or "n/a".
func (m Measure) String() string {
	if !m.Defined {
		return "n/a"
	}
	return m.Value.StringFixed(4)
}
