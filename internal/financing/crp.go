package financing

import (
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
	bps     = decimal.NewFromInt(10000)
)

// Reference is the valuation and rating against which a scenario's premium is measured.
type Reference struct {
	Mode   domain.CRPMode
	Rating domain.Rating
	NPV    decimal.Decimal
}

// Outcome is the part of a scenario run the financing module needs.
type Outcome struct {
	NPV    decimal.Decimal
	Rating domain.Rating
}

// ExpectedLossPct is the NPV shortfall against the reference as a percentage of CAPEX,
// floored at zero.
func ExpectedLossPct(referenceNPV, scenarioNPV, capex decimal.Decimal) decimal.Decimal {
	if !capex.IsPositive() {
		return decimal.Zero
	}
	el := referenceNPV.Sub(scenarioNPV).Div(capex).Mul(hundred)
	if el.IsNegative() {
		return decimal.Zero
	}
	return el
}

// SensitivitySpreadBps is the spread implied by expected loss alone.
func SensitivitySpreadBps(p domain.FinancingParameters, elPct decimal.Decimal) decimal.Decimal {
	return p.BaselineSpreadBps.Add(elPct.Mul(p.SpreadSlopeBps))
}

// EquityPremium is the additional required equity return implied by expected loss,
// as a decimal fraction.
func EquityPremium(p domain.FinancingParameters, elPct decimal.Decimal) decimal.Decimal {
	return elPct.Mul(p.EquitySlope).Div(hundred)
}

// Terms are the cost-of-capital components for one rating and expected loss.
type Terms struct {
	RatingSpreadBps      decimal.Decimal
	SensitivitySpreadBps decimal.Decimal
	DebtSpreadBps        decimal.Decimal
	EquityPremium        decimal.Decimal
	CostOfDebt           decimal.Decimal // pre-tax
	CostOfEquity         decimal.Decimal
	WACC                 decimal.Decimal
}

// Price computes the cost of capital for a plant at the given rating and expected loss.
// The debt spread is the larger of the rating-implied and loss-implied spreads; an
// unrated plant is priced on the loss-implied spread alone.
func Price(plant domain.PlantParameters, p domain.FinancingParameters, r domain.Rating, elPct decimal.Decimal) Terms {
	t := Terms{
		SensitivitySpreadBps: SensitivitySpreadBps(p, elPct),
		EquityPremium:        EquityPremium(p, elPct),
	}
	t.DebtSpreadBps = t.SensitivitySpreadBps
	if spread, ok := r.SpreadBps(); ok {
		t.RatingSpreadBps = spread
		t.DebtSpreadBps = decimal.Max(spread, t.SensitivitySpreadBps)
	}

	t.CostOfDebt = p.RiskFreeRate.Add(t.DebtSpreadBps.Div(bps))
	t.CostOfEquity = p.EquityBaseReturn.Add(t.EquityPremium)
	t.WACC = WACC(plant.DebtFraction, t.CostOfDebt, plant.TaxRate, t.CostOfEquity)
	return t
}

// WACC is D*Kd*(1-t) + E*Ke with E = 1-D.
func WACC(debtFraction, costOfDebt, taxRate, costOfEquity decimal.Decimal) decimal.Decimal {
	debt := debtFraction.Mul(costOfDebt).Mul(one.Sub(taxRate))
	equity := one.Sub(debtFraction).Mul(costOfEquity)
	return debt.Add(equity)
}

// BaseWACC is the unrated, loss-free cost of capital used to discount cash flows when
// no explicit discount rate is configured.
func BaseWACC(plant domain.PlantParameters, p domain.FinancingParameters) decimal.Decimal {
	kd := p.RiskFreeRate.Add(p.BaselineSpreadBps.Div(bps))
	return WACC(plant.DebtFraction, kd, plant.TaxRate, p.EquityBaseReturn)
}

// DiscountRate returns the configured discount rate or the base WACC.
func DiscountRate(plant domain.PlantParameters, p domain.FinancingParameters) decimal.Decimal {
	if p.DiscountRate.IsPositive() {
		return p.DiscountRate
	}
	return BaseWACC(plant, p)
}

// Assess computes the financing impact of a scenario against a reference. The reference
// WACC is priced at the reference rating with zero expected loss, so a scenario identical
// to its reference has a premium of zero.
func Assess(plant domain.PlantParameters, p domain.FinancingParameters, scenario Outcome, ref Reference) domain.FinancingImpact {
	el := ExpectedLossPct(ref.NPV, scenario.NPV, plant.TotalCapex)
	refTerms := Price(plant, p, ref.Rating, decimal.Zero)
	scenTerms := Price(plant, p, scenario.Rating, el)

	return domain.FinancingImpact{
		Mode:                 ref.Mode,
		ReferenceRating:      ref.Rating,
		ReferenceNPV:         ref.NPV,
		NPVLoss:              ref.NPV.Sub(scenario.NPV),
		ExpectedLossPct:      el,
		RatingSpreadBps:      scenTerms.RatingSpreadBps,
		SensitivitySpreadBps: scenTerms.SensitivitySpreadBps,
		DebtSpreadBps:        scenTerms.DebtSpreadBps,
		EquityPremium:        scenTerms.EquityPremium,
		CostOfDebt:           scenTerms.CostOfDebt,
		CostOfEquity:         scenTerms.CostOfEquity,
		WACCReference:        refTerms.WACC,
		WACCAdjusted:         scenTerms.WACC,
		CRPBps:               scenTerms.WACC.Sub(refTerms.WACC).Mul(bps),
	}
}
