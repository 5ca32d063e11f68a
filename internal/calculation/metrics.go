package calculation

import (
	"fmt"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// discountFactors returns 1/(1+rate)^t for t = 0..n-1, rounded at each step to keep
// precision bounded during root finding. rate must be greater than -1.
func discountFactors(rate decimal.Decimal, n int) []decimal.Decimal {
	factors := make([]decimal.Decimal, n)
	v := one.DivRound(one.Add(rate), 24)
	f := one
	for t := 0; t < n; t++ {
		factors[t] = f
		f = f.Mul(v).Round(24)
	}
	return factors
}

// PresentValue discounts flows[t] received at the end of year t+1.
func PresentValue(rate decimal.Decimal, flows []decimal.Decimal) decimal.Decimal {
	factors := discountFactors(rate, len(flows)+1)
	pv := decimal.Zero
	for t, cf := range flows {
		pv = pv.Add(cf.Mul(factors[t+1]))
	}
	return pv
}

// NPV is -initial plus the present value of the annual flows.
func NPV(rate, initial decimal.Decimal, flows []decimal.Decimal) decimal.Decimal {
	return PresentValue(rate, flows).Sub(initial)
}

// npvAt values a series whose first element is at t = 0.
func npvAt(rate decimal.Decimal, series []decimal.Decimal) decimal.Decimal {
	factors := discountFactors(rate, len(series))
	total := decimal.Zero
	for t, cf := range series {
		total = total.Add(cf.Mul(factors[t]))
	}
	return total
}

// IRROptions bounds the IRR root finder.
type IRROptions struct {
	Lower         decimal.Decimal
	Upper         decimal.Decimal
	MaxUpper      decimal.Decimal
	MaxIterations int
	Tolerance     decimal.Decimal
}

// DefaultIRROptions returns the standard bracket and iteration cap.
func DefaultIRROptions() IRROptions {
	return IRROptions{
		Lower:         decimal.NewFromFloat(-0.99),
		Upper:         decimal.NewFromInt(1),
		MaxUpper:      decimal.NewFromInt(32),
		MaxIterations: 200,
		Tolerance:     decimal.NewFromFloat(1e-9),
	}
}

// IRR finds the rate at which the series (first element at t = 0) has zero NPV using
// bisection. A series without a sign change, or whose root cannot be bracketed, or that
// fails to converge within the iteration cap yields an undefined measure.
func IRR(series []decimal.Decimal, opts IRROptions) domain.Measure {
	if !hasSignChange(series) {
		return domain.UndefinedMeasure("cash flows have no sign change")
	}

	lo, hi := opts.Lower, opts.Upper
	fLo, fHi := npvAt(lo, series), npvAt(hi, series)
	for fLo.Sign()*fHi.Sign() > 0 && hi.LessThan(opts.MaxUpper) {
		hi = hi.Mul(two)
		fHi = npvAt(hi, series)
	}
	if fLo.Sign()*fHi.Sign() > 0 {
		return domain.UndefinedMeasure("no root in search bracket")
	}
	if fLo.IsZero() {
		return domain.DefinedMeasure(lo)
	}
	if fHi.IsZero() {
		return domain.DefinedMeasure(hi)
	}

	for i := 0; i < opts.MaxIterations; i++ {
		mid := lo.Add(hi).Div(two).Round(14)
		fMid := npvAt(mid, series)
		if fMid.IsZero() || hi.Sub(lo).LessThan(opts.Tolerance) {
			return domain.DefinedMeasure(mid)
		}
		if fMid.Sign() == fLo.Sign() {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return domain.UndefinedMeasure(fmt.Sprintf("did not converge after %d iterations", opts.MaxIterations))
}

func hasSignChange(series []decimal.Decimal) bool {
	pos, neg := false, false
	for _, v := range series {
		switch v.Sign() {
		case 1:
			pos = true
		case -1:
			neg = true
		}
	}
	return pos && neg
}

// DSCRStats averages and takes the minimum of the defined yearly DSCRs. excluded counts
// years whose DSCR is undefined.
func DSCRStats(cfs []domain.CashFlowYear) (avgDSCR, minDSCR domain.Measure, excluded int) {
	sum := decimal.Zero
	n := 0
	var lowest decimal.Decimal
	for _, cf := range cfs {
		if !cf.DSCR.Defined {
			excluded++
			continue
		}
		if n == 0 || cf.DSCR.Value.LessThan(lowest) {
			lowest = cf.DSCR.Value
		}
		sum = sum.Add(cf.DSCR.Value)
		n++
	}
	if n == 0 {
		none := domain.UndefinedMeasure("no years with debt service")
		return none, none, excluded
	}
	return domain.DefinedMeasure(sum.Div(decimal.NewFromInt(int64(n)))), domain.DefinedMeasure(lowest), excluded
}

// LLCR is the present value, at the debt rate, of cash flow available for debt service
// over the loan tenor divided by the debt at financial close.
func LLCR(cfs []domain.CashFlowYear, schedule DebtSchedule) domain.Measure {
	if !schedule.Amount.IsPositive() {
		return domain.UndefinedMeasure("no debt")
	}
	flows := make([]decimal.Decimal, 0, schedule.Tenor)
	for i, cf := range cfs {
		if i >= schedule.Tenor {
			break
		}
		flows = append(flows, cf.CFADS)
	}
	return domain.DefinedMeasure(PresentValue(schedule.Rate, flows).Div(schedule.Amount))
}

// Payback returns the first operating year in which cumulative free cash flow, net of
// the initial investment, turns positive.
func Payback(initial decimal.Decimal, cfs []domain.CashFlowYear) domain.Measure {
	cumulative := initial.Neg()
	for i, cf := range cfs {
		cumulative = cumulative.Add(cf.FreeCashFlow)
		if cumulative.IsPositive() {
			return domain.DefinedMeasure(decimal.NewFromInt(int64(i + 1)))
		}
	}
	return domain.UndefinedMeasure("investment not recovered within operating life")
}

// ComputeMetrics derives the full metric set for a cash flow series.
func ComputeMetrics(plant domain.PlantParameters, cfs []domain.CashFlowYear, schedule DebtSchedule, rate decimal.Decimal, opts IRROptions) domain.FinancialMetrics {
	fcf := make([]decimal.Decimal, len(cfs))
	cfads := make([]decimal.Decimal, len(cfs))
	m := domain.FinancialMetrics{DiscountRate: rate}
	for i, cf := range cfs {
		fcf[i] = cf.FreeCashFlow
		cfads[i] = cf.CFADS
		m.TotalEBITDA = m.TotalEBITDA.Add(cf.EBITDA)
		m.TotalGeneration = m.TotalGeneration.Add(cf.Generation)
	}

	m.NPV = NPV(rate, plant.TotalCapex, fcf)
	m.ProjectNPV = NPV(rate, plant.TotalCapex, cfads)
	m.IRR = IRR(append([]decimal.Decimal{plant.TotalCapex.Neg()}, fcf...), opts)
	m.AvgDSCR, m.MinDSCR, m.DSCRExcludedYears = DSCRStats(cfs)
	m.LLCR = LLCR(cfs, schedule)
	m.PaybackYears = Payback(plant.TotalCapex, cfs)
	m.StrandedDebt = schedule.OutstandingAfter(len(cfs))
	return m
}
