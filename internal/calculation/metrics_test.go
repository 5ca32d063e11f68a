package calculation

import (
	"fmt"
	"testing"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertClose(t *testing.T, want, got decimal.Decimal, tol string, msgAndArgs ...interface{}) {
	t.Helper()
	if want.Sub(got).Abs().GreaterThan(dec(tol)) {
		assert.Fail(t, fmt.Sprintf("want %s, got %s", want, got), msgAndArgs...)
	}
}

func TestLevelPayment(t *testing.T) {
	assert.True(t, LevelPayment(dec("100"), decimal.Zero, 4).Equal(dec("25")))
	assert.True(t, LevelPayment(dec("100"), dec("0.05"), 0).IsZero())
	assert.True(t, LevelPayment(decimal.Zero, dec("0.05"), 10).IsZero())

	// 1000 at 10% over two years: 1000 * 0.1 * 1.21 / 0.21
	assertClose(t, dec("576.1904761904762"), LevelPayment(dec("1000"), dec("0.1"), 2), "0.000001")
}

func TestDebtSchedule(t *testing.T) {
	s := NewDebtSchedule(dec("300000000"), dec("0.06"), 15)
	require.Len(t, s.Years, 15)

	principal := decimal.Zero
	for i, y := range s.Years {
		principal = principal.Add(y.Principal)
		if i > 0 {
			assert.True(t, y.Opening.Equal(s.Years[i-1].Closing))
		}
		if i < 14 {
			assertClose(t, s.Payment, y.Payment(), "0.000001", "year %d", i)
		}
	}
	assert.True(t, s.Years[14].Closing.IsZero(), "schedule must close at zero")
	assert.True(t, principal.Equal(dec("300000000")))
	assert.True(t, s.Years[0].Interest.Equal(dec("18000000")))

	assert.True(t, s.OutstandingAfter(0).Equal(dec("300000000")))
	assert.True(t, s.OutstandingAfter(15).IsZero())
	assert.True(t, s.OutstandingAfter(20).IsZero())
	assert.True(t, s.Year(20).Payment().IsZero())

	empty := NewDebtSchedule(decimal.Zero, dec("0.06"), 15)
	assert.Empty(t, empty.Years)
	assert.True(t, empty.OutstandingAfter(5).IsZero())
}

func TestNPV(t *testing.T) {
	assertClose(t, decimal.Zero, NPV(dec("0.1"), dec("100"), []decimal.Decimal{dec("110")}), "0.000000001")
	assertClose(t, dec("100"), PresentValue(dec("0.1"), []decimal.Decimal{dec("55"), dec("60.5")}), "0.000000001")
	assert.True(t, NPV(dec("0.1"), dec("50"), nil).Equal(dec("-50")))
}

func TestIRR(t *testing.T) {
	opts := DefaultIRROptions()

	t.Run("simple", func(t *testing.T) {
		irr := IRR([]decimal.Decimal{dec("-100"), dec("110")}, opts)
		require.True(t, irr.Defined)
		assertClose(t, dec("0.1"), irr.Value, "0.00000001")
	})

	t.Run("bracket expands", func(t *testing.T) {
		irr := IRR([]decimal.Decimal{dec("-100"), dec("300")}, opts)
		require.True(t, irr.Defined)
		assertClose(t, dec("2"), irr.Value, "0.00000001")
	})

	t.Run("no sign change", func(t *testing.T) {
		irr := IRR([]decimal.Decimal{dec("-100"), dec("-10")}, opts)
		assert.False(t, irr.Defined)
		assert.Equal(t, "cash flows have no sign change", irr.Reason)
	})

	t.Run("iteration cap", func(t *testing.T) {
		capped := opts
		capped.MaxIterations = 1
		irr := IRR([]decimal.Decimal{dec("-100"), dec("60"), dec("60")}, capped)
		assert.False(t, irr.Defined)
		assert.Contains(t, irr.Reason, "did not converge")
	})
}

func TestDSCRStats(t *testing.T) {
	cfs := []domain.CashFlowYear{
		{DSCR: domain.DefinedMeasure(dec("1.5"))},
		{DSCR: domain.DefinedMeasure(dec("1.1"))},
		{DSCR: domain.UndefinedMeasure("no debt service")},
	}
	avg, lowest, excluded := DSCRStats(cfs)
	require.True(t, avg.Defined)
	assert.True(t, avg.Value.Equal(dec("1.3")))
	assert.True(t, lowest.Value.Equal(dec("1.1")))
	assert.Equal(t, 1, excluded)

	avg, lowest, excluded = DSCRStats(cfs[2:])
	assert.False(t, avg.Defined)
	assert.False(t, lowest.Defined)
	assert.Equal(t, 1, excluded)
}

func TestPayback(t *testing.T) {
	cfs := []domain.CashFlowYear{
		{FreeCashFlow: dec("30")},
		{FreeCashFlow: dec("30")},
		{FreeCashFlow: dec("50")},
	}
	p := Payback(dec("100"), cfs)
	require.True(t, p.Defined)
	assert.True(t, p.Value.Equal(dec("3")))

	assert.False(t, Payback(dec("100"), cfs[:2]).Defined)
}

func TestLLCR(t *testing.T) {
	assert.False(t, LLCR(nil, NewDebtSchedule(decimal.Zero, dec("0.06"), 10)).Defined)

	s := NewDebtSchedule(dec("100"), dec("0.1"), 1)
	cfs := []domain.CashFlowYear{{CFADS: dec("220")}, {CFADS: dec("1000")}}
	llcr := LLCR(cfs, s)
	require.True(t, llcr.Defined)
	assertClose(t, dec("2"), llcr.Value, "0.000000001", "only tenor years count")
}

func TestProjectCashFlows_ZeroCapacityFactor(t *testing.T) {
	plant := referencePlant()
	adjustments := []domain.YearlyAdjustment{{Year: 2025}}

	cfs, schedule := ProjectCashFlows(plant, adjustments)
	require.Len(t, cfs, 1)
	assert.True(t, cfs[0].Generation.IsZero())
	assert.True(t, cfs[0].EBITDA.Equal(dec("-10000000")), "fixed O&M still accrues")
	assert.True(t, cfs[0].Tax.IsZero())
	assert.True(t, cfs[0].DebtService.Equal(schedule.Payment))
	require.True(t, cfs[0].DSCR.Defined)
	assert.True(t, cfs[0].DSCR.Value.IsNegative())
}

func TestProjectCashFlows_EfficiencyLossRaisesFuel(t *testing.T) {
	plant := referencePlant()
	base := domain.YearlyAdjustment{Year: 2025, EffectiveCF: dec("0.6")}
	lossy := base
	lossy.EfficiencyLoss = dec("0.1")

	cfs, _ := ProjectCashFlows(plant, []domain.YearlyAdjustment{base})
	lossyCFs, _ := ProjectCashFlows(plant, []domain.YearlyAdjustment{lossy})
	assert.True(t, lossyCFs[0].FuelCost.Equal(cfs[0].FuelCost.Mul(dec("1.1"))))
	assert.True(t, lossyCFs[0].Generation.Equal(cfs[0].Generation))
}

func TestProjectCashFlows_Escalation(t *testing.T) {
	plant := referencePlant()
	plant.PowerPriceEscalation = dec("0.02")
	adjustments := []domain.YearlyAdjustment{
		{Year: 2025, EffectiveCF: dec("0.6")},
		{Year: 2026, EffectiveCF: dec("0.6")},
	}
	cfs, _ := ProjectCashFlows(plant, adjustments)
	assert.True(t, cfs[0].PowerPrice.Equal(dec("65")))
	assert.True(t, cfs[1].PowerPrice.Equal(dec("66.3")))
	assert.Equal(t, 2, cfs[1].OperatingYear)
}
