package calculation

import (
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	one          = decimal.NewFromInt(1)
	hoursPerYear = decimal.NewFromInt(domain.HoursPerYear)
)

// ProjectCashFlows turns per-year adjustments into the project cash flow series. The
// series has one entry per adjustment, starting at COD. Debt is amortized as a level
// annuity from financial close; the returned schedule covers the full tenor even when
// the asset retires first.
func ProjectCashFlows(plant domain.PlantParameters, adjustments []domain.YearlyAdjustment) ([]domain.CashFlowYear, DebtSchedule) {
	schedule := NewDebtSchedule(plant.InitialDebt(), plant.DebtInterestRate, plant.DebtTenorYears)

	depYears := plant.EffectiveDepreciationYears()
	depreciation := decimal.Zero
	if depYears > 0 {
		depreciation = plant.TotalCapex.Div(decimal.NewFromInt(int64(depYears)))
	}
	fixedOM := plant.CapacityKW().Mul(plant.FixedOMPerKWYear)

	powerGrowth := one.Add(plant.PowerPriceEscalation)
	fuelGrowth := one.Add(plant.FuelPriceEscalation)
	powerPrice := plant.PowerPrice
	fuelPrice := plant.FuelPrice

	out := make([]domain.CashFlowYear, 0, len(adjustments))
	for i, adj := range adjustments {
		if i > 0 {
			powerPrice = powerPrice.Mul(powerGrowth).Round(8)
			fuelPrice = fuelPrice.Mul(fuelGrowth).Round(8)
		}

		cf := domain.CashFlowYear{
			Year:          adj.Year,
			OperatingYear: i + 1,
			PowerPrice:    powerPrice,
			FixedOM:       fixedOM,
			Capex:         plant.SustainingCapex,
		}

		cf.Generation = plant.CapacityMW.Mul(hoursPerYear).Mul(adj.EffectiveCF)
		cf.Revenue = cf.Generation.Mul(powerPrice)
		heatRate := plant.HeatRate.Mul(one.Add(adj.EfficiencyLoss))
		cf.FuelCost = cf.Generation.Mul(heatRate).Mul(fuelPrice)
		cf.CarbonCost = cf.Generation.Mul(plant.EmissionsIntensity).Mul(adj.CarbonPrice)
		cf.VariableOM = cf.Generation.Mul(plant.VariableOMPerMWh)
		cf.EBITDA = cf.Revenue.Sub(cf.OperatingCosts())

		if i < depYears {
			cf.Depreciation = depreciation
		}
		cf.EBIT = cf.EBITDA.Sub(cf.Depreciation)
		if cf.EBIT.IsPositive() {
			cf.Tax = cf.EBIT.Mul(plant.TaxRate)
		}

		debt := schedule.Year(i)
		cf.DebtOutstanding = debt.Opening
		cf.Interest = debt.Interest
		cf.Principal = debt.Principal
		cf.DebtService = debt.Payment()

		cf.CFADS = cf.EBITDA.Sub(cf.Tax).Sub(cf.Capex)
		cf.FreeCashFlow = cf.CFADS.Sub(cf.DebtService)

		if cf.DebtService.IsPositive() {
			cf.DSCR = domain.DefinedMeasure(cf.EBITDA.Div(cf.DebtService))
		} else {
			cf.DSCR = domain.UndefinedMeasure("no debt service")
		}

		out = append(out, cf)
	}
	return out, schedule
}
