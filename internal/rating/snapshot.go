package rating

import (
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// TenorSnapshot condenses a cash flow series into the metrics used for the headline
// rating. Earnings, interest, and DSCR are averaged over the years that carry debt
// service, so the post-tenor tail does not dilute coverage. Balance sheet figures are
// taken at financial close. A debt-free plant is measured over its whole life.
func TenorSnapshot(plant domain.PlantParameters, cfs []domain.CashFlowYear) domain.RatingMetrics {
	m := domain.RatingMetrics{
		CapacityMW:  plant.CapacityMW,
		TotalDebt:   plant.InitialDebt(),
		TotalEquity: plant.InitialEquity(),
		FixedAssets: plant.TotalCapex,
		TotalAssets: plant.TotalCapex,
		DSCR:        domain.UndefinedMeasure("no debt service"),
	}

	var window []domain.CashFlowYear
	for _, cf := range cfs {
		if cf.DebtService.IsPositive() {
			window = append(window, cf)
		}
	}
	if len(window) == 0 {
		window = cfs
	}
	if len(window) == 0 {
		return m
	}

	n := decimal.NewFromInt(int64(len(window)))
	ebitda, interest, dscr := decimal.Zero, decimal.Zero, decimal.Zero
	dscrYears := 0
	for _, cf := range window {
		ebitda = ebitda.Add(cf.EBITDA)
		interest = interest.Add(cf.Interest)
		if cf.DSCR.Defined {
			dscr = dscr.Add(cf.DSCR.Value)
			dscrYears++
		}
	}
	m.EBITDA = ebitda.Div(n)
	m.Interest = interest.Div(n)
	if dscrYears > 0 {
		m.DSCR = domain.DefinedMeasure(dscr.Div(decimal.NewFromInt(int64(dscrYears))))
	}
	return m
}

// PointInTime builds metrics for a single operating year using the balance outstanding
// at the start of that year.
func PointInTime(plant domain.PlantParameters, cf domain.CashFlowYear) domain.RatingMetrics {
	equity := plant.TotalCapex.Sub(cf.DebtOutstanding)
	return domain.RatingMetrics{
		CapacityMW:  plant.CapacityMW,
		EBITDA:      cf.EBITDA,
		Interest:    cf.Interest,
		TotalDebt:   cf.DebtOutstanding,
		TotalEquity: equity,
		FixedAssets: plant.TotalCapex,
		TotalAssets: plant.TotalCapex,
		DSCR:        cf.DSCR,
	}
}

// Path rates every operating year of a cash flow series.
func (e *Engine) Path(plant domain.PlantParameters, cfs []domain.CashFlowYear) []domain.YearRating {
	out := make([]domain.YearRating, 0, len(cfs))
	for _, cf := range cfs {
		a := e.Rate(PointInTime(plant, cf))
		out = append(out, domain.YearRating{Year: cf.Year, Rating: a.Overall})
	}
	return out
}
