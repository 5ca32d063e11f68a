package rating

import (
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// step is one rung of a rating ladder.
type step struct {
	bound  decimal.Decimal
	rating domain.Rating
}

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// Ladders where a higher value is better: the first rung with value >= bound wins.
var (
	capacityLadder = []step{
		{d(2000), domain.RatingAAA},
		{d(800), domain.RatingAA},
		{d(400), domain.RatingA},
		{d(100), domain.RatingBBB},
		{d(20), domain.RatingBB},
	}

	// EBITDA / fixed assets, percent. Rungs below zero form the loss-making ladder.
	profitabilityLadder = []step{
		{d(15), domain.RatingAAA},
		{d(11), domain.RatingAA},
		{d(8), domain.RatingA},
		{d(4), domain.RatingBBB},
		{d(1), domain.RatingBB},
		{d(0), domain.RatingB},
		{d(-5), domain.RatingCCC},
		{d(-15), domain.RatingCC},
		{d(-30), domain.RatingC},
	}

	// EBITDA / interest, times.
	coverageLadder = []step{
		{d(12), domain.RatingAAA},
		{d(6), domain.RatingAA},
		{d(4), domain.RatingA},
		{d(2), domain.RatingBBB},
		{d(1), domain.RatingBB},
		{d(0.5), domain.RatingB},
		{d(0), domain.RatingCCC},
		{d(-2), domain.RatingCC},
		{d(-5), domain.RatingC},
	}

	dscrLadder = []step{
		{d(2.5), domain.RatingAAA},
		{d(2.0), domain.RatingAA},
		{d(1.6), domain.RatingA},
		{d(1.3), domain.RatingBBB},
		{d(1.1), domain.RatingBB},
		{d(1.0), domain.RatingB},
		{d(0.8), domain.RatingCCC},
		{d(0.5), domain.RatingCC},
		{d(0), domain.RatingC},
	}
)

// Ladders where a lower value is better: the first rung with value <= bound wins.
var (
	// Net debt / EBITDA for positive EBITDA, times.
	netLeverageLadder = []step{
		{d(1), domain.RatingAAA},
		{d(4), domain.RatingAA},
		{d(7), domain.RatingA},
		{d(10), domain.RatingBBB},
		{d(12), domain.RatingBB},
		{d(20), domain.RatingB},
	}

	// Debt / equity, percent.
	equityLeverageLadder = []step{
		{d(80), domain.RatingAAA},
		{d(150), domain.RatingAA},
		{d(250), domain.RatingA},
		{d(300), domain.RatingBBB},
		{d(400), domain.RatingBB},
	}

	// Debt / total assets, percent.
	assetLeverageLadder = []step{
		{d(20), domain.RatingAAA},
		{d(40), domain.RatingAA},
		{d(60), domain.RatingA},
		{d(80), domain.RatingBBB},
		{d(90), domain.RatingBB},
	}

	// Net debt / EBITDA when EBITDA is negative and net debt positive. The ratio is
	// negative; values near zero mean losses that are large relative to the debt.
	negativeNetLeverageLadder = []step{
		{d(-20), domain.RatingCCC},
		{d(-10), domain.RatingCC},
		{d(-5), domain.RatingC},
	}
)

func gradeAtLeast(v decimal.Decimal, ladder []step, floor domain.Rating) domain.Rating {
	for _, s := range ladder {
		if v.GreaterThanOrEqual(s.bound) {
			return s.rating
		}
	}
	return floor
}

func gradeAtMost(v decimal.Decimal, ladder []step, floor domain.Rating) domain.Rating {
	for _, s := range ladder {
		if v.LessThanOrEqual(s.bound) {
			return s.rating
		}
	}
	return floor
}

// RateCapacity grades nameplate capacity in MW.
func RateCapacity(mw decimal.Decimal) domain.Rating {
	return gradeAtLeast(mw, capacityLadder, domain.RatingB)
}

// RateProfitability grades EBITDA over fixed assets expressed in percent.
func RateProfitability(pct decimal.Decimal) domain.Rating {
	return gradeAtLeast(pct, profitabilityLadder, domain.RatingD)
}

// RateCoverage grades EBITDA over interest.
func RateCoverage(times decimal.Decimal) domain.Rating {
	return gradeAtLeast(times, coverageLadder, domain.RatingD)
}

// RateDSCR grades a debt service coverage ratio.
func RateDSCR(times decimal.Decimal) domain.Rating {
	return gradeAtLeast(times, dscrLadder, domain.RatingD)
}

// RateEquityLeverage grades debt over equity expressed in percent.
func RateEquityLeverage(pct decimal.Decimal) domain.Rating {
	return gradeAtMost(pct, equityLeverageLadder, domain.RatingB)
}

// RateAssetLeverage grades debt over total assets expressed in percent.
func RateAssetLeverage(pct decimal.Decimal) domain.Rating {
	return gradeAtMost(pct, assetLeverageLadder, domain.RatingB)
}

// RateNetLeverage grades net debt over EBITDA. The sign of EBITDA selects the ladder,
// so the grade never improves as EBITDA falls for a fixed net debt.
func RateNetLeverage(netDebt, ebitda decimal.Decimal) (domain.Rating, decimal.Decimal) {
	switch {
	case ebitda.IsPositive():
		ratio := netDebt.Div(ebitda)
		return gradeAtMost(ratio, netLeverageLadder, domain.RatingCCC), ratio
	case !netDebt.IsPositive():
		// Net cash but no operating earnings.
		return domain.RatingCCC, decimal.Zero
	case ebitda.IsZero():
		return domain.RatingCCC, decimal.Zero
	default:
		ratio := netDebt.Div(ebitda)
		return gradeAtMost(ratio, negativeNetLeverageLadder, domain.RatingD), ratio
	}
}
