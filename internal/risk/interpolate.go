package risk

import (
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	zero = decimal.Zero
	one  = decimal.NewFromInt(1)
)

// lerp returns the straight-line value at x between (x0, v0) and (x1, v1).
func lerp(x0 int, v0 decimal.Decimal, x1 int, v1 decimal.Decimal, x int) decimal.Decimal {
	if x1 == x0 {
		return v0
	}
	frac := decimal.NewFromInt(int64(x - x0)).Div(decimal.NewFromInt(int64(x1 - x0)))
	return v0.Add(v1.Sub(v0).Mul(frac))
}

// bracket locates year within sorted years. It returns the indices of the
// surrounding points; lo == hi when year is on a point or outside the range.
func bracket(years []int, year int) (lo, hi int) {
	n := len(years)
	if year <= years[0] {
		return 0, 0
	}
	if year >= years[n-1] {
		return n - 1, n - 1
	}
	for i := 1; i < n; i++ {
		if year == years[i] {
			return i, i
		}
		if year < years[i] {
			return i - 1, i
		}
	}
	return n - 1, n - 1
}

// InterpolateFlat interpolates a year series linearly and holds the end values flat
// outside the defined range. An empty series yields zero.
func InterpolateFlat(series map[int]decimal.Decimal, year int) decimal.Decimal {
	if len(series) == 0 {
		return zero
	}
	years := domain.SortedYears(series)
	lo, hi := bracket(years, year)
	if lo == hi {
		return series[years[lo]]
	}
	return lerp(years[lo], series[years[lo]], years[hi], series[years[hi]], year)
}

// CarbonPriceAt returns the carbon price for year from a price path. Before the first
// point the first price applies; past the last point the path is extrapolated linearly
// from the final two points and floored at zero.
func CarbonPriceAt(prices map[int]decimal.Decimal, year int) decimal.Decimal {
	if len(prices) == 0 {
		return zero
	}
	years := domain.SortedYears(prices)
	n := len(years)
	last := years[n-1]
	if year > last && n >= 2 {
		prev := years[n-2]
		v := lerp(prev, prices[prev], last, prices[last], year)
		if v.IsNegative() {
			return zero
		}
		return v
	}
	v := InterpolateFlat(prices, year)
	if v.IsNegative() {
		return zero
	}
	return v
}
