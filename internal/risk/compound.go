package risk

import (
	"github.com/shopspring/decimal"
)

// Compound amplification applies when two or more hazards are active in the same year.
// The multiplier ranges from CompoundBase at negligible stress to
// CompoundBase+CompoundRange once the summed rates reach 1/StressScale.
var (
	CompoundBase  = decimal.NewFromFloat(1.2)
	CompoundRange = decimal.NewFromFloat(0.8)
	StressScale   = decimal.NewFromInt(10)
)

// CompoundMultiplier returns the amplification factor for the given hazard rates.
func CompoundMultiplier(rates ...decimal.Decimal) decimal.Decimal {
	active := 0
	sum := zero
	for _, r := range rates {
		if r.IsPositive() {
			active++
			sum = sum.Add(r)
		}
	}
	if active < 2 {
		return one
	}
	stress := decimal.Min(one, sum.Mul(StressScale))
	return CompoundBase.Add(CompoundRange.Mul(stress))
}

// Combined is the outcome of compounding a year's hazard rates.
type Combined struct {
	Outage     decimal.Decimal
	Derate     decimal.Decimal
	Multiplier decimal.Decimal
}

// Combine sums outage and derate rates, amplifies them with the compound multiplier,
// and caps each at 1.
func Combine(h HazardRates) Combined {
	all := make([]decimal.Decimal, 0, len(h.Outages)+len(h.Derates))
	all = append(all, h.Outages...)
	all = append(all, h.Derates...)
	m := CompoundMultiplier(all...)

	return Combined{
		Outage:     decimal.Min(one, positiveSum(h.Outages).Mul(m)),
		Derate:     decimal.Min(one, positiveSum(h.Derates).Mul(m)),
		Multiplier: m,
	}
}

func positiveSum(rates []decimal.Decimal) decimal.Decimal {
	sum := zero
	for _, r := range rates {
		if r.IsPositive() {
			sum = sum.Add(r)
		}
	}
	return sum
}
