package risk

import (
	"fmt"

	"github.com/rgehrsitz/crp/internal/domain"
)

// Layer converts a scenario bundle into per-year operating adjustments for one plant.
type Layer struct {
	plant        domain.PlantParameters
	resolution   Resolution
	lifetime     int
	retiredEarly bool
}

// NewLayer resolves the bundle and fixes the operating lifetime. A policy retirement
// year at or before COD violates the input contract.
func NewLayer(plant domain.PlantParameters, bundle *domain.ScenarioBundle) (*Layer, error) {
	res := Resolve(bundle)
	l := &Layer{
		plant:      plant,
		resolution: res,
		lifetime:   plant.DesignLifeYears,
	}
	if ret, ok := res.Transition.RetirementYear(); ok {
		if ret <= plant.CODYear {
			return nil, domain.ScenarioError("retirement_year",
				"retirement year %d must be after COD year %d", ret, plant.CODYear)
		}
		if span := ret - plant.CODYear; span < l.lifetime {
			l.lifetime = span
			l.retiredEarly = true
		}
	}
	return l, nil
}

// Sources returns the resolved data sources.
func (l *Layer) Sources() domain.ResolvedSources {
	return l.resolution.Sources()
}

// OperatingLifetime is min(design life, retirement year - COD).
func (l *Layer) OperatingLifetime() int {
	return l.lifetime
}

// RetiredEarly reports whether policy retirement shortened the design life.
func (l *Layer) RetiredEarly() bool {
	return l.retiredEarly
}

// Adjust returns the adjustment for a single calendar year. Years past retirement
// yield a zero capacity factor.
func (l *Layer) Adjust(year int) (domain.YearlyAdjustment, error) {
	if year < l.plant.CODYear {
		return domain.YearlyAdjustment{}, fmt.Errorf("%w: year %d, COD %d",
			domain.ErrYearBeforeOperation, year, l.plant.CODYear)
	}

	adj := domain.YearlyAdjustment{
		Year:               year,
		CarbonPrice:        l.resolution.Carbon.PriceAt(year),
		CompoundMultiplier: one,
		PhysicalMultiplier: one,
	}
	if year >= l.plant.CODYear+l.lifetime {
		return adj, nil
	}

	design := l.plant.CapacityFactor
	cf := l.resolution.Transition.CapacityFactor(year, design)
	if cf.GreaterThan(design) {
		cf = design
		adj.Clamped = true
	}
	if cf.IsNegative() {
		cf = zero
		adj.Clamped = true
	}

	rates := l.resolution.Physical.Rates(year)
	if rates.WaterCap != nil && cf.GreaterThan(*rates.WaterCap) {
		cf = *rates.WaterCap
	}
	combined := Combine(rates)

	adj.TransitionCF = cf
	adj.OutageRate = combined.Outage
	adj.CapacityDerate = combined.Derate
	adj.CompoundMultiplier = combined.Multiplier
	adj.EfficiencyLoss = rates.EfficiencyLoss
	adj.PhysicalMultiplier = one.Sub(combined.Derate).Mul(one.Sub(combined.Outage))
	adj.EffectiveCF = cf.Mul(adj.PhysicalMultiplier)
	return adj, nil
}

// Schedule returns adjustments for every operating year starting at COD.
func (l *Layer) Schedule() ([]domain.YearlyAdjustment, error) {
	out := make([]domain.YearlyAdjustment, 0, l.lifetime)
	for i := 0; i < l.lifetime; i++ {
		adj, err := l.Adjust(l.plant.CODYear + i)
		if err != nil {
			return nil, err
		}
		out = append(out, adj)
	}
	return out, nil
}

// Adjust is a convenience wrapper resolving bundle and adjusting a single year.
func Adjust(plant domain.PlantParameters, bundle *domain.ScenarioBundle, year int) (domain.YearlyAdjustment, error) {
	l, err := NewLayer(plant, bundle)
	if err != nil {
		return domain.YearlyAdjustment{}, err
	}
	return l.Adjust(year)
}
