package risk

import (
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// CarbonPath is the resolved carbon price trajectory for a run.
type CarbonPath struct {
	source domain.DataSource
	prices map[int]decimal.Decimal
}

// Source reports where the prices came from.
func (c CarbonPath) Source() domain.DataSource { return c.source }

// PriceAt returns the carbon price for year.
func (c CarbonPath) PriceAt(year int) decimal.Decimal {
	return CarbonPriceAt(c.prices, year)
}

// Resolution is the outcome of priority resolution for one scenario bundle.
type Resolution struct {
	Transition TransitionModel
	Physical   PhysicalModel
	Carbon     CarbonPath
}

// Sources returns the data sources that won resolution.
func (r Resolution) Sources() domain.ResolvedSources {
	return domain.ResolvedSources{
		Transition: r.Transition.Source(),
		Physical:   r.Physical.Source(),
		Carbon:     r.Carbon.Source(),
	}
}

// Resolve picks one model per risk family. Detailed inputs win over generic ones:
// a power plan trajectory over a dispatch penalty, hazard data over a flat physical
// penalty, and an explicit carbon trajectory over the transition scenario's price points.
func Resolve(b *domain.ScenarioBundle) Resolution {
	res := Resolution{
		Transition: noTransition{},
		Physical:   noPhysical{},
		Carbon:     CarbonPath{source: domain.SourceNone},
	}
	if b == nil {
		return res
	}

	switch {
	case b.PowerPlan != nil && len(b.PowerPlan.CapacityFactors) > 0:
		res.Transition = NewPowerPlanModel(*b.PowerPlan)
	case b.TransitionPenalty != nil:
		res.Transition = NewPenaltyModel(*b.TransitionPenalty)
	}

	switch {
	case b.Hazards != nil && len(b.Hazards.Points) > 0:
		res.Physical = NewHazardDataModel(*b.Hazards)
	case b.PhysicalPenalty != nil:
		res.Physical = NewPhysicalPenaltyModel(*b.PhysicalPenalty)
	}

	switch {
	case b.CarbonPrice != nil && len(b.CarbonPrice.Prices) > 0:
		res.Carbon = CarbonPath{source: domain.SourceCarbonTrajectory, prices: b.CarbonPrice.Prices}
	case b.TransitionPenalty != nil && len(b.TransitionPenalty.CarbonPrices) > 0:
		res.Carbon = CarbonPath{source: domain.SourceTransitionCarbonPath, prices: b.TransitionPenalty.CarbonPrices}
	}

	return res
}
