package risk

import (
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// HazardRates are the individual hazard rates active in a year, before compounding.
type HazardRates struct {
	Outages        []decimal.Decimal
	Derates        []decimal.Decimal
	EfficiencyLoss decimal.Decimal
	// WaterCap is an absolute capacity factor ceiling; nil means unconstrained.
	WaterCap *decimal.Decimal
}

// PhysicalModel yields hazard rates per year. Exactly one implementation is active per run.
type PhysicalModel interface {
	Source() domain.DataSource
	Rates(year int) HazardRates
}

type noPhysical struct{}

func (noPhysical) Source() domain.DataSource { return domain.SourceNone }

func (noPhysical) Rates(int) HazardRates { return HazardRates{} }

// HazardDataModel reads site-specific hazard rates, interpolated between data years.
type HazardDataModel struct {
	profile domain.HazardProfile
	years   []int
}

// NewHazardDataModel builds a model over profile. The profile must hold at least one point.
func NewHazardDataModel(profile domain.HazardProfile) *HazardDataModel {
	return &HazardDataModel{profile: profile, years: domain.SortedYears(profile.Points)}
}

func (m *HazardDataModel) Source() domain.DataSource { return domain.SourceHazardData }

func (m *HazardDataModel) Rates(year int) HazardRates {
	p := m.pointAt(year)
	return HazardRates{
		Outages:        []decimal.Decimal{p.WildfireOutage, p.FloodOutage},
		Derates:        []decimal.Decimal{p.SeaLevelDerate},
		EfficiencyLoss: p.EfficiencyLoss,
	}
}

func (m *HazardDataModel) pointAt(year int) domain.HazardPoint {
	pts := m.profile.Points
	lo, hi := bracket(m.years, year)
	a, b := pts[m.years[lo]], pts[m.years[hi]]
	if lo == hi {
		return a
	}
	y0, y1 := m.years[lo], m.years[hi]
	return domain.HazardPoint{
		WildfireOutage: lerp(y0, a.WildfireOutage, y1, b.WildfireOutage, year),
		FloodOutage:    lerp(y0, a.FloodOutage, y1, b.FloodOutage, year),
		SeaLevelDerate: lerp(y0, a.SeaLevelDerate, y1, b.SeaLevelDerate, year),
		EfficiencyLoss: lerp(y0, a.EfficiencyLoss, y1, b.EfficiencyLoss, year),
	}
}

// PhysicalPenaltyModel applies the same flat rates in every year.
type PhysicalPenaltyModel struct {
	penalty domain.PhysicalPenalty
}

// NewPhysicalPenaltyModel builds a generic physical model.
func NewPhysicalPenaltyModel(p domain.PhysicalPenalty) *PhysicalPenaltyModel {
	return &PhysicalPenaltyModel{penalty: p}
}

func (m *PhysicalPenaltyModel) Source() domain.DataSource { return domain.SourcePhysicalPenalty }

func (m *PhysicalPenaltyModel) Rates(int) HazardRates {
	return HazardRates{
		Outages:        []decimal.Decimal{m.penalty.WildfireOutage},
		Derates:        []decimal.Decimal{m.penalty.DroughtDerate},
		EfficiencyLoss: m.penalty.EfficiencyLoss,
		WaterCap:       m.penalty.WaterAvailability,
	}
}
