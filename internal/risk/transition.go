package risk

import (
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// TransitionModel produces the policy-driven capacity factor for a year. Exactly one
// implementation is active per run; see Resolve.
type TransitionModel interface {
	Source() domain.DataSource
	// CapacityFactor returns the transition-implied capacity factor before any clamping.
	CapacityFactor(year int, design decimal.Decimal) decimal.Decimal
	// RetirementYear returns the policy retirement year, if any.
	RetirementYear() (int, bool)
}

type noTransition struct{}

func (noTransition) Source() domain.DataSource { return domain.SourceNone }

func (noTransition) CapacityFactor(_ int, design decimal.Decimal) decimal.Decimal { return design }

func (noTransition) RetirementYear() (int, bool) { return 0, false }

// PowerPlanModel follows a year-indexed capacity factor path from a national power plan.
type PowerPlanModel struct {
	plan  domain.PowerPlanTrajectory
	years []int
}

// NewPowerPlanModel builds a model over plan. The plan must hold at least one point.
func NewPowerPlanModel(plan domain.PowerPlanTrajectory) *PowerPlanModel {
	return &PowerPlanModel{plan: plan, years: domain.SortedYears(plan.CapacityFactors)}
}

func (m *PowerPlanModel) Source() domain.DataSource { return domain.SourcePowerPlan }

func (m *PowerPlanModel) RetirementYear() (int, bool) {
	if m.plan.RetirementYear == nil {
		return 0, false
	}
	return *m.plan.RetirementYear, true
}

// CapacityFactor interpolates between plan points. Past the last point the factor
// declines linearly to zero at the retirement year when one is set, otherwise the
// last value is held.
func (m *PowerPlanModel) CapacityFactor(year int, _ decimal.Decimal) decimal.Decimal {
	cfs := m.plan.CapacityFactors
	if ret, ok := m.RetirementYear(); ok && year >= ret {
		return zero
	}
	last := m.years[len(m.years)-1]
	if year > last {
		if ret, ok := m.RetirementYear(); ok && ret > last {
			return lerp(last, cfs[last], ret, zero, year)
		}
		return cfs[last]
	}
	return InterpolateFlat(cfs, year)
}

// PenaltyModel applies a flat dispatch penalty to the design capacity factor.
type PenaltyModel struct {
	penalty domain.TransitionPenalty
}

// NewPenaltyModel builds a generic transition model.
func NewPenaltyModel(p domain.TransitionPenalty) *PenaltyModel {
	return &PenaltyModel{penalty: p}
}

func (m *PenaltyModel) Source() domain.DataSource { return domain.SourceTransitionPenalty }

func (m *PenaltyModel) RetirementYear() (int, bool) {
	if m.penalty.RetirementYear == nil {
		return 0, false
	}
	return *m.penalty.RetirementYear, true
}

func (m *PenaltyModel) CapacityFactor(year int, design decimal.Decimal) decimal.Decimal {
	if ret, ok := m.RetirementYear(); ok && year >= ret {
		return zero
	}
	cf := design.Sub(m.penalty.DispatchPenalty)
	if cf.IsNegative() {
		return zero
	}
	return cf
}
