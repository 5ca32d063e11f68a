package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ScenarioBundle is a named collection of risk inputs. Each risk family may be supplied
// in a detailed (data-driven) and a generic (flat penalty) form; the risk layer decides
// which one applies.
type ScenarioBundle struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	PowerPlan         *PowerPlanTrajectory   `yaml:"power_plan,omitempty" json:"power_plan,omitempty"`
	TransitionPenalty *TransitionPenalty     `yaml:"transition,omitempty" json:"transition,omitempty"`
	Hazards           *HazardProfile         `yaml:"hazards,omitempty" json:"hazards,omitempty"`
	PhysicalPenalty   *PhysicalPenalty       `yaml:"physical,omitempty" json:"physical,omitempty"`
	CarbonPrice       *CarbonPriceTrajectory `yaml:"carbon_price,omitempty" json:"carbon_price,omitempty"`
}

// IsRiskFree reports whether the bundle carries no risk inputs at all.
func (b ScenarioBundle) IsRiskFree() bool {
	return b.PowerPlan == nil && b.TransitionPenalty == nil && b.Hazards == nil &&
		b.PhysicalPenalty == nil && b.CarbonPrice == nil
}

// DeepCopy returns a copy that shares no maps or pointers with b.
func (b ScenarioBundle) DeepCopy() *ScenarioBundle {
	out := b
	if b.PowerPlan != nil {
		pp := *b.PowerPlan
		pp.CapacityFactors = copyYearSeries(b.PowerPlan.CapacityFactors)
		pp.RetirementYear = copyIntPtr(b.PowerPlan.RetirementYear)
		out.PowerPlan = &pp
	}
	if b.TransitionPenalty != nil {
		tp := *b.TransitionPenalty
		tp.CarbonPrices = copyYearSeries(b.TransitionPenalty.CarbonPrices)
		tp.RetirementYear = copyIntPtr(b.TransitionPenalty.RetirementYear)
		out.TransitionPenalty = &tp
	}
	if b.Hazards != nil {
		hp := *b.Hazards
		if b.Hazards.Points != nil {
			hp.Points = make(map[int]HazardPoint, len(b.Hazards.Points))
			for y, p := range b.Hazards.Points {
				hp.Points[y] = p
			}
		}
		out.Hazards = &hp
	}
	if b.PhysicalPenalty != nil {
		pp := *b.PhysicalPenalty
		pp.WaterAvailability = copyDecimalPtr(b.PhysicalPenalty.WaterAvailability)
		out.PhysicalPenalty = &pp
	}
	if b.CarbonPrice != nil {
		cp := *b.CarbonPrice
		cp.Prices = copyYearSeries(b.CarbonPrice.Prices)
		out.CarbonPrice = &cp
	}
	return &out
}

// PowerPlanTrajectory is a policy-derived capacity factor path for the asset, for example
// from a national electricity plan. It takes precedence over a generic dispatch penalty.
type PowerPlanTrajectory struct {
	Reference       string                  `yaml:"reference,omitempty" json:"reference,omitempty"`
	CapacityFactors map[int]decimal.Decimal `yaml:"capacity_factors" json:"capacity_factors" validate:"required,min=1"`
	RetirementYear  *int                    `yaml:"retirement_year,omitempty" json:"retirement_year,omitempty"`
}

// TransitionPenalty is the generic transition scenario: a flat reduction of the design
// capacity factor, an optional policy retirement year, and optional carbon price points.
type TransitionPenalty struct {
	DispatchPenalty decimal.Decimal         `yaml:"dispatch_penalty" json:"dispatch_penalty" validate:"gte=0,lte=1"`
	RetirementYear  *int                    `yaml:"retirement_year,omitempty" json:"retirement_year,omitempty"`
	CarbonPrices    map[int]decimal.Decimal `yaml:"carbon_prices,omitempty" json:"carbon_prices,omitempty"`
}

// HazardPoint holds hazard-model rates for a single year.
type HazardPoint struct {
	WildfireOutage decimal.Decimal `yaml:"wildfire_outage" json:"wildfire_outage" validate:"gte=0,lte=1"`
	FloodOutage    decimal.Decimal `yaml:"flood_outage" json:"flood_outage" validate:"gte=0,lte=1"`
	SeaLevelDerate decimal.Decimal `yaml:"sea_level_derate" json:"sea_level_derate" validate:"gte=0,lte=1"`
	EfficiencyLoss decimal.Decimal `yaml:"efficiency_loss,omitempty" json:"efficiency_loss,omitempty" validate:"gte=0,lte=1"`
}

// HazardProfile is site-specific hazard data keyed by year, typically produced offline by
// a hazard model for one emissions pathway.
type HazardProfile struct {
	Pathway string              `yaml:"pathway,omitempty" json:"pathway,omitempty"`
	Points  map[int]HazardPoint `yaml:"points" json:"points" validate:"required,min=1,dive"`
}

// PhysicalPenalty is the generic physical scenario with flat rates for every year.
type PhysicalPenalty struct {
	WildfireOutage    decimal.Decimal `yaml:"wildfire_outage" json:"wildfire_outage" validate:"gte=0,lte=1"`
	DroughtDerate     decimal.Decimal `yaml:"drought_derate" json:"drought_derate" validate:"gte=0,lte=1"`
	EfficiencyLoss    decimal.Decimal `yaml:"efficiency_loss" json:"efficiency_loss" validate:"gte=0,lte=1"`
	WaterAvailability *decimal.Decimal `yaml:"water_availability,omitempty" json:"water_availability,omitempty" validate:"omitempty,gte=0,lte=1"` // nil means unconstrained
}

// CarbonPriceTrajectory is an explicit carbon price path in $/tCO2.
type CarbonPriceTrajectory struct {
	Reference string                  `yaml:"reference,omitempty" json:"reference,omitempty"`
	Prices    map[int]decimal.Decimal `yaml:"prices" json:"prices" validate:"required,min=1"`
}

// SortedYears returns the keys of a year-indexed series in ascending order.
func SortedYears[V any](series map[int]V) []int {
	years := make([]int, 0, len(series))
	for y := range series {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func copyYearSeries(in map[int]decimal.Decimal) map[int]decimal.Decimal {
	if in == nil {
		return nil
	}
	out := make(map[int]decimal.Decimal, len(in))
	for y, v := range in {
		out[y] = v
	}
	return out
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyDecimalPtr(p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// DataSource names the input that produced a family of adjustments.
type DataSource string

const (
	SourceNone                 DataSource = "none"
	SourcePowerPlan            DataSource = "power_plan_trajectory"
	SourceTransitionPenalty    DataSource = "generic_dispatch_penalty"
	SourceHazardData           DataSource = "hazard_data"
	SourcePhysicalPenalty      DataSource = "generic_physical_penalty"
	SourceCarbonTrajectory     DataSource = "carbon_price_trajectory"
	SourceTransitionCarbonPath DataSource = "transition_carbon_points"
)

// ResolvedSources records which inputs won the priority resolution for a run.
type ResolvedSources struct {
	Transition DataSource `json:"transition"`
	Physical   DataSource `json:"physical"`
	Carbon     DataSource `json:"carbon"`
}
