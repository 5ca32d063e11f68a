package transform

import (
	"fmt"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// ScaleHazards multiplies physical hazard rates by Factor, capping each at 1.
// Hazard data points and the generic physical penalty are both scaled. Water
// availability is a cap rather than a hazard and is left alone.
type ScaleHazards struct {
	Factor decimal.Decimal
}

func (s *ScaleHazards) Name() string {
	return "scale_hazards"
}

func (s *ScaleHazards) Description() string {
	return fmt.Sprintf("Scale physical hazard rates by %sx", s.Factor.StringFixed(2))
}

func (s *ScaleHazards) Validate(base *domain.ScenarioBundle) error {
	if base == nil {
		return NewTransformError(s.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if s.Factor.IsNegative() {
		return NewTransformError(s.Name(), "validate", fmt.Sprintf("factor must be non-negative, got %s", s.Factor), nil)
	}
	if base.Hazards == nil && base.PhysicalPenalty == nil {
		return NewTransformError(s.Name(), "validate", fmt.Sprintf("scenario %s has no physical risk inputs", base.Name), nil)
	}
	return nil
}

func (s *ScaleHazards) Apply(base *domain.ScenarioBundle) (*domain.ScenarioBundle, error) {
	modified := base.DeepCopy()
	if modified.Hazards != nil {
		for y, p := range modified.Hazards.Points {
			p.WildfireOutage = s.scale(p.WildfireOutage)
			p.FloodOutage = s.scale(p.FloodOutage)
			p.SeaLevelDerate = s.scale(p.SeaLevelDerate)
			p.EfficiencyLoss = s.scale(p.EfficiencyLoss)
			modified.Hazards.Points[y] = p
		}
	}
	if pp := modified.PhysicalPenalty; pp != nil {
		pp.WildfireOutage = s.scale(pp.WildfireOutage)
		pp.DroughtDerate = s.scale(pp.DroughtDerate)
		pp.EfficiencyLoss = s.scale(pp.EfficiencyLoss)
	}
	return modified, nil
}

func (s *ScaleHazards) scale(rate decimal.Decimal) decimal.Decimal {
	return decimal.Min(rate.Mul(s.Factor), decimal.NewFromInt(1))
}

// ClearRisk drops one risk family from the bundle. Family is "transition",
// "physical" or "carbon".
type ClearRisk struct {
	Family string
}

func (c *ClearRisk) Name() string {
	return "clear_risk"
}

func (c *ClearRisk) Description() string {
	return fmt.Sprintf("Remove %s risk inputs", c.Family)
}

func (c *ClearRisk) Validate(base *domain.ScenarioBundle) error {
	if base == nil {
		return NewTransformError(c.Name(), "validate", "base scenario cannot be nil", nil)
	}
	switch c.Family {
	case "transition", "physical", "carbon":
		return nil
	default:
		return NewTransformError(c.Name(), "validate",
			fmt.Sprintf("family must be transition, physical or carbon, got %q", c.Family), nil)
	}
}

func (c *ClearRisk) Apply(base *domain.ScenarioBundle) (*domain.ScenarioBundle, error) {
	modified := base.DeepCopy()
	switch c.Family {
	case "transition":
		modified.PowerPlan = nil
		// carbon points survive as a trajectory until the carbon family is cleared
		if tp := modified.TransitionPenalty; tp != nil && len(tp.CarbonPrices) > 0 && modified.CarbonPrice == nil {
			modified.CarbonPrice = &domain.CarbonPriceTrajectory{Reference: "transition", Prices: tp.CarbonPrices}
		}
		modified.TransitionPenalty = nil
	case "physical":
		modified.Hazards = nil
		modified.PhysicalPenalty = nil
	case "carbon":
		modified.CarbonPrice = nil
		if modified.TransitionPenalty != nil {
			modified.TransitionPenalty.CarbonPrices = nil
		}
	}
	return modified, nil
}
