package transform

import (
	"fmt"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// ScaleCarbonPrice multiplies every carbon price point in the bundle by Factor.
// Both the explicit trajectory and the carbon points of a generic transition
// scenario are scaled, so the result holds whichever source the risk layer picks.
type ScaleCarbonPrice struct {
	Factor decimal.Decimal
}

func (s *ScaleCarbonPrice) Name() string {
	return "scale_carbon_price"
}

func (s *ScaleCarbonPrice) Description() string {
	return fmt.Sprintf("Scale carbon prices by %sx", s.Factor.StringFixed(2))
}

func (s *ScaleCarbonPrice) Validate(base *domain.ScenarioBundle) error {
	if base == nil {
		return NewTransformError(s.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if s.Factor.IsNegative() {
		return NewTransformError(s.Name(), "validate", fmt.Sprintf("factor must be non-negative, got %s", s.Factor), nil)
	}
	if !hasCarbonPath(base) {
		return NewTransformError(s.Name(), "validate", fmt.Sprintf("scenario %s has no carbon price path", base.Name), nil)
	}
	return nil
}

func (s *ScaleCarbonPrice) Apply(base *domain.ScenarioBundle) (*domain.ScenarioBundle, error) {
	modified := base.DeepCopy()
	if modified.CarbonPrice != nil {
		scaleSeries(modified.CarbonPrice.Prices, s.Factor)
	}
	if modified.TransitionPenalty != nil {
		scaleSeries(modified.TransitionPenalty.CarbonPrices, s.Factor)
	}
	return modified, nil
}

// SetCarbonPrice adds or replaces a single point on the explicit carbon price
// trajectory, creating the trajectory when the bundle has none.
type SetCarbonPrice struct {
	Year  int
	Price decimal.Decimal
}

func (s *SetCarbonPrice) Name() string {
	return "set_carbon_price"
}

func (s *SetCarbonPrice) Description() string {
	return fmt.Sprintf("Set carbon price in %d to $%s/t", s.Year, s.Price.StringFixed(2))
}

func (s *SetCarbonPrice) Validate(base *domain.ScenarioBundle) error {
	if base == nil {
		return NewTransformError(s.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if s.Year <= 0 {
		return NewTransformError(s.Name(), "validate", fmt.Sprintf("year must be positive, got %d", s.Year), nil)
	}
	if s.Price.IsNegative() {
		return NewTransformError(s.Name(), "validate", fmt.Sprintf("price must be non-negative, got %s", s.Price), nil)
	}
	return nil
}

func (s *SetCarbonPrice) Apply(base *domain.ScenarioBundle) (*domain.ScenarioBundle, error) {
	modified := base.DeepCopy()
	if modified.CarbonPrice == nil {
		modified.CarbonPrice = &domain.CarbonPriceTrajectory{}
	}
	if modified.CarbonPrice.Prices == nil {
		modified.CarbonPrice.Prices = make(map[int]decimal.Decimal)
	}
	modified.CarbonPrice.Prices[s.Year] = s.Price
	return modified, nil
}

func hasCarbonPath(b *domain.ScenarioBundle) bool {
	if b.CarbonPrice != nil && len(b.CarbonPrice.Prices) > 0 {
		return true
	}
	return b.TransitionPenalty != nil && len(b.TransitionPenalty.CarbonPrices) > 0
}

func scaleSeries(series map[int]decimal.Decimal, factor decimal.Decimal) {
	for y, v := range series {
		series[y] = v.Mul(factor)
	}
}
