package transform

import (
	"fmt"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// SetDispatchPenalty sets the flat capacity factor reduction of the generic
// transition scenario, creating it when absent.
type SetDispatchPenalty struct {
	Penalty decimal.Decimal
}

func (s *SetDispatchPenalty) Name() string {
	return "set_dispatch_penalty"
}

func (s *SetDispatchPenalty) Description() string {
	return fmt.Sprintf("Set dispatch penalty to %s of capacity", s.Penalty.StringFixed(3))
}

func (s *SetDispatchPenalty) Validate(base *domain.ScenarioBundle) error {
	if base == nil {
		return NewTransformError(s.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if s.Penalty.IsNegative() || s.Penalty.GreaterThan(decimal.NewFromInt(1)) {
		return NewTransformError(s.Name(), "validate", fmt.Sprintf("penalty must be between 0 and 1, got %s", s.Penalty), nil)
	}
	if base.PowerPlan != nil {
		return NewTransformError(s.Name(), "validate",
			fmt.Sprintf("scenario %s has a power plan trajectory, which overrides the dispatch penalty", base.Name), nil)
	}
	return nil
}

func (s *SetDispatchPenalty) Apply(base *domain.ScenarioBundle) (*domain.ScenarioBundle, error) {
	modified := base.DeepCopy()
	if modified.TransitionPenalty == nil {
		modified.TransitionPenalty = &domain.TransitionPenalty{}
	}
	modified.TransitionPenalty.DispatchPenalty = s.Penalty
	return modified, nil
}

// SetRetirementYear sets the policy retirement year on whichever transition input
// the risk layer will use: the power plan when present, else the generic scenario.
type SetRetirementYear struct {
	Year int
}

func (s *SetRetirementYear) Name() string {
	return "set_retirement_year"
}

func (s *SetRetirementYear) Description() string {
	return fmt.Sprintf("Retire the asset by policy in %d", s.Year)
}

func (s *SetRetirementYear) Validate(base *domain.ScenarioBundle) error {
	if base == nil {
		return NewTransformError(s.Name(), "validate", "base scenario cannot be nil", nil)
	}
	if s.Year <= 0 {
		return NewTransformError(s.Name(), "validate", fmt.Sprintf("year must be positive, got %d", s.Year), nil)
	}
	return nil
}

func (s *SetRetirementYear) Apply(base *domain.ScenarioBundle) (*domain.ScenarioBundle, error) {
	modified := base.DeepCopy()
	year := s.Year
	if modified.PowerPlan != nil {
		modified.PowerPlan.RetirementYear = &year
		return modified, nil
	}
	if modified.TransitionPenalty == nil {
		modified.TransitionPenalty = &domain.TransitionPenalty{}
	}
	modified.TransitionPenalty.RetirementYear = &year
	return modified, nil
}
