package domain

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared struct validator. Decimal fields are compared as
// float64 so numeric tags such as gt=0 apply to them.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
			if d, ok := v.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})
	})
	return validate
}

// Validate checks the plant against its input contract.
func (p PlantParameters) Validate() error {
	if err := structErrors(p, ErrInvalidPlant); err != nil {
		return err
	}
	if p.DebtFraction.IsPositive() && p.DebtTenorYears == 0 {
		return PlantError("debt_tenor_years", "must be positive when debt_fraction is %s", p.DebtFraction)
	}
	return nil
}

// Validate checks the financing parameters.
func (f FinancingParameters) Validate() error {
	if err := structErrors(f, ErrInvalidPlant); err != nil {
		return err
	}
	if f.CRPMode != "" && !f.CRPMode.Valid() {
		return PlantError("crp_mode", "unknown mode %q", f.CRPMode)
	}
	if f.CounterfactualRating != Unrated && !f.CounterfactualRating.Valid() {
		return PlantError("counterfactual_rating", "invalid rating %d", int(f.CounterfactualRating))
	}
	return nil
}

// Validate checks a scenario bundle in the context of the plant it will be applied to.
func (b ScenarioBundle) Validate(plant PlantParameters) error {
	if err := structErrors(b, ErrInvalidScenario); err != nil {
		return err
	}
	if b.PowerPlan != nil {
		for y, cf := range b.PowerPlan.CapacityFactors {
			if cf.IsNegative() {
				return ScenarioError("power_plan.capacity_factors", "year %d has negative capacity factor %s", y, cf)
			}
		}
		if err := checkRetirement(b.PowerPlan.RetirementYear, plant, "power_plan.retirement_year"); err != nil {
			return err
		}
	}
	if b.TransitionPenalty != nil {
		if err := checkRetirement(b.TransitionPenalty.RetirementYear, plant, "transition.retirement_year"); err != nil {
			return err
		}
		for y, price := range b.TransitionPenalty.CarbonPrices {
			if price.IsNegative() {
				return ScenarioError("transition.carbon_prices", "year %d has negative price %s", y, price)
			}
		}
	}
	if b.CarbonPrice != nil {
		for y, price := range b.CarbonPrice.Prices {
			if price.IsNegative() {
				return ScenarioError("carbon_price.prices", "year %d has negative price %s", y, price)
			}
		}
	}
	return nil
}

func checkRetirement(year *int, plant PlantParameters, field string) error {
	if year != nil && *year <= plant.CODYear {
		return ScenarioError(field, "retirement year %d must be after COD year %d", *year, plant.CODYear)
	}
	return nil
}

// structErrors runs tag validation and converts the first failure into a ValidationError.
func structErrors(s any, kind error) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg := fmt.Sprintf("failed %q", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed %s=%s (got %v)", fe.Tag(), fe.Param(), fe.Value())
		}
		return &ValidationError{Field: fe.Namespace(), Message: msg, Kind: kind}
	}
	return &ValidationError{Message: err.Error(), Kind: kind}
}
