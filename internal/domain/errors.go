package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPlant is returned when plant parameters violate the input contract.
	ErrInvalidPlant = errors.New("invalid plant parameters")
	// ErrInvalidScenario is returned when a scenario bundle violates the input contract.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrYearBeforeOperation is returned when an adjustment is requested before COD.
	ErrYearBeforeOperation = errors.New("year precedes commercial operation")
)

// ValidationError describes a single input contract violation.
type ValidationError struct {
	Field   string
	Message string
	Kind    error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v: %s: %s", e.Kind, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

// PlantError builds a ValidationError for plant parameters.
func PlantError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Kind: ErrInvalidPlant}
}

// ScenarioError builds a ValidationError for a scenario bundle.
func ScenarioError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Kind: ErrInvalidScenario}
}
