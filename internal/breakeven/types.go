package breakeven

import (
	"fmt"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// SearchTarget defines which stress input the solver varies
type SearchTarget string

const (
	TargetCarbonScale     SearchTarget = "carbon_scale"      // multiplier on the existing carbon path
	TargetFlatCarbonPrice SearchTarget = "flat_carbon_price" // flat $/t price replacing any carbon path
	TargetHazardScale     SearchTarget = "hazard_scale"      // multiplier on physical hazard rates
	TargetDispatchPenalty SearchTarget = "dispatch_penalty"  // flat capacity factor reduction
	TargetRetirementYear  SearchTarget = "retirement_year"   // policy retirement, searched from late to early
)

// AllTargets lists every search target in display order.
func AllTargets() []SearchTarget {
	return []SearchTarget{
		TargetCarbonScale,
		TargetFlatCarbonPrice,
		TargetHazardScale,
		TargetDispatchPenalty,
		TargetRetirementYear,
	}
}

// Goal defines the threshold whose crossing the solver locates
type Goal string

const (
	GoalLoseInvestmentGrade Goal = "lose_investment_grade" // rating falls below BBB or becomes unratable
	GoalRatingFloor         Goal = "rating_floor"          // rating falls below Constraints.RatingFloor
	GoalTargetCRP           Goal = "target_crp"            // CRP reaches Constraints.TargetCRPBps
	GoalZeroNPV             Goal = "zero_npv"              // equity NPV falls to zero or below
)

// Constraints bound the search and parameterise the goal
type Constraints struct {
	// Search range for the target. Nil bounds use the target's defaults. For
	// retirement_year the bounds are calendar years.
	Min *decimal.Decimal `json:"min,omitempty"`
	Max *decimal.Decimal `json:"max,omitempty"`

	// Worst acceptable rating for GoalRatingFloor
	RatingFloor domain.Rating `json:"rating_floor,omitempty"`

	// Premium threshold for GoalTargetCRP
	TargetCRPBps *decimal.Decimal `json:"target_crp_bps,omitempty"`
}

// Request defines the parameters for a break-even search
type Request struct {
	Plant         domain.PlantParameters `json:"-"`
	Base          *domain.ScenarioBundle `json:"-"`
	Target        SearchTarget           `json:"target"`
	Goal          Goal                   `json:"goal"`
	Constraints   Constraints            `json:"constraints"`
	MaxIterations int                    `json:"max_iterations"`
	Tolerance     decimal.Decimal        `json:"tolerance"`
}

// Result contains the outcome of a break-even search
type Result struct {
	Request         Request `json:"request"`
	Success         bool    `json:"success"`
	Iterations      int     `json:"iterations"`
	ConvergenceInfo string  `json:"convergence_info"`

	// BreakEvenValue is the least stressed value at which the goal is breached.
	// Nil when the goal holds across the whole search range.
	BreakEvenValue  *decimal.Decimal `json:"break_even_value,omitempty"`
	AlreadyBreached bool             `json:"already_breached"`

	// Outcomes at the break-even point and at the last safe point
	AtBreakEven *Outcome `json:"at_break_even,omitempty"`
	LastSafe    *Outcome `json:"last_safe,omitempty"`
}

// Outcome is the headline of one solver evaluation
type Outcome struct {
	Value         decimal.Decimal `json:"value"`
	Rating        domain.Rating   `json:"rating"`
	NPV           decimal.Decimal `json:"npv"`
	CRPBps        decimal.Decimal `json:"crp_bps"`
	DebtSpreadBps decimal.Decimal `json:"debt_spread_bps"`
	MinDSCR       domain.Measure  `json:"min_dscr"`
}

func newOutcome(value decimal.Decimal, r *domain.ScenarioResult) *Outcome {
	return &Outcome{
		Value:         value,
		Rating:        r.Rating.Overall,
		NPV:           r.Metrics.NPV,
		CRPBps:        r.Financing.CRPBps,
		DebtSpreadBps: r.Financing.DebtSpreadBps,
		MinDSCR:       r.Metrics.MinDSCR,
	}
}

// MultiTargetResult contains results when searching every target for one goal
type MultiTargetResult struct {
	Goal            Goal     `json:"goal"`
	Results         []Result `json:"results"`
	Skipped         []string `json:"skipped,omitempty"`
	Recommendations []string `json:"recommendations"`
}

// SolverOptions configures the solver algorithm
type SolverOptions struct {
	Tolerance     decimal.Decimal // Zero uses the per-target default
	MaxIterations int             // Maximum bisection steps
}

// DefaultSolverOptions returns default solver configuration
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		MaxIterations: 60,
	}
}

// Validate checks if constraints are internally consistent for goal
func (c *Constraints) Validate(goal Goal) error {
	if c.Min != nil && c.Max != nil && c.Min.GreaterThan(*c.Max) {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "min cannot be greater than max",
		}
	}

	switch goal {
	case GoalLoseInvestmentGrade, GoalZeroNPV:
	case GoalRatingFloor:
		if !c.RatingFloor.Valid() {
			return &BreakEvenError{
				Operation: "validate_constraints",
				Message:   "rating_floor goal requires a valid rating floor",
			}
		}
	case GoalTargetCRP:
		if c.TargetCRPBps == nil || !c.TargetCRPBps.IsPositive() {
			return &BreakEvenError{
				Operation: "validate_constraints",
				Message:   "target_crp goal requires a positive target_crp_bps",
			}
		}
	default:
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   fmt.Sprintf("unsupported goal: %s", goal),
		}
	}
	return nil
}

// Breached reports whether a scenario result crosses the goal's threshold.
func (c *Constraints) Breached(goal Goal, r *domain.ScenarioResult) bool {
	rating := r.Rating.Overall
	switch goal {
	case GoalLoseInvestmentGrade:
		return !rating.Valid() || !rating.IsInvestmentGrade()
	case GoalRatingFloor:
		return !rating.Valid() || rating > c.RatingFloor
	case GoalTargetCRP:
		return r.Financing.CRPBps.GreaterThanOrEqual(*c.TargetCRPBps)
	case GoalZeroNPV:
		return !r.Metrics.NPV.IsPositive()
	default:
		return false
	}
}

// BreakEvenError represents errors from break-even solver
type BreakEvenError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *BreakEvenError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *BreakEvenError) Unwrap() error {
	return e.Cause
}
