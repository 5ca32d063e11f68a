package breakeven

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/crp/internal/calculation"
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/rgehrsitz/crp/internal/transform"
	"github.com/shopspring/decimal"
)

var two = decimal.NewFromInt(2)

// Solver locates the stress level at which a scenario crosses a credit or value threshold
type Solver struct {
	CalcEngine *calculation.CalculationEngine
	Options    SolverOptions
}

// NewSolver creates a new break-even solver
func NewSolver(calcEngine *calculation.CalculationEngine, options SolverOptions) *Solver {
	return &Solver{
		CalcEngine: calcEngine,
		Options:    options,
	}
}

// NewDefaultSolver creates a solver with default options
func NewDefaultSolver(calcEngine *calculation.CalculationEngine) *Solver {
	return NewSolver(calcEngine, DefaultSolverOptions())
}

// axis maps a monotone stress coordinate onto scenario inputs. Larger coordinates
// are always more stressed.
type axis struct {
	lo, hi    decimal.Decimal
	tolerance decimal.Decimal
	integer   bool
	apply     func(base *domain.ScenarioBundle, v decimal.Decimal) (*domain.ScenarioBundle, error)
	report    func(v decimal.Decimal) decimal.Decimal
}

func identity(v decimal.Decimal) decimal.Decimal { return v }

func single(t transform.ScenarioTransform) []transform.ScenarioTransform {
	return []transform.ScenarioTransform{t}
}

func bounds(c Constraints, lo, hi decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if c.Min != nil {
		lo = *c.Min
	}
	if c.Max != nil {
		hi = *c.Max
	}
	return lo, hi
}

func (s *Solver) axisFor(req Request) (axis, error) {
	c := req.Constraints
	switch req.Target {
	case TargetCarbonScale:
		lo, hi := bounds(c, decimal.Zero, decimal.NewFromInt(20))
		return axis{
			lo: lo, hi: hi, tolerance: decimal.NewFromFloat(0.001), report: identity,
			apply: func(b *domain.ScenarioBundle, v decimal.Decimal) (*domain.ScenarioBundle, error) {
				return transform.ApplyTransforms(b, single(&transform.ScaleCarbonPrice{Factor: v}))
			},
		}, nil

	case TargetFlatCarbonPrice:
		lo, hi := bounds(c, decimal.Zero, decimal.NewFromInt(500))
		return axis{
			lo: lo, hi: hi, tolerance: decimal.NewFromFloat(0.01), report: identity,
			apply: func(b *domain.ScenarioBundle, v decimal.Decimal) (*domain.ScenarioBundle, error) {
				return transform.ApplyTransforms(b, []transform.ScenarioTransform{
					&transform.ClearRisk{Family: "carbon"},
					&transform.SetCarbonPrice{Year: req.Plant.CODYear, Price: v},
				})
			},
		}, nil

	case TargetHazardScale:
		lo, hi := bounds(c, decimal.Zero, decimal.NewFromInt(10))
		return axis{
			lo: lo, hi: hi, tolerance: decimal.NewFromFloat(0.001), report: identity,
			apply: func(b *domain.ScenarioBundle, v decimal.Decimal) (*domain.ScenarioBundle, error) {
				return transform.ApplyTransforms(b, single(&transform.ScaleHazards{Factor: v}))
			},
		}, nil

	case TargetDispatchPenalty:
		lo, hi := bounds(c, decimal.Zero, decimal.NewFromInt(1))
		return axis{
			lo: lo, hi: hi, tolerance: decimal.NewFromFloat(0.0001), report: identity,
			apply: func(b *domain.ScenarioBundle, v decimal.Decimal) (*domain.ScenarioBundle, error) {
				return transform.ApplyTransforms(b, single(&transform.SetDispatchPenalty{Penalty: v}))
			},
		}, nil

	case TargetRetirementYear:
		// coordinate v retires the asset v years before the end of its design life
		earliest, latest := bounds(c,
			decimal.NewFromInt(int64(req.Plant.CODYear+1)),
			decimal.NewFromInt(int64(req.Plant.CODYear+req.Plant.DesignLifeYears)))
		if earliest.LessThanOrEqual(decimal.NewFromInt(int64(req.Plant.CODYear))) {
			return axis{}, &BreakEvenError{
				Operation: "search_retirement_year",
				Message:   fmt.Sprintf("earliest retirement year must be after COD %d", req.Plant.CODYear),
			}
		}
		toYear := func(v decimal.Decimal) decimal.Decimal { return latest.Sub(v) }
		return axis{
			lo: decimal.Zero, hi: latest.Sub(earliest), tolerance: decimal.NewFromInt(1), integer: true,
			report: toYear,
			apply: func(b *domain.ScenarioBundle, v decimal.Decimal) (*domain.ScenarioBundle, error) {
				year := int(toYear(v).IntPart())
				return transform.ApplyTransforms(b, single(&transform.SetRetirementYear{Year: year}))
			},
		}, nil

	default:
		return axis{}, &BreakEvenError{
			Operation: "solve",
			Message:   fmt.Sprintf("unsupported search target: %s", req.Target),
		}
	}
}

// Solve bisects the target's stress range for the least stressed point at which the
// goal is breached. The goal must be monotone in the stress coordinate.
func (s *Solver) Solve(ctx context.Context, req Request) (*Result, error) {
	if req.Base == nil {
		return nil, &BreakEvenError{Operation: "solve", Message: "base scenario cannot be nil"}
	}
	if s.CalcEngine == nil {
		return nil, &BreakEvenError{Operation: "solve", Message: "calculation engine is required"}
	}
	if err := req.Constraints.Validate(req.Goal); err != nil {
		return nil, err
	}
	if err := s.CalcEngine.Validate(req.Plant); err != nil {
		return nil, &BreakEvenError{Operation: "solve", Message: "invalid plant", Cause: err}
	}

	if req.MaxIterations <= 0 {
		req.MaxIterations = s.Options.MaxIterations
	}
	if req.MaxIterations <= 0 {
		req.MaxIterations = DefaultSolverOptions().MaxIterations
	}

	ax, err := s.axisFor(req)
	if err != nil {
		return nil, err
	}
	if req.Tolerance.IsPositive() {
		ax.tolerance = req.Tolerance
	} else if s.Options.Tolerance.IsPositive() {
		ax.tolerance = s.Options.Tolerance
	}
	req.Tolerance = ax.tolerance
	if ax.lo.GreaterThan(ax.hi) {
		return nil, &BreakEvenError{Operation: "solve", Message: "search range is empty"}
	}

	ref, err := s.CalcEngine.Reference(ctx, req.Plant, nil)
	if err != nil {
		return nil, &BreakEvenError{Operation: "solve", Message: "failed to evaluate reference", Cause: err}
	}

	iterations := 0
	evaluate := func(v decimal.Decimal) (*domain.ScenarioResult, bool, error) {
		iterations++
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		default:
		}

		bundle, err := ax.apply(req.Base, v)
		if err != nil {
			return nil, false, &BreakEvenError{
				Operation: "search_" + string(req.Target),
				Message:   "failed to apply stress",
				Cause:     err,
			}
		}
		bundle.Name = fmt.Sprintf("%s@%s=%s", req.Base.Name, req.Target, ax.report(v).String())

		res, err := s.CalcEngine.RunScenarioWithReference(ctx, req.Plant, bundle, ref)
		if err != nil {
			return nil, false, &BreakEvenError{
				Operation: "search_" + string(req.Target),
				Message:   "failed to calculate scenario",
				Cause:     err,
			}
		}
		return res, req.Constraints.Breached(req.Goal, res), nil
	}

	result := &Result{Request: req}

	loRes, breached, err := evaluate(ax.lo)
	if err != nil {
		return nil, err
	}
	if breached {
		value := ax.report(ax.lo)
		result.Success = true
		result.AlreadyBreached = true
		result.BreakEvenValue = &value
		result.AtBreakEven = newOutcome(value, loRes)
		result.Iterations = iterations
		result.ConvergenceInfo = "goal already breached at the least stressed bound"
		return result, nil
	}

	hiRes, breached, err := evaluate(ax.hi)
	if err != nil {
		return nil, err
	}
	if !breached {
		result.Success = true
		result.LastSafe = newOutcome(ax.report(ax.hi), hiRes)
		result.Iterations = iterations
		result.ConvergenceInfo = "goal holds across the search range"
		return result, nil
	}

	lo, hi := ax.lo, ax.hi
	for hi.Sub(lo).GreaterThan(ax.tolerance) && iterations < req.MaxIterations {
		mid := lo.Add(hi).Div(two)
		if ax.integer {
			mid = mid.Floor()
			if mid.Equal(lo) {
				break
			}
		}

		res, breached, err := evaluate(mid)
		if err != nil {
			return nil, err
		}
		if breached {
			hi, hiRes = mid, res
		} else {
			lo, loRes = mid, res
		}
	}

	value := ax.report(hi)
	result.BreakEvenValue = &value
	result.AtBreakEven = newOutcome(value, hiRes)
	result.LastSafe = newOutcome(ax.report(lo), loRes)
	result.Iterations = iterations
	if hi.Sub(lo).GreaterThan(ax.tolerance) {
		result.ConvergenceInfo = fmt.Sprintf("Max iterations (%d) reached", req.MaxIterations)
		return result, nil
	}
	result.Success = true
	result.ConvergenceInfo = fmt.Sprintf("Bisection converged within %s", ax.tolerance.String())

	if s.CalcEngine.Logger != nil {
		s.CalcEngine.Logger.Debugf("break-even %s/%s on %s: %s after %d evaluations",
			req.Target, req.Goal, req.Base.Name, value.String(), iterations)
	}
	return result, nil
}
