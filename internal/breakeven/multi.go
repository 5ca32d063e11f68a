package breakeven

import (
	"context"
	"errors"
	"fmt"

	"github.com/rgehrsitz/crp/internal/domain"
)

// SolveAllTargets runs one search per target for the same goal. Targets the base
// scenario cannot express, such as scaling a carbon path it does not have, are
// skipped with the reason recorded.
func (s *Solver) SolveAllTargets(
	ctx context.Context,
	plant domain.PlantParameters,
	base *domain.ScenarioBundle,
	goal Goal,
	constraints Constraints,
) (*MultiTargetResult, error) {
	if err := constraints.Validate(goal); err != nil {
		return nil, err
	}
	// Bounds are per-target, so shared constraints only carry the goal parameters.
	constraints.Min, constraints.Max = nil, nil

	multi := &MultiTargetResult{Goal: goal}
	for _, target := range AllTargets() {
		result, err := s.Solve(ctx, Request{
			Plant:       plant,
			Base:        base,
			Target:      target,
			Goal:        goal,
			Constraints: constraints,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			multi.Skipped = append(multi.Skipped, fmt.Sprintf("%s: %v", target, err))
			continue
		}
		multi.Results = append(multi.Results, *result)
	}

	if len(multi.Results) == 0 {
		return nil, &BreakEvenError{
			Operation: "solve_all_targets",
			Message:   "no target could be searched for this scenario",
		}
	}

	multi.Recommendations = generateRecommendations(multi)
	return multi, nil
}

func generateRecommendations(multi *MultiTargetResult) []string {
	var recommendations []string
	for _, r := range multi.Results {
		switch {
		case r.AlreadyBreached:
			recommendations = append(recommendations,
				fmt.Sprintf("⚠️ %s: %s is breached even at the least stressed bound", r.Request.Target, multi.Goal))
		case r.BreakEvenValue == nil:
			recommendations = append(recommendations,
				fmt.Sprintf("%s: no break-even within the search range", r.Request.Target))
		default:
			recommendations = append(recommendations,
				fmt.Sprintf("%s: %s at %s", r.Request.Target, multi.Goal, FormatValue(r.Request.Target, *r.BreakEvenValue)))
		}
	}
	return recommendations
}
