package calculation

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/rgehrsitz/crp/internal/financing"
	"github.com/rgehrsitz/crp/internal/rating"
	"github.com/rgehrsitz/crp/internal/risk"
	"golang.org/x/sync/errgroup"
)

// CalculationEngine orchestrates a scenario through risk adjustment, cash flow
// projection, metrics, rating, and financing. It holds no per-run state and may be
// shared across goroutines.
type CalculationEngine struct {
	Financing  domain.FinancingParameters
	Rater      *rating.Engine
	IRROptions IRROptions

	// Parallelism bounds concurrent runs in RunBatch; zero means GOMAXPROCS.
	Parallelism int
	// BaselineScenario names the batch member used as the reference in baseline mode.
	// When empty or absent the unadjusted plant is the baseline.
	BaselineScenario string

	Logger Logger
}

// NewCalculationEngine creates an engine with the default financing calibration.
func NewCalculationEngine() *CalculationEngine {
	return NewCalculationEngineWithFinancing(domain.DefaultFinancingParameters())
}

// NewCalculationEngineWithFinancing creates an engine for the given financing parameters.
func NewCalculationEngineWithFinancing(f domain.FinancingParameters) *CalculationEngine {
	return &CalculationEngine{
		Financing:  f.WithDefaults(),
		Rater:      rating.NewEngine(),
		IRROptions: DefaultIRROptions(),
		Logger:     NopLogger{},
	}
}

// SetLogger replaces the logger; nil installs a no-op logger.
func (ce *CalculationEngine) SetLogger(l Logger) {
	if l == nil {
		ce.Logger = NopLogger{}
		return
	}
	ce.Logger = l
}

func (ce *CalculationEngine) logger() Logger {
	if ce.Logger == nil {
		return NopLogger{}
	}
	return ce.Logger
}

func (ce *CalculationEngine) rater() *rating.Engine {
	if ce.Rater == nil {
		return rating.NewEngine()
	}
	return ce.Rater
}

func (ce *CalculationEngine) irrOptions() IRROptions {
	if ce.IRROptions.MaxIterations <= 0 {
		return DefaultIRROptions()
	}
	return ce.IRROptions
}

// Evaluation is a scenario carried through everything except financing.
type Evaluation struct {
	Bundle       domain.ScenarioBundle
	Sources      domain.ResolvedSources
	Lifetime     int
	RetiredEarly bool
	Adjustments  []domain.YearlyAdjustment
	CashFlows    []domain.CashFlowYear
	Schedule     DebtSchedule
	Metrics      domain.FinancialMetrics
	RatingInputs domain.RatingMetrics
	Rating       domain.RatingAssessment
	RatingPath   []domain.YearRating
	Diagnostics  []string
}

// Evaluate runs the risk layer, cash flow engine, metrics, and rating for one bundle.
// Inputs are assumed valid; see Validate.
func (ce *CalculationEngine) Evaluate(plant domain.PlantParameters, bundle *domain.ScenarioBundle) (*Evaluation, error) {
	if bundle == nil {
		bundle = &domain.ScenarioBundle{Name: "unadjusted"}
	}
	layer, err := risk.NewLayer(plant, bundle)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", bundle.Name, err)
	}
	adjustments, err := layer.Schedule()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: failed to build adjustments: %w", bundle.Name, err)
	}

	cfs, schedule := ProjectCashFlows(plant, adjustments)
	rate := financing.DiscountRate(plant, ce.Financing)
	metrics := ComputeMetrics(plant, cfs, schedule, rate, ce.irrOptions())

	rater := ce.rater()
	inputs := rating.TenorSnapshot(plant, cfs)
	assessment := rater.Rate(inputs)

	ev := &Evaluation{
		Bundle:       *bundle,
		Sources:      layer.Sources(),
		Lifetime:     layer.OperatingLifetime(),
		RetiredEarly: layer.RetiredEarly(),
		Adjustments:  adjustments,
		CashFlows:    cfs,
		Schedule:     schedule,
		Metrics:      metrics,
		RatingInputs: inputs,
		Rating:       assessment,
		RatingPath:   rater.Path(plant, cfs),
	}
	ev.Diagnostics = diagnostics(ev)
	return ev, nil
}

func diagnostics(ev *Evaluation) []string {
	var out []string
	clamped := 0
	for _, adj := range ev.Adjustments {
		if adj.Clamped {
			clamped++
		}
	}
	if clamped > 0 {
		out = append(out, fmt.Sprintf("capacity factor clamped to design value in %d year(s)", clamped))
	}
	if ev.RetiredEarly {
		out = append(out, fmt.Sprintf("policy retirement limits operation to %d year(s)", ev.Lifetime))
	}
	if ev.Metrics.StrandedDebt.IsPositive() {
		out = append(out, fmt.Sprintf("debt of %s outstanding at retirement", ev.Metrics.StrandedDebt.StringFixed(0)))
	}
	if !ev.Metrics.IRR.Defined {
		out = append(out, "IRR undefined: "+ev.Metrics.IRR.Reason)
	}
	if !ev.Rating.Ratable() {
		out = append(out, ev.Rating.Rationale)
	}
	return out
}

// Validate checks plant and financing inputs against their contracts.
func (ce *CalculationEngine) Validate(plant domain.PlantParameters) error {
	if err := plant.Validate(); err != nil {
		return err
	}
	return ce.Financing.Validate()
}

// Reference builds the CRP reference. In counterfactual mode it pairs the configured
// rating with the unadjusted plant valuation; in baseline mode it uses the evaluated
// baseline bundle, or the unadjusted plant when baseline is nil.
func (ce *CalculationEngine) Reference(ctx context.Context, plant domain.PlantParameters, baseline *domain.ScenarioBundle) (financing.Reference, error) {
	if err := ctx.Err(); err != nil {
		return financing.Reference{}, err
	}
	f := ce.Financing.WithDefaults()
	if f.CRPMode == domain.CRPModeCounterfactual {
		baseline = nil
	}

	ev, err := ce.Evaluate(plant, baseline)
	if err != nil {
		return financing.Reference{}, fmt.Errorf("failed to evaluate reference: %w", err)
	}

	ref := financing.Reference{Mode: f.CRPMode, NPV: ev.Metrics.NPV, Rating: ev.Rating.Overall}
	if f.CRPMode == domain.CRPModeCounterfactual {
		ref.Rating = f.CounterfactualRating
	}
	ce.logger().Debugf("reference mode=%s rating=%s npv=%s", ref.Mode, ref.Rating, ref.NPV.StringFixed(0))
	return ref, nil
}

// RunScenario runs one bundle against the reference implied by the engine's CRP mode.
func (ce *CalculationEngine) RunScenario(ctx context.Context, plant domain.PlantParameters, bundle *domain.ScenarioBundle) (*domain.ScenarioResult, error) {
	if bundle == nil {
		return nil, fmt.Errorf("scenario bundle cannot be nil")
	}
	if err := ce.Validate(plant); err != nil {
		return nil, err
	}
	ref, err := ce.Reference(ctx, plant, nil)
	if err != nil {
		return nil, err
	}
	return ce.RunScenarioWithReference(ctx, plant, bundle, ref)
}

// RunScenarioWithReference runs one bundle against an explicit reference.
func (ce *CalculationEngine) RunScenarioWithReference(ctx context.Context, plant domain.PlantParameters, bundle *domain.ScenarioBundle, ref financing.Reference) (*domain.ScenarioResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := bundle.Validate(plant); err != nil {
		return nil, err
	}

	ev, err := ce.Evaluate(plant, bundle)
	if err != nil {
		return nil, err
	}

	impact := financing.Assess(plant, ce.Financing, financing.Outcome{
		NPV:    ev.Metrics.NPV,
		Rating: ev.Rating.Overall,
	}, ref)

	ce.logger().Debugf("scenario %s: sources=%+v rating=%s crp=%sbps",
		bundle.Name, ev.Sources, ev.Rating.Overall, impact.CRPBps.StringFixed(1))

	return &domain.ScenarioResult{
		ScenarioName:   bundle.Name,
		PlantName:      plant.Name,
		Sources:        ev.Sources,
		OperatingYears: ev.Lifetime,
		RetiredEarly:   ev.RetiredEarly,
		Adjustments:    ev.Adjustments,
		CashFlows:      ev.CashFlows,
		Metrics:        ev.Metrics,
		RatingInputs:   ev.RatingInputs,
		Rating:         ev.Rating,
		RatingPath:     ev.RatingPath,
		Financing:      impact,
		Diagnostics:    ev.Diagnostics,
	}, nil
}

// RunBatch runs every bundle against a shared reference. Results are returned in input
// order; the first error cancels the remaining runs.
func (ce *CalculationEngine) RunBatch(ctx context.Context, plant domain.PlantParameters, bundles []domain.ScenarioBundle) ([]*domain.ScenarioResult, error) {
	if err := ce.Validate(plant); err != nil {
		return nil, err
	}

	var baseline *domain.ScenarioBundle
	if ce.BaselineScenario != "" {
		for i := range bundles {
			if bundles[i].Name == ce.BaselineScenario {
				baseline = &bundles[i]
				break
			}
		}
		if baseline == nil {
			ce.logger().Warnf("baseline scenario %q not in batch, using unadjusted plant", ce.BaselineScenario)
		}
	}
	ref, err := ce.Reference(ctx, plant, baseline)
	if err != nil {
		return nil, err
	}

	limit := ce.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]*domain.ScenarioResult, len(bundles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := range bundles {
		g.Go(func() error {
			res, err := ce.RunScenarioWithReference(gctx, plant, &bundles[i], ref)
			if err != nil {
				return fmt.Errorf("scenario %d (%s): %w", i, bundles[i].Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	ce.logger().Infof("batch complete: %d scenario(s), reference %s/%s", len(bundles), ref.Mode, ref.Rating)
	return results, nil
}
