package compare

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/crp/internal/calculation"
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/rgehrsitz/crp/internal/financing"
	"github.com/rgehrsitz/crp/internal/transform"
)

// CompareEngine orchestrates scenario comparison
type CompareEngine struct {
	CalcEngine        *calculation.CalculationEngine
	MetricsCalculator *MetricsCalculator
	TemplateRegistry  *transform.TemplateRegistry
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(calcEngine *calculation.CalculationEngine) *CompareEngine {
	return &CompareEngine{
		CalcEngine:        calcEngine,
		MetricsCalculator: NewMetricsCalculator(),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	BaseScenarioName string   // Name of the base scenario to compare against
	Templates        []string // Template names applied to the base
	Alternatives     []string // Names of other bundles to compare as-is
}

func findBundle(bundles []domain.ScenarioBundle, name string) *domain.ScenarioBundle {
	for i := range bundles {
		if bundles[i].Name == name {
			return &bundles[i]
		}
	}
	return nil
}

// Compare runs the base scenario and every requested alternative against one
// shared reference.
func (ce *CompareEngine) Compare(
	ctx context.Context,
	plant domain.PlantParameters,
	bundles []domain.ScenarioBundle,
	options CompareOptions,
) (*ComparisonSet, error) {
	if ce.CalcEngine == nil {
		return nil, fmt.Errorf("calculation engine is required")
	}
	if err := ce.CalcEngine.Validate(plant); err != nil {
		return nil, err
	}
	if ce.MetricsCalculator == nil {
		ce.MetricsCalculator = NewMetricsCalculator()
	}
	if ce.TemplateRegistry == nil {
		ce.TemplateRegistry = transform.CreateBuiltInTemplates(plant.CODYear)
	}

	baseBundle := findBundle(bundles, options.BaseScenarioName)
	if baseBundle == nil {
		return nil, fmt.Errorf("base scenario %s not found in configuration", options.BaseScenarioName)
	}

	// Resolve alternatives before running anything so a typo fails fast
	type alternative struct {
		bundle      *domain.ScenarioBundle
		description string
	}
	var alts []alternative
	for _, templateName := range options.Templates {
		template, ok := ce.TemplateRegistry.Get(templateName)
		if !ok {
			return nil, fmt.Errorf("template %s not found", templateName)
		}
		modified, err := transform.ApplyTemplate(baseBundle, template)
		if err != nil {
			return nil, fmt.Errorf("failed to apply template %s: %w", templateName, err)
		}
		alts = append(alts, alternative{bundle: modified, description: template.Description})
	}
	for _, name := range options.Alternatives {
		b := findBundle(bundles, name)
		if b == nil {
			return nil, fmt.Errorf("alternative scenario %s not found", name)
		}
		alts = append(alts, alternative{bundle: b, description: b.Description})
	}

	ref, err := ce.reference(ctx, plant, bundles)
	if err != nil {
		return nil, err
	}

	baseRun, err := ce.CalcEngine.RunScenarioWithReference(ctx, plant, baseBundle, ref)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate base scenario: %w", err)
	}
	baseResult := ce.MetricsCalculator.CalculateMetrics(baseRun)
	baseResult.Description = baseBundle.Description

	alternatives := make([]ComparisonResult, 0, len(alts))
	for _, alt := range alts {
		run, err := ce.CalcEngine.RunScenarioWithReference(ctx, plant, alt.bundle, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate scenario %s: %w", alt.bundle.Name, err)
		}

		altResult := ce.MetricsCalculator.CalculateMetrics(run)
		altResult.Description = alt.description
		altResult = ce.MetricsCalculator.CalculateComparison(altResult, baseResult)
		alternatives = append(alternatives, altResult)
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   options.BaseScenarioName,
		PlantName:          plant.Name,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
	}
	compSet.Statistics = ce.MetricsCalculator.CalculateStatistics(compSet.All())
	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}

// reference evaluates the CRP reference once, honouring a configured baseline bundle.
func (ce *CompareEngine) reference(ctx context.Context, plant domain.PlantParameters, bundles []domain.ScenarioBundle) (financing.Reference, error) {
	var baseline *domain.ScenarioBundle
	if name := ce.CalcEngine.BaselineScenario; name != "" {
		if baseline = findBundle(bundles, name); baseline == nil {
			if ce.CalcEngine.Logger != nil {
				ce.CalcEngine.Logger.Warnf("baseline scenario %q not configured, using unadjusted plant", name)
			}
		}
	}
	ref, err := ce.CalcEngine.Reference(ctx, plant, baseline)
	if err != nil {
		return financing.Reference{}, fmt.Errorf("failed to evaluate reference: %w", err)
	}
	return ref, nil
}
