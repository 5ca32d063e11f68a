package transform

import (
	"errors"
	"testing"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// Helper function to create a bundle carrying every risk family
func createTestBundle() *domain.ScenarioBundle {
	retire := 2045
	return &domain.ScenarioBundle{
		Name: "stated_policies",
		TransitionPenalty: &domain.TransitionPenalty{
			DispatchPenalty: d(0.05),
			RetirementYear:  &retire,
			CarbonPrices:    map[int]decimal.Decimal{2030: d(20), 2040: d(60)},
		},
		Hazards: &domain.HazardProfile{
			Pathway: "ssp245",
			Points: map[int]domain.HazardPoint{
				2030: {WildfireOutage: d(0.02), FloodOutage: d(0.01), SeaLevelDerate: d(0.005)},
				2050: {WildfireOutage: d(0.4), FloodOutage: d(0.03), SeaLevelDerate: d(0.02)},
			},
		},
		CarbonPrice: &domain.CarbonPriceTrajectory{
			Prices: map[int]decimal.Decimal{2030: d(30), 2050: d(120)},
		},
	}
}

func TestApplyTransforms_NilScenario(t *testing.T) {
	_, err := ApplyTransforms(nil, []ScenarioTransform{&ScaleCarbonPrice{Factor: d(2)}})
	assert.Error(t, err, "Should error for nil scenario")
}

func TestApplyTransforms_EmptyTransforms(t *testing.T) {
	base := createTestBundle()

	result, err := ApplyTransforms(base, nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotSame(t, base, result, "Should return a copy")
	assert.Equal(t, base.Name, result.Name)

	result.CarbonPrice.Prices[2030] = d(999)
	assert.True(t, base.CarbonPrice.Prices[2030].Equal(d(30)), "Copy must not share maps with base")
}

func TestApplyTransforms_NilTransform(t *testing.T) {
	_, err := ApplyTransforms(createTestBundle(), []ScenarioTransform{&ScaleCarbonPrice{Factor: d(2)}, nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index 1")
}

func TestApplyTransforms_ValidationFailureIsWrapped(t *testing.T) {
	_, err := ApplyTransforms(createTestBundle(), []ScenarioTransform{&ScaleCarbonPrice{Factor: d(-1)}})
	require.Error(t, err)

	var te *TransformError
	assert.True(t, errors.As(err, &te), "Should unwrap to TransformError")
	assert.Equal(t, "scale_carbon_price", te.TransformName)
	assert.Equal(t, "validate", te.Operation)
}

func TestApplyTransforms_Chain(t *testing.T) {
	base := createTestBundle()
	result, err := ApplyTransforms(base, []ScenarioTransform{
		&ScaleCarbonPrice{Factor: d(2)},
		&ScaleCarbonPrice{Factor: d(1.5)},
	})
	require.NoError(t, err)
	assert.True(t, result.CarbonPrice.Prices[2050].Equal(d(360)))
	assert.True(t, base.CarbonPrice.Prices[2050].Equal(d(120)), "Base must be untouched")
}

func TestScaleCarbonPrice(t *testing.T) {
	base := createTestBundle()
	tr := &ScaleCarbonPrice{Factor: d(2)}

	require.NoError(t, tr.Validate(base))
	out, err := tr.Apply(base)
	require.NoError(t, err)

	assert.True(t, out.CarbonPrice.Prices[2030].Equal(d(60)))
	assert.True(t, out.TransitionPenalty.CarbonPrices[2040].Equal(d(120)))
	assert.Contains(t, tr.Description(), "2.00x")
}

func TestScaleCarbonPrice_RequiresCarbonPath(t *testing.T) {
	base := &domain.ScenarioBundle{Name: "bare"}
	err := (&ScaleCarbonPrice{Factor: d(2)}).Validate(base)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no carbon price path")
}

func TestSetCarbonPrice_CreatesTrajectory(t *testing.T) {
	base := &domain.ScenarioBundle{Name: "bare"}
	tr := &SetCarbonPrice{Year: 2030, Price: d(75)}

	require.NoError(t, tr.Validate(base))
	out, err := tr.Apply(base)
	require.NoError(t, err)

	require.NotNil(t, out.CarbonPrice)
	assert.True(t, out.CarbonPrice.Prices[2030].Equal(d(75)))
	assert.Nil(t, base.CarbonPrice)
}

func TestSetDispatchPenalty(t *testing.T) {
	t.Run("creates generic transition", func(t *testing.T) {
		base := &domain.ScenarioBundle{Name: "bare"}
		out, err := ApplyTransforms(base, []ScenarioTransform{&SetDispatchPenalty{Penalty: d(0.2)}})
		require.NoError(t, err)
		require.NotNil(t, out.TransitionPenalty)
		assert.True(t, out.TransitionPenalty.DispatchPenalty.Equal(d(0.2)))
	})

	t.Run("out of range", func(t *testing.T) {
		err := (&SetDispatchPenalty{Penalty: d(1.2)}).Validate(createTestBundle())
		assert.Error(t, err)
	})

	t.Run("power plan takes precedence", func(t *testing.T) {
		base := createTestBundle()
		base.PowerPlan = &domain.PowerPlanTrajectory{CapacityFactors: map[int]decimal.Decimal{2030: d(0.5)}}
		err := (&SetDispatchPenalty{Penalty: d(0.2)}).Validate(base)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "power plan")
	})
}

func TestSetRetirementYear(t *testing.T) {
	t.Run("generic transition", func(t *testing.T) {
		out, err := ApplyTransforms(createTestBundle(), []ScenarioTransform{&SetRetirementYear{Year: 2040}})
		require.NoError(t, err)
		assert.Equal(t, 2040, *out.TransitionPenalty.RetirementYear)
	})

	t.Run("power plan", func(t *testing.T) {
		base := &domain.ScenarioBundle{
			Name:      "plan",
			PowerPlan: &domain.PowerPlanTrajectory{CapacityFactors: map[int]decimal.Decimal{2030: d(0.5)}},
		}
		out, err := ApplyTransforms(base, []ScenarioTransform{&SetRetirementYear{Year: 2038}})
		require.NoError(t, err)
		require.NotNil(t, out.PowerPlan.RetirementYear)
		assert.Equal(t, 2038, *out.PowerPlan.RetirementYear)
		assert.Nil(t, out.TransitionPenalty)
		assert.Nil(t, base.PowerPlan.RetirementYear)
	})
}

func TestScaleHazards_CapsAtOne(t *testing.T) {
	base := createTestBundle()
	water := d(0.8)
	base.PhysicalPenalty = &domain.PhysicalPenalty{WildfireOutage: d(0.3), DroughtDerate: d(0.1), WaterAvailability: &water}

	out, err := ApplyTransforms(base, []ScenarioTransform{&ScaleHazards{Factor: d(3)}})
	require.NoError(t, err)

	assert.True(t, out.Hazards.Points[2030].WildfireOutage.Equal(d(0.06)))
	assert.True(t, out.Hazards.Points[2050].WildfireOutage.Equal(d(1)), "Rates are capped at 1")
	assert.True(t, out.PhysicalPenalty.WildfireOutage.Equal(d(0.9)))
	require.NotNil(t, out.PhysicalPenalty.WaterAvailability)
	assert.True(t, out.PhysicalPenalty.WaterAvailability.Equal(d(0.8)), "Water cap is not a hazard")
	assert.NotSame(t, base.PhysicalPenalty.WaterAvailability, out.PhysicalPenalty.WaterAvailability)
}

func TestScaleHazards_RequiresPhysicalInputs(t *testing.T) {
	err := (&ScaleHazards{Factor: d(2)}).Validate(&domain.ScenarioBundle{Name: "bare"})
	assert.Error(t, err)
}

func TestClearRisk(t *testing.T) {
	base := createTestBundle()

	physical, err := ApplyTransforms(base, []ScenarioTransform{&ClearRisk{Family: "physical"}})
	require.NoError(t, err)
	assert.Nil(t, physical.Hazards)
	assert.NotNil(t, physical.TransitionPenalty)

	carbon, err := ApplyTransforms(base, []ScenarioTransform{&ClearRisk{Family: "carbon"}})
	require.NoError(t, err)
	assert.Nil(t, carbon.CarbonPrice)
	assert.Empty(t, carbon.TransitionPenalty.CarbonPrices)

	all, err := ApplyTransforms(base, []ScenarioTransform{
		&ClearRisk{Family: "transition"},
		&ClearRisk{Family: "physical"},
		&ClearRisk{Family: "carbon"},
	})
	require.NoError(t, err)
	assert.True(t, all.IsRiskFree())

	assert.Error(t, (&ClearRisk{Family: "liquidity"}).Validate(base))
}

func TestClearRisk_TransitionKeepsCarbonPoints(t *testing.T) {
	base := &domain.ScenarioBundle{
		Name: "generic",
		TransitionPenalty: &domain.TransitionPenalty{
			DispatchPenalty: d(0.1),
			CarbonPrices:    map[int]decimal.Decimal{2030: d(40)},
		},
	}
	out, err := ApplyTransforms(base, []ScenarioTransform{&ClearRisk{Family: "transition"}})
	require.NoError(t, err)
	assert.Nil(t, out.TransitionPenalty)
	require.NotNil(t, out.CarbonPrice)
	assert.True(t, out.CarbonPrice.Prices[2030].Equal(d(40)))
}

func TestTransformRegistry_ParseTransformSpec(t *testing.T) {
	registry := NewTransformRegistry()

	tr, err := registry.ParseTransformSpec("scale_carbon_price:factor=1.5")
	require.NoError(t, err)
	assert.Equal(t, "scale_carbon_price", tr.Name())
	assert.True(t, tr.(*ScaleCarbonPrice).Factor.Equal(d(1.5)))

	tr, err = registry.ParseTransformSpec("set_carbon_price: year=2030, price=80")
	require.NoError(t, err)
	assert.Equal(t, 2030, tr.(*SetCarbonPrice).Year)

	_, err = registry.ParseTransformSpec("scale_hazards")
	assert.Error(t, err, "Missing params separator")

	_, err = registry.ParseTransformSpec("scale_hazards:factor")
	assert.Error(t, err, "Malformed key=value")

	_, err = registry.ParseTransformSpec("set_retirement_year:year=soon")
	assert.Error(t, err)

	_, err = registry.ParseTransformSpec("unknown:x=1")
	assert.Error(t, err)

	assert.Contains(t, registry.List(), "clear_risk")
}

func TestTemplates(t *testing.T) {
	registry := CreateBuiltInTemplates(2025)

	tmpl, ok := registry.Get("RETIRE_10YR")
	require.True(t, ok, "Lookup is case-insensitive")

	out, err := ApplyTemplate(createTestBundle(), tmpl)
	require.NoError(t, err)
	assert.Equal(t, "stated_policies+retire_10yr", out.Name)
	assert.Equal(t, 2035, *out.TransitionPenalty.RetirementYear)

	severe, _ := registry.Get("severe")
	_, err = ApplyTemplate(&domain.ScenarioBundle{Name: "bare"}, severe)
	assert.Error(t, err, "Severe needs carbon and physical inputs")

	assert.Equal(t, []string{"my_tmpl", "other"}, ParseTemplateList(" my_tmpl, ,other"))
	assert.Contains(t, GetTemplateHelp(registry), "Carbon Price:")
}
