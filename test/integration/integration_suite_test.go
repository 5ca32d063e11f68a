package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/rgehrsitz/crp/internal/calculation"
	"github.com/rgehrsitz/crp/internal/config"
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/rgehrsitz/crp/internal/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const referenceInput = "../testdata/reference_plant.yaml"

func loadReference(t *testing.T) *config.AnalysisInput {
	t.Helper()
	input, err := config.NewInputParser().LoadFromFile(referenceInput)
	require.NoError(t, err)
	return input
}

func newEngine(input *config.AnalysisInput) *calculation.CalculationEngine {
	engine := calculation.NewCalculationEngineWithFinancing(input.FinancingParameters())
	engine.BaselineScenario = input.Options.BaselineScenario
	engine.Parallelism = input.Options.Parallelism
	return engine
}

func runReference(t *testing.T) (*config.AnalysisInput, []*domain.ScenarioResult) {
	t.Helper()
	input := loadReference(t)
	results, err := newEngine(input).RunBatch(context.Background(), input.Plant, input.Scenarios)
	require.NoError(t, err)
	return input, results
}

// TestIntegrationSmokeTest runs the reference plant through every pathway
func TestIntegrationSmokeTest(t *testing.T) {
	input, results := runReference(t)
	require.Len(t, results, len(input.Scenarios))

	byName := make(map[string]*domain.ScenarioResult, len(results))
	for i, res := range results {
		assert.Equal(t, input.Scenarios[i].Name, res.ScenarioName, "Results should keep input order")
		byName[res.ScenarioName] = res
	}

	noPolicy := byName["no_policy"]
	require.NotNil(t, noPolicy)
	assert.True(t, noPolicy.Rating.Overall.IsInvestmentGrade(), "Unstressed plant should be investment grade")
	assert.True(t, noPolicy.Metrics.NPV.IsPositive(), "Unstressed plant should have positive NPV")
	assert.True(t, noPolicy.CRPBps().IsZero(), "Unstressed plant should carry no premium")

	netZero := byName["net_zero"]
	require.NotNil(t, netZero)
	assert.True(t, netZero.RetiredEarly)
	assert.Equal(t, 20, netZero.OperatingYears)
	assert.Equal(t, domain.SourceTransitionPenalty, netZero.Sources.Transition)
	assert.Equal(t, domain.SourcePhysicalPenalty, netZero.Sources.Physical)
	assert.True(t, netZero.CRPBps().GreaterThan(byName["stated_policies"].CRPBps()),
		"Net zero should cost more capital than stated policies")

	hotHouse := byName["hot_house"]
	require.NotNil(t, hotHouse)
	assert.Equal(t, domain.SourceHazardData, hotHouse.Sources.Physical)
	assert.True(t, hotHouse.Metrics.NPV.LessThan(noPolicy.Metrics.NPV))
}

// TestIntegrationRegression checks that runs are reproducible
func TestIntegrationRegression(t *testing.T) {
	t.Run("calculation_consistency", func(t *testing.T) {
		_, first := runReference(t)
		_, second := runReference(t)

		require.Equal(t, len(first), len(second), "Should have same number of scenarios")
		for i := range first {
			assert.Equal(t, first[i].ScenarioName, second[i].ScenarioName, "Scenario names should match")
			assert.True(t, first[i].Metrics.NPV.Equal(second[i].Metrics.NPV), "NPV should match for %s", first[i].ScenarioName)
			assert.True(t, first[i].CRPBps().Equal(second[i].CRPBps()), "CRP should match for %s", first[i].ScenarioName)
			assert.Equal(t, first[i].Rating.Overall, second[i].Rating.Overall, "Rating should match for %s", first[i].ScenarioName)
		}
	})

	t.Run("batch_matches_single_runs", func(t *testing.T) {
		input, results := runReference(t)
		engine := newEngine(input)
		for i := range input.Scenarios {
			single, err := engine.RunScenario(context.Background(), input.Plant, &input.Scenarios[i])
			require.NoError(t, err)
			assert.True(t, single.CRPBps().Equal(results[i].CRPBps()), "CRP should match for %s", single.ScenarioName)
		}
	})

	t.Run("output_format_consistency", func(t *testing.T) {
		input, results := runReference(t)
		report := output.NewReport(input.Plant, input.FinancingParameters(), results)

		for _, format := range output.AvailableFormatterNames() {
			t.Run(fmt.Sprintf("format_%s", format), func(t *testing.T) {
				var buf bytes.Buffer
				err := output.GenerateReport(&buf, report, format)
				require.NoError(t, err, "Should generate %s output", format)
				assert.NotEmpty(t, buf.String())
			})
		}
	})
}

// TestIntegrationReportEnvelope checks the JSON report round trip
func TestIntegrationReportEnvelope(t *testing.T) {
	input, results := runReference(t)
	report := output.NewReport(input.Plant, input.FinancingParameters(), results)

	var buf bytes.Buffer
	require.NoError(t, output.GenerateReport(&buf, report, "json"))

	var decoded struct {
		RunID   string `json:"run_id"`
		Results []struct {
			ScenarioName string `json:"scenario_name"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	require.Len(t, decoded.Results, len(results))
	assert.Equal(t, "no_policy", decoded.Results[0].ScenarioName)
}

// TestIntegrationBenchmarks guards against runaway run times
func TestIntegrationBenchmarks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping benchmarks in short mode")
	}

	start := time.Now()
	_, results := runReference(t)
	duration := time.Since(start)

	assert.Less(t, duration, 30*time.Second, "Batch should complete within 30 seconds")
	t.Logf("Batch of %d scenarios completed in %v", len(results), duration)
}
