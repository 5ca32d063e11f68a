package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "../../test/testdata/reference_plant.yaml"

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := execute(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "crp", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("settings"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("debug"))
}

func TestCommandSubcommands(t *testing.T) {
	expected := []string{"run", "batch", "compare", "sensitivity", "break-even", "validate", "version"}
	registered := map[string]bool{}
	for _, c := range newRootCmd().Commands() {
		registered[c.Name()] = true
	}
	for _, name := range expected {
		assert.True(t, registered[name], "expected command %q to be registered", name)
	}
}

func TestRootCommand_Help(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands")
	assert.Contains(t, out, "break-even")
}

func TestRootCommand_InvalidCommand(t *testing.T) {
	_, _, err := run(t, "invalid-command")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "crp dev (commit none"), out)
}

func TestValidate(t *testing.T) {
	out, _, err := run(t, "validate", fixture)
	require.NoError(t, err)
	assert.Contains(t, out, `plant "Riverbend CCGT" with 4 scenario(s)`)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("plant:\n  name: x\nscenarios: []\n"), 0o644))
	_, _, err = run(t, "validate", bad)
	assert.Error(t, err)
}

func TestRunJSON(t *testing.T) {
	out, _, err := run(t, "run", fixture, "--scenario", "net_zero", "--format", "json")
	require.NoError(t, err)

	var report struct {
		RunID   string `json:"run_id"`
		Results []struct {
			ScenarioName   string `json:"scenario_name"`
			RetiredEarly   bool   `json:"retired_early"`
			OperatingYears int    `json:"operating_years"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.Results, 1)
	assert.Equal(t, "net_zero", report.Results[0].ScenarioName)
	assert.True(t, report.Results[0].RetiredEarly)
	assert.Equal(t, 20, report.Results[0].OperatingYears)
}

func TestRunDefaultsToFirstScenario(t *testing.T) {
	out, _, err := run(t, "run", fixture, "--format", "console-lite")
	require.NoError(t, err)
	assert.Contains(t, out, "no_policy")
	assert.NotContains(t, out, "net_zero")
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown scenario", []string{"run", fixture, "--scenario", "ghost"}, "scenario ghost not found"},
		{"unknown format", []string{"run", fixture, "--format", "pdf"}, "unknown output format: pdf"},
		{"bad transform", []string{"run", fixture, "--transform", "warp_speed:factor=9"}, "invalid --transform"},
		{"missing file", []string{"run", "does-not-exist.yaml"}, "failed to read file"},
		{"bad log level", []string{"run", fixture, "--log-level", "loud"}, "unknown log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func readCSV(t *testing.T, data string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunWithTransform(t *testing.T) {
	base, _, err := run(t, "run", fixture, "--scenario", "stated_policies", "--format", "csv")
	require.NoError(t, err)
	stressed, _, err := run(t, "run", fixture, "--scenario", "stated_policies", "--format", "csv",
		"--transform", "scale_carbon_price:factor=10")
	require.NoError(t, err)

	baseRows, stressedRows := readCSV(t, base), readCSV(t, stressed)
	require.Len(t, baseRows, 2)
	require.Len(t, stressedRows, 2)
	// NPV column falls under a tenfold carbon path
	assert.NotEqual(t, baseRows[1][2], stressedRows[1][2])
	assert.True(t, strings.HasPrefix(stressedRows[1][0], "stated_policies"))
}

func TestBatchCSVPreservesOrder(t *testing.T) {
	out, _, err := run(t, "batch", fixture, "--format", "csv")
	require.NoError(t, err)

	rows := readCSV(t, out)
	require.Len(t, rows, 5)
	names := []string{rows[1][0], rows[2][0], rows[3][0], rows[4][0]}
	assert.Equal(t, []string{"no_policy", "stated_policies", "net_zero", "hot_house"}, names)
}

func TestBatchOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	out, stderr, err := run(t, "batch", fixture, "--format", "yaml", "--output-dir", dir)
	require.NoError(t, err)

	filename := strings.TrimSpace(out)
	assert.Equal(t, dir, filepath.Dir(filename))
	assert.True(t, strings.HasSuffix(filename, ".yaml"))
	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hot_house")
	assert.Contains(t, stderr, "written to")
}

func TestSettingsFromEnvironment(t *testing.T) {
	t.Setenv("CRP_FORMAT", "cashflows")
	out, _, err := run(t, "run", fixture, "--scenario", "no_policy")
	require.NoError(t, err)

	rows := readCSV(t, out)
	assert.Equal(t, "Scenario", rows[0][0])
	assert.Len(t, rows, 31, "header plus one row per design-life year")
}

func TestSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("format: json\nlog_level: error\n"), 0o644))

	out, stderr, err := run(t, "--settings", path, "run", fixture, "--scenario", "no_policy")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Empty(t, stderr)
}

func TestDebugLogging(t *testing.T) {
	_, stderr, err := run(t, "--debug", "run", fixture, "--scenario", "no_policy", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"level":"debug"`)
	assert.Contains(t, stderr, `"plant":"Riverbend CCGT"`)
}

func TestCompare(t *testing.T) {
	out, _, err := run(t, "compare", fixture, "--base", "no_policy", "--alternatives", "net_zero", "--with", "carbon_flat_100")
	require.NoError(t, err)
	assert.Contains(t, out, "CLIMATE SCENARIO COMPARISON")
	assert.Contains(t, out, "net_zero")
	assert.Contains(t, out, "RECOMMENDATIONS")

	out, _, err = run(t, "compare", fixture, "--alternatives", "stated_policies", "--format", "csv")
	require.NoError(t, err)
	rows := readCSV(t, out)
	require.Len(t, rows, 3)
	assert.Equal(t, "no_policy", rows[1][0], "base defaults to options.baseline_scenario")
}

func TestCompareListTemplates(t *testing.T) {
	out, _, err := run(t, "compare", "--list-templates")
	require.NoError(t, err)
	assert.Contains(t, out, "carbon_x2")
	assert.Contains(t, out, "retire_10yr")
}

func TestCompareErrors(t *testing.T) {
	_, _, err := run(t, "compare")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file required")

	_, _, err = run(t, "compare", fixture)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to compare")

	_, _, err = run(t, "compare", fixture, "--with", "carbon_x9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template carbon_x9 not found")
}

func TestSensitivity(t *testing.T) {
	out, _, err := run(t, "sensitivity", fixture, "--scenario", "stated_policies",
		"--parameter", "carbon_price_scale", "--values", "0.5,1,1.5", "--format", "csv")
	require.NoError(t, err)
	rows := readCSV(t, out)
	require.Len(t, rows, 4)
	assert.Equal(t, "parameter_name", rows[0][0])
	assert.Equal(t, "carbon_price_scale", rows[1][0])

	out, _, err = run(t, "sensitivity", fixture, "--scenario", "net_zero",
		"--parameter", "carbon_price_scale:0.5-1.5:3", "--parameter", "dispatch_penalty:0-0.2:3",
		"--analysis-type", "matrix")
	require.NoError(t, err)
	assert.Contains(t, out, "CLIMATE RISK SENSITIVITY MATRIX")

	out, _, err = run(t, "sensitivity", fixture, "--parameter", "retirement_year:2035-2055:5", "--format", "json")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
}

func TestSensitivityErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no parameters", []string{"sensitivity", fixture}, "must specify either --parameter or --parameter-set"},
		{"unknown parameter", []string{"sensitivity", fixture, "--parameter", "inflation"}, "unknown sensitivity parameter"},
		{"uneven values", []string{"sensitivity", fixture, "--parameter", "carbon_price_scale", "--values", "0.5,1,2"}, "evenly spaced"},
		{"bad range", []string{"sensitivity", fixture, "--parameter", "carbon_price_scale:2-1:3"}, "exceeds max"},
		{"matrix arity", []string{"sensitivity", fixture, "--parameter", "hazard_scale", "--analysis-type", "matrix"}, "exactly two parameters"},
		{"unknown set", []string{"sensitivity", fixture, "--parameter-set", "everything"}, "unknown parameter set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBreakEven(t *testing.T) {
	out, _, err := run(t, "break-even", fixture, "--scenario", "stated_policies", "--target", "carbon_scale", "--format", "json")
	require.NoError(t, err)

	var result struct {
		Success        bool    `json:"success"`
		BreakEvenValue *string `json:"break_even_value"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.True(t, result.Success)
	require.NotNil(t, result.BreakEvenValue)

	out, _, err = run(t, "break-even", fixture, "--scenario", "no_policy", "--target", "flat_carbon_price", "--goal", "crp", "--crp-bps", "50")
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestBreakEvenErrors(t *testing.T) {
	_, _, err := run(t, "break-even", fixture, "--goal", "crp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target_crp_bps")

	_, _, err = run(t, "break-even", fixture, "--goal", "floor", "--rating-floor", "ZZ")
	assert.Error(t, err)

	_, _, err = run(t, "break-even", fixture, "--min", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --min")
}

func TestParseGoal(t *testing.T) {
	assert.Equal(t, "lose_investment_grade", string(parseGoal("IG")))
	assert.Equal(t, "target_crp", string(parseGoal(" crp ")))
	assert.Equal(t, "zero_npv", string(parseGoal("zero_npv")))
}
