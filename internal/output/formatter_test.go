package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func buildTestResult(name string, r domain.Rating, crp float64) *domain.ScenarioResult {
	return &domain.ScenarioResult{
		ScenarioName:   name,
		PlantName:      "Test CCGT",
		OperatingYears: 2,
		Sources: domain.ResolvedSources{
			Transition: domain.SourceNone,
			Physical:   domain.SourcePhysicalPenalty,
			Carbon:     domain.SourceCarbonTrajectory,
		},
		Adjustments: []domain.YearlyAdjustment{
			{Year: 2025, EffectiveCF: d(0.6), CarbonPrice: d(40)},
			{Year: 2026, EffectiveCF: d(0.58), CarbonPrice: d(45)},
		},
		CashFlows: []domain.CashFlowYear{
			{Year: 2025, OperatingYear: 1, Revenue: d(170_000_000), EBITDA: d(80_000_000), DSCR: domain.DefinedMeasure(d(2.5))},
			{Year: 2026, OperatingYear: 2, Revenue: d(165_000_000), EBITDA: d(76_000_000), DSCR: domain.UndefinedMeasure("no debt service")},
		},
		Metrics: domain.FinancialMetrics{
			NPV:     d(95_000_000),
			IRR:     domain.DefinedMeasure(d(0.112)),
			MinDSCR: domain.DefinedMeasure(d(2.5)),
			AvgDSCR: domain.DefinedMeasure(d(2.5)),
			LLCR:    domain.UndefinedMeasure("no debt"),
		},
		Rating: domain.RatingAssessment{
			Overall: r,
			Components: []domain.ComponentRating{
				{Component: domain.ComponentDSCR, Value: d(2.5), Rating: r, Weight: d(0.2)},
			},
			Rationale: "weighted score",
		},
		RatingPath: []domain.YearRating{{Year: 2025, Rating: r}},
		Financing: domain.FinancingImpact{
			ReferenceRating: domain.RatingA,
			DebtSpreadBps:   d(150),
			WACCReference:   d(0.07),
			WACCAdjusted:    d(0.0712),
			CRPBps:          d(crp),
		},
		Diagnostics: []string{"carbon price extrapolated beyond 2035"},
	}
}

func buildTestReport() *Report {
	plant := domain.PlantParameters{
		Name:             "Test CCGT",
		CapacityMW:       d(500),
		CapacityFactor:   d(0.6),
		TotalCapex:       d(500_000_000),
		DebtFraction:     d(0.6),
		DebtInterestRate: d(0.06),
		DebtTenorYears:   15,
		DesignLifeYears:  30,
		CODYear:          2025,
	}
	return NewReport(plant, domain.DefaultFinancingParameters(), []*domain.ScenarioResult{
		buildTestResult("stated_policies", domain.RatingAA, 12),
		buildTestResult("net_zero", domain.RatingBB, 240),
	})
}

func TestNewReport(t *testing.T) {
	report := buildTestReport()

	_, err := uuid.Parse(report.RunID)
	assert.NoError(t, err, "Run ID should be a UUID")
	assert.False(t, report.GeneratedAt.IsZero(), "Should be timestamped")
	assert.Equal(t, domain.CRPModeCounterfactual, report.Financing.CRPMode, "Should fill financing defaults")
	assert.Len(t, report.Results, 2, "Should keep every result")
	assert.NotEqual(t, report.RunID, buildTestReport().RunID, "Run IDs should be unique")
}

func TestReport_HighestCRP(t *testing.T) {
	report := buildTestReport()
	assert.Equal(t, "net_zero", report.HighestCRP().ScenarioName)

	empty := &Report{}
	assert.Nil(t, empty.HighestCRP(), "Empty report has no highest premium")
}

func TestFormatterFunc(t *testing.T) {
	called := false
	formatter := FormatterFunc{
		ID: "test-formatter",
		F: func(report *Report) ([]byte, error) {
			called = true
			return []byte("test output"), nil
		},
	}

	out, err := formatter.Format(buildTestReport())

	assert.NoError(t, err)
	assert.True(t, called, "Should call the function")
	assert.Equal(t, []byte("test output"), out)
	assert.Equal(t, "test-formatter", formatter.Name())
}

func TestWriteFormatted(t *testing.T) {
	tmpDir := t.TempDir()
	originalDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(tmpDir))
	defer os.Chdir(originalDir)

	formatter := FormatterFunc{
		ID: "test-formatter",
		F: func(report *Report) ([]byte, error) {
			return []byte("test output content"), nil
		},
	}

	filename, err := WriteFormatted(formatter, buildTestReport(), "txt")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "crp_report_"), "Should have correct prefix")
	assert.True(t, strings.HasSuffix(filename, ".txt"), "Should have correct extension")

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "test output content", string(content))
}

func TestWriteFormattedIn(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	filename, err := WriteFormattedIn(dir, JSONFormatter{}, buildTestReport(), "json")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(filename))

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"net_zero"`)
}

func TestWriteFormatted_FormatterError(t *testing.T) {
	formatter := FormatterFunc{
		ID: "error-formatter",
		F: func(report *Report) ([]byte, error) {
			return nil, fmt.Errorf("formatter error")
		},
	}

	filename, err := WriteFormatted(formatter, buildTestReport(), "txt")

	assert.Error(t, err)
	assert.Empty(t, filename, "Should return empty filename on error")
	assert.Contains(t, err.Error(), "formatter error")
}

func TestFormatterRegistry(t *testing.T) {
	names := AvailableFormatterNames()
	for _, want := range []string{"console", "console-lite", "csv", "cashflows", "json", "yaml", "html"} {
		assert.Contains(t, names, want)
	}

	aliases := AvailableFormatAliases()
	assert.Contains(t, aliases, "verbose")
	assert.Contains(t, aliases, "detailed-csv")

	tests := []struct {
		name string
		want string
	}{
		{"console", "console"},
		{"VERBOSE", "console"},
		{" table ", "console-lite"},
		{"detailed-csv", "cashflows"},
		{"yml", "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := GetFormatterByName(tt.name)
			require.NotNil(t, f)
			assert.Equal(t, tt.want, f.Name())
		})
	}

	assert.Nil(t, GetFormatterByName("non-existent"))
	assert.Equal(t, "csv", Extension(CashFlowCSVFormatter{}))
	assert.Equal(t, "txt", Extension(FormatterFunc{ID: "custom"}))
}

func TestGenerateReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, GenerateReport(&buf, buildTestReport(), "console-lite"))
	assert.Contains(t, buf.String(), "stated_policies")

	err := GenerateReport(&buf, buildTestReport(), "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: pdf")
}

func TestConsoleFormatter_Format(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "CLIMATE RISK PREMIUM ANALYSIS")
	assert.Contains(t, content, "SCENARIO 1: stated_policies")
	assert.Contains(t, content, "SCENARIO 2: net_zero")
	assert.Contains(t, content, "RATING COMPONENTS")
	assert.Contains(t, content, "carbon price extrapolated beyond 2035")
	assert.Contains(t, content, "Highest premium: net_zero at 240.0 bps")
	assert.Contains(t, content, "ASSUMPTIONS")
	assert.Contains(t, content, "n/a", "Undefined LLCR should render as n/a")
}

func TestConsoleFormatter_Format_EmptyResults(t *testing.T) {
	report := NewReport(domain.PlantParameters{}, domain.DefaultFinancingParameters(), nil)

	out, err := ConsoleFormatter{}.Format(report)

	require.NoError(t, err)
	assert.Contains(t, string(out), "No scenarios were evaluated.")
}

func TestConsoleLiteFormatter_Format(t *testing.T) {
	out, err := ConsoleLiteFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	assert.Equal(t, "CLIMATE RISK PREMIUM SUMMARY: Test CCGT", lines[0])
	require.Len(t, lines, 6, "Title, rule, header, rule and one row per scenario")
	assert.Contains(t, lines[4], "stated_policies")
	assert.Contains(t, lines[5], "net_zero")
	assert.Contains(t, lines[5], "240.0")
}

func TestCSVSummarizer_Format(t *testing.T) {
	out, err := CSVSummarizer{}.Format(buildTestReport())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3, "Header plus one row per scenario")

	assert.Equal(t, "Scenario", records[0][0])
	assert.Equal(t, "stated_policies", records[1][0], "Rows should keep input order")
	assert.Equal(t, "BB", records[2][1])
	assert.Equal(t, "", records[1][7], "Undefined LLCR should be blank")
	assert.Equal(t, "240.00", records[2][14])
}

func TestCashFlowCSVFormatter_Format(t *testing.T) {
	out, err := CashFlowCSVFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5, "Header plus two years for each of two scenarios")

	header := records[0]
	assert.Equal(t, "Scenario", header[0])
	assert.Equal(t, "Rating", header[len(header)-1])

	first := records[1]
	assert.Equal(t, "2025", first[1])
	assert.Equal(t, "0.600000", first[3], "Effective CF joins from adjustments")
	assert.Equal(t, "40.00", first[7], "Carbon price joins from adjustments")
	assert.Equal(t, "AA", first[len(first)-1], "Rating joins from rating path")

	second := records[2]
	assert.Equal(t, "", second[len(second)-2], "Undefined DSCR should be blank")
	assert.Equal(t, "", second[len(second)-1], "Years off the rating path are blank")
}

func TestJSONFormatter_Format(t *testing.T) {
	out, err := JSONFormatter{Pretty: true}.Format(buildTestReport())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.NotEmpty(t, decoded["run_id"])
	results := decoded["results"].([]interface{})
	require.Len(t, results, 2)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "stated_policies", first["scenario_name"])
}

func TestYAMLFormatter_Format(t *testing.T) {
	out, err := YAMLFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.NotEmpty(t, decoded["run_id"])
	assert.Contains(t, string(out), "stated_policies")
}

func TestHTMLFormatter_Format(t *testing.T) {
	out, err := HTMLFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "<!DOCTYPE html>")
	assert.Contains(t, content, "<title>Climate Risk Premium Analysis: Test CCGT</title>")
	assert.Contains(t, content, `<td class="ig">AA</td>`)
	assert.Contains(t, content, `<td class="sub">BB</td>`)
	assert.Contains(t, content, "240.0 bps")
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   decimal.Decimal
		want string
	}{
		{d(0), "$0"},
		{d(999), "$999"},
		{d(1000), "$1,000"},
		{d(1234567.6), "$1,234,568"},
		{d(-95_000_000), "-$95,000,000"},
		{d(-0.2), "$0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(tt.in), "FormatCurrency(%s)", tt.in)
	}
	assert.Equal(t, "7.12%", FormatPercentage(d(0.0712)))
	assert.Equal(t, "12.5 bps", FormatBps(d(12.5)))
	assert.Equal(t, "n/a", FormatMeasure(domain.UndefinedMeasure("x"), 2))
}
