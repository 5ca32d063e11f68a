package compare

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/rgehrsitz/crp/internal/rating"
	"github.com/shopspring/decimal"
)

func sampleComparisonSet() *ComparisonSet {
	return &ComparisonSet{
		BaseScenarioName: "Base Scenario",
		PlantName:        "Test CCGT",
		ConfigPath:       "/path/to/plant.yaml",
		BaseResult: &ComparisonResult{
			ScenarioName:  "Base Scenario",
			Rating:        domain.RatingAA,
			NPV:           decimal.NewFromInt(107_000_000),
			MinDSCR:       domain.DefinedMeasure(decimal.NewFromFloat(2.87)),
			DebtSpreadBps: decimal.NewFromInt(100),
			WACC:          decimal.NewFromFloat(0.068),
			CRPBps:        decimal.Zero,
		},
		AlternativeResults: []ComparisonResult{
			{
				ScenarioName:       "Alternative 1",
				Description:        "Double every carbon price point",
				Rating:             domain.RatingBB,
				NPV:                decimal.NewFromInt(20_000_000),
				MinDSCR:            domain.UndefinedMeasure("no debt service"),
				DebtSpreadBps:      decimal.NewFromInt(400),
				WACC:               decimal.NewFromFloat(0.081),
				CRPBps:             decimal.NewFromInt(130),
				StrandedDebt:       decimal.NewFromInt(15_000_000),
				NPVDiffFromBase:    decimal.NewFromInt(-87_000_000),
				NPVPctFromBase:     decimal.NewFromFloat(-81.3),
				CRPDiffFromBaseBps: decimal.NewFromInt(130),
				Migration: &rating.Migration{
					From:                domain.RatingAA,
					To:                  domain.RatingBB,
					Notches:             3,
					LostInvestmentGrade: true,
					WorstComponent:      domain.ComponentDSCR,
					WorstComponentMove:  4,
				},
			},
		},
		Statistics: &SetStatistics{
			Scenarios:       2,
			MeanCRPBps:      decimal.NewFromInt(65),
			StdDevCRPBps:    decimal.NewFromFloat(91.92),
			MaxCRPBps:       decimal.NewFromInt(130),
			InvestmentGrade: 1,
		},
		Recommendations: []string{
			"Largest Premium: Alternative 1 adds 130 bps to the cost of capital over Base Scenario",
		},
	}
}

func TestTableFormatter_Format(t *testing.T) {
	formatter := &TableFormatter{}

	result := formatter.Format(sampleComparisonSet())

	if result == "" {
		t.Fatal("Expected formatted output, got empty string")
	}

	for _, want := range []string{
		"CLIMATE SCENARIO COMPARISON",
		"Plant: Test CCGT",
		"Base Scenario: Base Scenario",
		"Configuration: /path/to/plant.yaml",
		"Alternative 1",
		"AA -> BB (3 notch(es) down)",
		"Weakest Metric:   dscr (-4)",
		"Stranded Debt:    $15.00M",
		"Climate Premium:  +130.0 bps",
		"PREMIUM DISTRIBUTION",
		"RECOMMENDATIONS",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("Expected %q in output", want)
		}
	}
}

func TestTableFormatter_Format_EmptyAlternatives(t *testing.T) {
	formatter := &TableFormatter{}

	compSet := &ComparisonSet{
		BaseScenarioName: "Base Scenario",
		BaseResult: &ComparisonResult{
			ScenarioName: "Base Scenario",
			Rating:       domain.RatingA,
		},
	}

	result := formatter.Format(compSet)

	if !strings.Contains(result, "CLIMATE SCENARIO COMPARISON") {
		t.Error("Expected header in output")
	}
	if strings.Contains(result, "COMPARISON TO BASE") {
		t.Error("Did not expect a delta section without alternatives")
	}
	if strings.Contains(result, "Configuration:") {
		t.Error("Did not expect a configuration line without a path")
	}
}

func TestTableFormatter_formatRow(t *testing.T) {
	formatter := &TableFormatter{}
	compSet := sampleComparisonSet()

	baseRow := formatter.formatRow(compSet.BaseResult, 30, 12, true)
	if !strings.Contains(baseRow, "Base Scenario (base)") {
		t.Errorf("Expected base marker in %q", baseRow)
	}
	if !strings.Contains(baseRow, "2.87x") {
		t.Errorf("Expected DSCR in %q", baseRow)
	}
	if !strings.Contains(baseRow, "6.80%") {
		t.Errorf("Expected WACC percentage in %q", baseRow)
	}

	altRow := formatter.formatRow(&compSet.AlternativeResults[0], 30, 12, false)
	if !strings.Contains(altRow, "n/a") {
		t.Errorf("Expected undefined DSCR to render as n/a in %q", altRow)
	}
}

func TestTableFormatter_formatDecimal(t *testing.T) {
	formatter := &TableFormatter{}

	tests := []struct {
		input    decimal.Decimal
		expected string
	}{
		{decimal.NewFromInt(500), "500"},
		{decimal.NewFromInt(1500), "1.5K"},
		{decimal.NewFromInt(2_500_000), "2.50M"},
		{decimal.NewFromInt(-87_000_000), "-87.00M"},
	}

	for _, tt := range tests {
		if got := formatter.formatDecimal(tt.input); got != tt.expected {
			t.Errorf("formatDecimal(%s) = %s, expected %s", tt.input, got, tt.expected)
		}
	}
}

func TestTableFormatter_FormatCompact(t *testing.T) {
	formatter := &TableFormatter{}

	result := formatter.FormatCompact(sampleComparisonSet())

	if result != "Base: Base Scenario | Alternative 1: BB +130bps" {
		t.Errorf("Unexpected compact output: %s", result)
	}
}

func TestCSVFormatter_Format(t *testing.T) {
	formatter := &CSVFormatter{}

	out, err := formatter.Format(sampleComparisonSet())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("Output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "Scenario" {
		t.Errorf("Expected header row, got %v", records[0])
	}
	if records[1][1] != "base" || records[2][1] != "alternative" {
		t.Errorf("Unexpected row types %s, %s", records[1][1], records[2][1])
	}
	if records[2][2] != "BB" {
		t.Errorf("Expected rating BB, got %s", records[2][2])
	}
	if records[2][5] != "" {
		t.Errorf("Expected blank min DSCR for undefined measure, got %q", records[2][5])
	}
	if records[2][13] != "3" {
		t.Errorf("Expected 3 notches, got %s", records[2][13])
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	tests := []struct {
		name   string
		pretty bool
	}{
		{"compact", false},
		{"pretty", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &JSONFormatter{Pretty: tt.pretty}

			out, err := formatter.Format(sampleComparisonSet())
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.pretty != strings.Contains(out, "\n  ") {
				t.Errorf("Indentation does not match Pretty=%v", tt.pretty)
			}

			var decoded map[string]interface{}
			if err := json.Unmarshal([]byte(out), &decoded); err != nil {
				t.Fatalf("Output is not valid JSON: %v", err)
			}
			if decoded["base_scenario_name"] != "Base Scenario" {
				t.Errorf("Unexpected base name %v", decoded["base_scenario_name"])
			}
			alts := decoded["alternative_results"].([]interface{})
			alt := alts[0].(map[string]interface{})
			if alt["rating"] != "BB" {
				t.Errorf("Expected rating to serialise as text, got %v", alt["rating"])
			}
		})
	}
}
