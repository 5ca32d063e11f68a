package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// SensitivityFormatter defines a formatter for sensitivity analysis
type SensitivityFormatter interface {
	FormatSensitivityAnalysis(analysis interface{}) (string, error)
	Name() string
}

// formatParamValue renders a sweep value in the parameter's unit.
func formatParamValue(p domain.SensitivityParameter, v decimal.Decimal) string {
	switch p.Unit {
	case "fraction":
		return v.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
	case "year":
		return v.StringFixed(0)
	default:
		return v.StringFixed(2) + "x"
	}
}

func riskEmoji(level string) string {
	switch level {
	case "LOW":
		return "✅"
	case "MEDIUM":
		return "⚠️"
	case "HIGH":
		return "🔴"
	case "CRITICAL":
		return "🚨"
	}
	return ""
}

// SensitivityConsoleFormatter formats sensitivity analysis output for console
type SensitivityConsoleFormatter struct{}

func (scf SensitivityConsoleFormatter) Name() string { return "console" }

func (scf SensitivityConsoleFormatter) FormatSensitivityAnalysis(analysis interface{}) (string, error) {
	var buf bytes.Buffer

	switch a := analysis.(type) {
	case *domain.ParameterSensitivityAnalysis:
		return scf.formatAnalysis(&buf, a)
	case *domain.SensitivityMatrix:
		return scf.formatMatrixAnalysis(&buf, a)
	default:
		return "", fmt.Errorf("unsupported analysis type: %T", analysis)
	}
}

func (scf SensitivityConsoleFormatter) formatAnalysis(buf *bytes.Buffer, analysis *domain.ParameterSensitivityAnalysis) (string, error) {
	if len(analysis.Parameters) == 0 || len(analysis.Results) == 0 {
		return "", fmt.Errorf("no parameters or results in analysis")
	}

	fmt.Fprintf(buf, "%s\n", TitleStyle.Render("CLIMATE RISK SENSITIVITY ANALYSIS"))
	fmt.Fprintln(buf, strings.Repeat("=", 80))
	fmt.Fprintf(buf, "Base Scenario: %s\n\n", analysis.BaseScenarioName)

	for _, param := range analysis.Parameters {
		fmt.Fprintf(buf, "%s\n", SectionStyle.Render(strings.ToUpper(strings.ReplaceAll(param.Name, "_", " "))))
		fmt.Fprintf(buf, "Base Case: %s   Range: %s to %s (%d steps)\n",
			formatParamValue(param, param.BaseValue),
			formatParamValue(param, param.MinValue),
			formatParamValue(param, param.MaxValue),
			param.Steps)
		if param.Description != "" {
			fmt.Fprintf(buf, "Description: %s\n", param.Description)
		}
		fmt.Fprintln(buf)

		fmt.Fprintf(buf, "%-16s %-7s %16s %10s %10s %10s %12s\n",
			"Value", "Rating", "Equity NPV", "Min DSCR", "Spread", "CRP (bps)", "Δ CRP (bps)")
		fmt.Fprintln(buf, strings.Repeat("-", 88))

		for _, result := range analysis.Results {
			value, ok := result.ParameterValues[param.Name]
			if !ok {
				continue
			}
			label := formatParamValue(param, value)
			if value.Equal(param.BaseValue) {
				label += " ← BASE"
			}
			km := result.KeyMetrics
			fmt.Fprintf(buf, "%-16s %s %16s %10s %10s %10s %12s\n",
				label,
				RatingStyle(km.Rating).Render(fmt.Sprintf("%-7s", km.Rating)),
				FormatCurrency(km.NPV),
				FormatMeasure(km.MinDSCR, 2),
				km.DebtSpreadBps.StringFixed(0),
				km.CRPBps.StringFixed(1),
				signed(km.CRPChangeBps))
		}

		if score, ok := analysis.Summary.SensitivityScores[param.Name]; ok {
			fmt.Fprintf(buf, "\nMax CRP swing: %s\n", FormatBps(score))
		}
		fmt.Fprintln(buf)
	}

	if len(analysis.Parameters) > 1 {
		fmt.Fprintf(buf, "MOST SENSITIVE PARAMETER: %s\n", analysis.Summary.MostSensitiveParameter)
	}
	fmt.Fprintf(buf, "RISK LEVEL: %s %s\n\n", riskEmoji(analysis.Summary.RiskLevel), analysis.Summary.RiskLevel)

	if len(analysis.Summary.Recommendations) > 0 {
		fmt.Fprintln(buf, "RECOMMENDATIONS:")
		for _, rec := range analysis.Summary.Recommendations {
			fmt.Fprintf(buf, "  • %s\n", rec)
		}
	}

	return buf.String(), nil
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(1)
	}
	return d.StringFixed(1)
}

func (scf SensitivityConsoleFormatter) formatMatrixAnalysis(buf *bytes.Buffer, matrix *domain.SensitivityMatrix) (string, error) {
	if len(matrix.MatrixResults) == 0 || len(matrix.MatrixResults[0]) == 0 {
		return "", fmt.Errorf("no results in sensitivity matrix")
	}
	p1, p2 := matrix.Parameter1, matrix.Parameter2

	fmt.Fprintf(buf, "%s\n", TitleStyle.Render("CLIMATE RISK SENSITIVITY MATRIX"))
	fmt.Fprintln(buf, strings.Repeat("=", 80))
	fmt.Fprintf(buf, "Base Scenario: %s\n", matrix.BaseScenarioName)
	fmt.Fprintf(buf, "Rows:    %s (%s to %s)\n", p1.Name, formatParamValue(p1, p1.MinValue), formatParamValue(p1, p1.MaxValue))
	fmt.Fprintf(buf, "Columns: %s (%s to %s)\n", p2.Name, formatParamValue(p2, p2.MinValue), formatParamValue(p2, p2.MaxValue))
	fmt.Fprintln(buf, "Cells:   CRP (bps) / rating")
	fmt.Fprintln(buf)

	fmt.Fprintf(buf, "%-12s", "")
	for _, cell := range matrix.MatrixResults[0] {
		fmt.Fprintf(buf, " %-14s", formatParamValue(p2, cell.ParameterValues[p2.Name]))
	}
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, strings.Repeat("-", 12+15*len(matrix.MatrixResults[0])))

	for _, row := range matrix.MatrixResults {
		fmt.Fprintf(buf, "%-12s", formatParamValue(p1, row[0].ParameterValues[p1.Name]))
		for _, cell := range row {
			fmt.Fprintf(buf, " %-14s", fmt.Sprintf("%s / %s", cell.KeyMetrics.CRPBps.StringFixed(0), cell.KeyMetrics.Rating))
		}
		fmt.Fprintln(buf)
	}
	fmt.Fprintln(buf)

	fmt.Fprintf(buf, "MOST SENSITIVE COMBINATION: %s\n", matrix.Summary.MostSensitiveCombination)
	fmt.Fprintf(buf, "MAX CRP: %s\n", FormatBps(matrix.Summary.MaxCRPBps))
	fmt.Fprintf(buf, "INTERACTION EFFECT: %s\n", FormatBps(matrix.Summary.InteractionEffectBps))
	fmt.Fprintf(buf, "RISK LEVEL: %s %s\n\n", riskEmoji(matrix.Summary.RiskLevel), matrix.Summary.RiskLevel)

	if len(matrix.Summary.Recommendations) > 0 {
		fmt.Fprintln(buf, "RECOMMENDATIONS:")
		for _, rec := range matrix.Summary.Recommendations {
			fmt.Fprintf(buf, "  • %s\n", rec)
		}
	}

	return buf.String(), nil
}

// SensitivityCSVFormatter formats sensitivity analysis output as CSV
type SensitivityCSVFormatter struct{}

func (scf SensitivityCSVFormatter) Name() string { return "csv" }

func (scf SensitivityCSVFormatter) FormatSensitivityAnalysis(analysis interface{}) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	metricsHeader := []string{"rating", "npv", "min_dscr", "debt_spread_bps", "wacc", "crp_bps", "npv_change", "crp_change_bps", "rating_move"}
	metricsRow := func(km domain.SensitivityMetrics) []string {
		return []string{
			km.Rating.String(),
			km.NPV.StringFixed(2),
			measureCell(km.MinDSCR, 4),
			km.DebtSpreadBps.StringFixed(2),
			km.WACC.StringFixed(6),
			km.CRPBps.StringFixed(2),
			km.NPVChange.StringFixed(2),
			km.CRPChangeBps.StringFixed(2),
			fmt.Sprintf("%d", km.RatingMove),
		}
	}

	switch a := analysis.(type) {
	case *domain.ParameterSensitivityAnalysis:
		if err := w.Write(append([]string{"parameter_name", "parameter_value"}, metricsHeader...)); err != nil {
			return "", err
		}
		for _, param := range a.Parameters {
			for _, result := range a.Results {
				value, ok := result.ParameterValues[param.Name]
				if !ok {
					continue
				}
				row := append([]string{param.Name, value.String()}, metricsRow(result.KeyMetrics)...)
				if err := w.Write(row); err != nil {
					return "", err
				}
			}
		}
	case *domain.SensitivityMatrix:
		header := append([]string{"parameter_1_name", "parameter_1_value", "parameter_2_name", "parameter_2_value"}, metricsHeader...)
		if err := w.Write(header); err != nil {
			return "", err
		}
		for _, row := range a.MatrixResults {
			for _, result := range row {
				line := append([]string{
					a.Parameter1.Name, result.ParameterValues[a.Parameter1.Name].String(),
					a.Parameter2.Name, result.ParameterValues[a.Parameter2.Name].String(),
				}, metricsRow(result.KeyMetrics)...)
				if err := w.Write(line); err != nil {
					return "", err
				}
			}
		}
	default:
		return "", fmt.Errorf("unsupported analysis type: %T", analysis)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SensitivityJSONFormatter formats sensitivity analysis output as JSON
type SensitivityJSONFormatter struct{}

func (sjf SensitivityJSONFormatter) Name() string { return "json" }

func (sjf SensitivityJSONFormatter) FormatSensitivityAnalysis(analysis interface{}) (string, error) {
	switch analysis.(type) {
	case *domain.ParameterSensitivityAnalysis, *domain.SensitivityMatrix:
	default:
		return "", fmt.Errorf("unsupported analysis type: %T", analysis)
	}
	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// NewSensitivityFormatter creates a sensitivity formatter based on the format name
func NewSensitivityFormatter(format string) SensitivityFormatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return SensitivityCSVFormatter{}
	case "json":
		return SensitivityJSONFormatter{}
	default:
		return SensitivityConsoleFormatter{}
	}
}
