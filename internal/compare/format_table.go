package compare

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing scenarios
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	// Header
	sb.WriteString("CLIMATE SCENARIO COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 96) + "\n")
	if compSet.PlantName != "" {
		sb.WriteString(fmt.Sprintf("Plant: %s\n", compSet.PlantName))
	}
	sb.WriteString(fmt.Sprintf("Base Scenario: %s\n", compSet.BaseScenarioName))
	if compSet.ConfigPath != "" {
		sb.WriteString(fmt.Sprintf("Configuration: %s\n", compSet.ConfigPath))
	}
	sb.WriteString("\n")

	nameWidth := 30
	numWidth := 12

	sb.WriteString(fmt.Sprintf("%-*s %6s %*s %*s %*s %*s %*s\n",
		nameWidth, "Scenario",
		"Rating",
		numWidth, "NPV",
		numWidth, "Min DSCR",
		numWidth, "Spread",
		numWidth, "WACC",
		numWidth, "CRP (bps)"))
	sb.WriteString(strings.Repeat("-", 96) + "\n")

	if compSet.BaseResult != nil {
		sb.WriteString(tf.formatRow(compSet.BaseResult, nameWidth, numWidth, true))
	}

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString(strings.Repeat("-", 96) + "\n")
		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(tf.formatRow(&alt, nameWidth, numWidth, false))
		}
	}

	sb.WriteString(strings.Repeat("=", 96) + "\n")

	// Deltas from base
	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString("\nCOMPARISON TO BASE\n")
		sb.WriteString(strings.Repeat("-", 96) + "\n")

		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(fmt.Sprintf("\n%s:\n", alt.ScenarioName))
			if alt.Description != "" {
				sb.WriteString(fmt.Sprintf("  %s\n", alt.Description))
			}

			sb.WriteString(fmt.Sprintf("  Equity NPV:       %s$%s (%s%%)\n",
				tf.deltaSymbol(alt.NPVDiffFromBase),
				tf.formatDecimal(alt.NPVDiffFromBase),
				alt.NPVPctFromBase.StringFixed(1)))
			sb.WriteString(fmt.Sprintf("  Climate Premium:  %s%s bps\n",
				tf.deltaSymbol(alt.CRPDiffFromBaseBps),
				alt.CRPDiffFromBaseBps.StringFixed(1)))

			if m := alt.Migration; m != nil && m.Notches != 0 {
				direction := "down"
				if m.Notches < 0 {
					direction = "up"
				}
				sb.WriteString(fmt.Sprintf("  Rating:           %s -> %s (%d notch(es) %s)\n",
					m.From, m.To, abs(m.Notches), direction))
				if m.WorstComponent != "" {
					sb.WriteString(fmt.Sprintf("  Weakest Metric:   %s (-%d)\n", m.WorstComponent, m.WorstComponentMove))
				}
			}

			if alt.StrandedDebt.IsPositive() {
				sb.WriteString(fmt.Sprintf("  Stranded Debt:    $%s at retirement\n", tf.formatDecimal(alt.StrandedDebt)))
			}
		}
		sb.WriteString("\n")
	}

	if s := compSet.Statistics; s != nil && s.Scenarios > 1 {
		sb.WriteString("\nPREMIUM DISTRIBUTION\n")
		sb.WriteString(strings.Repeat("-", 96) + "\n")
		sb.WriteString(fmt.Sprintf("Mean CRP:          %s bps (σ %s)\n", s.MeanCRPBps.StringFixed(1), s.StdDevCRPBps.StringFixed(1)))
		sb.WriteString(fmt.Sprintf("Range:             %s to %s bps\n", s.MinCRPBps.StringFixed(1), s.MaxCRPBps.StringFixed(1)))
		sb.WriteString(fmt.Sprintf("Investment Grade:  %d of %d scenarios\n", s.InvestmentGrade, s.Scenarios))
		sb.WriteString("\n")
	}

	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\nRECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 96) + "\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRow formats a single scenario row
func (tf *TableFormatter) formatRow(result *ComparisonResult, nameWidth, numWidth int, isBase bool) string {
	name := result.ScenarioName
	if isBase {
		name += " (base)"
	}

	return fmt.Sprintf("%-*s %6s %*s %*s %*s %*s %*s\n",
		nameWidth, tf.truncate(name, nameWidth),
		result.Rating.String(),
		numWidth, "$"+tf.formatDecimal(result.NPV),
		numWidth, tf.formatMeasure(result.MinDSCR),
		numWidth, result.DebtSpreadBps.StringFixed(0),
		numWidth, result.WACC.Mul(hundred).StringFixed(2)+"%",
		numWidth, result.CRPBps.StringFixed(1))
}

func (tf *TableFormatter) formatMeasure(m domain.Measure) string {
	if !m.Defined {
		return "n/a"
	}
	return m.Value.StringFixed(2) + "x"
}

// formatDecimal formats a decimal for display (in thousands)
func (tf *TableFormatter) formatDecimal(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		millions := d.Div(decimal.NewFromInt(1000000))
		return millions.StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		thousands := d.Div(decimal.NewFromInt(1000))
		return thousands.StringFixed(1) + "K"
	}
	return d.StringFixed(0)
}

// deltaSymbol prefixes positive deltas; negative values carry their own sign
func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	} else if delta.IsNegative() {
		return ""
	}
	return " "
}

func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// FormatCompact creates a compact single-line summary for each scenario
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base: %s | ", compSet.BaseScenarioName))

	for i, alt := range compSet.AlternativeResults {
		if i > 0 {
			sb.WriteString(" | ")
		}
		change := "="
		if !alt.CRPDiffFromBaseBps.IsZero() {
			change = tf.deltaSymbol(alt.CRPDiffFromBaseBps) + alt.CRPDiffFromBaseBps.StringFixed(0) + "bps"
		}
		sb.WriteString(fmt.Sprintf("%s: %s %s", alt.ScenarioName, alt.Rating, change))
	}

	return sb.String()
}
