package compare

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"Rating",
		"NPV",
		"IRR",
		"Min DSCR",
		"Debt Spread (bps)",
		"WACC",
		"CRP (bps)",
		"Operating Years",
		"Stranded Debt",
		"NPV Diff from Base",
		"CRP Diff from Base (bps)",
		"Rating Notches",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if compSet.BaseResult != nil {
		if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
			return "", err
		}
	}

	for _, alt := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&alt, "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a comparison result as a CSV row. Undefined measures are left blank.
func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	notches := ""
	if result.Migration != nil {
		notches = strconv.Itoa(result.Migration.Notches)
	}
	irr, dscr := "", ""
	if result.IRR.Defined {
		irr = result.IRR.Value.StringFixed(4)
	}
	if result.MinDSCR.Defined {
		dscr = result.MinDSCR.Value.StringFixed(3)
	}

	return []string{
		result.ScenarioName,
		scenarioType,
		result.Rating.String(),
		result.NPV.StringFixed(2),
		irr,
		dscr,
		result.DebtSpreadBps.StringFixed(1),
		result.WACC.StringFixed(5),
		result.CRPBps.StringFixed(2),
		strconv.Itoa(result.OperatingYears),
		result.StrandedDebt.StringFixed(2),
		result.NPVDiffFromBase.StringFixed(2),
		result.CRPDiffFromBaseBps.StringFixed(2),
		notches,
	}
}
