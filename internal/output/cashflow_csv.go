package output

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/rgehrsitz/crp/internal/domain"
)

// CashFlowCSVFormatter writes one row per scenario per operating year, joining the
// risk adjustments with the projected cash flows.
type CashFlowCSVFormatter struct{}

func (c CashFlowCSVFormatter) Name() string { return "cashflows" }

func (c CashFlowCSVFormatter) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{
		"Scenario", "Year", "OperatingYear", "EffectiveCF", "OutageRate", "CapacityDerate",
		"EfficiencyLoss", "CarbonPrice", "GenerationMWh", "PowerPrice", "Revenue", "FuelCost",
		"CarbonCost", "FixedOM", "VariableOM", "EBITDA", "Depreciation", "Tax", "Capex",
		"Interest", "Principal", "DebtOutstanding", "CFADS", "FreeCashFlow", "DSCR", "Rating",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, res := range report.Results {
		if res == nil {
			continue
		}
		adjustments := make(map[int]domain.YearlyAdjustment, len(res.Adjustments))
		for _, a := range res.Adjustments {
			adjustments[a.Year] = a
		}
		ratings := make(map[int]domain.Rating, len(res.RatingPath))
		for _, yr := range res.RatingPath {
			ratings[yr.Year] = yr.Rating
		}

		for _, cf := range res.CashFlows {
			adj := adjustments[cf.Year]
			rating := ""
			if r, ok := ratings[cf.Year]; ok {
				rating = r.String()
			}
			row := []string{
				res.ScenarioName,
				strconv.Itoa(cf.Year),
				strconv.Itoa(cf.OperatingYear),
				adj.EffectiveCF.StringFixed(6),
				adj.OutageRate.StringFixed(6),
				adj.CapacityDerate.StringFixed(6),
				adj.EfficiencyLoss.StringFixed(6),
				adj.CarbonPrice.StringFixed(2),
				cf.Generation.StringFixed(2),
				cf.PowerPrice.StringFixed(4),
				cf.Revenue.StringFixed(2),
				cf.FuelCost.StringFixed(2),
				cf.CarbonCost.StringFixed(2),
				cf.FixedOM.StringFixed(2),
				cf.VariableOM.StringFixed(2),
				cf.EBITDA.StringFixed(2),
				cf.Depreciation.StringFixed(2),
				cf.Tax.StringFixed(2),
				cf.Capex.StringFixed(2),
				cf.Interest.StringFixed(2),
				cf.Principal.StringFixed(2),
				cf.DebtOutstanding.StringFixed(2),
				cf.CFADS.StringFixed(2),
				cf.FreeCashFlow.StringFixed(2),
				measureCell(cf.DSCR, 4),
				rating,
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// measureCell leaves undefined measures blank.
func measureCell(m domain.Measure, places int32) string {
	if !m.Defined {
		return ""
	}
	return m.Value.StringFixed(places)
}
