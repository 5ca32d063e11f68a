package output

import (
	"bytes"
	"encoding/csv"
	"strconv"
)

// CSVSummarizer implements the simple summary CSV output (one row per scenario, input order).
type CSVSummarizer struct{}

func (c CSVSummarizer) Name() string { return "csv" }

func (c CSVSummarizer) Format(report *Report) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{
		"Scenario", "Rating", "NPV", "ProjectNPV", "IRR", "MinDSCR", "AvgDSCR", "LLCR",
		"OperatingYears", "StrandedDebt", "ExpectedLossPct", "DebtSpreadBps", "WACCReference",
		"WACCAdjusted", "CRPBps", "TransitionSource", "PhysicalSource", "CarbonSource",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, res := range report.Results {
		if res == nil {
			continue
		}
		m, f := res.Metrics, res.Financing
		row := []string{
			res.ScenarioName,
			res.Rating.Overall.String(),
			m.NPV.StringFixed(2),
			m.ProjectNPV.StringFixed(2),
			measureCell(m.IRR, 6),
			measureCell(m.MinDSCR, 4),
			measureCell(m.AvgDSCR, 4),
			measureCell(m.LLCR, 4),
			strconv.Itoa(res.OperatingYears),
			m.StrandedDebt.StringFixed(2),
			f.ExpectedLossPct.StringFixed(6),
			f.DebtSpreadBps.StringFixed(2),
			f.WACCReference.StringFixed(6),
			f.WACCAdjusted.StringFixed(6),
			f.CRPBps.StringFixed(2),
			string(res.Sources.Transition),
			string(res.Sources.Physical),
			string(res.Sources.Carbon),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
