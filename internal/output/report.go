package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// Report is the envelope every formatter renders: one plant, the financing calibration,
// and the results of a single run or batch in input order.
type Report struct {
	RunID       string                     `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time                  `json:"generated_at" yaml:"generated_at"`
	Plant       domain.PlantParameters     `json:"plant" yaml:"plant"`
	Financing   domain.FinancingParameters `json:"financing" yaml:"financing"`
	Results     []*domain.ScenarioResult   `json:"results" yaml:"results"`
	Assumptions []string                   `json:"assumptions,omitempty" yaml:"assumptions,omitempty"`
}

// NewReport wraps results in an envelope with a fresh run ID.
func NewReport(plant domain.PlantParameters, financing domain.FinancingParameters, results []*domain.ScenarioResult) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Plant:       plant,
		Financing:   financing.WithDefaults(),
		Results:     results,
		Assumptions: DefaultAssumptions,
	}
}

// HighestCRP returns the result with the largest premium, or nil for an empty report.
func (r *Report) HighestCRP() *domain.ScenarioResult {
	var worst *domain.ScenarioResult
	for _, res := range r.Results {
		if res == nil {
			continue
		}
		if worst == nil || res.Financing.CRPBps.GreaterThan(worst.Financing.CRPBps) {
			worst = res
		}
	}
	return worst
}

// GenerateReport renders report in the named format to w.
func GenerateReport(w io.Writer, report *Report, format string) error {
	f := GetFormatterByName(format)
	if f == nil {
		return fmt.Errorf("unsupported format: %s (available: %s)", format, strings.Join(AvailableFormatterNames(), ", "))
	}
	data, err := f.Format(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// FormatCurrency formats a dollar amount with thousands separators.
func FormatCurrency(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(0)
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if amount.Round(0).IsNegative() {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// FormatPercentage formats a fraction as a percentage.
func FormatPercentage(amount decimal.Decimal) string {
	return amount.Mul(decimal.NewFromInt(100)).StringFixed(2) + "%"
}

// FormatBps formats a basis point value.
func FormatBps(bps decimal.Decimal) string {
	return bps.StringFixed(1) + " bps"
}

// FormatMeasure renders a possibly undefined ratio.
func FormatMeasure(m domain.Measure, places int32) string {
	if !m.Defined {
		return "n/a"
	}
	return m.Value.StringFixed(places)
}
