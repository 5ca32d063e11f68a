package breakeven

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatValue renders a break-even value in the target's units.
func FormatValue(target SearchTarget, v decimal.Decimal) string {
	switch target {
	case TargetCarbonScale, TargetHazardScale:
		return v.StringFixed(3) + "x"
	case TargetFlatCarbonPrice:
		return "$" + v.StringFixed(2) + "/t"
	case TargetDispatchPenalty:
		return v.Mul(decimal.NewFromInt(100)).StringFixed(2) + "% of capacity"
	case TargetRetirementYear:
		return v.StringFixed(0)
	default:
		return v.String()
	}
}

// TableFormatter formats break-even results as a console table
type TableFormatter struct{}

// Format generates a formatted table for a single search
func (tf *TableFormatter) Format(result *Result) string {
	var sb strings.Builder

	sb.WriteString("BREAK-EVEN STRESS RESULTS\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	req := result.Request
	baseName := ""
	if req.Base != nil {
		baseName = req.Base.Name
	}
	sb.WriteString(fmt.Sprintf("Base Scenario:  %s\n", baseName))
	sb.WriteString(fmt.Sprintf("Search Target:  %s\n", req.Target))
	sb.WriteString(fmt.Sprintf("Goal:           %s\n", tf.describeGoal(req)))
	sb.WriteString(fmt.Sprintf("Status:         %s\n", tf.formatStatus(result.Success)))
	sb.WriteString(fmt.Sprintf("Evaluations:    %d\n", result.Iterations))
	if result.ConvergenceInfo != "" {
		sb.WriteString(fmt.Sprintf("Convergence:    %s\n", result.ConvergenceInfo))
	}
	sb.WriteString("\n")

	sb.WriteString("BREAK-EVEN POINT\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	if result.BreakEvenValue != nil {
		sb.WriteString(fmt.Sprintf("Break-even:     %s\n", FormatValue(req.Target, *result.BreakEvenValue)))
		if result.AlreadyBreached {
			sb.WriteString("⚠ Goal is breached at the least stressed bound\n")
		}
	} else {
		sb.WriteString("Goal holds across the search range\n")
	}
	sb.WriteString("\n")

	if result.AtBreakEven != nil || result.LastSafe != nil {
		sb.WriteString(fmt.Sprintf("%-14s %16s %8s %16s %10s %10s\n", "Point", "Value", "Rating", "NPV", "Spread", "CRP (bps)"))
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		if result.LastSafe != nil {
			tf.writeOutcome(&sb, "Last safe", req.Target, result.LastSafe)
		}
		if result.AtBreakEven != nil {
			tf.writeOutcome(&sb, "Break-even", req.Target, result.AtBreakEven)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatMultiTarget formats results from searching every target
func (tf *TableFormatter) FormatMultiTarget(result *MultiTargetResult) string {
	var sb strings.Builder

	sb.WriteString("BREAK-EVEN STRESS BY TARGET\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Goal: %s\n\n", result.Goal))

	sb.WriteString(fmt.Sprintf("%-20s %-22s %8s %10s\n", "Target", "Break-even", "Rating", "CRP (bps)"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	for _, r := range result.Results {
		value := "none in range"
		rating := "-"
		crp := "-"
		if r.BreakEvenValue != nil {
			value = FormatValue(r.Request.Target, *r.BreakEvenValue)
		}
		if r.AtBreakEven != nil {
			rating = r.AtBreakEven.Rating.String()
			crp = r.AtBreakEven.CRPBps.StringFixed(1)
		}
		sb.WriteString(fmt.Sprintf("%-20s %-22s %8s %10s\n", r.Request.Target, tf.truncate(value, 22), rating, crp))
	}
	sb.WriteString("\n")

	if len(result.Skipped) > 0 {
		sb.WriteString("SKIPPED\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, s := range result.Skipped {
			sb.WriteString(fmt.Sprintf("• %s\n", s))
		}
		sb.WriteString("\n")
	}

	if len(result.Recommendations) > 0 {
		sb.WriteString("RECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range result.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output
func (jf *JSONFormatter) Format(result *Result) (string, error) {
	return jf.marshal(result)
}

// FormatMultiTarget formats multi-target results as JSON
func (jf *JSONFormatter) FormatMultiTarget(result *MultiTargetResult) (string, error) {
	return jf.marshal(result)
}

func (jf *JSONFormatter) marshal(v interface{}) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Helper methods

func (tf *TableFormatter) writeOutcome(sb *strings.Builder, label string, target SearchTarget, o *Outcome) {
	sb.WriteString(fmt.Sprintf("%-14s %16s %8s %16s %10s %10s\n",
		label,
		tf.truncate(FormatValue(target, o.Value), 16),
		o.Rating.String(),
		"$"+tf.formatShort(o.NPV),
		o.DebtSpreadBps.StringFixed(0),
		o.CRPBps.StringFixed(1)))
}

func (tf *TableFormatter) describeGoal(req Request) string {
	switch req.Goal {
	case GoalRatingFloor:
		return fmt.Sprintf("%s (floor %s)", req.Goal, req.Constraints.RatingFloor)
	case GoalTargetCRP:
		if req.Constraints.TargetCRPBps != nil {
			return fmt.Sprintf("%s (%s bps)", req.Goal, req.Constraints.TargetCRPBps.StringFixed(0))
		}
	}
	return string(req.Goal)
}

func (tf *TableFormatter) formatStatus(success bool) string {
	if success {
		return "✓ Converged"
	}
	return "⚠ Did not converge"
}

func (tf *TableFormatter) formatShort(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		millions := d.Div(decimal.NewFromInt(1000000))
		return millions.StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		thousands := d.Div(decimal.NewFromInt(1000))
		return thousands.StringFixed(1) + "K"
	}
	return d.StringFixed(0)
}

func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
