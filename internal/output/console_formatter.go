package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/crp/internal/domain"
)

// ConsoleFormatter renders a detailed, styled report per scenario.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, TitleStyle.Render("CLIMATE RISK PREMIUM ANALYSIS"))
	fmt.Fprintln(&buf, strings.Repeat("=", 80))
	writePlantSummary(&buf, report)
	fmt.Fprintln(&buf)

	if len(report.Results) == 0 {
		fmt.Fprintln(&buf, WarningStyle.Render("No scenarios were evaluated."))
		return buf.Bytes(), nil
	}

	for i, res := range report.Results {
		if res == nil {
			continue
		}
		fmt.Fprintf(&buf, "%s\n", SectionStyle.Render(fmt.Sprintf("SCENARIO %d: %s", i+1, res.ScenarioName)))
		writeScenarioDetail(&buf, res)
		fmt.Fprintln(&buf)
	}

	if len(report.Results) > 1 {
		fmt.Fprintln(&buf, SectionStyle.Render("SUMMARY"))
		writeSummaryTable(&buf, report.Results, true)
		if worst := report.HighestCRP(); worst != nil && worst.Financing.CRPBps.IsPositive() {
			fmt.Fprintf(&buf, "\nHighest premium: %s at %s\n", worst.ScenarioName, FormatBps(worst.Financing.CRPBps))
		}
		fmt.Fprintln(&buf)
	}

	if len(report.Assumptions) > 0 {
		fmt.Fprintln(&buf, SectionStyle.Render("ASSUMPTIONS"))
		for _, a := range report.Assumptions {
			fmt.Fprintf(&buf, "• %s\n", a)
		}
	}

	return buf.Bytes(), nil
}

func writePlantSummary(buf *bytes.Buffer, report *Report) {
	p := report.Plant
	label := func(s string) string { return LabelStyle.Render(fmt.Sprintf("%-18s", s)) }

	fmt.Fprintf(buf, "%s %s\n", label("Run ID:"), report.RunID)
	if p.Name != "" {
		fmt.Fprintf(buf, "%s %s\n", label("Plant:"), p.Name)
	}
	fmt.Fprintf(buf, "%s %s MW @ %s CF, COD %d, %d-year life\n", label("Asset:"),
		p.CapacityMW.StringFixed(0), FormatPercentage(p.CapacityFactor), p.CODYear, p.DesignLifeYears)
	fmt.Fprintf(buf, "%s %s capex, %s debt over %d years at %s\n", label("Financing:"),
		FormatCurrency(p.TotalCapex), FormatPercentage(p.DebtFraction), p.DebtTenorYears, FormatPercentage(p.DebtInterestRate))
	fmt.Fprintf(buf, "%s %s (reference rating %s)\n", label("CRP Mode:"),
		report.Financing.CRPMode, report.Financing.CounterfactualRating)
}

func writeScenarioDetail(buf *bytes.Buffer, res *domain.ScenarioResult) {
	m := res.Metrics
	f := res.Financing
	line := func(name, value string) string {
		return fmt.Sprintf("%s %s", LabelStyle.Render(fmt.Sprintf("%-20s", name)), value)
	}

	headline := []string{
		line("Rating:", RatingStyle(res.Rating.Overall).Render(res.Rating.Overall.String())),
		line("Climate Premium:", PremiumStyle(f.CRPBps).Render(FormatBps(f.CRPBps))),
		line("Equity NPV:", ValueStyle.Render(FormatCurrency(m.NPV))),
		line("Debt Spread:", FormatBps(f.DebtSpreadBps)),
		line("WACC:", fmt.Sprintf("%s -> %s", FormatPercentage(f.WACCReference), FormatPercentage(f.WACCAdjusted))),
	}
	fmt.Fprintln(buf, CardStyle.Render(strings.Join(headline, "\n")))

	fmt.Fprintf(buf, "Sources: transition=%s physical=%s carbon=%s\n",
		res.Sources.Transition, res.Sources.Physical, res.Sources.Carbon)
	fmt.Fprintf(buf, "Operating Years: %d", res.OperatingYears)
	if res.RetiredEarly {
		fmt.Fprint(buf, " (retired early)")
	}
	fmt.Fprintln(buf)
	fmt.Fprintln(buf)

	fmt.Fprintln(buf, "FINANCIAL METRICS")
	fmt.Fprintf(buf, "  Project NPV:        %s\n", FormatCurrency(m.ProjectNPV))
	fmt.Fprintf(buf, "  Discount Rate:      %s\n", FormatPercentage(m.DiscountRate))
	fmt.Fprintf(buf, "  Equity IRR:         %s\n", formatRate(m.IRR))
	fmt.Fprintf(buf, "  DSCR (min / avg):   %s / %s\n", FormatMeasure(m.MinDSCR, 2), FormatMeasure(m.AvgDSCR, 2))
	fmt.Fprintf(buf, "  LLCR:               %s\n", FormatMeasure(m.LLCR, 2))
	fmt.Fprintf(buf, "  Payback:            %s years\n", FormatMeasure(m.PaybackYears, 0))
	if m.StrandedDebt.IsPositive() {
		fmt.Fprintf(buf, "  Stranded Debt:      %s\n", WarningStyle.Render(FormatCurrency(m.StrandedDebt)))
	}
	fmt.Fprintln(buf)

	fmt.Fprintln(buf, "RATING COMPONENTS")
	fmt.Fprintf(buf, "  %-20s %12s %8s %8s\n", "Metric", "Value", "Rating", "Weight")
	for _, c := range res.Rating.Components {
		fmt.Fprintf(buf, "  %-20s %12s %8s %8s\n",
			c.Component, c.Value.StringFixed(2), RatingStyle(c.Rating).Render(c.Rating.String()), c.Weight.StringFixed(2))
	}
	if res.Rating.DistressOverride {
		fmt.Fprintln(buf, WarningStyle.Render("  Distress override applied"))
	}
	if res.Rating.Rationale != "" {
		fmt.Fprintf(buf, "  %s\n", res.Rating.Rationale)
	}

	fmt.Fprintln(buf)
	fmt.Fprintln(buf, "FINANCING IMPACT")
	fmt.Fprintf(buf, "  Reference:          %s, NPV %s\n", f.ReferenceRating, FormatCurrency(f.ReferenceNPV))
	fmt.Fprintf(buf, "  Expected Loss:      %s of capex\n", FormatPercentage(f.ExpectedLossPct))
	fmt.Fprintf(buf, "  Cost of Debt:       %s\n", FormatPercentage(f.CostOfDebt))
	fmt.Fprintf(buf, "  Cost of Equity:     %s (+%s premium)\n", FormatPercentage(f.CostOfEquity), FormatPercentage(f.EquityPremium))

	if len(res.Diagnostics) > 0 {
		fmt.Fprintln(buf)
		for _, d := range res.Diagnostics {
			fmt.Fprintf(buf, "%s %s\n", WarningStyle.Render("⚠"), d)
		}
	}
}

func formatRate(m domain.Measure) string {
	if !m.Defined {
		if m.Reason != "" {
			return "n/a (" + m.Reason + ")"
		}
		return "n/a"
	}
	return FormatPercentage(m.Value)
}

func writeSummaryTable(buf *bytes.Buffer, results []*domain.ScenarioResult, styled bool) {
	fmt.Fprintf(buf, "%-28s %-7s %16s %10s %10s %10s\n", "Scenario", "Rating", "Equity NPV", "Min DSCR", "WACC", "CRP (bps)")
	fmt.Fprintln(buf, strings.Repeat("-", 86))
	for _, res := range results {
		if res == nil {
			continue
		}
		rating := fmt.Sprintf("%-7s", res.Rating.Overall)
		if styled {
			rating = RatingStyle(res.Rating.Overall).Render(rating)
		}
		fmt.Fprintf(buf, "%-28s %s %16s %10s %10s %10s\n",
			truncate(res.ScenarioName, 28),
			rating,
			FormatCurrency(res.Metrics.NPV),
			FormatMeasure(res.Metrics.MinDSCR, 2),
			FormatPercentage(res.Financing.WACCAdjusted),
			res.Financing.CRPBps.StringFixed(1))
	}
}

func truncate(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// ConsoleLiteFormatter renders one unstyled summary row per scenario.
type ConsoleLiteFormatter struct{}

func (c ConsoleLiteFormatter) Name() string { return "console-lite" }

func (c ConsoleLiteFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	title := "CLIMATE RISK PREMIUM SUMMARY"
	if report.Plant.Name != "" {
		title += ": " + report.Plant.Name
	}
	fmt.Fprintln(&buf, title)
	fmt.Fprintln(&buf, strings.Repeat("=", 86))
	writeSummaryTable(&buf, report.Results, false)
	return buf.Bytes(), nil
}
