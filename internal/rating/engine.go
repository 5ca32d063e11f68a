package rating

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Weights assigns each component its share of the weighted score.
type Weights map[domain.RatingComponent]decimal.Decimal

// DefaultWeights returns the standard component weighting.
func DefaultWeights() Weights {
	return Weights{
		domain.ComponentDSCR:           d(0.35),
		domain.ComponentCoverage:       d(0.15),
		domain.ComponentNetLeverage:    d(0.15),
		domain.ComponentEquityLeverage: d(0.10),
		domain.ComponentAssetLeverage:  d(0.10),
		domain.ComponentProfitability:  d(0.10),
		domain.ComponentCapacity:       d(0.05),
	}
}

// Sum returns the total weight.
func (w Weights) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range w {
		total = total.Add(v)
	}
	return total
}

// criticalComponents can force the overall rating down when they are distressed.
var criticalComponents = []domain.RatingComponent{
	domain.ComponentCoverage,
	domain.ComponentDSCR,
	domain.ComponentNetLeverage,
}

// componentOrder fixes the order of components in an assessment.
var componentOrder = []domain.RatingComponent{
	domain.ComponentCapacity,
	domain.ComponentProfitability,
	domain.ComponentCoverage,
	domain.ComponentDSCR,
	domain.ComponentNetLeverage,
	domain.ComponentEquityLeverage,
	domain.ComponentAssetLeverage,
}

// Engine maps financial metrics to a credit rating in two stages: per-component grades,
// then weighted aggregation with a distress override.
type Engine struct {
	Weights Weights
}

// NewEngine creates an engine with the default weights.
func NewEngine() *Engine {
	return &Engine{Weights: DefaultWeights()}
}

// Rate produces an assessment. Inputs that cannot be rated, such as non-positive
// assets, yield an Unrated assessment rather than an error.
func (e *Engine) Rate(m domain.RatingMetrics) domain.RatingAssessment {
	components, reason := e.Components(m)
	if reason != "" {
		return domain.RatingAssessment{
			Overall:    domain.Unrated,
			Components: components,
			Rationale:  "unratable: " + reason,
		}
	}
	return e.Aggregate(components)
}

// Components grades each metric. reason is non-empty when the metrics are unratable.
func (e *Engine) Components(m domain.RatingMetrics) ([]domain.ComponentRating, string) {
	switch {
	case !m.CapacityMW.IsPositive():
		return nil, "capacity must be positive"
	case !m.FixedAssets.IsPositive():
		return nil, "fixed assets must be positive"
	case !m.TotalAssets.IsPositive():
		return nil, "total assets must be positive"
	case m.TotalDebt.IsPositive() && !m.DSCR.Defined:
		return nil, "debt outstanding without debt service"
	}

	hasDebt := m.TotalDebt.IsPositive()
	byName := make(map[domain.RatingComponent]domain.ComponentRating, len(componentOrder))
	add := func(c domain.RatingComponent, v decimal.Decimal, r domain.Rating, note string) {
		byName[c] = domain.ComponentRating{Component: c, Value: v, Rating: r, Weight: e.weight(c), Note: note}
	}

	add(domain.ComponentCapacity, m.CapacityMW, RateCapacity(m.CapacityMW), "")

	profit := m.EBITDA.Div(m.FixedAssets).Mul(hundred)
	add(domain.ComponentProfitability, profit, RateProfitability(profit), "")

	// Without an interest charge the ratio is undefined; a loss still grades D.
	switch {
	case m.EBITDA.IsNegative() && (!hasDebt || !m.Interest.IsPositive()):
		add(domain.ComponentCoverage, decimal.Zero, domain.RatingD, "negative EBITDA, no interest charge")
	case !hasDebt:
		add(domain.ComponentCoverage, decimal.Zero, domain.RatingAAA, "debt-free")
	case !m.Interest.IsPositive():
		add(domain.ComponentCoverage, decimal.Zero, domain.RatingAAA, "no interest charge")
	default:
		cov := m.EBITDA.Div(m.Interest)
		add(domain.ComponentCoverage, cov, RateCoverage(cov), "")
	}

	if hasDebt {
		add(domain.ComponentDSCR, m.DSCR.Value, RateDSCR(m.DSCR.Value), "")
	} else {
		add(domain.ComponentDSCR, decimal.Zero, domain.RatingAAA, "debt-free")
	}

	netRating, netRatio := RateNetLeverage(m.NetDebt(), m.EBITDA)
	note := ""
	if m.EBITDA.IsNegative() {
		note = "negative EBITDA ladder"
	}
	add(domain.ComponentNetLeverage, netRatio, netRating, note)

	switch {
	case !hasDebt:
		add(domain.ComponentEquityLeverage, decimal.Zero, domain.RatingAAA, "debt-free")
	case !m.TotalEquity.IsPositive():
		add(domain.ComponentEquityLeverage, decimal.Zero, domain.RatingB, "no equity")
	default:
		de := m.TotalDebt.Div(m.TotalEquity).Mul(hundred)
		add(domain.ComponentEquityLeverage, de, RateEquityLeverage(de), "")
	}

	da := m.TotalDebt.Div(m.TotalAssets).Mul(hundred)
	add(domain.ComponentAssetLeverage, da, RateAssetLeverage(da), "")

	out := make([]domain.ComponentRating, 0, len(componentOrder))
	for _, c := range componentOrder {
		out = append(out, byName[c])
	}
	return out, ""
}

func (e *Engine) weight(c domain.RatingComponent) decimal.Decimal {
	w := e.Weights
	if w == nil {
		w = DefaultWeights()
	}
	return w[c]
}

// Aggregate combines component grades. The weighted score is rounded to the nearest
// notch and clamped to the scale; a distressed critical component then sets a floor.
func (e *Engine) Aggregate(components []domain.ComponentRating) domain.RatingAssessment {
	score := decimal.Zero
	totalWeight := decimal.Zero
	for _, c := range components {
		score = score.Add(c.Weight.Mul(decimal.NewFromInt(int64(c.Rating))))
		totalWeight = totalWeight.Add(c.Weight)
	}
	if totalWeight.IsPositive() && !totalWeight.Equal(decimal.NewFromInt(1)) {
		score = score.Div(totalWeight)
	}

	notch := score.Round(0).IntPart()
	if notch < int64(domain.BestRating) {
		notch = int64(domain.BestRating)
	}
	if notch > int64(domain.WorstRating) {
		notch = int64(domain.WorstRating)
	}
	overall := domain.Rating(notch)

	a := domain.RatingAssessment{
		Overall:       overall,
		Components:    components,
		WeightedScore: score,
	}

	worst := domain.Unrated
	var worstName domain.RatingComponent
	for _, c := range components {
		if !isCritical(c.Component) {
			continue
		}
		if c.Rating.IsDistressed() && c.Rating > worst {
			worst = c.Rating
			worstName = c.Component
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "weighted score %s -> %s", score.StringFixed(2), overall)
	if worst > overall {
		a.Overall = worst
		a.DistressOverride = true
		fmt.Fprintf(&sb, "; distress override by %s (%s)", worstName, worst)
	}
	a.Rationale = sb.String()
	return a
}

func isCritical(c domain.RatingComponent) bool {
	for _, cc := range criticalComponents {
		if cc == c {
			return true
		}
	}
	return false
}
