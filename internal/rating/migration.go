package rating

import (
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// Migration describes how a rating moved from a reference assessment to a scenario.
type Migration struct {
	From                domain.Rating          `json:"from"`
	To                  domain.Rating          `json:"to"`
	Notches             int                    `json:"notches"` // positive means downgrade
	SpreadChangeBps     decimal.Decimal        `json:"spread_change_bps"`
	LostInvestmentGrade bool                   `json:"lost_investment_grade"`
	WorstComponent      domain.RatingComponent `json:"worst_component,omitempty"`
	WorstComponentMove  int                    `json:"worst_component_move"`
}

// Downgraded reports whether the scenario rating is worse than the reference.
func (m Migration) Downgraded() bool {
	return m.Notches > 0
}

// Migrate compares two assessments. When either side is unrated the notch count and
// spread change are left at zero.
func Migrate(from, to domain.RatingAssessment) Migration {
	m := Migration{From: from.Overall, To: to.Overall}
	if !from.Overall.Valid() || !to.Overall.Valid() {
		return m
	}
	m.Notches = int(to.Overall) - int(from.Overall)
	fromSpread, _ := from.Overall.SpreadBps()
	toSpread, _ := to.Overall.SpreadBps()
	m.SpreadChangeBps = toSpread.Sub(fromSpread)
	m.LostInvestmentGrade = from.Overall.IsInvestmentGrade() && !to.Overall.IsInvestmentGrade()

	for _, tc := range to.Components {
		fc, ok := from.Component(tc.Component)
		if !ok {
			continue
		}
		if move := int(tc.Rating) - int(fc.Rating); move > m.WorstComponentMove {
			m.WorstComponentMove = move
			m.WorstComponent = tc.Component
		}
	}
	return m
}
