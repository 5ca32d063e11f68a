package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Rating is an ordinal credit rating where a lower value is a better credit.
type Rating int

const (
	// Unrated marks an assessment that could not be produced from the inputs.
	Unrated Rating = iota
	RatingAAA
	RatingAA
	RatingA
	RatingBBB
	RatingBB
	RatingB
	RatingCCC
	RatingCC
	RatingC
	RatingD
)

// BestRating and WorstRating bound the ordinal scale.
const (
	BestRating  = RatingAAA
	WorstRating = RatingD
)

var ratingNames = map[Rating]string{
	Unrated:   "NR",
	RatingAAA: "AAA",
	RatingAA:  "AA",
	RatingA:   "A",
	RatingBBB: "BBB",
	RatingBB:  "BB",
	RatingB:   "B",
	RatingCCC: "CCC",
	RatingCC:  "CC",
	RatingC:   "C",
	RatingD:   "D",
}

// spreadBps is the debt spread over the risk-free rate implied by each rating.
var spreadBps = map[Rating]int64{
	RatingAAA: 50,
	RatingAA:  100,
	RatingA:   150,
	RatingBBB: 250,
	RatingBB:  400,
	RatingB:   600,
	RatingCCC: 900,
	RatingCC:  1500,
	RatingC:   2500,
	RatingD:   5000,
}

func (r Rating) String() string {
	if name, ok := ratingNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// Valid reports whether r is on the AAA..D scale.
func (r Rating) Valid() bool {
	return r >= BestRating && r <= WorstRating
}

// IsInvestmentGrade reports whether r is BBB or better.
func (r Rating) IsInvestmentGrade() bool {
	return r.Valid() && r <= RatingBBB
}

// IsDistressed reports whether r is CCC or worse.
func (r Rating) IsDistressed() bool {
	return r.Valid() && r >= RatingCCC
}

// SpreadBps returns the rating-implied debt spread in basis points. ok is false for Unrated.
func (r Rating) SpreadBps() (decimal.Decimal, bool) {
	bps, ok := spreadBps[r]
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(bps), true
}

// Worse returns the worse of two ratings, ignoring Unrated.
func Worse(a, b Rating) Rating {
	if !a.Valid() {
		return b
	}
	if !b.Valid() {
		return a
	}
	if a > b {
		return a
	}
	return b
}

// ParseRating converts "BBB" style strings to a Rating.
func ParseRating(s string) (Rating, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for r, name := range ratingNames {
		if name == want {
			return r, nil
		}
	}
	return Unrated, fmt.Errorf("unknown rating %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rating) UnmarshalText(text []byte) error {
	parsed, err := ParseRating(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// RatingMetrics are the raw quantities the rating engine turns into ratios. DSCR is
// undefined when there is no debt service in the measurement window.
type RatingMetrics struct {
	CapacityMW  decimal.Decimal `json:"capacity_mw"`
	EBITDA      decimal.Decimal `json:"ebitda"`
	Interest    decimal.Decimal `json:"interest"`
	TotalDebt   decimal.Decimal `json:"total_debt"`
	Cash        decimal.Decimal `json:"cash"`
	TotalEquity decimal.Decimal `json:"total_equity"`
	FixedAssets decimal.Decimal `json:"fixed_assets"`
	TotalAssets decimal.Decimal `json:"total_assets"`
	DSCR        Measure         `json:"dscr"`
}

// NetDebt is total debt less cash.
func (m RatingMetrics) NetDebt() decimal.Decimal {
	return m.TotalDebt.Sub(m.Cash)
}

// RatingComponent identifies one axis of the rating grid.
type RatingComponent string

const (
	ComponentCapacity       RatingComponent = "capacity"
	ComponentProfitability  RatingComponent = "profitability"
	ComponentCoverage       RatingComponent = "interest_coverage"
	ComponentDSCR           RatingComponent = "dscr"
	ComponentNetLeverage    RatingComponent = "net_debt_leverage"
	ComponentEquityLeverage RatingComponent = "debt_to_equity"
	ComponentAssetLeverage  RatingComponent = "debt_to_assets"
)

// ComponentRating is the grade assigned to a single metric.
type ComponentRating struct {
	Component RatingComponent `json:"component"`
	Value     decimal.Decimal `json:"value"`
	Rating    Rating          `json:"rating"`
	Weight    decimal.Decimal `json:"weight"`
	Note      string          `json:"note,omitempty"`
}

// RatingAssessment is the output of the rating engine.
type RatingAssessment struct {
	Overall          Rating            `json:"overall"`
	Components       []ComponentRating `json:"components"`
	WeightedScore    decimal.Decimal   `json:"weighted_score"`
	DistressOverride bool              `json:"distress_override"`
	Rationale        string            `json:"rationale"`
}

// Ratable reports whether an overall rating was produced.
func (a RatingAssessment) Ratable() bool {
	return a.Overall.Valid()
}

// Component looks up a component rating by name.
func (a RatingAssessment) Component(c RatingComponent) (ComponentRating, bool) {
	for _, cr := range a.Components {
		if cr.Component == c {
			return cr, true
		}
	}
	return ComponentRating{}, false
}

// YearRating is one point of a per-year rating path.
type YearRating struct {
	Year   int    `json:"year"`
	Rating Rating `json:"rating"`
}
