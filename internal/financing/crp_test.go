package financing

import (
	"testing"

	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func testPlant() domain.PlantParameters {
	return domain.PlantParameters{
		Name:         "Test CCGT",
		CapacityMW:   dec("500"),
		TotalCapex:   dec("500000000"),
		DebtFraction: dec("0.6"),
		TaxRate:      dec("0.25"),
	}
}

func TestExpectedLossPct(t *testing.T) {
	assertDecimal(t, "10", ExpectedLossPct(dec("100"), dec("50"), dec("500")))
	assert.True(t, ExpectedLossPct(dec("50"), dec("100"), dec("500")).IsZero(), "gains are not losses")
	assert.True(t, ExpectedLossPct(dec("100"), dec("50"), decimal.Zero).IsZero())
}

func TestSpreadAndPremium(t *testing.T) {
	p := domain.DefaultFinancingParameters()
	assertDecimal(t, "650", SensitivitySpreadBps(p, dec("10")))
	assertDecimal(t, "150", SensitivitySpreadBps(p, decimal.Zero))
	assertDecimal(t, "0.08", EquityPremium(p, dec("10")))
}

func TestWACC(t *testing.T) {
	assertDecimal(t, "0.06825", WACC(dec("0.6"), dec("0.045"), dec("0.25"), dec("0.12")))
	assertDecimal(t, "0.12", WACC(decimal.Zero, dec("0.045"), dec("0.25"), dec("0.12")))
}

func TestPrice(t *testing.T) {
	plant := testPlant()
	p := domain.DefaultFinancingParameters()

	tests := []struct {
		name       string
		rating     domain.Rating
		el         string
		debtSpread string
		costOfDebt string
		wacc       string
	}{
		{"rated A without loss", domain.RatingA, "0", "150", "0.045", "0.06825"},
		{"rated CCC without loss", domain.RatingCCC, "0", "900", "0.12", "0.102"},
		{"loss spread exceeds rating spread", domain.RatingAA, "10", "650", "0.095", "0.12275"},
		{"unrated priced on loss alone", domain.Unrated, "10", "650", "0.095", "0.12275"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := Price(plant, p, tt.rating, dec(tt.el))
			assertDecimal(t, tt.debtSpread, terms.DebtSpreadBps)
			assertDecimal(t, tt.costOfDebt, terms.CostOfDebt)
			assertDecimal(t, tt.wacc, terms.WACC)
		})
	}
}

func TestDiscountRate(t *testing.T) {
	plant := testPlant()
	p := domain.DefaultFinancingParameters()
	assertDecimal(t, "0.06825", BaseWACC(plant, p))
	assertDecimal(t, "0.06825", DiscountRate(plant, p))

	p.DiscountRate = dec("0.08")
	assertDecimal(t, "0.08", DiscountRate(plant, p))
}

func TestAssess(t *testing.T) {
	plant := testPlant()
	p := domain.DefaultFinancingParameters()
	ref := Reference{Mode: domain.CRPModeCounterfactual, Rating: domain.RatingA, NPV: dec("107000000")}

	t.Run("identical to reference", func(t *testing.T) {
		impact := Assess(plant, p, Outcome{NPV: ref.NPV, Rating: ref.Rating}, ref)
		assert.True(t, impact.CRPBps.IsZero())
		assert.True(t, impact.ExpectedLossPct.IsZero())
		assert.True(t, impact.NPVLoss.IsZero())
		assert.True(t, impact.WACCReference.Equal(impact.WACCAdjusted))
	})

	t.Run("downgrade raises the premium", func(t *testing.T) {
		impact := Assess(plant, p, Outcome{NPV: ref.NPV, Rating: domain.RatingCCC}, ref)
		assertDecimal(t, "337.5", impact.CRPBps)
		assertDecimal(t, "900", impact.RatingSpreadBps)
		assert.Equal(t, domain.RatingA, impact.ReferenceRating)
		assert.Equal(t, domain.CRPModeCounterfactual, impact.Mode)
	})

	t.Run("loss raises the premium", func(t *testing.T) {
		impact := Assess(plant, p, Outcome{NPV: dec("57000000"), Rating: domain.RatingA}, ref)
		assertDecimal(t, "10", impact.ExpectedLossPct)
		assertDecimal(t, "50000000", impact.NPVLoss)
		assert.True(t, impact.CRPBps.IsPositive())
	})

	t.Run("premium is monotonic in rating", func(t *testing.T) {
		prev := decimal.NewFromInt(-1)
		for r := domain.RatingAAA; r <= domain.RatingD; r++ {
			impact := Assess(plant, p, Outcome{NPV: ref.NPV, Rating: r}, ref)
			assert.True(t, impact.CRPBps.GreaterThanOrEqual(prev), "rating %s", r)
			prev = impact.CRPBps
		}
	})
}
