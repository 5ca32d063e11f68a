package calculation

import (
	"github.com/shopspring/decimal"
)

// DebtYear is one year of an amortization schedule.
type DebtYear struct {
	Opening   decimal.Decimal
	Interest  decimal.Decimal
	Principal decimal.Decimal
	Closing   decimal.Decimal
}

// Payment is interest plus principal.
func (y DebtYear) Payment() decimal.Decimal {
	return y.Interest.Add(y.Principal)
}

// DebtSchedule is a level-payment amortization fixed at financial close.
type DebtSchedule struct {
	Amount  decimal.Decimal
	Rate    decimal.Decimal
	Tenor   int
	Payment decimal.Decimal
	Years   []DebtYear
}

// LevelPayment returns the annuity payment that retires amount over tenor years.
func LevelPayment(amount, rate decimal.Decimal, tenor int) decimal.Decimal {
	if tenor <= 0 || !amount.IsPositive() {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(tenor))
	if rate.IsZero() {
		return amount.Div(n)
	}
	growth := decimal.NewFromInt(1).Add(rate).Pow(n)
	return amount.Mul(rate).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1)))
}

// NewDebtSchedule builds the amortization table. The final payment retires whatever
// balance remains so the schedule closes at exactly zero.
func NewDebtSchedule(amount, rate decimal.Decimal, tenor int) DebtSchedule {
	s := DebtSchedule{
		Amount:  amount,
		Rate:    rate,
		Tenor:   tenor,
		Payment: LevelPayment(amount, rate, tenor),
	}
	if s.Payment.IsZero() {
		return s
	}

	balance := amount
	s.Years = make([]DebtYear, 0, tenor)
	for i := 0; i < tenor; i++ {
		interest := balance.Mul(rate)
		principal := s.Payment.Sub(interest)
		if i == tenor-1 || principal.GreaterThan(balance) {
			principal = balance
		}
		closing := balance.Sub(principal)
		s.Years = append(s.Years, DebtYear{
			Opening:   balance,
			Interest:  interest,
			Principal: principal,
			Closing:   closing,
		})
		balance = closing
	}
	return s
}

// Year returns the schedule entry for the zero-based operating year, or a zero entry
// once the debt is retired.
func (s DebtSchedule) Year(i int) DebtYear {
	if i < 0 || i >= len(s.Years) {
		return DebtYear{}
	}
	return s.Years[i]
}

// OutstandingAfter returns the balance remaining after the given number of years.
func (s DebtSchedule) OutstandingAfter(years int) decimal.Decimal {
	if years <= 0 {
		return s.Amount
	}
	if years > len(s.Years) {
		return decimal.Zero
	}
	return s.Years[years-1].Closing
}
