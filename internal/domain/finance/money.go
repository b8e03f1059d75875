package finance

import "github.com/shopspring/decimal"

// MoneyPlaces is the number of decimal places money amounts are rounded to
const MoneyPlaces = 2

var (
	hundred = decimal.NewFromInt(100)

	// PaymentEpsilon absorbs 2-decimal rounding when comparing received against total
	PaymentEpsilon = decimal.New(5, -3)
)

// RoundMoney rounds an amount to MoneyPlaces
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}
