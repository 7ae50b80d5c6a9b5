// Package reconcile converts between the two user-facing representations of a
// share: percentage of balance and absolute token amount. It is stateless and
// mode-agnostic; each call is independent.
package reconcile

import (
	"github.com/shopspring/decimal"

	dErrors "legatum/pkg/domain-errors"
)

var hundred = decimal.NewFromInt(100)

// Display rounding. Percentages derived from amounts are rounded once at this
// boundary and stored as-is, so repeated conversions never drift.
const (
	AmountPlaces     = 6
	PercentagePlaces = 2
)

// PercentageToAmount computes (percentage / 100) * balance. A zero balance
// yields zero regardless of percentage.
func PercentageToAmount(percentage, balance decimal.Decimal) decimal.Decimal {
	if balance.Sign() == 0 {
		return decimal.Zero
	}
	return percentage.Div(hundred).Mul(balance)
}

// AmountToPercentage computes (amount / balance) * 100. A zero balance is an
// explicit error rather than a silent zero or NaN: the caller must disable
// amount-mode entry when the wallet is empty.
func AmountToPercentage(amount, balance decimal.Decimal) (decimal.Decimal, error) {
	if balance.Sign() == 0 {
		return decimal.Zero, dErrors.New(dErrors.CodeValidation, "cannot derive a percentage from an amount on a zero balance").
			WithDetail("balance", balance.String())
	}
	return amount.Div(balance).Mul(hundred), nil
}

// RoundAmount rounds a token amount for display (6 decimal places).
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(AmountPlaces)
}

// RoundPercentage rounds a percentage for display and boundary storage
// (2 decimal places).
func RoundPercentage(percentage decimal.Decimal) decimal.Decimal {
	return percentage.Round(PercentagePlaces)
}
