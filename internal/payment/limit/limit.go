// Package limit decides whether a prospective payment keeps a payer inside
// the daily spending ceiling. It is a pure decision over supplied totals and
// never touches storage.
package limit

import (
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/payline/internal/payment/domain"
)

// DefaultCeiling is the product default for the per-payer daily limit,
// expressed in the base monetary unit.
var DefaultCeiling = decimal.RequireFromString("2000.00")

// Evaluate reports whether dailyTotal plus amount stays within ceiling.
// Amounts of zero or less are rejected outright, independent of the
// accumulated total.
func Evaluate(dailyTotal, amount, ceiling decimal.Decimal) (bool, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return false, domain.ErrInvalidAmount
	}
	newTotal := dailyTotal.Add(amount)
	return newTotal.LessThanOrEqual(ceiling), nil
}
