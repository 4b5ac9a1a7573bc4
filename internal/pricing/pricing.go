// Package pricing computes percentage price increases with rounding.
package pricing

import (
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/caja-gym/internal/apperror"
)

var (
	hundred = decimal.NewFromInt(100)
	maxPct  = hundred
)

// Validate checks the inputs of a bulk adjustment. pct must be in (0, 100];
// roundTo, when set, must be a positive integer.
func Validate(pct decimal.Decimal, roundTo *int) error {
	if !pct.IsPositive() || pct.GreaterThan(maxPct) {
		return apperror.Validation("porcentaje debe ser mayor a 0 y menor o igual a 100")
	}
	if roundTo != nil && *roundTo <= 0 {
		return apperror.Validation("redondeo debe ser un entero positivo")
	}
	return nil
}

// Adjust raises price by pct percent and rounds the result to the nearest
// multiple of roundTo, or to the nearest integer when roundTo is nil or 1.
// Ties round half up.
func Adjust(price, pct decimal.Decimal, roundTo *int) decimal.Decimal {
	raised := price.Mul(decimal.NewFromInt(1).Add(pct.Div(hundred)))

	if roundTo == nil || *roundTo <= 1 {
		return raised.Round(0)
	}

	step := decimal.NewFromInt(int64(*roundTo))
	return raised.Div(step).Round(0).Mul(step)
}
