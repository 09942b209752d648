package money

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a monetary input is negative or not a
// finite number.
var ErrInvalidAmount = errors.New("invalid amount")

// Round2 rounds to two decimal places, half up. Amounts in this system are
// non-negative, so half-away-from-zero and half-up coincide.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ApplyRate multiplies amount by rate and rounds the result to two decimal
// places.
func ApplyRate(amount, rate decimal.Decimal) decimal.Decimal {
	return Round2(amount.Mul(rate))
}

// Validate rejects negative amounts. Decimals are always finite, so the
// non-finite checks live on the float boundary in FromFloat.
func Validate(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s is negative", ErrInvalidAmount, d.String())
	}
	return nil
}

// FromFloat converts a float coming from an API payload into a decimal,
// failing fast on NaN, infinities and negative values instead of letting
// them propagate into the engines.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: not a finite number", ErrInvalidAmount)
	}
	d := decimal.NewFromFloat(f)
	if err := Validate(d); err != nil {
		return decimal.Decimal{}, err
	}
	return d, nil
}

// SplitHalf divides an amount into two halves rounded to cents. When the
// amount carries an odd cent the remainder goes to the first half, so the
// parts always sum back to the input.
func SplitHalf(d decimal.Decimal) (first, second decimal.Decimal) {
	second = d.Div(decimal.NewFromInt(2)).RoundFloor(2)
	first = d.Sub(second)
	return first, second
}
