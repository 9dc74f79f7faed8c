package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Money is an amount in cents. Totals are computed in cents so that
// 60.00 * 2 * 10% is exactly 12.00.
type Money int64

// MoneyFromFloat converts a decimal amount to cents, rounding half away from zero.
func MoneyFromFloat(amount float64) Money {
	return Money(math.Round(amount * 100))
}

// Mul multiplies the amount by an integer quantity.
func (m Money) Mul(qty int) Money {
	return m * Money(qty)
}

// Percent returns pct percent of m, rounded to the nearest cent.
func (m Money) Percent(pct int64) Money {
	return Money(math.Round(float64(int64(m)*pct) / 100))
}

// MarshalJSON writes the amount in currency units with two decimals,
// e.g. 132.00.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.decimal()), nil
}

// UnmarshalJSON reads an amount in currency units.
func (m *Money) UnmarshalJSON(data []byte) error {
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("decode money: %w", err)
	}
	*m = MoneyFromFloat(v)
	return nil
}

func (m Money) decimal() string {
	if m < 0 {
		return "-" + (-m).decimal()
	}
	return fmt.Sprintf("%d.%02d", int64(m)/100, int64(m)%100)
}

// String formats the amount as "$12.00".
func (m Money) String() string {
	if m < 0 {
		return "-$" + (-m).decimal()
	}
	return "$" + m.decimal()
}
