package entity

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents). All ledger arithmetic happens on
// this integer so that applying and reverting a delta is exact.
type Money int64

// MaxAmount is the largest single amount the ledger accepts (1e12 in major units)
const MaxAmount Money = 100_000_000_000_000

// ErrMoneyOutOfRange is returned when an amount does not fit in int64 cents
var ErrMoneyOutOfRange = errors.New("amount out of range")

var (
	minCents = decimal.NewFromInt(math.MinInt64)
	maxCents = decimal.NewFromInt(math.MaxInt64)
)

// MoneyFromDecimal rounds d half-away-from-zero to cents. Amounts whose cents
// fall outside int64 are rejected instead of wrapping.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2).Round(0)
	if cents.LessThan(minCents) || cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %s", ErrMoneyOutOfRange, d.String())
	}
	return Money(cents.IntPart()), nil
}

// ParseMoney parses a decimal string such as "1000.50" into cents.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	m, err := MoneyFromDecimal(d)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return m, nil
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Abs returns the magnitude of m.
func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

// MulQuantity returns m multiplied by a (possibly fractional) quantity, rounded to cents.
func (m Money) MulQuantity(quantity float64) (Money, error) {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) {
		return 0, fmt.Errorf("%w: quantity %v", ErrMoneyOutOfRange, quantity)
	}
	return MoneyFromDecimal(m.Decimal().Mul(decimal.NewFromFloat(quantity)))
}

// String formats the amount with two decimals.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	data = bytes.Trim(data, `"`)
	if len(data) == 0 {
		*m = 0
		return nil
	}
	parsed, err := ParseMoney(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MoneyPtr is a convenience for optional amounts.
func MoneyPtr(m Money) *Money {
	return &m
}

// ValueOrZero dereferences an optional amount.
func ValueOrZero(m *Money) Money {
	if m == nil {
		return 0
	}
	return *m
}
