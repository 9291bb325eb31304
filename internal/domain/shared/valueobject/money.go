package valueobject

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitExponent is the fixed scale between major and minor units.
// Amounts are always carried as hundredths, including zero-decimal currencies.
const MinorUnitExponent int32 = 2

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// Money is an immutable amount in one currency
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errors.New("currency cannot be empty")
	}
	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return NewMoney(d, currency)
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// MinorUnits converts the amount to an integer number of minor units,
// rounding half away from zero.
func (m Money) MinorUnits() (int64, error) {
	return ToMinorUnits(m.amount)
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(MinorUnitExponent), m.currency)
}

// ToMinorUnits computes round(amount * 100) as an int64.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	shifted := amount.Shift(MinorUnitExponent).Round(0)
	if shifted.Abs().GreaterThan(maxMinorUnits) {
		return 0, fmt.Errorf("amount %s overflows minor units", amount.String())
	}
	return shifted.IntPart(), nil
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.New(units, -MinorUnitExponent)
}
