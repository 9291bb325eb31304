package valueobject

import (
	"strings"

	"golang.org/x/text/currency"

	"github.com/royalty/backend/internal/domain/shared"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	JPY Currency = "JPY" // Japanese Yen (default for receipts)
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
)

// DefaultCurrency is the currency assumed when a receipt does not name one
const DefaultCurrency = JPY

// ParseCurrency normalizes and validates an ISO 4217 code.
func ParseCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", shared.NewDomainError(shared.CodeInvalidCurrency, "currency cannot be empty")
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", shared.NewDomainError(shared.CodeInvalidCurrency, "unknown currency code: "+code)
	}
	return Currency(unit.String()), nil
}

// String returns the code
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the code is a known ISO 4217 currency
func (c Currency) IsValid() bool {
	_, err := ParseCurrency(string(c))
	return err == nil
}
