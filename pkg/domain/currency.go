package domain

import dErrors "fowlgate/pkg/domain-errors"

// Currency is the ISO 4217 code attached to an agreed transfer price.
// Invariant: the value must be one of the supported marketplace currencies.
//
// Usage: construct via ParseCurrency at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Currency string

// Supported marketplace currencies.
const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
)

// validCurrencies is the single source of truth for supported currencies.
var validCurrencies = map[Currency]bool{
	CurrencyINR: true,
	CurrencyUSD: true,
}

// ParseCurrency constructs a Currency from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
func ParseCurrency(s string) (Currency, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "currency cannot be empty")
	}
	c := Currency(s)
	if !c.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported currency")
	}
	return c, nil
}

// IsValid checks if the currency is one of the supported values.
func (c Currency) IsValid() bool {
	return validCurrencies[c]
}

// String returns the string representation of the currency.
func (c Currency) String() string {
	return string(c)
}
