// Package money provides monetary value objects for price and tax amounts.
//
// It is a value object layer shared by the checkout pipeline and the tax
// plugins. Invariants:
//   - Amounts are decimal values in major currency units (e.g. "12.20" USD).
//   - Currency code must be valid ISO 4217 (3 uppercase letters).
//   - All arithmetic operations require matching currencies.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCurrency is returned when a currency code is not a valid
	// ISO 4217 code.
	ErrInvalidCurrency = fmt.Errorf("invalid currency code")

	// ErrMismatchedCurrencies is returned when performing operations
	// on money with different currencies.
	ErrMismatchedCurrencies = fmt.Errorf("mismatched currencies")

	// ErrInvalidAmount is returned when an amount string cannot be parsed.
	ErrInvalidAmount = fmt.Errorf("invalid amount")
)

// Code represents a currency code (e.g. "USD", "EUR").
type Code string

// IsValid checks if the currency code is valid.
func (c Code) IsValid() bool {
	if len(c) != 3 {
		return false
	}
	return c[0] >= 'A' && c[0] <= 'Z' &&
		c[1] >= 'A' && c[1] <= 'Z' &&
		c[2] >= 'A' && c[2] <= 'Z'
}

// String returns the string representation of the currency code.
func (c Code) String() string { return string(c) }

// Common currency codes.
const (
	USD Code = "USD"
	EUR Code = "EUR"
	GBP Code = "GBP"
	JPY Code = "JPY"
)

// zeroDecimalCurrencies are ISO 4217 currencies with no minor unit.
var zeroDecimalCurrencies = map[Code]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "ISK": true,
	"JPY": true, "KMF": true, "KRW": true, "PYG": true, "RWF": true,
	"UGX": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
	"XPF": true,
}

// Decimals returns the number of decimal places for the currency.
func (c Code) Decimals() int32 {
	if zeroDecimalCurrencies[c] {
		return 0
	}
	return 2
}

// Money represents a monetary value in a specific currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Code            `json:"currency"`
}

// New creates a Money value from a decimal amount and currency code.
func New(amount decimal.Decimal, currency Code) (Money, error) {
	if !currency.IsValid() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, currency)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// NewFromString creates a Money value from a decimal string like "12.20".
func NewFromString(amount string, currency Code) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	return New(d, currency)
}

// MustFromString is NewFromString that panics on error. Intended for
// constants and test fixtures.
func MustFromString(amount string, currency Code) Money {
	m, err := NewFromString(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero Money value in the given currency.
func Zero(currency Code) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add returns the sum of two Money values.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s and %s",
			ErrMismatchedCurrencies, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns the difference of two Money values.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s and %s",
			ErrMismatchedCurrencies, m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Mul multiplies the amount by an integer factor (e.g. a line quantity).
func (m Money) Mul(factor int64) Money {
	return Money{
		Amount:   m.Amount.Mul(decimal.NewFromInt(factor)),
		Currency: m.Currency,
	}
}

// Quantize rounds the amount half-up to the currency's decimal places.
func (m Money) Quantize() Money {
	return Money{
		Amount:   m.Amount.Round(m.Currency.Decimals()),
		Currency: m.Currency,
	}
}

// Equal reports whether two Money values have the same currency and amount.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// String returns the amount formatted to the currency's decimal places.
func (m Money) String() string {
	return fmt.Sprintf("%s %s",
		m.Amount.StringFixed(m.Currency.Decimals()), m.Currency)
}
