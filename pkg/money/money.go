package money

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var currencyCodeRe = regexp.MustCompile(`^[A-Z]{3}$`)

// Currency is an ISO 4217 currency code together with its minor unit exponent.
type Currency struct {
	code     string
	exponent int32
}

// NewCurrency creates a Currency after validating the code and the exponent.
func NewCurrency(code string, exponent int32) (Currency, error) {
	if !currencyCodeRe.MatchString(code) {
		return Currency{}, fmt.Errorf("invalid currency code %q: must be exactly 3 uppercase letters", code)
	}
	if exponent < 0 || exponent > 4 {
		return Currency{}, fmt.Errorf("invalid minor unit exponent %d for %s", exponent, code)
	}
	return Currency{code: code, exponent: exponent}, nil
}

// MustCurrency creates a Currency and panics on error. Intended for package-level variable
// initialization only.
func MustCurrency(code string, exponent int32) Currency {
	c, err := NewCurrency(code, exponent)
	if err != nil {
		panic(err)
	}
	return c
}

// Code returns the ISO 4217 currency code.
func (c Currency) Code() string {
	return c.code
}

// Exponent returns the number of decimal places of the minor unit.
func (c Currency) Exponent() int32 {
	return c.exponent
}

// String returns the currency code.
func (c Currency) String() string {
	return c.code
}

// Round rounds d half away from zero to the currency's minor unit.
func (c Currency) Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(c.exponent)
}

// Format renders d with exactly the currency's number of decimal places.
func (c Currency) Format(d decimal.Decimal) string {
	return d.StringFixed(c.exponent)
}

// Common currencies.
var (
	KRW = MustCurrency("KRW", 0)
	USD = MustCurrency("USD", 2)
	JPY = MustCurrency("JPY", 0)
)

// Parse parses an amount string that must already be expressed in whole minor units of c.
func Parse(amount string, c Currency) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if !d.Equal(c.Round(d)) {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d decimal places for %s", amount, c.exponent, c.code)
	}
	return d, nil
}
