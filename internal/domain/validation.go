package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidCurrency = errors.New("invalid currency code")
	ErrInvalidIDFormat = errors.New("invalid ID format")
	ErrRateTooLarge    = errors.New("rate exceeds maximum allowed")
)

// Validation constants
const (
	MaxRate       = "1000000000"
	MaxRateScale  = 12
	MaxIDLength   = 64
	MaxPageSize   = 1000
	DefaultPage   = 50
	MaxLabelRunes = 255
)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
	"PLN": true, "CZK": true, "DKK": true, "HUF": true,
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = NormalizeCurrency(currency)

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateRate validates an exchange rate value
func ValidateRate(rate decimal.Decimal) error {
	if rate.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidRate
	}

	maxRate, _ := decimal.NewFromString(MaxRate)
	if rate.GreaterThan(maxRate) {
		return fmt.Errorf("%w: maximum rate is %s", ErrRateTooLarge, MaxRate)
	}

	if -rate.Exponent() > MaxRateScale {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidRate, MaxRateScale)
	}

	return nil
}

// ValidateID checks an identifier is non-empty and bounded
func ValidateID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > MaxIDLength {
		return ErrInvalidIDFormat
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPage
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
