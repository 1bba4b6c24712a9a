// Package money converts between the API's decimal "G" amounts and the
// integer cents the ledger stores. No floats anywhere on the way.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidAmount is returned for unparseable or non-positive input.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrTooPrecise is returned when the input has more than two decimal places.
	ErrTooPrecise = errors.New("amount has more than two decimal places")
)

var centFactor = decimal.NewFromInt(100)

// ParseCents parses a decimal string like "12.50" into 1250. The amount
// must be strictly positive and carry at most two decimal places.
func ParseCents(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.Exponent() < -2 {
		// Trailing zeros beyond two places are fine, real precision is not.
		if !d.Equal(d.Round(2)) {
			return 0, ErrTooPrecise
		}
	}
	cents := d.Mul(centFactor)
	if !cents.IsInteger() {
		return 0, ErrTooPrecise
	}
	if !cents.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a two-decimal string: 1250 -> "12.50".
func FormatCents(cents int64) string {
	return decimal.NewFromInt(cents).Div(centFactor).StringFixed(2)
}
