// Package coupon holds the static table of discount codes.
package coupon

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidCoupon is returned when a coupon code is not in the table.
var ErrInvalidCoupon = errors.New("invalid or expired coupon")

// Table is an in-process mapping of coupon code to discount rate.
// Rates are fractions in [0, 1] applied to the pre-discount total.
// Codes are stored upper-case; callers normalize before lookup.
type Table struct {
	rates map[string]decimal.Decimal
}

// NewTable creates a Table from the given code → rate mapping.
func NewTable(rates map[string]decimal.Decimal) *Table {
	t := &Table{rates: make(map[string]decimal.Decimal, len(rates))}
	for code, rate := range rates {
		t.rates[code] = rate
	}
	return t
}

// DefaultTable returns the built-in demo coupon codes.
func DefaultTable() *Table {
	return NewTable(map[string]decimal.Decimal{
		"SAVE10":  decimal.RequireFromString("0.10"),
		"BIGSALE": decimal.RequireFromString("0.25"),
		"FREEME":  decimal.RequireFromString("1.00"),
	})
}

// Rate returns the discount rate for code and whether the code exists.
// The lookup is exact-match; callers upper-case the code first.
func (t *Table) Rate(code string) (decimal.Decimal, bool) {
	rate, ok := t.rates[code]
	return rate, ok
}

// RateOrZero returns the discount rate for code, or zero when the code is
// empty or unknown. Totaling treats a stale stored coupon as no discount
// rather than an error.
func (t *Table) RateOrZero(code string) decimal.Decimal {
	rate, ok := t.rates[code]
	if !ok {
		return decimal.Zero
	}
	return rate
}
