// Package money holds the integer-cents helpers used throughout the core.
// Every stored or derived balance is a signed int64 count of minor currency
// units; shopspring/decimal is used only at the presentation boundary, never
// for arithmetic that feeds back into the store or the forecast.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatCents renders integer minor units as a "1234.56"-style string for
// display. It never participates in balance arithmetic; the CSV/PDF export
// and the digest do not call it.
func FormatCents(cents int64) string {
	d := decimal.New(cents, -2)
	return d.StringFixed(2)
}

// FormatCentsWithSymbol renders cents with a currency symbol/code prefix,
// e.g. "USD 1234.56".
func FormatCentsWithSymbol(cents int64, currencyCode string) string {
	return fmt.Sprintf("%s %s", currencyCode, FormatCents(cents))
}

// Max returns the larger of two cent amounts.
func Max(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Min returns the smaller of two cent amounts.
func Min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
