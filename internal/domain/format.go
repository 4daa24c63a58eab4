package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatJMD renders an amount as Jamaican dollars with thousands separators
// and two decimals, e.g. "J$2,000.00".
func FormatJMD(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString("J$")
	if amount.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatDate renders a timestamp as "02 Jan 2006". An absent one renders empty.
func FormatDate(t Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02 Jan 2006")
}
