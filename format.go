package invoicing

import (
	"github.com/Rhymond/go-money"
)

// FormatCurrency formats m with two decimals and comma grouping, like "1,234.50".
func FormatCurrency(m Money) string {
	return format(m, "1")
}

// FormatRand formats m for summary lines, like "R 1,234.50".
func FormatRand(m Money) string {
	return format(m, "$ 1")
}

// format renders m with a go-money template, "$" being the grapheme and "1"
// the amount.
func format(m Money, template string) string {
	cur := m.currency()
	f := money.NewFormatter(cur.Fraction, ".", ",", cur.Grapheme, template)
	minor := m.value.Round(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return f.Format(minor.IntPart())
}
