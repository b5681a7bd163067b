package pricing

import (
	"strings"

	"github.com/bojanz/currency"
	"github.com/shopspring/decimal"
)

const DefaultLocale = "es-CO"

type Line struct {
	Price    decimal.Decimal
	Quantity int
}

func LineTotal(l Line) decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l))
	}
	return total
}

// wholeUnitCurrencies are shown without fraction digits even where CLDR
// lists minor units.
var wholeUnitCurrencies = map[string]struct{}{
	"COP": {},
}

// FormatCurrency renders an amount for display only. It is never used for arithmetic.
// Locale data comes from CLDR; unknown locales fall back to es-CO.
func FormatCurrency(amount decimal.Decimal, currencyCode, locale string) string {
	currencyCode = strings.ToUpper(strings.TrimSpace(currencyCode))
	if locale == "" {
		locale = DefaultLocale
	}

	value, err := currency.NewAmount(amount.String(), currencyCode)
	if err != nil {
		return currencyCode + " " + amount.StringFixed(2)
	}

	f := currency.NewFormatter(currency.NewLocale(locale))
	if _, ok := wholeUnitCurrencies[currencyCode]; ok {
		f.MinDigits = 0
		f.MaxDigits = 0
	}
	return strings.ReplaceAll(f.Format(value), "\u00a0", " ")
}
