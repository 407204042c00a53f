// Package format holds the display helpers the product-search rows use:
// localized prices and variation names.
package format

import (
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"storeadmin/pkg/models"
)

var printer = message.NewPrinter(language.English)

// Price renders a decimal amount string in the given ISO 4217 currency,
// e.g. Price("1234.5", "USD") == "$1,234.50". An empty or unknown currency
// code renders the grouped number with the code appended. An amount that is
// not a number is returned unchanged.
func Price(amount, code string) string {
	amount = strings.TrimSpace(amount)
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return amount
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	unit, err := currency.ParseISO(code)
	if err != nil {
		s := printer.Sprintf("%.2f", v)
		if code == "" {
			return s
		}
		return s + " " + code
	}

	scale, _ := currency.Standard.Rounding(unit)
	num := printer.Sprintf("%."+strconv.Itoa(scale)+"f", v)

	// CLDR falls back to the ISO code when a currency has no English symbol.
	sym := printer.Sprint(currency.Symbol(unit))
	if sym == unit.String() {
		return num + " " + code
	}
	if strings.HasPrefix(num, "-") {
		return "-" + sym + num[1:]
	}
	return sym + num
}

// VariationName joins the variation's attribute options with " - ".
// Unconstrained options read as "Any".
func VariationName(v models.Variation) string {
	parts := make([]string, 0, len(v.Attributes))
	for _, a := range v.Attributes {
		opt := a.Option
		if opt == "" || strings.EqualFold(opt, models.AnyOption) {
			opt = "Any"
		}
		parts = append(parts, opt)
	}
	return strings.Join(parts, " - ")
}
