package enums

import (
	"slices"
	"strings"
)

// Currency is the shopper's active display currency.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyINR Currency = "INR"
	CurrencyLKR Currency = "LKR"
)

// Symbols stay within Windows-1252 so the PDF core fonts can print them.
var currencySymbols = map[Currency]string{
	CurrencyUSD: "$",
	CurrencyEUR: "€",
	CurrencyGBP: "£",
	CurrencyINR: "Rs.",
	CurrencyLKR: "Rs",
}

var validCurrencies = []Currency{
	CurrencyUSD,
	CurrencyEUR,
	CurrencyGBP,
	CurrencyINR,
	CurrencyLKR,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// Symbol returns the prefix used when formatting amounts; empty for unknown currencies.
func (c Currency) Symbol() string {
	return currencySymbols[c]
}

func (c Currency) IsValid() bool { return slices.Contains(validCurrencies, c) }

// ParseCurrency accepts codes in any case and surrounding whitespace.
func ParseCurrency(value string) (Currency, error) {
	return parse("currency", validCurrencies, strings.ToUpper(strings.TrimSpace(value)))
}
