// Package money holds the decimal helpers shared by the cart, invoices, and e-mails.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/heritageheaven/storefront-backend/pkg/enums"
)

// Places is the number of fractional digits shown to shoppers.
const Places = 2

// Format renders amount with the currency symbol and two decimals, e.g. "$23.50".
func Format(currency enums.Currency, amount decimal.Decimal) string {
	return currency.Symbol() + amount.StringFixed(Places)
}

// LineTotal multiplies a unit price by a quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// Sum adds the provided amounts; zero for none.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

// ParsePrice validates a non-negative price string.
func ParsePrice(raw string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q: %w", raw, err)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("price %q must not be negative", raw)
	}
	return value, nil
}
