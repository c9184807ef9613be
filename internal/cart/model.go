package cart

import (
	"github.com/shopspring/decimal"

	"github.com/heritageheaven/storefront-backend/pkg/money"
)

// Product is what a shopper adds to the cart. The storefront reports the catalog
// values it rendered; Stock is nil when the catalog did not say.
type Product struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	ImageURL  string
	Stock     *int
}

// LineItem is one product entry in the cart. The JSON shape is the persisted snapshot
// format, so renaming fields breaks carts already stored in Redis.
type LineItem struct {
	ProductID string          `json:"productId"`
	ItemName  string          `json:"itemName"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

func newLineItem(product Product, quantity int) LineItem {
	return LineItem{
		ProductID: product.ID,
		ItemName:  product.Name,
		UnitPrice: product.UnitPrice,
		Quantity:  quantity,
		LineTotal: money.LineTotal(product.UnitPrice, quantity),
		ImageURL:  product.ImageURL,
	}
}

func (li LineItem) withQuantity(quantity int) LineItem {
	li.Quantity = quantity
	li.LineTotal = money.LineTotal(li.UnitPrice, quantity)
	return li
}

// Total sums the line totals of items.
func Total(items []LineItem) decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(items))
	for _, item := range items {
		amounts = append(amounts, item.LineTotal)
	}
	return money.Sum(amounts...)
}

func cloneItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return []LineItem{}
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func indexOf(items []LineItem, productID string) int {
	for i, item := range items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func sameItems(a, b []LineItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ProductID != b[i].ProductID ||
			a[i].Quantity != b[i].Quantity ||
			!a[i].UnitPrice.Equal(b[i].UnitPrice) {
			return false
		}
	}
	return true
}
