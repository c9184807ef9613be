package cart

import (
	cartsvc "github.com/heritageheaven/storefront-backend/internal/cart"
	"github.com/heritageheaven/storefront-backend/pkg/enums"
	"github.com/heritageheaven/storefront-backend/pkg/money"
)

type lineItemResponse struct {
	cartsvc.LineItem
	FormattedUnitPrice string `json:"formattedUnitPrice"`
	FormattedLineTotal string `json:"formattedLineTotal"`
}

type cartResponse struct {
	Items          []lineItemResponse `json:"items"`
	ItemCount      int                `json:"itemCount"`
	Total          string             `json:"total"`
	FormattedTotal string             `json:"formattedTotal"`
	Currency       enums.Currency     `json:"currency"`
}

func newCartResponse(store *cartsvc.Store, currency enums.Currency) cartResponse {
	items, total := store.Snapshot()
	out := cartResponse{
		Items:          make([]lineItemResponse, 0, len(items)),
		Total:          total.StringFixed(2),
		FormattedTotal: money.Format(currency, total),
		Currency:       currency,
	}
	for _, item := range items {
		out.ItemCount += item.Quantity
		out.Items = append(out.Items, lineItemResponse{
			LineItem:           item,
			FormattedUnitPrice: money.Format(currency, item.UnitPrice),
			FormattedLineTotal: money.Format(currency, item.LineTotal),
		})
	}
	return out
}
