package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	cartsvc "github.com/heritageheaven/storefront-backend/internal/cart"
)

// addItemRequest mirrors the product card the storefront rendered plus the quantity
// the shopper typed. Quantity stays untyped so "3", 3 and 3.0 all parse the same way.
type addItemRequest struct {
	ProductID string          `json:"productId" validate:"required"`
	ItemName  string          `json:"itemName" validate:"required"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageURL  string          `json:"imageUrl"`
	Stock     *int            `json:"stock"`
	Quantity  any             `json:"quantity" validate:"required"`
}

func (r addItemRequest) toInput() (cartsvc.Product, int, error) {
	qty, err := cartsvc.ParseQuantity(r.Quantity)
	if err != nil {
		return cartsvc.Product{}, 0, err
	}
	return cartsvc.Product{
		ID:        strings.TrimSpace(r.ProductID),
		Name:      strings.TrimSpace(r.ItemName),
		UnitPrice: r.UnitPrice,
		ImageURL:  strings.TrimSpace(r.ImageURL),
		Stock:     r.Stock,
	}, qty, nil
}

type updateQuantityRequest struct {
	Quantity any `json:"quantity" validate:"required"`
}
