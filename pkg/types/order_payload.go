package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heritageheaven/storefront-backend/pkg/enums"
)

// OrderPayload is the finalized record of one checkout. It is built once and never mutated;
// the invoice and the invoice e-mail are both rendered from it.
type OrderPayload struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	OrderID       uuid.UUID       `json:"orderId"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Currency      enums.Currency  `json:"currency"`
	OrderItems    []OrderItem     `json:"orderItems"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// OrderItem is one purchased line.
type OrderItem struct {
	ProductID string          `json:"productId"`
	ItemName  string          `json:"itemName"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// MerchantProfile is the static shop identity printed on invoices and e-mails.
type MerchantProfile struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Contact string `json:"contact"`
}
