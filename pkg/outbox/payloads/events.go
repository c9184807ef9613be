package payloads

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/heritageheaven/storefront-backend/pkg/enums"
)

// OrderCompletedEvent is emitted when a checkout is submitted and archived.
type OrderCompletedEvent struct {
	OrderID       uuid.UUID        `json:"order_id"`
	InvoiceNumber string           `json:"invoice_number"`
	Currency      enums.Currency   `json:"currency"`
	TotalPrice    decimal.Decimal  `json:"total_price"`
	Items         []OrderEventItem `json:"items"`
	CompletedAt   time.Time        `json:"completed_at"`
}

// OrderEventItem is the per-line snapshot carried on order events.
type OrderEventItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// InvoiceSentEvent is emitted once the invoice e-mail for an order was accepted by the relay.
type InvoiceSentEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	InvoiceNumber string    `json:"invoice_number"`
	SentAt        time.Time `json:"sent_at"`
}

// Validate rejects events missing the fields subscribers key on.
func (e OrderCompletedEvent) Validate() error {
	switch {
	case e.OrderID == uuid.Nil:
		return errors.New("order_completed: order_id is required")
	case e.InvoiceNumber == "":
		return errors.New("order_completed: invoice_number is required")
	case !e.Currency.IsValid():
		return fmt.Errorf("order_completed: unsupported currency %q", e.Currency)
	}
	return nil
}

func (e OrderCompletedEvent) AggregateKey() uuid.UUID { return e.OrderID }

func (e InvoiceSentEvent) Validate() error {
	switch {
	case e.OrderID == uuid.Nil:
		return errors.New("invoice_sent: order_id is required")
	case e.InvoiceNumber == "":
		return errors.New("invoice_sent: invoice_number is required")
	}
	return nil
}

func (e InvoiceSentEvent) AggregateKey() uuid.UUID { return e.OrderID }
