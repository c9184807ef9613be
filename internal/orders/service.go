package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	dbpkg "github.com/heritageheaven/storefront-backend/pkg/db"
	"github.com/heritageheaven/storefront-backend/pkg/db/models"
	"github.com/heritageheaven/storefront-backend/pkg/enums"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/outbox"
	"github.com/heritageheaven/storefront-backend/pkg/outbox/payloads"
	"github.com/heritageheaven/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service archives completed checkouts and queues their domain events.
type Service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	now    func() time.Time
}

// NewService builds the archive service.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &Service{repo: repo, tx: tx, outbox: publisher, now: time.Now}, nil
}

// Record writes the order and its order_completed event, then runs afterWrite inside the
// same transaction. An afterWrite error rolls the archive back.
func (s *Service) Record(ctx context.Context, sessionID string, payload types.OrderPayload, afterWrite func(context.Context) error) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order := orderFromPayload(sessionID, payload)
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			if dbpkg.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "invoice number already used")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "archive order")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOrderCompleted,
			AggregateType: enums.AggregateOrder,
			AggregateID:   payload.OrderID,
			Actor:         &outbox.ActorRef{SessionID: sessionID},
			Data:          orderCompletedEvent(payload),
			OccurredAt:    payload.CreatedAt,
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue order event")
		}

		if afterWrite != nil {
			return afterWrite(ctx)
		}
		return nil
	})
}

// MarkInvoiceSent stamps the archived order and queues invoice_sent once per order.
func (s *Service) MarkInvoiceSent(ctx context.Context, payload types.OrderPayload) error {
	sentAt := s.now().UTC()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).MarkInvoiceSent(ctx, payload.OrderID, sentAt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark invoice sent")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventInvoiceSent,
			AggregateType: enums.AggregateOrder,
			AggregateID:   payload.OrderID,
			Data: payloads.InvoiceSentEvent{
				OrderID:       payload.OrderID,
				InvoiceNumber: payload.InvoiceNumber,
				SentAt:        sentAt,
			},
			OccurredAt: sentAt,
		}
		if err := s.outbox.EmitIfNotExists(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "queue invoice event")
		}
		return nil
	})
}

// FindPayload rebuilds the payload of an order the session placed. Orders placed by other
// sessions read as not found so sequential invoice numbers cannot be enumerated.
func (s *Service) FindPayload(ctx context.Context, sessionID, invoiceNumber string) (*types.OrderPayload, error) {
	invoiceNumber = strings.TrimSpace(invoiceNumber)
	if invoiceNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invoice number is required")
	}
	order, err := s.repo.FindByInvoiceNumber(ctx, invoiceNumber)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
	}
	if order.SessionID != sessionID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	payload := payloadFromOrder(order)
	return &payload, nil
}

func orderFromPayload(sessionID string, payload types.OrderPayload) *models.Order {
	items := make([]models.OrderLineItem, 0, len(payload.OrderItems))
	for i, item := range payload.OrderItems {
		items = append(items, models.OrderLineItem{
			OrderID:   payload.OrderID,
			Position:  i,
			ProductID: item.ProductID,
			Name:      item.ItemName,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		})
	}
	return &models.Order{
		ID:            payload.OrderID,
		InvoiceNumber: payload.InvoiceNumber,
		SessionID:     sessionID,
		Currency:      payload.Currency,
		TotalPrice:    payload.TotalPrice,
		Items:         items,
		CreatedAt:     payload.CreatedAt,
	}
}

func payloadFromOrder(order *models.Order) types.OrderPayload {
	items := make([]types.OrderItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, types.OrderItem{
			ProductID: item.ProductID,
			ItemName:  item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return types.OrderPayload{
		InvoiceNumber: order.InvoiceNumber,
		OrderID:       order.ID,
		TotalPrice:    order.TotalPrice,
		Currency:      order.Currency,
		OrderItems:    items,
		CreatedAt:     order.CreatedAt,
	}
}

func orderCompletedEvent(payload types.OrderPayload) payloads.OrderCompletedEvent {
	items := make([]payloads.OrderEventItem, 0, len(payload.OrderItems))
	for _, item := range payload.OrderItems {
		items = append(items, payloads.OrderEventItem{
			ProductID: item.ProductID,
			Name:      item.ItemName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return payloads.OrderCompletedEvent{
		OrderID:       payload.OrderID,
		InvoiceNumber: payload.InvoiceNumber,
		Currency:      payload.Currency,
		TotalPrice:    payload.TotalPrice,
		Items:         items,
		CompletedAt:   payload.CreatedAt,
	}
}
