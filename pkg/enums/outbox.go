package enums

import "slices"

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const AggregateOrder OutboxAggregateType = "order"

var validAggregateTypes = []OutboxAggregateType{AggregateOrder}

func (a OutboxAggregateType) IsValid() bool { return slices.Contains(validAggregateTypes, a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse("aggregate type", validAggregateTypes, value)
}

// OutboxEventType identifies the order lifecycle event stored in outbox_events.
type OutboxEventType string

const (
	// EventOrderCompleted fires when a submitted order is archived.
	EventOrderCompleted OutboxEventType = "order_completed"
	// EventInvoiceSent fires once per order when the invoice e-mail is accepted.
	EventInvoiceSent OutboxEventType = "invoice_sent"
)

var validEventTypes = []OutboxEventType{EventOrderCompleted, EventInvoiceSent}

func (e OutboxEventType) IsValid() bool { return slices.Contains(validEventTypes, e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse("outbox event type", validEventTypes, value)
}
