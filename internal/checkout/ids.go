package checkout

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
)

const (
	invoicePrefix     = "INV"
	invoiceCounter    = "invoice"
	invoiceRangeStart = 100000
	invoiceRangeSize  = 900000
)

// IDGenerator assigns the identifiers of a new order.
type IDGenerator interface {
	Next(ctx context.Context) (invoiceNumber string, orderID uuid.UUID, err error)
}

type sequenceSource interface {
	NextSequence(ctx context.Context, name string) (int64, error)
}

// CounterIDs draws invoice numbers from a shared monotonic counter, so two processes
// never hand out the same number until the six digit range wraps.
type CounterIDs struct {
	counter sequenceSource
}

// NewCounterIDs builds a generator on top of a counter store such as Redis.
func NewCounterIDs(counter sequenceSource) (*CounterIDs, error) {
	if counter == nil {
		return nil, fmt.Errorf("sequence source required")
	}
	return &CounterIDs{counter: counter}, nil
}

func (c *CounterIDs) Next(ctx context.Context) (string, uuid.UUID, error) {
	seq, err := c.counter.NextSequence(ctx, invoiceCounter)
	if err != nil {
		return "", uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate invoice number")
	}
	return formatInvoiceNumber(seq), uuid.New(), nil
}

// SequenceIDs is an in-process generator for tests and single-instance runs.
type SequenceIDs struct {
	next atomic.Int64
}

func (s *SequenceIDs) Next(context.Context) (string, uuid.UUID, error) {
	return formatInvoiceNumber(s.next.Add(1)), uuid.New(), nil
}

// formatInvoiceNumber maps sequence 1 to INV100000 and wraps after INV999999.
func formatInvoiceNumber(seq int64) string {
	if seq < 1 {
		seq = 1
	}
	n := invoiceRangeStart + (seq-1)%invoiceRangeSize
	return fmt.Sprintf("%s%06d", invoicePrefix, n)
}
