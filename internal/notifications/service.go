package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/heritageheaven/storefront-backend/pkg/enums"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
	"github.com/heritageheaven/storefront-backend/pkg/mailer"
	"github.com/heritageheaven/storefront-backend/pkg/metrics"
	"github.com/heritageheaven/storefront-backend/pkg/types"
)

// DefaultTimeout bounds one relay call when none is configured.
const DefaultTimeout = 10 * time.Second

type pendingOrders interface {
	Get(ctx context.Context, sessionID string) (*types.OrderPayload, error)
	Clear(ctx context.Context, sessionID string) error
}

// InvoiceMarker records that an order's invoice went out.
type InvoiceMarker interface {
	MarkInvoiceSent(ctx context.Context, payload types.OrderPayload) error
}

// Options configure a Service.
type Options struct {
	Relay    mailer.Relay
	Pending  pendingOrders
	Merchant types.MerchantProfile
	Timeout  time.Duration
	Archive  InvoiceMarker
	Metrics  *metrics.CheckoutMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

// Service e-mails invoices for completed orders.
type Service struct {
	relay    mailer.Relay
	pending  pendingOrders
	merchant types.MerchantProfile
	timeout  time.Duration
	archive  InvoiceMarker
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	now      func() time.Time
	validate *validator.Validate
}

// NewService builds the dispatcher.
func NewService(opts Options) (*Service, error) {
	if opts.Relay == nil {
		return nil, fmt.Errorf("mail relay required")
	}
	if opts.Pending == nil {
		return nil, fmt.Errorf("pending order store required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		relay:    opts.Relay,
		pending:  opts.Pending,
		merchant: opts.Merchant,
		timeout:  opts.Timeout,
		archive:  opts.Archive,
		metrics:  opts.Metrics,
		logg:     opts.Logger,
		now:      opts.Now,
		validate: validator.New(),
	}, nil
}

// Send e-mails payload to address. A nil payload fails with NO_PENDING_ORDER before any
// relay call; relay failures and timeouts fail with DISPATCH_FAILED.
func (s *Service) Send(ctx context.Context, address string, payload *types.OrderPayload, currency enums.Currency) error {
	if payload == nil || payload.InvoiceNumber == "" {
		s.metrics.IncDispatch("no_pending_order")
		return errNoPendingOrder()
	}
	address = strings.TrimSpace(address)
	if err := s.validate.Var(address, "required,email"); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "a valid e-mail address is required").
			WithDetails(map[string]string{"email": "must be a valid e-mail address"})
	}
	if !currency.IsValid() {
		currency = payload.Currency
	}

	msg := mailer.Message{
		To:      address,
		Subject: Subject(s.merchant, *payload),
		Body:    Body(*payload, s.merchant, currency, s.now()),
		TemplateData: map[string]any{
			"supermarket_name": s.merchant.Name,
			"invoice_number":   payload.InvoiceNumber,
		},
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.relay.Send(sendCtx, msg); err != nil {
		s.metrics.IncDispatch("failed")
		if errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			return pkgerrors.Wrap(pkgerrors.CodeDispatch, err, "mail relay timed out")
		}
		if pkgerrors.IsCode(err, pkgerrors.CodeDispatch) {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDispatch, err, "failed to send invoice")
	}
	s.metrics.IncDispatch("sent")
	return nil
}

// SendPending e-mails the session's pending order. On success the pending reference is
// cleared; on failure it is kept so the shopper can retry without checking out again.
func (s *Service) SendPending(ctx context.Context, sessionID, address string, currency enums.Currency) (*types.OrderPayload, error) {
	payload, err := s.pending.Get(ctx, sessionID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNoPendingOrder) {
			s.metrics.IncDispatch("no_pending_order")
		}
		return nil, err
	}

	logCtx := s.logg.WithInvoiceNumber(ctx, payload.InvoiceNumber)
	if err := s.Send(ctx, address, payload, currency); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeDispatch) {
			s.logg.Error(logCtx, "invoice dispatch failed", err)
		}
		return nil, err
	}

	if err := s.pending.Clear(ctx, sessionID); err != nil {
		s.logg.Error(logCtx, "failed to clear pending order after dispatch", err)
	}
	if s.archive != nil {
		if err := s.archive.MarkInvoiceSent(ctx, *payload); err != nil {
			s.logg.Error(logCtx, "failed to mark invoice sent", err)
		}
	}
	s.logg.Info(logCtx, "invoice e-mailed")
	return payload, nil
}

// Pending returns the session's pending order.
func (s *Service) Pending(ctx context.Context, sessionID string) (*types.OrderPayload, error) {
	return s.pending.Get(ctx, sessionID)
}
