package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/heritageheaven/storefront-backend/internal/cart"
	"github.com/heritageheaven/storefront-backend/pkg/enums"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
	"github.com/heritageheaven/storefront-backend/pkg/types"
)

// CartSource resolves the cart store owned by a session.
type CartSource interface {
	Get(ctx context.Context, sessionID string) (*cart.Store, error)
}

// AuthChecker reports whether the session carries a login token.
type AuthChecker interface {
	IsAuthenticated(ctx context.Context, sessionID string) (bool, error)
}

// Recorder makes a submitted order durable. afterWrite must run inside the same unit of
// work so that its failure discards the record.
type Recorder interface {
	Record(ctx context.Context, sessionID string, payload types.OrderPayload, afterWrite func(context.Context) error) error
}

// OrderSink receives every completed payload, e.g. the pending-order slot.
type OrderSink interface {
	Put(ctx context.Context, sessionID string, payload types.OrderPayload) error
}

// DirectRecorder keeps no archive and only runs afterWrite.
type DirectRecorder struct{}

func (DirectRecorder) Record(ctx context.Context, _ string, _ types.OrderPayload, afterWrite func(context.Context) error) error {
	if afterWrite == nil {
		return nil
	}
	return afterWrite(ctx)
}

// Deps are the collaborators shared by every session's orchestrator.
type Deps struct {
	Carts    CartSource
	Auth     AuthChecker
	IDs      IDGenerator
	Recorder Recorder
	Sinks    []OrderSink
	Logger   *logger.Logger
	Now      func() time.Time
}

func (d Deps) validate() error {
	if d.Carts == nil {
		return fmt.Errorf("cart source required")
	}
	if d.Auth == nil {
		return fmt.Errorf("auth checker required")
	}
	if d.IDs == nil {
		return fmt.Errorf("id generator required")
	}
	return nil
}

// Outcome is the result of a transition: the state the session is now in and, once an
// order completes, its payload.
type Outcome struct {
	State   enums.CheckoutState
	Payload *types.OrderPayload

	// DeliveryErr is set when the order completed but some sink never received it.
	DeliveryErr error
}

const sinkAttempts = 3

// Transition describes one state change delivered to listeners.
type Transition struct {
	SessionID string
	From      enums.CheckoutState
	To        enums.CheckoutState
	At        time.Time
	// Elapsed is set when leaving Submitting.
	Elapsed time.Duration
	Err     error
}

// Listener observes transitions. Listeners run after the transition's lock is released.
type Listener func(Transition)

// Orchestrator drives one session through the checkout workflow. Transitions are
// serialized; concurrent callers observe them in order.
type Orchestrator struct {
	mu        sync.Mutex
	sessionID string
	deps      Deps
	state     enums.CheckoutState
	payload   *types.OrderPayload
	pending   []Transition

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

// NewOrchestrator builds an idle orchestrator for sessionID.
func NewOrchestrator(sessionID string, deps Deps) (*Orchestrator, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id required")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if deps.Recorder == nil {
		deps.Recorder = DirectRecorder{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{
		sessionID: sessionID,
		deps:      deps,
		state:     enums.CheckoutStateIdle,
		listeners: make(map[int]Listener),
	}, nil
}

// State returns the current state.
func (o *Orchestrator) State() Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcome()
}

// Subscribe registers listener and returns a function that removes it.
func (o *Orchestrator) Subscribe(listener Listener) func() {
	o.listenersMu.Lock()
	defer o.listenersMu.Unlock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = listener
	return func() {
		o.listenersMu.Lock()
		defer o.listenersMu.Unlock()
		delete(o.listeners, id)
	}
}

// Begin moves Idle to AwaitingPayment when the cart has items. From Completed it starts a
// fresh checkout; the finished order stays pending for e-mail dispatch.
func (o *Orchestrator) Begin(ctx context.Context) (Outcome, error) {
	return o.run(func() (Outcome, error) {
		switch o.state {
		case enums.CheckoutStateIdle, enums.CheckoutStateCompleted:
		case enums.CheckoutStateAwaitingPayment:
			return o.outcome(), nil
		default:
			return o.outcome(), o.conflict("begin")
		}

		store, err := o.deps.Carts.Get(ctx, o.sessionID)
		if err != nil {
			return o.outcome(), err
		}
		if store.IsEmpty() {
			return o.outcome(), pkgerrors.New(pkgerrors.CodeCartEmpty, "cart empty")
		}
		o.payload = nil
		o.moveTo(enums.CheckoutStateAwaitingPayment, 0, nil)
		return o.outcome(), nil
	})
}

// Cancel closes the payment step and returns to Idle.
func (o *Orchestrator) Cancel(ctx context.Context) (Outcome, error) {
	return o.run(func() (Outcome, error) {
		switch o.state {
		case enums.CheckoutStateIdle:
			return o.outcome(), nil
		case enums.CheckoutStateAwaitingPayment:
			o.moveTo(enums.CheckoutStateIdle, 0, nil)
			return o.outcome(), nil
		default:
			return o.outcome(), o.conflict("cancel")
		}
	})
}

// ConfirmPayment submits the order. The session must be logged in; otherwise the checkout
// is aborted to Idle and the cart is left alone. A failed submission restores the cart
// and returns to AwaitingPayment so the shopper can retry.
func (o *Orchestrator) ConfirmPayment(ctx context.Context, payment PaymentDetails, currency enums.Currency) (Outcome, error) {
	return o.run(func() (Outcome, error) {
		if o.state != enums.CheckoutStateAwaitingPayment {
			return o.outcome(), o.conflict("confirm payment")
		}
		if err := payment.validate(); err != nil {
			return o.outcome(), err
		}

		authenticated, err := o.deps.Auth.IsAuthenticated(ctx, o.sessionID)
		if err != nil {
			return o.outcome(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check session login")
		}
		if !authenticated {
			o.moveTo(enums.CheckoutStateIdle, 0, nil)
			return o.outcome(), pkgerrors.New(pkgerrors.CodeUnauthorized, "must log in")
		}

		store, err := o.deps.Carts.Get(ctx, o.sessionID)
		if err != nil {
			return o.outcome(), err
		}
		if store.IsEmpty() {
			o.moveTo(enums.CheckoutStateIdle, 0, nil)
			return o.outcome(), pkgerrors.New(pkgerrors.CodeCartEmpty, "cart empty")
		}

		if !currency.IsValid() {
			currency = enums.CurrencyUSD
		}
		o.moveTo(enums.CheckoutStateSubmitting, 0, nil)
		return o.submit(ctx, store, currency)
	})
}

func (o *Orchestrator) submit(ctx context.Context, store *cart.Store, currency enums.Currency) (Outcome, error) {
	started := o.deps.Now()
	items, total := store.Snapshot()

	payload, err := o.buildPayload(ctx, items, total, currency)
	if err != nil {
		return o.fail(ctx, started, err)
	}

	cleared := false
	err = o.deps.Recorder.Record(ctx, o.sessionID, payload, func(ctx context.Context) error {
		if err := store.ClearIfMatches(ctx, items); err != nil {
			return err
		}
		cleared = true
		return nil
	})
	if err != nil {
		if cleared {
			if restoreErr := store.Restore(ctx, items); restoreErr != nil {
				o.deps.Logger.Error(ctx, "failed to restore cart after aborted submission", restoreErr)
			}
		}
		return o.fail(ctx, started, err)
	}

	o.payload = &payload
	o.moveTo(enums.CheckoutStateCompleted, o.deps.Now().Sub(started), nil)

	logCtx := o.deps.Logger.WithInvoiceNumber(ctx, payload.InvoiceNumber)
	out := o.outcome()
	for _, sink := range o.deps.Sinks {
		if err := o.deliver(ctx, sink, payload); err != nil {
			o.deps.Logger.Error(logCtx, "failed to hand completed order to sink", err)
			out.DeliveryErr = multierr.Append(out.DeliveryErr, err)
		}
	}
	o.deps.Logger.Info(logCtx, "order submitted")
	return out, nil
}

// deliver hands payload to sink, retrying up to sinkAttempts times.
func (o *Orchestrator) deliver(ctx context.Context, sink OrderSink, payload types.OrderPayload) error {
	var err error
	for attempt := 0; attempt < sinkAttempts; attempt++ {
		if err = sink.Put(ctx, o.sessionID, payload); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (o *Orchestrator) buildPayload(ctx context.Context, items []cart.LineItem, total decimal.Decimal, currency enums.Currency) (types.OrderPayload, error) {
	invoiceNumber, orderID, err := o.deps.IDs.Next(ctx)
	if err != nil {
		return types.OrderPayload{}, err
	}
	orderItems := make([]types.OrderItem, 0, len(items))
	for _, item := range items {
		orderItems = append(orderItems, types.OrderItem{
			ProductID: item.ProductID,
			ItemName:  item.ItemName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}
	return types.OrderPayload{
		InvoiceNumber: invoiceNumber,
		OrderID:       orderID,
		TotalPrice:    total,
		Currency:      currency,
		OrderItems:    orderItems,
		CreatedAt:     o.deps.Now().UTC(),
	}, nil
}

func (o *Orchestrator) fail(ctx context.Context, started time.Time, cause error) (Outcome, error) {
	elapsed := o.deps.Now().Sub(started)
	o.moveTo(enums.CheckoutStateFailed, elapsed, cause)
	o.moveTo(enums.CheckoutStateAwaitingPayment, 0, nil)
	o.deps.Logger.Error(ctx, "order submission failed", cause)
	return o.outcome(), pkgerrors.Wrap(pkgerrors.CodeSubmission, cause, "order submission failed, please try again")
}

func (o *Orchestrator) conflict(action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s while checkout is %s", action, o.state)).
		WithDetails(map[string]any{"state": o.state})
}

func (o *Orchestrator) outcome() Outcome {
	return Outcome{State: o.state, Payload: o.payload}
}

func (o *Orchestrator) moveTo(next enums.CheckoutState, elapsed time.Duration, err error) {
	o.pending = append(o.pending, Transition{
		SessionID: o.sessionID,
		From:      o.state,
		To:        next,
		At:        o.deps.Now(),
		Elapsed:   elapsed,
		Err:       err,
	})
	o.state = next
}

func (o *Orchestrator) run(fn func() (Outcome, error)) (Outcome, error) {
	o.mu.Lock()
	out, err := fn()
	transitions := o.pending
	o.pending = nil
	o.mu.Unlock()

	if len(transitions) > 0 {
		o.notify(transitions)
	}
	return out, err
}

func (o *Orchestrator) notify(transitions []Transition) {
	o.listenersMu.Lock()
	ids := make([]int, 0, len(o.listeners))
	for id := range o.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, o.listeners[id])
	}
	o.listenersMu.Unlock()

	for _, transition := range transitions {
		for _, listener := range listeners {
			listener(transition)
		}
	}
}
