package checkout

import (
	"context"
	"net/http"

	"github.com/heritageheaven/storefront-backend/api/middleware"
	"github.com/heritageheaven/storefront-backend/api/responses"
	"github.com/heritageheaven/storefront-backend/api/validators"
	checkoutsvc "github.com/heritageheaven/storefront-backend/internal/checkout"
	"github.com/heritageheaven/storefront-backend/pkg/enums"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
	"github.com/heritageheaven/storefront-backend/pkg/money"
	"github.com/heritageheaven/storefront-backend/pkg/types"
)

// Flows resolves the session's checkout orchestrator.
type Flows interface {
	Get(sessionID string) (*checkoutsvc.Orchestrator, error)
}

// paymentRequest carries no validate tags; the orchestrator owns validation so the
// state check runs before the field check.
type paymentRequest struct {
	CardholderName string `json:"cardholderName"`
	CardNumber     string `json:"cardNumber"`
	Expiry         string `json:"expiry"`
	CVC            string `json:"cvc"`
}

type stateResponse struct {
	State          enums.CheckoutState `json:"state"`
	Order          *types.OrderPayload `json:"order,omitempty"`
	FormattedTotal string              `json:"formattedTotal,omitempty"`
	Warning        string              `json:"warning,omitempty"`
}

const deliveryWarning = "order placed, but the confirmation e-mail and invoice download are unavailable for it"

func newStateResponse(outcome checkoutsvc.Outcome) stateResponse {
	resp := stateResponse{State: outcome.State, Order: outcome.Payload}
	if outcome.Payload != nil {
		resp.FormattedTotal = money.Format(outcome.Payload.Currency, outcome.Payload.TotalPrice)
	}
	if outcome.DeliveryErr != nil {
		resp.Warning = deliveryWarning
	}
	return resp
}

// State reports where the session is in the checkout workflow.
func State(flows Flows, logg *logger.Logger) http.HandlerFunc {
	return withFlow(flows, logg, func(r *http.Request, flow *checkoutsvc.Orchestrator) (checkoutsvc.Outcome, error) {
		return flow.State(), nil
	})
}

// Begin opens the payment step.
func Begin(flows Flows, logg *logger.Logger) http.HandlerFunc {
	return withFlow(flows, logg, func(r *http.Request, flow *checkoutsvc.Orchestrator) (checkoutsvc.Outcome, error) {
		return flow.Begin(r.Context())
	})
}

// Cancel closes the payment step.
func Cancel(flows Flows, logg *logger.Logger) http.HandlerFunc {
	return withFlow(flows, logg, func(r *http.Request, flow *checkoutsvc.Orchestrator) (checkoutsvc.Outcome, error) {
		return flow.Cancel(r.Context())
	})
}

// ConfirmPayment submits the order in the request's display currency.
func ConfirmPayment(flows Flows, logg *logger.Logger) http.HandlerFunc {
	return withFlow(flows, logg, func(r *http.Request, flow *checkoutsvc.Orchestrator) (checkoutsvc.Outcome, error) {
		var payload paymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return flow.State(), err
		}
		return flow.ConfirmPayment(r.Context(), checkoutsvc.PaymentDetails{
			CardholderName: payload.CardholderName,
			CardNumber:     payload.CardNumber,
			Expiry:         payload.Expiry,
			CVC:            payload.CVC,
		}, middleware.CurrencyFromContext(r.Context()))
	})
}

func withFlow(flows Flows, logg *logger.Logger, fn func(*http.Request, *checkoutsvc.Orchestrator) (checkoutsvc.Outcome, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if flows == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout unavailable"))
			return
		}
		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing"))
			return
		}
		flow, err := flows.Get(sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome, err := fn(r, flow)
		if err != nil {
			responses.WriteError(withState(r.Context(), logg, outcome), logg, w, errWithState(err, outcome))
			return
		}
		responses.WriteSuccess(w, newStateResponse(outcome))
	}
}

func withState(ctx context.Context, logg *logger.Logger, outcome checkoutsvc.Outcome) context.Context {
	if logg == nil {
		return ctx
	}
	return logg.WithField(ctx, "checkout_state", string(outcome.State))
}

// errWithState attaches the resulting state to typed errors that expose details, so the
// client can re-render without another round trip.
func errWithState(err error, outcome checkoutsvc.Outcome) error {
	typed := pkgerrors.As(err)
	if typed == nil || typed.Details() != nil {
		return err
	}
	if !pkgerrors.MetadataFor(typed.Code()).DetailsAllowed {
		return err
	}
	return typed.WithDetails(map[string]any{"state": outcome.State})
}
