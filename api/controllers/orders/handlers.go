package orders

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heritageheaven/storefront-backend/api/middleware"
	"github.com/heritageheaven/storefront-backend/api/responses"
	"github.com/heritageheaven/storefront-backend/api/validators"
	"github.com/heritageheaven/storefront-backend/internal/invoice"
	"github.com/heritageheaven/storefront-backend/pkg/enums"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
	"github.com/heritageheaven/storefront-backend/pkg/money"
	"github.com/heritageheaven/storefront-backend/pkg/types"
)

// Dispatcher sends and reads the session's pending order.
type Dispatcher interface {
	SendPending(ctx context.Context, sessionID, address string, currency enums.Currency) (*types.OrderPayload, error)
	Pending(ctx context.Context, sessionID string) (*types.OrderPayload, error)
}

// Archive looks up orders kept in the database.
type Archive interface {
	FindPayload(ctx context.Context, sessionID, invoiceNumber string) (*types.OrderPayload, error)
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type emailResponse struct {
	InvoiceNumber string `json:"invoiceNumber"`
	SentTo        string `json:"sentTo"`
}

type pendingResponse struct {
	Order          types.OrderPayload `json:"order"`
	FormattedTotal string             `json:"formattedTotal"`
}

// EmailPending e-mails the invoice of the session's last order.
func EmailPending(dispatcher Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dispatcher == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "invoice e-mails disabled"))
			return
		}
		sessionID, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload emailRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := dispatcher.SendPending(r.Context(), sessionID, payload.Email, middleware.CurrencyFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, emailResponse{InvoiceNumber: order.InvoiceNumber, SentTo: strings.TrimSpace(payload.Email)})
	}
}

// Pending returns the session's order awaiting e-mail dispatch.
func Pending(dispatcher Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadPending(r, dispatcher)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		currency := displayCurrency(r, *order)
		responses.WriteSuccess(w, pendingResponse{Order: *order, FormattedTotal: money.Format(currency, order.TotalPrice)})
	}
}

// PendingInvoicePDF downloads the invoice of the session's pending order, dated today.
func PendingInvoicePDF(dispatcher Dispatcher, merchant types.MerchantProfile, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := loadPending(r, dispatcher)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeInvoice(w, r, logg, invoice.Generate(*order, merchant, displayCurrency(r, *order), time.Now()))
	}
}

// ArchivedInvoicePDF downloads the invoice of an archived order, dated when it was placed.
func ArchivedInvoicePDF(archive Archive, merchant types.MerchantProfile, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if archive == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order archive disabled"))
			return
		}
		sessionID, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		invoiceNumber := strings.ToUpper(validators.SanitizeString(chi.URLParam(r, "invoiceNumber"), 32))

		order, err := archive.FindPayload(r.Context(), sessionID, invoiceNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeInvoice(w, r, logg, invoice.Generate(*order, merchant, displayCurrency(r, *order), order.CreatedAt))
	}
}

func loadPending(r *http.Request, dispatcher Dispatcher) (*types.OrderPayload, error) {
	if dispatcher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pending orders unavailable")
	}
	sessionID, err := sessionFrom(r)
	if err != nil {
		return nil, err
	}
	return dispatcher.Pending(r.Context(), sessionID)
}

func writeInvoice(w http.ResponseWriter, r *http.Request, logg *logger.Logger, doc invoice.Document) {
	var buf bytes.Buffer
	if err := invoice.WritePDF(doc, &buf); err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render invoice"))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", invoice.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil && logg != nil {
		logg.Error(logg.WithInvoiceNumber(r.Context(), doc.InvoiceNumber), "invoice download interrupted", err)
	}
}

// displayCurrency prefers an explicit request currency over the one the order was placed in.
func displayCurrency(r *http.Request, order types.OrderPayload) enums.Currency {
	if explicit := strings.TrimSpace(r.Header.Get("X-Currency") + r.URL.Query().Get("currency")); explicit != "" {
		return middleware.CurrencyFromContext(r.Context())
	}
	if order.Currency.IsValid() {
		return order.Currency
	}
	return enums.CurrencyUSD
}

func sessionFrom(r *http.Request) (string, error) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing")
	}
	return sessionID, nil
}
