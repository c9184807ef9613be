package cart

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/heritageheaven/storefront-backend/api/middleware"
	"github.com/heritageheaven/storefront-backend/api/responses"
	"github.com/heritageheaven/storefront-backend/api/validators"
	cartsvc "github.com/heritageheaven/storefront-backend/internal/cart"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

// Carts resolves the session's cart store.
type Carts interface {
	Get(ctx context.Context, sessionID string) (*cartsvc.Store, error)
}

// Fetch returns the session's cart with display-formatted prices.
func Fetch(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return withStore(carts, logg, func(w http.ResponseWriter, r *http.Request, store *cartsvc.Store) error {
		responses.WriteSuccess(w, newCartResponse(store, middleware.CurrencyFromContext(r.Context())))
		return nil
	})
}

// AddItem adds a product or increases the quantity of an existing line.
func AddItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return withStore(carts, logg, func(w http.ResponseWriter, r *http.Request, store *cartsvc.Store) error {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		product, qty, err := payload.toInput()
		if err != nil {
			return err
		}
		if err := store.AddItem(r.Context(), product, qty); err != nil {
			return err
		}
		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{"product_id": product.ID, "quantity": qty})
			logg.Info(ctx, "cart.item_added")
		}
		responses.WriteSuccess(w, newCartResponse(store, middleware.CurrencyFromContext(r.Context())))
		return nil
	})
}

// UpdateItem sets the quantity of an existing line.
func UpdateItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return withStore(carts, logg, func(w http.ResponseWriter, r *http.Request, store *cartsvc.Store) error {
		productID, err := productIDParam(r)
		if err != nil {
			return err
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return err
		}
		qty, err := cartsvc.ParseQuantity(payload.Quantity)
		if err != nil {
			return err
		}
		if err := store.UpdateQuantity(r.Context(), productID, qty); err != nil {
			return err
		}
		responses.WriteSuccess(w, newCartResponse(store, middleware.CurrencyFromContext(r.Context())))
		return nil
	})
}

// RemoveItem drops a line; removing an absent product is not an error.
func RemoveItem(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return withStore(carts, logg, func(w http.ResponseWriter, r *http.Request, store *cartsvc.Store) error {
		productID, err := productIDParam(r)
		if err != nil {
			return err
		}
		if err := store.RemoveItem(r.Context(), productID); err != nil {
			return err
		}
		responses.WriteSuccess(w, newCartResponse(store, middleware.CurrencyFromContext(r.Context())))
		return nil
	})
}

// Clear empties the cart.
func Clear(carts Carts, logg *logger.Logger) http.HandlerFunc {
	return withStore(carts, logg, func(w http.ResponseWriter, r *http.Request, store *cartsvc.Store) error {
		if err := store.Clear(r.Context()); err != nil {
			return err
		}
		responses.WriteSuccess(w, newCartResponse(store, middleware.CurrencyFromContext(r.Context())))
		return nil
	})
}

func withStore(carts Carts, logg *logger.Logger, fn func(http.ResponseWriter, *http.Request, *cartsvc.Store) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing"))
			return
		}
		store, err := carts.Get(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := fn(w, r, store); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
		}
	}
}

func productIDParam(r *http.Request) (string, error) {
	productID := strings.TrimSpace(chi.URLParam(r, "productId"))
	if productID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	return productID, nil
}
