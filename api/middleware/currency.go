package middleware

import (
	"net/http"
	"strings"

	"github.com/heritageheaven/storefront-backend/api/responses"
	"github.com/heritageheaven/storefront-backend/pkg/enums"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

const currencyHeader = "X-Currency"

// Currency selects the display currency from the X-Currency header or the currency
// query parameter, falling back to fallback.
func Currency(fallback enums.Currency, logg *logger.Logger) func(http.Handler) http.Handler {
	if !fallback.IsValid() {
		fallback = enums.CurrencyUSD
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(currencyHeader))
			if raw == "" {
				raw = strings.TrimSpace(r.URL.Query().Get("currency"))
			}

			currency := fallback
			if raw != "" {
				parsed, err := enums.ParseCurrency(raw)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported currency").
						WithDetails(map[string]any{"currency": raw}))
					return
				}
				currency = parsed
			}

			next.ServeHTTP(w, r.WithContext(WithCurrency(r.Context(), currency)))
		})
	}
}
