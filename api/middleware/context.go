package middleware

import (
	"context"

	"github.com/heritageheaven/storefront-backend/pkg/enums"
)

type contextKey string

const (
	ctxSessionID contextKey = "session_id"
	ctxCurrency  contextKey = "currency"
)

// SessionIDFromContext returns the session resolved by the Session middleware.
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionID).(string); ok {
		return v
	}
	return ""
}

// WithSessionID injects the session identifier into the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

// CurrencyFromContext returns the request's display currency, or USD when none was set.
func CurrencyFromContext(ctx context.Context) enums.Currency {
	if ctx != nil {
		if v, ok := ctx.Value(ctxCurrency).(enums.Currency); ok && v.IsValid() {
			return v
		}
	}
	return enums.CurrencyUSD
}

// WithCurrency injects the display currency into the context.
func WithCurrency(ctx context.Context, currency enums.Currency) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCurrency, currency)
}
