package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/heritageheaven/storefront-backend/api/responses"
	pkgAuth "github.com/heritageheaven/storefront-backend/pkg/auth"
	"github.com/heritageheaven/storefront-backend/pkg/config"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

// SessionHeader carries the signed session token minted by POST /api/v1/sessions.
const SessionHeader = "X-Session-Token"

// Session resolves the browsing session from the signed token and seeds the context.
func Session(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(SessionHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session token"))
				return
			}

			claims, err := pkgAuth.ParseSessionToken(cfg, raw)
			if err != nil {
				msg := "invalid session token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg = "session expired"
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			sessionID := claims.SessionID.String()
			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
