package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heritageheaven/storefront-backend/api/responses"
	pkgAuth "github.com/heritageheaven/storefront-backend/pkg/auth"
	"github.com/heritageheaven/storefront-backend/pkg/config"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

type sessionResponse struct {
	SessionID    string    `json:"sessionId"`
	SessionToken string    `json:"sessionToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// SessionCreate mints a fresh browsing session. Clients send the token back in the
// X-Session-Token header; cart, checkout and auth state all hang off its id.
func SessionCreate(cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		sessionID := uuid.New()

		token, err := pkgAuth.MintSessionToken(cfg, now, sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token"))
			return
		}

		if logg != nil {
			logg.Info(logg.WithSessionID(r.Context(), sessionID.String()), "session.created")
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			SessionID:    sessionID.String(),
			SessionToken: token,
			ExpiresAt:    now.Add(cfg.TokenTTL),
		})
	}
}
