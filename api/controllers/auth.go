package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/heritageheaven/storefront-backend/api/middleware"
	"github.com/heritageheaven/storefront-backend/api/responses"
	"github.com/heritageheaven/storefront-backend/api/validators"
	"github.com/heritageheaven/storefront-backend/internal/auth"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
)

// AuthService is the session login surface the auth handlers need.
type AuthService interface {
	Login(ctx context.Context, sessionID string, req auth.LoginRequest) error
	Register(ctx context.Context, req auth.RegisterRequest) (json.RawMessage, error)
	Logout(ctx context.Context, sessionID string) error
	Status(ctx context.Context, sessionID string) (auth.StatusResponse, error)
}

// AuthLogin exchanges commerce credentials for a token stored against the session.
func AuthLogin(svc AuthService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if err := svc.Login(r.Context(), sessionID, req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, auth.StatusResponse{Authenticated: true})
	}
}

// AuthRegister creates a customer in the commerce API; it does not log the session in.
func AuthRegister(svc AuthService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var req auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Register(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

func AuthLogout(svc AuthService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		if err := svc.Logout(r.Context(), middleware.SessionIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, auth.StatusResponse{Authenticated: false})
	}
}

func AuthStatus(svc AuthService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		status, err := svc.Status(r.Context(), middleware.SessionIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, status)
	}
}
