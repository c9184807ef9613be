package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/heritageheaven/storefront-backend/pkg/commerce"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
)

type commerceAPI interface {
	Login(ctx context.Context, creds commerce.Credentials) (*commerce.LoginResult, error)
	SaveCustomer(ctx context.Context, details commerce.CustomerDetails) (json.RawMessage, error)
}

type tokenSlot interface {
	Store(ctx context.Context, sessionID, token string) error
	IsAuthenticated(ctx context.Context, sessionID string) (bool, error)
	Revoke(ctx context.Context, sessionID string) error
}

// Service logs sessions in and out of the commerce API. The storefront only tracks
// whether a token is present; the token itself is never interpreted.
type Service struct {
	commerce commerceAPI
	tokens   tokenSlot
}

// NewService constructs the auth service.
func NewService(api commerceAPI, tokens tokenSlot) (*Service, error) {
	if api == nil {
		return nil, fmt.Errorf("commerce client is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token store is required")
	}
	return &Service{commerce: api, tokens: tokens}, nil
}

// Login exchanges credentials for a commerce token and stores it in the session.
func (s *Service) Login(ctx context.Context, sessionID string, req LoginRequest) error {
	result, err := s.commerce.Login(ctx, commerce.Credentials{
		UserName: strings.TrimSpace(req.UserName),
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	if result == nil || strings.TrimSpace(result.Token) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if err := s.tokens.Store(ctx, sessionID, result.Token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session login")
	}
	return nil
}

// Register creates a customer. It does not log the session in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (json.RawMessage, error) {
	return s.commerce.SaveCustomer(ctx, commerce.CustomerDetails{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
	})
}

// Logout forgets the session's token.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.tokens.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session login")
	}
	return nil
}

// Status reports whether the session is logged in.
func (s *Service) Status(ctx context.Context, sessionID string) (StatusResponse, error) {
	ok, err := s.tokens.IsAuthenticated(ctx, sessionID)
	if err != nil {
		return StatusResponse{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check session login")
	}
	return StatusResponse{Authenticated: ok}, nil
}
