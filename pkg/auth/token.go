package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/heritageheaven/storefront-backend/pkg/config"
)

// clockSkew tolerates small drift between API replicas when checking exp and iat.
const clockSkew = 30 * time.Second

var signingMethod = jwt.SigningMethodHS256

// ErrTokenExpired lets callers ask the browser to open a new session instead of treating
// the token as forged.
var ErrTokenExpired = errors.New("session token expired")

// MintSessionToken issues a signed JWT carrying the session id.
func MintSessionToken(cfg config.SessionConfig, now time.Time, sessionID uuid.UUID) (string, error) {
	switch {
	case cfg.Secret == "":
		return "", errors.New("session secret is required")
	case cfg.Issuer == "":
		return "", errors.New("session issuer is required")
	case cfg.TokenTTL <= 0:
		return "", errors.New("session token ttl must be positive")
	case sessionID == uuid.Nil:
		return "", errors.New("session id is required")
	}

	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   sessionID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// ParseSessionToken verifies signature, issuer, and expiry and returns the claims. An
// expired but otherwise valid token yields an error matching ErrTokenExpired.
func ParseSessionToken(cfg config.SessionConfig, raw string) (*SessionClaims, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session secret is required")
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return []byte(cfg.Secret), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case err != nil:
		return nil, err
	}
	return claims, nil
}
