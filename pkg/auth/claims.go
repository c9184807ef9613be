// Package auth mints and verifies the signed session tokens browsers present on every
// cart and checkout call.
package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var errSubjectMismatch = errors.New("subject does not match session id")

// SessionClaims is the typed JWT handed to browsers to identify their session.
type SessionClaims struct {
	SessionID uuid.UUID `json:"session_id"`
	jwt.RegisteredClaims
}

// Validate runs after the registered claims pass; jwt calls it through ClaimsValidator.
func (c SessionClaims) Validate() error {
	if c.SessionID == uuid.Nil {
		return errors.New("session id claim missing")
	}
	if c.Subject != c.SessionID.String() {
		return errSubjectMismatch
	}
	return nil
}
