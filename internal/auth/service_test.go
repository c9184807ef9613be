package auth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/heritageheaven/storefront-backend/pkg/commerce"
	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
)

type stubCommerce struct {
	loginResult *commerce.LoginResult
	loginErr    error
	creds       commerce.Credentials
	saved       commerce.CustomerDetails
}

func (s *stubCommerce) Login(_ context.Context, creds commerce.Credentials) (*commerce.LoginResult, error) {
	s.creds = creds
	return s.loginResult, s.loginErr
}

func (s *stubCommerce) SaveCustomer(_ context.Context, details commerce.CustomerDetails) (json.RawMessage, error) {
	s.saved = details
	return json.RawMessage(`{"id":7}`), nil
}

type memoryTokens struct {
	tokens   map[string]string
	storeErr error
}

func (m *memoryTokens) Store(_ context.Context, sessionID, token string) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	m.tokens[sessionID] = token
	return nil
}

func (m *memoryTokens) IsAuthenticated(_ context.Context, sessionID string) (bool, error) {
	_, ok := m.tokens[sessionID]
	return ok, nil
}

func (m *memoryTokens) Revoke(_ context.Context, sessionID string) error {
	delete(m.tokens, sessionID)
	return nil
}

func newTestService(t *testing.T, api *stubCommerce, tokens *memoryTokens) *Service {
	t.Helper()
	svc, err := NewService(api, tokens)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestLoginStoresToken(t *testing.T) {
	api := &stubCommerce{loginResult: &commerce.LoginResult{Token: "tok-1"}}
	tokens := &memoryTokens{tokens: map[string]string{}}
	svc := newTestService(t, api, tokens)

	if err := svc.Login(context.Background(), "sess-1", LoginRequest{UserName: " jane ", Password: "pw"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	if api.creds.UserName != "jane" {
		t.Fatalf("expected trimmed user name, got %q", api.creds.UserName)
	}
	if tokens.tokens["sess-1"] != "tok-1" {
		t.Fatalf("expected token stored, got %+v", tokens.tokens)
	}

	status, err := svc.Status(context.Background(), "sess-1")
	if err != nil || !status.Authenticated {
		t.Fatalf("expected authenticated, got %+v %v", status, err)
	}

	if err := svc.Logout(context.Background(), "sess-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	status, _ = svc.Status(context.Background(), "sess-1")
	if status.Authenticated {
		t.Fatal("expected logged out")
	}
}

func TestLoginWithoutTokenIsUnauthorized(t *testing.T) {
	api := &stubCommerce{loginResult: &commerce.LoginResult{}}
	tokens := &memoryTokens{tokens: map[string]string{}}
	svc := newTestService(t, api, tokens)

	err := svc.Login(context.Background(), "sess-1", LoginRequest{UserName: "jane", Password: "pw"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(tokens.tokens) != 0 {
		t.Fatal("nothing may be stored")
	}
}

func TestLoginPropagatesCommerceError(t *testing.T) {
	api := &stubCommerce{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	svc := newTestService(t, api, &memoryTokens{tokens: map[string]string{}})

	err := svc.Login(context.Background(), "sess-1", LoginRequest{UserName: "jane", Password: "bad"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginStoreFailure(t *testing.T) {
	api := &stubCommerce{loginResult: &commerce.LoginResult{Token: "tok"}}
	svc := newTestService(t, api, &memoryTokens{tokens: map[string]string{}, storeErr: errors.New("redis down")})

	err := svc.Login(context.Background(), "sess-1", LoginRequest{UserName: "jane", Password: "pw"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRegisterForwardsDetails(t *testing.T) {
	api := &stubCommerce{}
	svc := newTestService(t, api, &memoryTokens{tokens: map[string]string{}})

	raw, err := svc.Register(context.Background(), RegisterRequest{FirstName: " Jane ", LastName: "Doe", Email: "jane@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if string(raw) != `{"id":7}` {
		t.Fatalf("unexpected response %s", raw)
	}
	if api.saved.FirstName != "Jane" || api.saved.Email != "jane@example.com" {
		t.Fatalf("unexpected details %+v", api.saved)
	}
}
