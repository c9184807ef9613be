package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
)

const (
	defaultBaseURL             = "http://localhost:5148"
	loginPath                  = "api/Authentication/login"
	saveCustomerPath           = "api/Client/saveCustomer"
	errorBodyReadLimit   int64 = 1024
	listResponseMaxBytes int64 = 4 << 20
)

// Client talks to the commerce API that owns accounts and the product catalog.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the commerce client for baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimSpace(baseURL),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	return client
}

// Credentials is the login request body.
type Credentials struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

// CustomerDetails describes a new customer account.
type CustomerDetails struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginResult carries the token issued by the commerce API.
type LoginResult struct {
	Token string
	Raw   json.RawMessage
}

// Login exchanges credentials for an API token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}
	if strings.TrimSpace(creds.UserName) == "" || creds.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user name and password are required")
	}

	body, err := c.postJSON(ctx, loginPath, creds, "login")
	if err != nil {
		return nil, err
	}
	token := extractToken(body)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "login response did not include a token")
	}
	return &LoginResult{Token: token, Raw: body}, nil
}

// SaveCustomer registers a new customer account.
func (c *Client) SaveCustomer(ctx context.Context, details CustomerDetails) (json.RawMessage, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}
	payload := struct {
		UserDetails CustomerDetails `json:"userDetails"`
	}{UserDetails: details}
	return c.postJSON(ctx, saveCustomerPath, payload, "save customer")
}

// List fetches a collection resource, forwarding query unchanged.
func (c *Client) List(ctx context.Context, resource string, query url.Values) (json.RawMessage, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "commerce client not configured")
	}
	path, err := cleanResource(resource)
	if err != nil {
		return nil, err
	}

	target := c.buildURL(path)
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build list request")
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute list request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog resource not found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp, "list request failed")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, listResponseMaxBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read list response")
	}
	if !json.Valid(data) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "list response is not valid json")
	}
	return json.RawMessage(data), nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, op string) (json.RawMessage, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal "+op+" request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(encoded))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+op+" request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	// The customer endpoint expects an explicitly blank Authorization header.
	httpReq.Header.Set("Authorization", "")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+op+" request")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, op+" rejected")
	case resp.StatusCode == http.StatusBadRequest:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.New(pkgerrors.CodeValidation, op+" rejected").
			WithDetails(map[string]any{"reason": strings.TrimSpace(string(msg))})
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, statusError(resp, op+" request failed")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, listResponseMaxBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read "+op+" response")
	}
	return json.RawMessage(data), nil
}

func statusError(resp *http.Response, message string) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), message)
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func cleanResource(resource string) (string, error) {
	trimmed := strings.Trim(strings.TrimSpace(resource), "/")
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "resource is required")
	}
	segments := strings.Split(trimmed, "/")
	escaped := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" || segment == "." || segment == ".." {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid resource path")
		}
		escaped = append(escaped, url.PathEscape(segment))
	}
	return strings.Join(escaped, "/"), nil
}

// extractToken accepts the token shapes the commerce API has used: a bare JSON
// string, a top-level token field, or one nested under data.
func extractToken(body json.RawMessage) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var bare string
	if err := json.Unmarshal(trimmed, &bare); err == nil {
		return strings.TrimSpace(bare)
	}
	var shaped struct {
		Token       string `json:"token"`
		AccessToken string `json:"accessToken"`
		Data        *struct {
			Token       string `json:"token"`
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &shaped); err != nil {
		if !bytes.HasPrefix(trimmed, []byte("{")) && !bytes.HasPrefix(trimmed, []byte("[")) {
			return strings.TrimSpace(string(trimmed))
		}
		return ""
	}
	for _, candidate := range []string{shaped.Token, shaped.AccessToken} {
		if candidate != "" {
			return candidate
		}
	}
	if shaped.Data != nil {
		if shaped.Data.Token != "" {
			return shaped.Data.Token
		}
		return shaped.Data.AccessToken
	}
	return ""
}
