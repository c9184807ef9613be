package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	redisclient "github.com/heritageheaven/storefront-backend/pkg/redis"
)

// ErrNoToken is returned when the session never logged in or already logged out.
var ErrNoToken = errors.New("no auth token for session")

type tokenStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type slotKeyer interface {
	SessionSlotKey(sessionID, slot string) string
}

// Manager keeps the commerce API token issued at login in the session's auth slot.
type Manager struct {
	store tokenStore
	keyer slotKeyer
	ttl   time.Duration
}

// AuthChecker exposes the read-only surface used by checkout.
type AuthChecker interface {
	IsAuthenticated(ctx context.Context, sessionID string) (bool, error)
}

// NewManager constructs a token manager backed by Redis.
func NewManager(client *redisclient.Client) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Manager{store: client, keyer: client, ttl: client.SessionTTL()}, nil
}

func newManager(store tokenStore, keyer slotKeyer, ttl time.Duration) *Manager {
	return &Manager{store: store, keyer: keyer, ttl: ttl}
}

// Store records token for the session, replacing any previous one.
func (m *Manager) Store(ctx context.Context, sessionID, token string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("token is required")
	}
	return m.store.Set(ctx, m.key(sessionID), token, m.ttl)
}

// Token returns the stored token or ErrNoToken.
func (m *Manager) Token(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrNoToken
	}
	token, err := m.store.Get(ctx, m.key(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", ErrNoToken
		}
		return "", err
	}
	if strings.TrimSpace(token) == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// IsAuthenticated reports whether a token is present for the session.
func (m *Manager) IsAuthenticated(ctx context.Context, sessionID string) (bool, error) {
	_, err := m.Token(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Revoke deletes the session's token.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.Del(ctx, m.key(sessionID))
}

func (m *Manager) key(sessionID string) string {
	return m.keyer.SessionSlotKey(sessionID, redisclient.SlotAuthToken)
}
