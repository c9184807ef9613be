package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/redis"
	"github.com/heritageheaven/storefront-backend/pkg/types"
)

// PendingStore holds the most recently completed order of each session until its
// invoice e-mail goes out.
type PendingStore struct {
	store redis.SlotStore
}

// NewPendingStore builds the store on the session slot store.
func NewPendingStore(store redis.SlotStore) (*PendingStore, error) {
	if store == nil {
		return nil, fmt.Errorf("slot store required")
	}
	return &PendingStore{store: store}, nil
}

// Put replaces the session's pending order.
func (p *PendingStore) Put(ctx context.Context, sessionID string, payload types.OrderPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode pending order")
	}
	if err := p.store.Set(ctx, p.key(sessionID), string(raw), p.store.SessionTTL()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save pending order")
	}
	return nil
}

// Get returns the pending order or a NO_PENDING_ORDER error.
func (p *PendingStore) Get(ctx context.Context, sessionID string) (*types.OrderPayload, error) {
	raw, err := p.store.Get(ctx, p.key(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, errNoPendingOrder()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending order")
	}
	if strings.TrimSpace(raw) == "" {
		return nil, errNoPendingOrder()
	}
	var payload types.OrderPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode pending order")
	}
	return &payload, nil
}

// Clear drops the pending order.
func (p *PendingStore) Clear(ctx context.Context, sessionID string) error {
	if err := p.store.Del(ctx, p.key(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear pending order")
	}
	return nil
}

func (p *PendingStore) key(sessionID string) string {
	return p.store.SessionSlotKey(sessionID, redis.SlotPendingOrder)
}

func errNoPendingOrder() error {
	return pkgerrors.New(pkgerrors.CodeNoPendingOrder, "no order data available")
}
