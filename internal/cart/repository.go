package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
	"github.com/heritageheaven/storefront-backend/pkg/redis"
)

// RedisRepository keeps each session's cart as a JSON array in its cart slot.
type RedisRepository struct {
	store redis.SlotStore
}

// NewRedisRepository builds a snapshot repository on top of the session slot store.
func NewRedisRepository(store redis.SlotStore) (*RedisRepository, error) {
	if store == nil {
		return nil, fmt.Errorf("slot store required")
	}
	return &RedisRepository{store: store}, nil
}

func (r *RedisRepository) Load(ctx context.Context, sessionID string) ([]LineItem, error) {
	raw, err := r.store.Get(ctx, r.key(sessionID))
	if err != nil {
		if redis.IsNil(err) {
			return []LineItem{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if strings.TrimSpace(raw) == "" {
		return []LineItem{}, nil
	}
	var items []LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart snapshot")
	}
	if items == nil {
		items = []LineItem{}
	}
	return items, nil
}

func (r *RedisRepository) Save(ctx context.Context, sessionID string, items []LineItem) error {
	if items == nil {
		items = []LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}
	if err := r.store.Set(ctx, r.key(sessionID), string(payload), r.store.SessionTTL()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Del(ctx, r.key(sessionID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (r *RedisRepository) key(sessionID string) string {
	return r.store.SessionSlotKey(sessionID, redis.SlotCart)
}
