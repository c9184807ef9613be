package cart

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/heritageheaven/storefront-backend/pkg/errors"
)

// SnapshotRepository persists the cart of one session as a whole.
type SnapshotRepository interface {
	Load(ctx context.Context, sessionID string) ([]LineItem, error)
	Save(ctx context.Context, sessionID string, items []LineItem) error
	Delete(ctx context.Context, sessionID string) error
}

// Store is the single writer of one session's line items. Every mutation persists the
// resulting snapshot before it becomes visible; a failed write leaves the cart as it was.
type Store struct {
	mu        sync.Mutex
	sessionID string
	repo      SnapshotRepository
	items     []LineItem
}

// Open loads the persisted snapshot for sessionID, starting empty when none exists.
func Open(ctx context.Context, sessionID string, repo SnapshotRepository) (*Store, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart repository required")
	}
	items, err := repo.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Store{sessionID: sessionID, repo: repo, items: cloneItems(items)}, nil
}

// SessionID returns the owning session.
func (s *Store) SessionID() string {
	return s.sessionID
}

// AddItem appends product or, when it is already in the cart, accumulates quantity.
// An existing line keeps the unit price it was added with.
func (s *Store) AddItem(ctx context.Context, product Product, quantity int) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	if _, err := validQuantity(int64(quantity)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := cloneItems(s.items)
	if idx := indexOf(next, product.ID); idx >= 0 {
		combined, err := validQuantity(int64(next[idx].Quantity) + int64(quantity))
		if err != nil {
			return err
		}
		if err := checkStock(product, combined); err != nil {
			return err
		}
		next[idx] = next[idx].withQuantity(combined)
	} else {
		if err := checkStock(product, quantity); err != nil {
			return err
		}
		next = append(next, newLineItem(product, quantity))
	}
	return s.commit(ctx, next)
}

// RemoveItem drops the line for productID; removing an absent product is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.items, productID)
	if idx < 0 {
		return nil
	}
	next := make([]LineItem, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	return s.commit(ctx, next)
}

// UpdateQuantity sets the quantity of an existing line and recomputes its total.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if _, err := validQuantity(int64(quantity)); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.items, productID)
	if idx < 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart").
			WithDetails(map[string]any{"productId": productID})
	}
	next := cloneItems(s.items)
	next[idx] = next[idx].withQuantity(quantity)
	return s.commit(ctx, next)
}

// Total returns the sum of all line totals.
func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.items)
}

// Items returns a copy of the ordered line items.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Snapshot returns the items and their total read under one lock.
func (s *Store) Snapshot() ([]LineItem, decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items), Total(s.items)
}

// IsEmpty reports whether the cart has no lines.
func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) == 0
}

// Clear empties the cart and removes the persisted snapshot.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, s.sessionID); err != nil {
		return err
	}
	s.items = []LineItem{}
	return nil
}

// ClearIfMatches empties the cart only while it still holds exactly expected. A cart
// that changed since expected was read is left untouched and a state conflict is returned.
func (s *Store) ClearIfMatches(ctx context.Context, expected []LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !sameItems(s.items, expected) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart changed during checkout")
	}
	if err := s.repo.Delete(ctx, s.sessionID); err != nil {
		return err
	}
	s.items = []LineItem{}
	return nil
}

// Restore reinstates a snapshot taken earlier with Items.
func (s *Store) Restore(ctx context.Context, items []LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, cloneItems(items))
}

func (s *Store) commit(ctx context.Context, next []LineItem) error {
	if err := s.repo.Save(ctx, s.sessionID, next); err != nil {
		return err
	}
	s.items = next
	return nil
}

func validateProduct(product Product) error {
	if strings.TrimSpace(product.ID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if product.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price must not be negative")
	}
	return nil
}

// checkStock rejects quantity when the catalog reported less stock than requested.
func checkStock(product Product, quantity int) error {
	if product.Stock == nil {
		return nil
	}
	if *product.Stock <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "product is out of stock").
			WithDetails(map[string]any{"productId": product.ID})
	}
	if quantity > *product.Stock {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds available stock").
			WithDetails(map[string]any{"productId": product.ID, "stock": *product.Stock, "quantity": quantity})
	}
	return nil
}
