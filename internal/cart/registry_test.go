package cart

import (
	"context"
	"testing"
	"time"
)

func TestRegistryReusesStorePerSession(t *testing.T) {
	ctx := context.Background()
	registry, err := NewRegistry(newMemoryRepo(), time.Minute)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	first, err := registry.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	second, _ := registry.Get(ctx, "a")
	other, _ := registry.Get(ctx, "b")
	if first != second {
		t.Fatal("expected the same store for one session")
	}
	if first == other {
		t.Fatal("sessions must not share stores")
	}
}

func TestRegistrySweepReloadsFromSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	registry, err := NewRegistry(repo, time.Minute)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	current := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return current }

	store, _ := registry.Get(ctx, "a")
	if err := store.AddItem(ctx, rice(), 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	current = current.Add(2 * time.Minute)
	if removed := registry.Sweep(); removed != 1 {
		t.Fatalf("expected one eviction, got %d", removed)
	}
	if registry.Len() != 0 {
		t.Fatalf("expected empty registry")
	}

	reopened, _ := registry.Get(ctx, "a")
	if reopened == store {
		t.Fatal("expected a fresh store after eviction")
	}
	if items := reopened.Items(); len(items) != 1 || items[0].Quantity != 2 {
		t.Fatalf("expected reloaded cart, got %+v", items)
	}
}
