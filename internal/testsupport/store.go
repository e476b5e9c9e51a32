package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/rahulptl/synapse-sub001/internal/config"
	"github.com/rahulptl/synapse-sub001/internal/items"
	"github.com/rahulptl/synapse-sub001/internal/storage"
)

// MustOpenStore opens a primary store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *storage.Store {
	t.Helper()

	store, err := storage.Open(cfg)
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOverflow builds an overflow tier for tests.
func MustOverflow(t testing.TB, maxEntries int) *storage.Overflow {
	t.Helper()

	overflow, err := storage.NewOverflow(maxEntries)
	if err != nil {
		t.Fatalf("storage.NewOverflow: %v", err)
	}
	return overflow
}

// SeedItem appends a minimal captured item with the given id.
func SeedItem(t testing.TB, catalog *items.Catalog, id string) items.CapturedItem {
	t.Helper()

	item := items.CapturedItem{
		ID:        id,
		Kind:      items.KindPage,
		Title:     "Item " + id,
		CreatedAt: time.Now().UTC(),
	}
	if err := catalog.Append(context.Background(), item); err != nil {
		t.Fatalf("catalog.Append: %v", err)
	}
	return item
}
