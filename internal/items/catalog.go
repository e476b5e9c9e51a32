package items

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rahulptl/synapse-sub001/internal/storage"
)

// ItemsKey is the primary-store key holding the full captured-item list.
const ItemsKey = "captured_items"

// Catalog persists the captured-item list in the primary store. All mutations
// follow a read-modify-write of the whole list under one lock, so concurrent
// callers never interleave partial updates.
type Catalog struct {
	store *storage.Store
	mu    sync.Mutex
}

// NewCatalog wraps the primary store.
func NewCatalog(store *storage.Store) *Catalog {
	return &Catalog{store: store}
}

// List returns every captured item in insertion order. A missing or malformed
// stored record yields an empty list rather than an error; corruption of the
// durable list must never take the capture path down.
func (c *Catalog) List(ctx context.Context) ([]CapturedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLocked(ctx)
}

// Save rewrites the whole item list.
func (c *Catalog) Save(ctx context.Context, list []CapturedItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked(ctx, list)
}

// Append persists one new item at the end of the list.
func (c *Catalog) Append(ctx context.Context, item CapturedItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.loadLocked(ctx)
	if err != nil {
		return err
	}
	return c.saveLocked(ctx, append(list, item))
}

// Get returns the item with the given id, or nil when absent.
func (c *Catalog) Get(ctx context.Context, id string) (*CapturedItem, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			item := list[i]
			return &item, nil
		}
	}
	return nil, nil
}

// Update applies mutate to the stored item with the given id and persists the
// result. Returns the updated item, or nil when the id is unknown.
func (c *Catalog) Update(ctx context.Context, id string, mutate func(*CapturedItem)) (*CapturedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		mutate(&list[i])
		if err := c.saveLocked(ctx, list); err != nil {
			return nil, err
		}
		item := list[i]
		return &item, nil
	}
	return nil, nil
}

// Remove deletes the item with the given id and returns it so the caller can
// release its overflow keys. Returns nil when the id is unknown.
func (c *Catalog) Remove(ctx context.Context, id string) (*CapturedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list, err := c.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		removed := list[i]
		if err := c.saveLocked(ctx, append(list[:i:i], list[i+1:]...)); err != nil {
			return nil, err
		}
		return &removed, nil
	}
	return nil, nil
}

func (c *Catalog) loadLocked(ctx context.Context) ([]CapturedItem, error) {
	values, err := c.store.Get(ctx, ItemsKey)
	if err != nil {
		return nil, fmt.Errorf("load item list: %w", err)
	}
	raw, ok := values[ItemsKey]
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var list []CapturedItem
	if err := json.Unmarshal(raw, &list); err != nil {
		// Malformed record: recover silently with an empty list.
		return nil, nil
	}
	return list, nil
}

func (c *Catalog) saveLocked(ctx context.Context, list []CapturedItem) error {
	if list == nil {
		list = []CapturedItem{}
	}
	raw, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("marshal item list: %w", err)
	}
	if err := c.store.Set(ctx, map[string][]byte{ItemsKey: raw}); err != nil {
		return fmt.Errorf("persist item list: %w", err)
	}
	return nil
}
