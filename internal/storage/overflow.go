package storage

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PayloadKind names the overflow payload slots a captured item may reference.
type PayloadKind string

const (
	PayloadContent     PayloadKind = "content"
	PayloadRawHTML     PayloadKind = "rawHtml"
	PayloadDroppedFile PayloadKind = "droppedFile"
)

// OverflowKey derives the session-scoped overflow key for an item payload.
func OverflowKey(itemID string, kind PayloadKind) string {
	return itemID + ":" + string(kind)
}

// Overflow is the volatile overflow tier for payloads too large for the
// primary store. Entries live only for the daemon's lifetime and may be
// evicted under pressure; readers must tolerate missing keys.
type Overflow struct {
	cache *lru.Cache[string, []byte]
}

// NewOverflow builds an overflow store bounded to maxEntries.
func NewOverflow(maxEntries int) (*Overflow, error) {
	cache, err := lru.New[string, []byte](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create overflow cache: %w", err)
	}
	return &Overflow{cache: cache}, nil
}

// Get batch-fetches the requested keys. Missing or evicted keys are simply
// absent from the result.
func (o *Overflow) Get(keys ...string) map[string][]byte {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := o.cache.Get(key); ok {
			result[key] = value
		}
	}
	return result
}

// Set stores the provided payloads.
func (o *Overflow) Set(values map[string][]byte) error {
	for key, value := range values {
		o.cache.Add(key, value)
	}
	return nil
}

// Remove drops the given keys if present.
func (o *Overflow) Remove(keys ...string) {
	for _, key := range keys {
		o.cache.Remove(key)
	}
}

// Len reports the number of live entries.
func (o *Overflow) Len() int {
	return o.cache.Len()
}

// Purge clears the whole tier.
func (o *Overflow) Purge() {
	o.cache.Purge()
}
