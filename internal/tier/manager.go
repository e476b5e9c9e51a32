package tier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rahulptl/synapse-sub001/internal/config"
	"github.com/rahulptl/synapse-sub001/internal/items"
	"github.com/rahulptl/synapse-sub001/internal/logging"
	"github.com/rahulptl/synapse-sub001/internal/storage"
)

// TruncationMarker terminates preview text that was cut down to the local cap.
const TruncationMarker = "… [truncated]"

// ExpiryNotice is appended to preview text whose full content was lost from
// the overflow tier.
const ExpiryNotice = "\n\n[Full content is no longer available; it expired with the previous session.]"

// OverflowStore is the volatile tier consumed by the manager. Satisfied by
// *storage.Overflow; tests substitute failing fakes.
type OverflowStore interface {
	Get(keys ...string) map[string][]byte
	Set(values map[string][]byte) error
	Remove(keys ...string)
}

// AuxPayloads carries the optional large payloads captured alongside an
// item's text content.
type AuxPayloads struct {
	RawHTML  []byte
	FileData []byte
	FileName string
}

// Manager owns captured-item placement across the two storage tiers.
type Manager struct {
	catalog          *items.Catalog
	overflow         OverflowStore
	sessionThreshold int
	localCap         int
	logger           *slog.Logger
}

// NewManager wires the tier manager over the catalog and overflow store.
func NewManager(cfg *config.Config, catalog *items.Catalog, overflow OverflowStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		catalog:          catalog,
		overflow:         overflow,
		sessionThreshold: cfg.Storage.SessionThresholdBytes,
		localCap:         cfg.Storage.LocalContentCapChars,
		logger:           logger.With(logging.String(logging.FieldComponent, "tier")),
	}
}

// Place persists a freshly captured item. Oversized text and auxiliary
// payloads are staged in the overflow tier; the primary record keeps a
// bounded preview. Overflow failures never fail the capture. A primary-store
// quota failure releases any staged overflow keys and persists a placeholder
// record instead; the returned item reflects what was actually stored.
func (m *Manager) Place(ctx context.Context, item items.CapturedItem, aux AuxPayloads) (items.CapturedItem, error) {
	staged := m.stageAux(&item, aux)
	staged = append(staged, m.stageContent(&item)...)

	if err := m.catalog.Append(ctx, item); err != nil {
		if !IsCapacityError(err) {
			m.overflow.Remove(staged...)
			return items.CapturedItem{}, err
		}
		return m.placeFallback(ctx, item, staged)
	}
	return item, nil
}

// Hydrate substitutes full overflow content back into the given items. All
// referenced keys are fetched in one batch. Items whose overflow payload is
// gone are annotated expired, the notice is appended to their preview once,
// and the annotation is persisted so later reads skip them.
func (m *Manager) Hydrate(ctx context.Context, list []items.CapturedItem) ([]items.CapturedItem, error) {
	var keys []string
	for i := range list {
		if key := pendingContentKey(&list[i]); key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return list, nil
	}

	payloads := m.overflow.Get(keys...)
	for i := range list {
		key := pendingContentKey(&list[i])
		if key == "" {
			continue
		}
		if payload, ok := payloads[key]; ok {
			list[i].TextContent = string(payload)
			continue
		}
		if err := m.markExpired(ctx, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Release drops every overflow key the item references. Call on item deletion
// and after a file payload has been uploaded.
func (m *Manager) Release(item *items.CapturedItem) {
	if keys := item.OverflowKeys(); len(keys) > 0 {
		m.overflow.Remove(keys...)
	}
}

// ReleaseKeys drops specific overflow keys, e.g. a consumed file payload.
func (m *Manager) ReleaseKeys(keys ...string) {
	if len(keys) > 0 {
		m.overflow.Remove(keys...)
	}
}

// stageAux writes raw-HTML and dropped-file payloads to the overflow tier.
// Failures leave the field unstored and the capture proceeds.
func (m *Manager) stageAux(item *items.CapturedItem, aux AuxPayloads) []string {
	var staged []string
	if len(aux.RawHTML) > 0 {
		key := storage.OverflowKey(item.ID, storage.PayloadRawHTML)
		if err := m.overflow.Set(map[string][]byte{key: aux.RawHTML}); err != nil {
			m.logger.Warn("raw html not cached",
				logging.String(logging.FieldItemID, item.ID),
				logging.Error(err))
		} else {
			item.Storage.RawHTMLStored = true
			item.Storage.RawHTMLKey = key
			staged = append(staged, key)
		}
	}
	if len(aux.FileData) > 0 {
		key := storage.OverflowKey(item.ID, storage.PayloadDroppedFile)
		if err := m.overflow.Set(map[string][]byte{key: aux.FileData}); err != nil {
			m.logger.Warn("file payload not cached",
				logging.String(logging.FieldItemID, item.ID),
				logging.Error(err))
		} else {
			item.Storage.FileStored = true
			item.Storage.FileKey = key
			item.Storage.FileName = aux.FileName
			item.Storage.FileSize = int64(len(aux.FileData))
			staged = append(staged, key)
		}
	}
	return staged
}

// stageContent mirrors oversized text to the overflow tier and truncates the
// primary copy to the local cap.
func (m *Manager) stageContent(item *items.CapturedItem) []string {
	var staged []string
	contentBytes := len(item.TextContent)
	if contentBytes > m.sessionThreshold {
		key := storage.OverflowKey(item.ID, storage.PayloadContent)
		if err := m.overflow.Set(map[string][]byte{key: []byte(item.TextContent)}); err != nil {
			m.logger.Warn("full content not cached",
				logging.String(logging.FieldItemID, item.ID),
				logging.Error(err))
		} else {
			item.Storage.SessionContentStored = true
			item.Storage.SessionContentKey = key
			item.Storage.OriginalContentBytes = int64(contentBytes)
			staged = append(staged, key)
		}
	}
	if runes := []rune(item.TextContent); len(runes) > m.localCap {
		marker := []rune(TruncationMarker)
		item.TextContent = string(runes[:m.localCap-len(marker)]) + TruncationMarker
		item.Storage.TruncatedForStorage = true
	}
	return staged
}

func (m *Manager) placeFallback(ctx context.Context, original items.CapturedItem, staged []string) (items.CapturedItem, error) {
	m.overflow.Remove(staged...)
	placeholder := BuildPlaceholder(original, time.Now().UTC())

	if err := m.catalog.Append(ctx, placeholder); err != nil {
		if IsCapacityError(err) {
			return items.CapturedItem{}, fmt.Errorf("capture %s lost: placeholder write exceeded quota: %w", original.ID, err)
		}
		return items.CapturedItem{}, err
	}
	m.logger.Warn("quota exceeded, placeholder stored",
		logging.String(logging.FieldItemID, original.ID),
		logging.Int64("original_size", placeholder.Storage.QuotaOriginalSize))
	return placeholder, nil
}

func (m *Manager) markExpired(ctx context.Context, item *items.CapturedItem) error {
	item.Storage.SessionContentExpired = true
	item.TextContent += ExpiryNotice
	content := item.TextContent
	_, err := m.catalog.Update(ctx, item.ID, func(stored *items.CapturedItem) {
		stored.Storage.SessionContentExpired = true
		stored.TextContent = content
	})
	if err != nil {
		return fmt.Errorf("persist expiry for %s: %w", item.ID, err)
	}
	return nil
}

// pendingContentKey returns the session-content key still awaiting hydration,
// or "" when the item has nothing to hydrate.
func pendingContentKey(item *items.CapturedItem) string {
	if !item.Storage.SessionContentStored || item.Storage.SessionContentExpired {
		return ""
	}
	return item.Storage.SessionContentKey
}
