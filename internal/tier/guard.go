package tier

import (
	"encoding/json"
	"time"

	"github.com/rahulptl/synapse-sub001/internal/items"
	"github.com/rahulptl/synapse-sub001/internal/storage"
)

// PlaceholderTitlePrefix marks records that stand in for captures the primary
// store could not hold.
const PlaceholderTitlePrefix = "[Storage full] "

const placeholderTitleMax = 60

// IsCapacityError reports whether a primary-store write failed because the
// quota was exhausted. Any other write failure must be propagated as-is.
func IsCapacityError(err error) bool {
	return storage.IsQuotaError(err)
}

// BuildPlaceholder derives the lightweight record persisted in place of a
// capture that exceeded the primary store's quota. The placeholder keeps the
// capture's identity and source but references no overflow keys, so nothing
// dangles when the original payloads are released.
func BuildPlaceholder(original items.CapturedItem, now time.Time) items.CapturedItem {
	placeholder := items.CapturedItem{
		ID:             original.ID,
		Kind:           original.Kind,
		Title:          PlaceholderTitlePrefix + shortenTitle(original.Title),
		TextContent:    placeholderContent(original),
		SourceURL:      original.SourceURL,
		RemoteFolderID: original.RemoteFolderID,
		CreatedAt:      now,
	}
	placeholder.Storage = items.StorageTierInfo{
		QuotaFallback:     true,
		QuotaOriginalSize: serializedSize(original),
	}
	return placeholder
}

func placeholderContent(original items.CapturedItem) string {
	content := "The captured content could not be saved because local storage is full."
	if original.SourceURL != "" {
		content += " Source: " + original.SourceURL
	}
	return content
}

func shortenTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= placeholderTitleMax {
		return title
	}
	return string(runes[:placeholderTitleMax]) + "…"
}

// serializedSize estimates how many bytes the original record would have
// occupied in the primary store.
func serializedSize(item items.CapturedItem) int64 {
	raw, err := json.Marshal(item)
	if err != nil {
		return 0
	}
	return int64(len(raw))
}
