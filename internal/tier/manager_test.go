package tier_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rahulptl/synapse-sub001/internal/config"
	"github.com/rahulptl/synapse-sub001/internal/items"
	"github.com/rahulptl/synapse-sub001/internal/storage"
	"github.com/rahulptl/synapse-sub001/internal/testsupport"
	"github.com/rahulptl/synapse-sub001/internal/tier"
)

func newManager(t *testing.T, opts ...testsupport.ConfigOption) (*tier.Manager, *items.Catalog, *storage.Overflow, *config.Config) {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	catalog := items.NewCatalog(store)
	overflow := testsupport.MustOverflow(t, cfg.Storage.OverflowMaxEntries)
	return tier.NewManager(cfg, catalog, overflow, nil), catalog, overflow, cfg
}

func capture(id, content string) items.CapturedItem {
	return items.CapturedItem{
		ID:          id,
		Kind:        items.KindPage,
		Title:       "Capture " + id,
		TextContent: content,
		SourceURL:   "https://example.com/" + id,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestPlaceSmallContentStaysPrimaryOnly(t *testing.T) {
	manager, catalog, overflow, _ := newManager(t)

	ctx := context.Background()
	placed, err := manager.Place(ctx, capture("a", "short note"), tier.AuxPayloads{})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if placed.Storage.SessionContentStored || placed.Storage.TruncatedForStorage {
		t.Fatalf("small content should not touch the overflow tier: %#v", placed.Storage)
	}
	if overflow.Len() != 0 {
		t.Fatalf("overflow should be empty, has %d entries", overflow.Len())
	}

	stored, err := catalog.Get(ctx, "a")
	if err != nil || stored == nil {
		t.Fatalf("Get failed: item=%v err=%v", stored, err)
	}
	if stored.TextContent != "short note" {
		t.Fatalf("unexpected stored content: %q", stored.TextContent)
	}
}

func TestPlaceOversizedContentMirroredToOverflow(t *testing.T) {
	manager, catalog, overflow, cfg := newManager(t, testsupport.WithSessionThreshold(64))

	original := strings.Repeat("x", 200)
	ctx := context.Background()
	placed, err := manager.Place(ctx, capture("big", original), tier.AuxPayloads{})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if !placed.Storage.SessionContentStored {
		t.Fatal("expected session content to be mirrored")
	}
	if placed.Storage.OriginalContentBytes != int64(len(original)) {
		t.Fatalf("OriginalContentBytes = %d, want %d", placed.Storage.OriginalContentBytes, len(original))
	}

	key := storage.OverflowKey("big", storage.PayloadContent)
	if placed.Storage.SessionContentKey != key {
		t.Fatalf("SessionContentKey = %q, want %q", placed.Storage.SessionContentKey, key)
	}
	payloads := overflow.Get(key)
	if string(payloads[key]) != original {
		t.Fatal("overflow copy does not match original content")
	}

	stored, err := catalog.Get(ctx, "big")
	if err != nil || stored == nil {
		t.Fatalf("Get failed: item=%v err=%v", stored, err)
	}
	if len(stored.TextContent) != len(original) {
		t.Fatalf("content under the local cap (%d) must not be truncated", cfg.Storage.LocalContentCapChars)
	}
}

func TestPlaceTruncatesAtLocalCap(t *testing.T) {
	manager, _, overflow, _ := newManager(t, testsupport.WithSessionThreshold(64), func(cfg *config.Config) {
		cfg.Storage.LocalContentCapChars = 100
	})

	original := strings.Repeat("y", 500)
	placed, err := manager.Place(context.Background(), capture("cap", original), tier.AuxPayloads{})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if !placed.Storage.TruncatedForStorage {
		t.Fatal("expected TruncatedForStorage")
	}
	runes := []rune(placed.TextContent)
	if len(runes) != 100 {
		t.Fatalf("truncated length = %d chars, want 100", len(runes))
	}
	if !strings.HasSuffix(placed.TextContent, tier.TruncationMarker) {
		t.Fatalf("truncated content must end with the marker: %q", placed.TextContent[80:])
	}

	key := storage.OverflowKey("cap", storage.PayloadContent)
	payloads := overflow.Get(key)
	if len(payloads[key]) != len(original) {
		t.Fatal("overflow copy must keep the full original length")
	}
}

func TestPlaceStagesAuxPayloads(t *testing.T) {
	manager, _, overflow, _ := newManager(t)

	aux := tier.AuxPayloads{
		RawHTML:  []byte("<html>page</html>"),
		FileData: []byte{0x25, 0x50, 0x44, 0x46},
		FileName: "report.pdf",
	}
	placed, err := manager.Place(context.Background(), capture("aux", "note"), aux)
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if !placed.Storage.RawHTMLStored || !placed.Storage.FileStored {
		t.Fatalf("aux payloads not staged: %#v", placed.Storage)
	}
	if placed.Storage.FileName != "report.pdf" || placed.Storage.FileSize != 4 {
		t.Fatalf("file metadata wrong: %#v", placed.Storage)
	}
	if overflow.Len() != 2 {
		t.Fatalf("overflow entries = %d, want 2", overflow.Len())
	}
}

// failingOverflow rejects every write so aux staging takes its fallback path.
type failingOverflow struct{}

func (failingOverflow) Get(keys ...string) map[string][]byte   { return nil }
func (failingOverflow) Set(values map[string][]byte) error     { return errors.New("session storage unavailable") }
func (failingOverflow) Remove(keys ...string)                  {}

func TestPlaceSurvivesOverflowWriteFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSessionThreshold(8))
	store := testsupport.MustOpenStore(t, cfg)
	catalog := items.NewCatalog(store)
	manager := tier.NewManager(cfg, catalog, failingOverflow{}, nil)

	placed, err := manager.Place(context.Background(), capture("f", strings.Repeat("z", 64)), tier.AuxPayloads{
		RawHTML: []byte("<html/>"),
	})
	if err != nil {
		t.Fatalf("Place must not fail on overflow errors: %v", err)
	}
	if placed.Storage.RawHTMLStored || placed.Storage.SessionContentStored {
		t.Fatalf("nothing should be marked stored: %#v", placed.Storage)
	}
}

func TestHydrateSubstitutesFullContent(t *testing.T) {
	manager, catalog, _, _ := newManager(t, testsupport.WithSessionThreshold(16))

	original := strings.Repeat("h", 64)
	ctx := context.Background()
	if _, err := manager.Place(ctx, capture("h1", original), tier.AuxPayloads{}); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	list, err := catalog.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	hydrated, err := manager.Hydrate(ctx, list)
	if err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	if hydrated[0].TextContent != original {
		t.Fatal("hydrated content does not match original")
	}
	if hydrated[0].Storage.SessionContentExpired {
		t.Fatal("live payload must not be marked expired")
	}
}

func TestHydrateMarksExpiredOnceAndPersists(t *testing.T) {
	manager, catalog, overflow, _ := newManager(t, testsupport.WithSessionThreshold(16))

	ctx := context.Background()
	if _, err := manager.Place(ctx, capture("gone", strings.Repeat("g", 64)), tier.AuxPayloads{}); err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	overflow.Purge()

	list, err := catalog.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	hydrated, err := manager.Hydrate(ctx, list)
	if err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	if !hydrated[0].Storage.SessionContentExpired {
		t.Fatal("expected expired annotation")
	}
	if count := strings.Count(hydrated[0].TextContent, tier.ExpiryNotice); count != 1 {
		t.Fatalf("expiry notice appended %d times, want 1", count)
	}

	// Second pass over the persisted record must not duplicate the notice.
	list, err = catalog.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	rehydrated, err := manager.Hydrate(ctx, list)
	if err != nil {
		t.Fatalf("Hydrate failed: %v", err)
	}
	if count := strings.Count(rehydrated[0].TextContent, tier.ExpiryNotice); count != 1 {
		t.Fatalf("expiry notice duplicated on rehydrate: %d occurrences", count)
	}
}

func TestReleaseDropsAllReferencedKeys(t *testing.T) {
	manager, _, overflow, _ := newManager(t, testsupport.WithSessionThreshold(8))

	placed, err := manager.Place(context.Background(), capture("rel", strings.Repeat("r", 32)), tier.AuxPayloads{
		RawHTML:  []byte("<html/>"),
		FileData: []byte("blob"),
		FileName: "b.bin",
	})
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if overflow.Len() != 3 {
		t.Fatalf("overflow entries = %d, want 3", overflow.Len())
	}

	manager.Release(&placed)
	if overflow.Len() != 0 {
		t.Fatalf("overflow entries after release = %d, want 0", overflow.Len())
	}
}

func TestPlaceQuotaFallbackStoresPlaceholderOnly(t *testing.T) {
	manager, catalog, overflow, _ := newManager(t,
		testsupport.WithQuotaBytes(600),
		testsupport.WithSessionThreshold(32),
	)

	ctx := context.Background()
	placed, err := manager.Place(ctx, capture("q", strings.Repeat("q", 4096)), tier.AuxPayloads{})
	if err != nil {
		t.Fatalf("Place should fall back, not fail: %v", err)
	}
	if !placed.Storage.QuotaFallback {
		t.Fatalf("expected quota fallback record: %#v", placed.Storage)
	}
	if placed.Storage.QuotaOriginalSize == 0 {
		t.Fatal("QuotaOriginalSize must record the original serialized size")
	}
	if overflow.Len() != 0 {
		t.Fatalf("staged overflow keys must be released, have %d", overflow.Len())
	}

	list, err := catalog.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != "q" || !list[0].Storage.QuotaFallback {
		t.Fatalf("exactly one placeholder record expected: %#v", list)
	}
}

func TestPlaceFailsCleanlyWhenPlaceholderExceedsQuota(t *testing.T) {
	manager, catalog, _, _ := newManager(t, testsupport.WithQuotaBytes(16))

	ctx := context.Background()
	_, err := manager.Place(ctx, capture("tiny-quota", strings.Repeat("t", 1024)), tier.AuxPayloads{})
	if err == nil {
		t.Fatal("expected an error when even the placeholder cannot fit")
	}
	if !tier.IsCapacityError(err) {
		t.Fatalf("error should classify as capacity: %v", err)
	}

	list, listErr := catalog.List(ctx)
	if listErr != nil {
		t.Fatalf("List failed: %v", listErr)
	}
	if len(list) != 0 {
		t.Fatalf("no partial state expected, found %d records", len(list))
	}
}
