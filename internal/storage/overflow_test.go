package storage_test

import (
	"fmt"
	"testing"

	"github.com/rahulptl/synapse-sub001/internal/storage"
)

func TestOverflowKeyFormat(t *testing.T) {
	if got := storage.OverflowKey("item-1", storage.PayloadRawHTML); got != "item-1:rawHtml" {
		t.Fatalf("unexpected key: %s", got)
	}
}

func TestOverflowBatchGetSkipsMissing(t *testing.T) {
	overflow, err := storage.NewOverflow(8)
	if err != nil {
		t.Fatalf("NewOverflow failed: %v", err)
	}

	if err := overflow.Set(map[string][]byte{
		"a:content": []byte("alpha"),
		"b:content": []byte("beta"),
	}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	values := overflow.Get("a:content", "b:content", "c:content")
	if len(values) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(values))
	}
	if string(values["a:content"]) != "alpha" {
		t.Fatalf("unexpected value: %q", values["a:content"])
	}
}

func TestOverflowEvictsOldestWhenFull(t *testing.T) {
	overflow, err := storage.NewOverflow(2)
	if err != nil {
		t.Fatalf("NewOverflow failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("item-%d:content", i)
		if err := overflow.Set(map[string][]byte{key: []byte("x")}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}

	if overflow.Len() != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", overflow.Len())
	}
	if _, ok := overflow.Get("item-0:content")["item-0:content"]; ok {
		t.Fatal("oldest entry should have been evicted")
	}
}

func TestOverflowRemoveAndPurge(t *testing.T) {
	overflow, err := storage.NewOverflow(8)
	if err != nil {
		t.Fatalf("NewOverflow failed: %v", err)
	}

	_ = overflow.Set(map[string][]byte{"a:content": []byte("1"), "b:content": []byte("2")})
	overflow.Remove("a:content")
	if overflow.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", overflow.Len())
	}
	overflow.Purge()
	if overflow.Len() != 0 {
		t.Fatalf("expected empty tier, got %d", overflow.Len())
	}
}
