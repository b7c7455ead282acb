package history

import (
	"context"
	"fmt"
	"testing"
)

func TestMemoryStoreAppendAndList(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	err := store.Append(ctx, "s1",
		Entry{ID: "1", Role: "user", Content: "hello"},
		Entry{ID: "2", Role: "assistant", Content: "hi"},
	)
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := store.List(ctx, "s1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Content != "hello" || entries[1].Content != "hi" {
		t.Errorf("entries out of order: %+v", entries)
	}
}

func TestMemoryStoreRejectsEmptySession(t *testing.T) {
	store := NewMemoryStore(0)
	if err := store.Append(context.Background(), "", Entry{ID: "1"}); err == nil {
		t.Error("expected empty session ID to fail")
	}
}

func TestMemoryStoreCapsEntries(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Append(ctx, "s1", Entry{ID: fmt.Sprint(i), Content: fmt.Sprint(i)})
	}

	entries, _ := store.List(ctx, "s1", 0)
	if len(entries) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(entries))
	}
	if entries[0].Content != "2" || entries[2].Content != "4" {
		t.Errorf("expected oldest entries evicted, got %+v", entries)
	}
}

func TestMemoryStoreListLimit(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		store.Append(ctx, "s1", Entry{ID: fmt.Sprint(i), Content: fmt.Sprint(i)})
	}

	entries, _ := store.List(ctx, "s1", 2)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Content != "3" || entries[1].Content != "4" {
		t.Errorf("expected newest entries in order, got %+v", entries)
	}
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore(0)
	ctx := context.Background()

	store.Append(ctx, "s1", Entry{ID: "1"})
	store.Clear(ctx, "s1")

	entries, _ := store.List(ctx, "s1", 0)
	if len(entries) != 0 {
		t.Errorf("expected empty after clear, got %+v", entries)
	}
}

func TestMemoryStoreUnknownSessionEmpty(t *testing.T) {
	store := NewMemoryStore(0)
	entries, err := store.List(context.Background(), "nope", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %+v", entries)
	}
}
