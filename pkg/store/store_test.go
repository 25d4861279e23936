package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	sum := DocumentSummary{
		DocHash:   "abc123",
		Name:      "design.fig",
		NodeCount: 42,
		PageCount: 3,
		LoadedAt:  time.Now(),
	}
	if err := s.Put(ctx, sum); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "abc123")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "design.fig" || got.NodeCount != 42 {
		t.Errorf("Get = %+v", got)
	}

	// Put with the same hash replaces
	sum.NodeCount = 50
	if err := s.Put(ctx, sum); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, _ = s.Get(ctx, "abc123")
	if got.NodeCount != 50 {
		t.Errorf("replace: NodeCount = %d", got.NodeCount)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrSummaryNotFound) {
		t.Errorf("want ErrSummaryNotFound, got %v", err)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, hash := range []string{"a", "b", "c"} {
		if err := s.Put(ctx, DocumentSummary{
			DocHash:  hash,
			LoadedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	out, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("len = %d", len(out))
	}
	// Newest first
	if out[0].DocHash != "c" || out[2].DocHash != "a" {
		t.Errorf("order = %s, %s, %s", out[0].DocHash, out[1].DocHash, out[2].DocHash)
	}

	// Limit
	out, _ = s.List(ctx, 2)
	if len(out) != 2 || out[0].DocHash != "c" {
		t.Errorf("limited list = %+v", out)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Put(ctx, DocumentSummary{DocHash: "x"})
	if err := s.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "x"); !errors.Is(err, ErrSummaryNotFound) {
		t.Errorf("deleted summary still present: %v", err)
	}

	// Missing hash is fine
	if err := s.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}
