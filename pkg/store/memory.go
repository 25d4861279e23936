package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps summaries in process memory. It backs local runs
// and tests where no MongoDB is available.
type MemoryStore struct {
	mu        sync.RWMutex
	summaries map[string]DocumentSummary
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{summaries: make(map[string]DocumentSummary)}
}

// Put inserts or replaces the summary keyed by its DocHash.
func (s *MemoryStore) Put(ctx context.Context, sum DocumentSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[sum.DocHash] = sum
	return nil
}

// Get retrieves the summary for a document hash.
func (s *MemoryStore) Get(ctx context.Context, docHash string) (DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum, ok := s.summaries[docHash]
	if !ok {
		return DocumentSummary{}, ErrSummaryNotFound
	}
	return sum, nil
}

// List returns summaries ordered by load time, newest first.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DocumentSummary, 0, len(s.summaries))
	for _, sum := range s.summaries {
		out = append(out, sum)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LoadedAt.After(out[j].LoadedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a summary. Deleting a missing hash is not an error.
func (s *MemoryStore) Delete(ctx context.Context, docHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.summaries, docHash)
	return nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
