package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryUndoStore keeps undo entries in process memory.
//
// Capacity bounds the number of sessions; the least recently written session is evicted first.
type MemoryUndoStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, models.UndoEntry]
}

// NewMemoryUndoStore creates a store. Zero capacity is unbounded and zero ttl never expires entries.
func NewMemoryUndoStore(capacity int, ttl time.Duration) *MemoryUndoStore {
	return &MemoryUndoStore{cache: expirable.NewLRU[string, models.UndoEntry](capacity, nil, ttl)}
}

// Put stores entry for key, replacing any previous entry.
func (s *MemoryUndoStore) Put(_ context.Context, key string, entry models.UndoEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(key, entry)
	return nil
}

// Take removes and returns the entry for key when it matches.
func (s *MemoryUndoStore) Take(_ context.Context, key, playlistID, snapshotID string) (*models.UndoEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache.Peek(key)
	if !ok || !entry.Matches(playlistID, snapshotID) {
		return nil, false, nil
	}
	s.cache.Remove(key)
	return &entry, true, nil
}

// Len returns the number of live entries.
func (s *MemoryUndoStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
