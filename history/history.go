package history

import (
	"sync"

	"aviatorServer/game"
)

// Store is a bounded, newest-first log of settled rounds. The engine loop is
// the only writer; API handlers and the connect-time sync read from it.
type Store struct {
	mu      sync.RWMutex
	entries []game.HistoryEntry
	limit   int
}

func NewStore(limit int) *Store {
	return &Store{limit: limit}
}

// Append pushes an entry to the front. Once the store is full the oldest
// entry is dropped (pure FIFO bound, eviction by insertion order).
func (s *Store) Append(entry game.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append([]game.HistoryEntry{entry}, s.entries...)
	if len(s.entries) > s.limit {
		s.entries = s.entries[:s.limit]
	}
}

// Recent returns up to n entries, most recent first.
func (s *Store) Recent(n int) []game.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.entries) {
		n = len(s.entries)
	}
	out := make([]game.HistoryEntry, n)
	copy(out, s.entries[:n])
	return out
}

// Preload seeds the store from archival storage at boot. Entries must
// already be ordered most recent first.
func (s *Store) Preload(entries []game.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}
	s.entries = append([]game.HistoryEntry(nil), entries...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
