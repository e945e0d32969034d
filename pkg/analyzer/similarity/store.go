package similarity

import (
	"sync"
)

// Store maps file identity to its FileRecord. Writes happen once per
// identity under a mutex while fingerprint workers race to complete; reads
// after the per-file phase need no locking because records are terminal.
type Store struct {
	mu      sync.Mutex
	records map[string]*FileRecord
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]*FileRecord),
	}
}

// Insert adds a record if its identity is not already present. Returns
// false (keeping the first record) on a duplicate identity.
func (s *Store) Insert(rec *FileRecord) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.Path]; ok {
		return false
	}
	s.records[rec.Path] = rec
	return true
}

// Get looks up a record by file identity.
func (s *Store) Get(path string) (*FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[path]
	return rec, ok
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}
