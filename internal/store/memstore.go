package store

import "sync"

// MemStore is an in-memory BlobStore. It backs tests and the degraded
// mode used when the durable store cannot be opened.
type MemStore struct {
	mu     sync.Mutex
	blob   []byte
	writes int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore { return &MemStore{} }

// Seed replaces the stored blob, bypassing the write counter.
func (s *MemStore) Seed(blob []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append([]byte(nil), blob...)
}

func (s *MemStore) Read() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blob == nil {
		return nil, nil
	}
	return append([]byte(nil), s.blob...), nil
}

func (s *MemStore) Write(blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = append([]byte(nil), blob...)
	s.writes++
	return nil
}

// Writes reports how many times Write succeeded, so tests can assert
// that unchanged mutations skip persistence.
func (s *MemStore) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
