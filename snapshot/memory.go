package snapshot

import (
	"sync"
	"time"

	"github.com/brettbedarf/simfs"
)

// MemoryStore keeps the encoded image in memory. It backs ephemeral
// sessions and tests.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

var _ simfs.SnapshotStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (*simfs.NodeImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, simfs.ErrNoSnapshot
	}
	return Decode(s.data)
}

func (s *MemoryStore) Save(root *simfs.NodeImage) error {
	data, err := Encode(root, CompressionNone, time.Now())
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.saves++
	return nil
}

// Saves returns how many times Save succeeded
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
