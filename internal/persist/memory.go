package persist

import (
	"context"
	"sync"
)

// MemorySlot keeps the blob in process memory. Used for ephemeral sessions
// and tests.
type MemorySlot struct {
	mu     sync.Mutex
	data   []byte
	writes int
}

var _ Slot = (*MemorySlot)(nil)

// NewMemorySlot returns a slot holding initial, which may be nil.
func NewMemorySlot(initial []byte) *MemorySlot {
	s := &MemorySlot{}
	if initial != nil {
		s.data = append([]byte(nil), initial...)
	}
	return s
}

func (s *MemorySlot) Read(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, nil
	}
	return append([]byte(nil), s.data...), nil
}

func (s *MemorySlot) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.writes++
	return nil
}

// Writes reports how many times the slot has been written.
func (s *MemorySlot) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *MemorySlot) Close() error { return nil }
