package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps documents in process memory. It backs tests and dry
// runs of the seed command.
type MemoryBackend struct {
	mu   sync.RWMutex
	docs map[Collection][]byte
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: map[Collection][]byte{}}
}

// Load implements Backend.
func (m *MemoryBackend) Load(_ context.Context, c Collection) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.docs[c]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

// Save implements Backend.
func (m *MemoryBackend) Save(_ context.Context, c Collection, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[c] = append([]byte(nil), data...)
	return nil
}
