package memory

import (
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/syncpoint-network/syncpoint/checkpoint/storage"
)

// Factory creates an in memory backend, the data dir is ignored
func Factory(_ string, _ hclog.Logger) (storage.Backend, error) {
	return NewMemoryBackend(), nil
}

// NewMemoryBackend creates a backend that keeps the records in memory
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{db: map[storage.Key][]byte{}}
}

// MemoryBackend is an in memory implementation of the checkpoint backend
type MemoryBackend struct {
	lock sync.RWMutex
	db   map[storage.Key][]byte
}

func (m *MemoryBackend) Read(key storage.Key) ([]byte, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	v, ok := m.db[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	return append([]byte{}, v...), nil
}

func (m *MemoryBackend) Write(key storage.Key, data []byte) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.db[key] = append([]byte{}, data...)

	return nil
}

func (m *MemoryBackend) Close() error {
	return nil
}
