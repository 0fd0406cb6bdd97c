package draft

import (
	"context"
	"sync"
)

// Cache is a durable key-value slot provider. Get reports ok=false for a
// missing key rather than an error.
type Cache interface {
	Set(ctx context.Context, key string, val []byte) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

type MemoryCache struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: map[string][]byte{}}
}

func (m *MemoryCache) Set(ctx context.Context, key string, val []byte) error {
	m.mu.Lock()
	m.m[key] = append([]byte(nil), val...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	val, ok := m.m[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), val...), true, nil
}

func (m *MemoryCache) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.m, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.m[key]
	m.mu.RUnlock()
	return ok, nil
}

var _ Cache = (*MemoryCache)(nil)
