package storage

import (
	"context"
	"sync"
)

// MemoryKV keeps everything in process memory
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemoryKV creates an empty in-memory store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, namespace, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[namespace][key]
	if !ok {
		return nil, notFound(namespace, key)
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryKV) Put(_ context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putLocked(namespace, key, value)
	return nil
}

func (m *MemoryKV) Create(_ context.Context, namespace, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[namespace][key]; ok {
		return ErrAlreadyExists
	}
	m.putLocked(namespace, key, value)
	return nil
}

func (m *MemoryKV) putLocked(namespace, key string, value []byte) {
	ns, ok := m.data[namespace]
	if !ok {
		ns = make(map[string][]byte)
		m.data[namespace] = ns
	}
	ns[key] = append([]byte(nil), value...)
}

func (m *MemoryKV) Delete(_ context.Context, namespace, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data[namespace], key)
	return nil
}

func (m *MemoryKV) Close() error {
	return nil
}
