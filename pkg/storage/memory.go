package storage

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore is an in-process Store. It backs the console's memory mode
// and most tests; failures can be injected to exercise error paths.
type MemoryStore struct {
	mu         sync.RWMutex
	data       map[string]string
	pingError  error
	readError  error
	writeError error
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
	}
}

// SetPingError configures the store to fail on ping with the given error
func (m *MemoryStore) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetReadError makes every Get fail with err. nil clears it.
func (m *MemoryStore) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readError = err
}

// SetWriteError makes every Set and Delete fail with err. nil clears it.
func (m *MemoryStore) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeError = err
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.readError != nil {
		return "", m.readError
	}
	return m.data[key], nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeError != nil {
		return m.writeError
	}
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeError != nil {
		return m.writeError
	}
	delete(m.data, key)
	return nil
}

// Dump returns a copy of the stored data, for assertions
func (m *MemoryStore) Dump() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.data)
}
