package storage

import (
	"errors"
	"sync"
)

// ErrKeyNotFound is returned when a named entry doesn't exist in the store
var ErrKeyNotFound = errors.New("key not found")

// Store defines the interface for the byte-level backend holding shard files.
// Names are flat (no directories); values are whole-file contents.
type Store interface {
	// Setup prepares the backing location.
	// Idempotent: calling it on an existing location is a no-op.
	Setup() error

	// Get retrieves a value by name
	// Returns ErrKeyNotFound if the entry doesn't exist
	Get(name string) ([]byte, error)

	// Put stores a value under the given name
	// Overwrites any existing value for the name
	Put(name string, value []byte) error

	// Delete removes an entry
	// No error if the entry doesn't exist
	Delete(name string) error

	// List returns all entry names in the store
	// Order is not guaranteed
	List() ([]string, error)

	// Lock acquires an exclusive advisory lock scoped to name and returns
	// the function releasing it.
	Lock(name string) (func() error, error)

	// Stats returns storage statistics
	Stats() (StoreStats, error)
}

// StoreStats contains statistics about the store
type StoreStats struct {
	Keys  int // Number of entries
	Bytes int // Total size of all values in bytes
}

// MemoryStore implements Store interface with in-memory storage
// Uses sync.RWMutex for thread-safe concurrent access
type MemoryStore struct {
	mu    sync.RWMutex           // Protects concurrent access
	data  map[string][]byte      // Entry storage
	locks map[string]*sync.Mutex // Per-name advisory locks
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string][]byte),
		locks: make(map[string]*sync.Mutex),
	}
}

// Setup is a no-op for the in-memory store
func (m *MemoryStore) Setup() error {
	return nil
}

// Get retrieves a value by name
// Returns a copy of the value to prevent external modification
func (m *MemoryStore) Get(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.data[name]
	if !exists {
		return nil, ErrKeyNotFound
	}

	result := make([]byte, len(value))
	copy(result, value)
	return result, nil
}

// Put stores a value with the given name
// Makes a copy of the value to prevent external modification
func (m *MemoryStore) Put(name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[name] = stored

	return nil
}

// Delete removes an entry
// No error if the entry doesn't exist (idempotent)
func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, name)
	return nil
}

// List returns all entry names in the store
func (m *MemoryStore) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.data))
	for name := range m.data {
		names = append(names, name)
	}
	return names, nil
}

// Lock blocks until the named lock is free
func (m *MemoryStore) Lock(name string) (func() error, error) {
	m.mu.Lock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	m.mu.Unlock()

	l.Lock()
	return func() error {
		l.Unlock()
		return nil
	}, nil
}

// Stats returns storage statistics
func (m *MemoryStore) Stats() (StoreStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	totalBytes := 0
	for _, value := range m.data {
		totalBytes += len(value)
	}

	return StoreStats{
		Keys:  len(m.data),
		Bytes: totalBytes,
	}, nil
}
