package cache

import (
	"sync"
	"time"
)

type memoryEntry struct {
	data   []byte
	stored time.Time
}

// Memory is an in-process cache of rendered images.
//
// Memory is safe for concurrent use by multiple goroutines. Entries stay in
// memory until they are deleted, pruned, or the cache is cleared, so long
// running processes should either run a Janitor or bound their key space.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Contains reports whether key is cached.
func (m *Memory) Contains(key string) (bool, error) {
	m.mu.RLock()
	_, ok := m.entries[key]
	m.mu.RUnlock()
	return ok, nil
}

// Get returns a copy of the bytes stored under key.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	return append([]byte(nil), e.data...), nil
}

// Set stores a copy of data under key.
func (m *Memory) Set(key string, data []byte) error {
	e := memoryEntry{
		data:   append([]byte(nil), data...),
		stored: m.now(),
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Prune removes entries stored more than maxAge ago.
func (m *Memory) Prune(maxAge time.Duration) (int, error) {
	cutoff := m.now().Add(-maxAge)
	removed := 0

	m.mu.Lock()
	for key, e := range m.entries {
		if e.stored.Before(cutoff) {
			delete(m.entries, key)
			removed++
		}
	}
	m.mu.Unlock()

	return removed, nil
}

// Len returns the number of cached entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clear removes all entries.
func (m *Memory) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
}
