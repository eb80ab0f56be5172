package statestore

import (
	"sync"
	"time"
)

type memoryEntry struct {
	val []byte
	exp time.Time // zero means no expiry
}

// Memory is an in-process Storage implementation. It is the fallback when
// no Redis is configured and the store used by tests. Entries expire
// lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

// Get returns the value for key, or nil if absent or expired.
func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, nil
	}
	return e.val, nil
}

// Set stores a value. A zero expiration means the entry never expires.
func (m *Memory) Set(key string, val []byte, exp time.Duration) error {
	e := memoryEntry{val: val}
	if exp > 0 {
		e.exp = time.Now().Add(exp)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

// Delete removes a key.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Expire forces a key to expire immediately. Test helper.
func (m *Memory) Expire(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}
