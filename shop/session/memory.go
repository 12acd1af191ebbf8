package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[V any] struct {
	value   V
	touched time.Time
}

// MemoryTable keeps values in process memory.
type MemoryTable[V any] struct {
	name string
	now  func() time.Time

	mu      sync.RWMutex
	entries map[int64]memoryEntry[V]
}

// NewMemoryTable constructs an empty in-memory table. The name is used in sweep logs.
func NewMemoryTable[V any](name string) *MemoryTable[V] {
	return &MemoryTable[V]{
		name:    name,
		now:     time.Now,
		entries: make(map[int64]memoryEntry[V]),
	}
}

// Name returns the table name.
func (m *MemoryTable[V]) Name() string { return m.name }

// Get returns the value stored under key.
func (m *MemoryTable[V]) Get(_ context.Context, key int64) (V, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e.value, ok, nil
}

// Put stores v under key.
func (m *MemoryTable[V]) Put(_ context.Context, key int64, v V) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry[V]{value: v, touched: m.now()}
	return nil
}

// PutIfAbsent stores v when key is empty.
func (m *MemoryTable[V]) PutIfAbsent(_ context.Context, key int64, v V) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return false, nil
	}
	m.entries[key] = memoryEntry[V]{value: v, touched: m.now()}
	return true, nil
}

// Update applies fn to the stored value under the table lock.
func (m *MemoryTable[V]) Update(_ context.Context, key int64, fn func(V) (V, error)) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, ErrMissing
	}
	next, err := fn(e.value)
	if err != nil {
		return e.value, err
	}
	m.entries[key] = memoryEntry[V]{value: next, touched: m.now()}
	return next, nil
}

// Take removes the value when check accepts it.
func (m *MemoryTable[V]) Take(_ context.Context, key int64, check func(V) error) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		var zero V
		return zero, ErrMissing
	}
	if check != nil {
		if err := check(e.value); err != nil {
			return e.value, err
		}
	}
	delete(m.entries, key)
	return e.value, nil
}

// Delete removes key.
func (m *MemoryTable[V]) Delete(_ context.Context, key int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// Len returns the number of stored values.
func (m *MemoryTable[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep drops entries not touched since cutoff and returns how many were removed.
func (m *MemoryTable[V]) Sweep(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for k, e := range m.entries {
		if e.touched.Before(cutoff) {
			delete(m.entries, k)
			removed++
		}
	}
	return removed
}
