package catalog

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-memory catalog that keeps entries in insertion order.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	index   map[string]int
}

// NewMemory creates a catalog holding entries. A later entry with the same
// identifier replaces the earlier one in place.
func NewMemory(entries ...Entry) *Memory {
	m := &Memory{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		m.put(e)
	}
	return m
}

func (m *Memory) put(e Entry) {
	if i, ok := m.index[e.ID]; ok {
		m.entries[i] = e
		return
	}
	m.index[e.ID] = len(m.entries)
	m.entries = append(m.entries, e)
}

// FindEntry returns the entry with the given identifier.
func (m *Memory) FindEntry(_ context.Context, id string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return m.entries[i], nil
}

// List returns all entries in insertion order.
func (m *Memory) List(context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

// Upsert adds or replaces entries.
func (m *Memory) Upsert(_ context.Context, entries ...Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range entries {
		if e.ID == "" {
			return fmt.Errorf("entry without id")
		}
		m.put(e)
	}
	return nil
}

// Remove deletes an entry. Removing an unknown identifier is a no-op.
func (m *Memory) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.index[id]
	if !ok {
		return
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	delete(m.index, id)
	for j := i; j < len(m.entries); j++ {
		m.index[m.entries[j].ID] = j
	}
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
