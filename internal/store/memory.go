package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of the Store interface.
// It uses a map plus an insertion-order index guarded by an RWMutex.
// This implementation is suitable for development, testing, or deployments
// that do not need scan history to survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	order   []uuid.UUID // insertion order, oldest first
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[uuid.UUID]Record),
	}
}

// SaveScan stores a record in memory.
func (m *MemoryStore) SaveScan(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.ID]; !exists {
		m.order = append(m.order, rec.ID)
	}
	m.records[rec.ID] = rec
	return nil
}

// GetScan retrieves a record by ID.
func (m *MemoryStore) GetScan(ctx context.Context, id uuid.UUID) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, exists := m.records[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// ListScans returns records newest first.
func (m *MemoryStore) ListScans(ctx context.Context, limit, offset int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 || offset < 0 || offset >= len(m.order) {
		return []Record{}, nil
	}

	result := make([]Record, 0, limit)
	for i := len(m.order) - 1 - offset; i >= 0 && len(result) < limit; i-- {
		result = append(result, m.records[m.order[i]])
	}
	return result, nil
}

// CountScans returns the number of stored records.
func (m *MemoryStore) CountScans(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.order)), nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
