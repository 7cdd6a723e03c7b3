// internal/store/memory.go
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps room records in process memory. It backs tests and
// single-node deployments without Postgres.
type MemoryStore struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*RoomRecord
	byCode map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[uuid.UUID]*RoomRecord),
		byCode: make(map[string]uuid.UUID),
	}
}

func (m *MemoryStore) Create(_ context.Context, rec *RoomRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.byCode[rec.Code]; taken {
		return ErrCodeTaken
	}
	cp := *rec
	m.byID[rec.ID] = &cp
	m.byCode[rec.Code] = rec.ID
	return nil
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*RoomRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MemoryStore) GetByCode(_ context.Context, code string) (*RoomRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *MemoryStore) Update(_ context.Context, rec *RoomRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[rec.ID]; !ok {
		return ErrNotFound
	}
	cp := *rec
	m.byID[rec.ID] = &cp
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil
	}
	delete(m.byCode, rec.Code)
	delete(m.byID, id)
	return nil
}
