package integrations

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"
)

type memoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]*Record
	byPair map[string]string // user|provider -> id
}

// NewMemoryRepository creates an in-process Repository.
func NewMemoryRepository() Repository {
	return &memoryRepo{
		byID:   make(map[string]*Record),
		byPair: make(map[string]string),
	}
}

func pairKey(userID, provider string) string { return userID + "|" + provider }

func (m *memoryRepo) Upsert(_ context.Context, rec *Record) (*Record, error) {
	if rec == nil || rec.ID == "" || rec.UserID == "" || rec.Provider == "" {
		return nil, ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(rec.UserID, rec.Provider)
	if cur, ok := m.byID[rec.ID]; ok && pairKey(cur.UserID, cur.Provider) != key {
		return nil, ErrConflict
	}

	stored := rec.clone()
	if oldID, ok := m.byPair[key]; ok {
		if old := m.byID[oldID]; old != nil {
			stored.CreatedAt = old.CreatedAt
		}
		delete(m.byID, oldID)
	}
	m.byID[stored.ID] = stored
	m.byPair[key] = stored.ID
	return stored.clone(), nil
}

func (m *memoryRepo) MarkDisconnected(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	if cur.Status == StatusDisconnected && cur.Credentials.IsZero() {
		return nil
	}
	cur.Credentials = Credentials{}
	cur.Status = StatusDisconnected
	cur.UpdatedAt = at
	return nil
}

func (m *memoryRepo) RecordSync(_ context.Context, u SyncUpdate) error {
	if u.ID == "" || u.Status == "" {
		return ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.byID[u.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Status == StatusDisconnected {
		return ErrNotConnected
	}
	cur.Status = u.Status
	cur.LastError = u.LastError
	cur.UpdatedAt = u.UpdatedAt
	if u.LastSyncAt != nil {
		at := *u.LastSyncAt
		cur.LastSyncAt = &at
	}
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.clone(), nil
}

func (m *memoryRepo) GetByUserProvider(_ context.Context, userID, provider string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byPair[pairKey(userID, provider)]
	if !ok {
		return nil, ErrNotFound
	}
	return m.byID[id].clone(), nil
}

func (m *memoryRepo) ListByUser(_ context.Context, userIDs ...string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, r := range m.byID {
		if slices.Contains(userIDs, r.UserID) {
			out = append(out, *r.clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}
