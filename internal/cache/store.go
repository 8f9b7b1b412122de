package cache

import (
	"context"
	"sync"

	"meterflow/internal/model"
)

// Store is the backing for consolidated series: exactly one record per
// (meter, data kind) key, never one per calendar day. Both the in-memory
// and the Postgres implementation honor the same contract, so the cache
// behaves identically over either.
type Store interface {
	// Load returns the stored series for a key. The boolean is false
	// when the key has never been written.
	Load(ctx context.Context, meterID string, kind model.DataKind) (model.Series, bool, error)
	// Save replaces the stored series for its key.
	Save(ctx context.Context, s model.Series) error
	// Delete evicts whole entries. Empty meterID or kind act as
	// wildcards; eviction is all-or-nothing per entry, never by date.
	Delete(ctx context.Context, meterID string, kind model.DataKind) error
}

type key struct {
	meterID string
	kind    model.DataKind
}

// MemoryStore keeps consolidated series in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[key]model.Series
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{store: make(map[key]model.Series)}
}

func (m *MemoryStore) Load(_ context.Context, meterID string, kind model.DataKind) (model.Series, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[key{meterID, kind}]
	return s, ok, nil
}

func (m *MemoryStore) Save(_ context.Context, s model.Series) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[key{s.MeterID, s.Kind}] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, meterID string, kind model.DataKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.store {
		if meterID != "" && k.meterID != meterID {
			continue
		}
		if kind != "" && k.kind != kind {
			continue
		}
		delete(m.store, k)
	}
	return nil
}
