// Package cache holds the consolidated per-meter reading series and tells
// interested readers when a key changes, so aggregations recompute on
// notification instead of polling.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"meterflow/internal/model"
)

// Update describes one successful write.
type Update struct {
	MeterID    string         `json:"meter_id"`
	Kind       model.DataKind `json:"data_kind"`
	Count      int            `json:"count"`
	ReceivedAt time.Time      `json:"received_at"`
}

type subscriber struct {
	meterID string
	kind    model.DataKind
	fn      func(Update)
}

// Cache is the only mutable shared resource of the engine. All mutation
// goes through Write and Clear; readers get value copies.
type Cache struct {
	store Store

	// wmu serializes load-merge-save cycles so concurrent writes to the
	// same key cannot lose readings. Writes stay commutative and
	// idempotent either way because merging dedupes by timestamp.
	wmu sync.Mutex

	smu  sync.RWMutex
	subs map[uuid.UUID]subscriber
}

func New(store Store) *Cache {
	return &Cache{
		store: store,
		subs:  make(map[uuid.UUID]subscriber),
	}
}

// Write merges readings into the series for a key and notifies matching
// subscribers. The returned series is the post-merge state.
func (c *Cache) Write(ctx context.Context, meterID string, kind model.DataKind, readings []model.Reading) (model.Series, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	current, _, err := c.store.Load(ctx, meterID, kind)
	if err != nil {
		return model.Series{}, err
	}
	current.MeterID = meterID
	current.Kind = kind

	merged := current.Merge(readings)
	if err := c.store.Save(ctx, merged); err != nil {
		return model.Series{}, err
	}

	c.notify(Update{
		MeterID:    meterID,
		Kind:       kind,
		Count:      len(merged.Readings),
		ReceivedAt: time.Now(),
	})
	return merged, nil
}

// Read returns the series for a key, or an empty series when nothing has
// been cached yet.
func (c *Cache) Read(ctx context.Context, meterID string, kind model.DataKind) (model.Series, error) {
	s, _, err := c.store.Load(ctx, meterID, kind)
	if err != nil {
		return model.Series{}, err
	}
	s.MeterID = meterID
	s.Kind = kind
	return s, nil
}

// Clear evicts entries. Empty meterID or kind act as wildcards; a fully
// empty call evicts everything.
func (c *Cache) Clear(ctx context.Context, meterID string, kind model.DataKind) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.store.Delete(ctx, meterID, kind)
}

// Subscribe registers fn for writes to the given key and returns the
// token to unsubscribe with. Empty meterID or kind subscribe to all
// meters or all kinds; callbacks never fire for non-matching keys.
func (c *Cache) Subscribe(meterID string, kind model.DataKind, fn func(Update)) uuid.UUID {
	id := uuid.New()
	c.smu.Lock()
	c.subs[id] = subscriber{meterID: meterID, kind: kind, fn: fn}
	c.smu.Unlock()
	return id
}

// Unsubscribe drops a subscription. Unknown tokens are ignored.
func (c *Cache) Unsubscribe(id uuid.UUID) {
	c.smu.Lock()
	delete(c.subs, id)
	c.smu.Unlock()
}

func (c *Cache) notify(u Update) {
	c.smu.RLock()
	matched := make([]func(Update), 0, len(c.subs))
	for _, s := range c.subs {
		if s.meterID != "" && s.meterID != u.MeterID {
			continue
		}
		if s.kind != "" && s.kind != u.Kind {
			continue
		}
		matched = append(matched, s.fn)
	}
	c.smu.RUnlock()

	for _, fn := range matched {
		fn(u)
	}
}
