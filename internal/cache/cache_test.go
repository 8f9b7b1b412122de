package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meterflow/internal/model"
)

func reading(ts time.Time, value float64) model.Reading {
	return model.Reading{Timestamp: ts, Value: value, Unit: model.UnitEnergy, Interval: "P1D"}
}

func TestWriteMergesIntoOneRecord(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore())
	d1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	d3 := d1.AddDate(0, 0, 2)

	_, err := c.Write(ctx, "m1", model.ConsumptionDaily, []model.Reading{reading(d1, 100), reading(d2, 200)})
	require.NoError(t, err)
	merged, err := c.Write(ctx, "m1", model.ConsumptionDaily, []model.Reading{reading(d2, 250), reading(d3, 300)})
	require.NoError(t, err)

	require.Len(t, merged.Readings, 3)
	assert.Equal(t, 100.0, merged.Readings[0].Value)
	assert.Equal(t, 250.0, merged.Readings[1].Value, "overlapping day takes the newer value")
	assert.Equal(t, 300.0, merged.Readings[2].Value)

	got, err := c.Read(ctx, "m1", model.ConsumptionDaily)
	require.NoError(t, err)
	assert.Equal(t, merged.Readings, got.Readings)
}

func TestWriteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore())
	batch := []model.Reading{
		reading(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 100),
		reading(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), 200),
	}

	first, err := c.Write(ctx, "m1", model.ConsumptionDaily, batch)
	require.NoError(t, err)
	second, err := c.Write(ctx, "m1", model.ConsumptionDaily, batch)
	require.NoError(t, err)
	assert.Equal(t, first.Readings, second.Readings)
}

func TestReadUnknownKeyIsEmpty(t *testing.T) {
	c := New(NewMemoryStore())
	s, err := c.Read(context.Background(), "nobody", model.MaxPower)
	require.NoError(t, err)
	assert.True(t, s.Empty())
	assert.Equal(t, "nobody", s.MeterID)
	assert.Equal(t, model.MaxPower, s.Kind)
}

func TestSubscribeFiresOnMatchingKeyOnly(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore())
	batch := []model.Reading{reading(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 100)}

	var got []Update
	c.Subscribe("m1", model.ConsumptionDaily, func(u Update) { got = append(got, u) })

	_, err := c.Write(ctx, "m2", model.ConsumptionDaily, batch)
	require.NoError(t, err)
	_, err = c.Write(ctx, "m1", model.ConsumptionDetail, batch)
	require.NoError(t, err)
	assert.Empty(t, got, "non-matching keys must not notify")

	_, err = c.Write(ctx, "m1", model.ConsumptionDaily, batch)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "m1", got[0].MeterID)
	assert.Equal(t, model.ConsumptionDaily, got[0].Kind)
	assert.Equal(t, 1, got[0].Count)
}

func TestWildcardSubscription(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore())
	batch := []model.Reading{reading(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 100)}

	var got []Update
	id := c.Subscribe("", "", func(u Update) { got = append(got, u) })

	_, err := c.Write(ctx, "m1", model.ConsumptionDaily, batch)
	require.NoError(t, err)
	_, err = c.Write(ctx, "m2", model.ProductionDetail, batch)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	c.Unsubscribe(id)
	_, err = c.Write(ctx, "m3", model.MaxPower, batch)
	require.NoError(t, err)
	assert.Len(t, got, 2, "no callbacks after unsubscribe")
}

func TestClearWildcards(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore())
	batch := []model.Reading{reading(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 100)}

	for _, k := range []struct {
		meter string
		kind  model.DataKind
	}{
		{"m1", model.ConsumptionDaily},
		{"m1", model.ConsumptionDetail},
		{"m2", model.ConsumptionDaily},
	} {
		_, err := c.Write(ctx, k.meter, k.kind, batch)
		require.NoError(t, err)
	}

	// Evict one meter, all kinds.
	require.NoError(t, c.Clear(ctx, "m1", ""))

	s, err := c.Read(ctx, "m1", model.ConsumptionDaily)
	require.NoError(t, err)
	assert.True(t, s.Empty())
	s, err = c.Read(ctx, "m1", model.ConsumptionDetail)
	require.NoError(t, err)
	assert.True(t, s.Empty())
	s, err = c.Read(ctx, "m2", model.ConsumptionDaily)
	require.NoError(t, err)
	assert.False(t, s.Empty(), "other meters stay cached")

	// Evict everything.
	require.NoError(t, c.Clear(ctx, "", ""))
	s, err = c.Read(ctx, "m2", model.ConsumptionDaily)
	require.NoError(t, err)
	assert.True(t, s.Empty())
}
