package model

import (
	"sort"
	"time"
)

// Unit says how a reading's raw value is to be interpreted.
// Keep these values stable; they appear in cached series and API output.
type Unit string

const (
	// UnitPower means the raw value is an average power over the interval (W).
	UnitPower Unit = "W"
	// UnitEnergy means the raw value is already the energy for the interval (Wh).
	UnitEnergy Unit = "Wh"
)

// Reading is one sample as delivered by the provider. Immutable once fetched.
//
// Timestamp is the interval *start*. Interval is the provider's duration
// token ("P1D", "PT30M", "P1H", ...); it may be empty for malformed rows.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Unit      Unit      `json:"unit"`
	Interval  string    `json:"interval"`
}

// Series is an ordered-by-time, timestamp-deduplicated collection of
// readings for one (meter, data kind) pair.
type Series struct {
	MeterID  string    `json:"meter_id"`
	Kind     DataKind  `json:"data_kind"`
	Readings []Reading `json:"readings"`
}

// Merge folds newer readings into the series. Readings sharing a timestamp
// with an existing one replace it (last write wins); the result stays
// sorted by time. Merging the same batch twice is a no-op.
func (s Series) Merge(newer []Reading) Series {
	if len(newer) == 0 {
		return s
	}
	byTime := make(map[int64]Reading, len(s.Readings)+len(newer))
	for _, r := range s.Readings {
		byTime[r.Timestamp.Unix()] = r
	}
	for _, r := range newer {
		byTime[r.Timestamp.Unix()] = r
	}

	merged := make([]Reading, 0, len(byTime))
	for _, r := range byTime {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})

	return Series{MeterID: s.MeterID, Kind: s.Kind, Readings: merged}
}

// Slice returns the readings whose timestamp date falls inside r (inclusive).
func (s Series) Slice(r DateRange) []Reading {
	var out []Reading
	for _, rd := range s.Readings {
		if r.ContainsTime(rd.Timestamp) {
			out = append(out, rd)
		}
	}
	return out
}

// Empty reports whether the series holds no readings.
func (s Series) Empty() bool { return len(s.Readings) == 0 }

// First returns the timestamp of the oldest reading, or the zero time.
func (s Series) First() time.Time {
	if s.Empty() {
		return time.Time{}
	}
	return s.Readings[0].Timestamp
}

// Last returns the timestamp of the newest reading, or the zero time.
func (s Series) Last() time.Time {
	if s.Empty() {
		return time.Time{}
	}
	return s.Readings[len(s.Readings)-1].Timestamp
}
