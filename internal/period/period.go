// Package period turns a "most recent data" date and a preset policy into
// the list of comparison periods the aggregation views are built over.
package period

import (
	"fmt"
	"time"

	"meterflow/internal/model"
)

// Preset selects how period blocks are anchored.
// Keep these values stable; they are config values and API parameters.
type Preset string

const (
	// Rolling periods are 365-day windows ending at the most recent data date.
	Rolling Preset = "rolling"
	// Calendar periods are anchored at January 1.
	Calendar Preset = "calendar"
	// Seasonal periods are anchored at a fixed day/month, e.g. September 1.
	Seasonal Preset = "seasonal"
	// Custom periods are anchored at a user-chosen day/month.
	Custom Preset = "custom"
)

// Valid reports whether p names a known preset.
func (p Preset) Valid() bool {
	switch p {
	case Rolling, Calendar, Seasonal, Custom:
		return true
	}
	return false
}

// Anchor is the day/month starting a non-calendar tariff year.
type Anchor struct {
	Day   int `json:"day" yaml:"day"`
	Month int `json:"month" yaml:"month"`
}

// Block is one resolved period with its year-over-year predecessor.
// The most recent block never carries a previous range: its data is
// necessarily incomplete, so a comparison would mislead.
type Block struct {
	Label       string          `json:"label"`
	Current     model.DateRange `json:"current"`
	Previous    model.DateRange `json:"previous,omitempty"`
	HasPrevious bool            `json:"has_previous"`
}

// minBackingDays is the coverage below which an older block is dropped:
// roughly two months of data.
const minBackingDays = 60

// Resolve computes the ordered list of period blocks, most recent first.
//
// mostRecent is the newest date for which data exists; dataStart the
// oldest. Blocks whose overlap with [dataStart, mostRecent] falls under
// two months are dropped, except the most recent block, which is kept as
// long as it has any data at all.
func Resolve(mostRecent, dataStart time.Time, preset Preset, anchor Anchor, lookback int) []Block {
	if lookback <= 0 {
		lookback = 1
	}
	mostRecent = model.Day(mostRecent)
	dataStart = model.Day(dataStart)

	var blocks []Block
	switch preset {
	case Rolling:
		blocks = rollingBlocks(mostRecent, lookback)
	case Calendar:
		blocks = anchoredBlocks(mostRecent, Anchor{Day: 1, Month: 1}, lookback)
	case Seasonal, Custom:
		blocks = anchoredBlocks(mostRecent, anchor, lookback)
	default:
		return nil
	}

	covered := model.DateRange{Start: dataStart, End: mostRecent}
	var out []Block
	for i, b := range blocks {
		overlap, ok := b.Current.Intersect(covered)
		if !ok {
			continue
		}
		if i > 0 && overlap.Days() < minBackingDays {
			continue
		}
		b.Label = label(b.Current)
		out = append(out, b)
	}
	// The newest surviving block carries no comparison (its data is
	// incomplete); which block that is only becomes known once the drop
	// pass is done. The shifted range itself stays visible.
	for i := range out {
		out[i].HasPrevious = i > 0
	}
	return out
}

// rollingBlocks builds lookback windows of 365 days each, walking back
// from the most recent data date.
func rollingBlocks(mostRecent time.Time, lookback int) []Block {
	blocks := make([]Block, 0, lookback)
	for i := 0; i < lookback; i++ {
		end := mostRecent.AddDate(0, 0, -i*365)
		start := mostRecent.AddDate(0, 0, -(i+1)*365+1)
		cur := model.DateRange{Start: start, End: end}
		blocks = append(blocks, Block{Current: cur, Previous: cur.ShiftYears(-1)})
	}
	return blocks
}

// anchoredBlocks builds lookback year-long blocks starting at the anchor
// day/month. The newest block starts at this year's anchor if that is on
// or before mostRecent, else at last year's, and is capped at mostRecent.
func anchoredBlocks(mostRecent time.Time, anchor Anchor, lookback int) []Block {
	if anchor.Day < 1 || anchor.Day > 31 || anchor.Month < 1 || anchor.Month > 12 {
		anchor = Anchor{Day: 1, Month: 1}
	}
	start := time.Date(mostRecent.Year(), time.Month(anchor.Month), anchor.Day,
		0, 0, 0, 0, mostRecent.Location())
	if start.After(mostRecent) {
		start = start.AddDate(-1, 0, 0)
	}

	blocks := make([]Block, 0, lookback)
	for i := 0; i < lookback; i++ {
		s := start.AddDate(-i, 0, 0)
		e := s.AddDate(1, 0, -1)
		if e.After(mostRecent) {
			e = mostRecent
		}
		cur := model.DateRange{Start: s, End: e}
		blocks = append(blocks, Block{Current: cur, Previous: cur.ShiftYears(-1)})
	}
	return blocks
}

// label renders "2024" for a block inside one calendar year and
// "2023-2024" for a block crossing the year boundary.
func label(r model.DateRange) string {
	if r.Start.Year() == r.End.Year() {
		return fmt.Sprintf("%d", r.Start.Year())
	}
	return fmt.Sprintf("%d-%d", r.Start.Year(), r.End.Year())
}
