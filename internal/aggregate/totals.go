package aggregate

import (
	"time"

	"meterflow/internal/model"
	"meterflow/internal/period"
)

// PeriodTotal is the energy of one period block next to its
// year-over-year predecessor. PreviousWh stays zero for the most recent
// block: its data is incomplete, so a comparison would mislead.
type PeriodTotal struct {
	Label       string          `json:"label"`
	Current     model.DateRange `json:"current"`
	CurrentWh   float64         `json:"current_wh"`
	PreviousWh  float64         `json:"previous_wh"`
	HasPrevious bool            `json:"has_previous"`
}

// TotalsByPeriod sums normalized energy per period block.
func TotalsByPeriod(s model.Series, blocks []period.Block) []PeriodTotal {
	out := make([]PeriodTotal, 0, len(blocks))
	for _, b := range blocks {
		t := PeriodTotal{
			Label:       b.Label,
			Current:     b.Current,
			CurrentWh:   sumWh(s, b.Current),
			HasPrevious: b.HasPrevious,
		}
		if b.HasPrevious {
			t.PreviousWh = sumWh(s, b.Previous)
		}
		out = append(out, t)
	}
	return out
}

// MonthTotal is the energy of one calendar month.
type MonthTotal struct {
	Year     int        `json:"year"`
	Month    time.Month `json:"month"`
	EnergyWh float64    `json:"energy_wh"`
}

// MonthlyBreakdown groups a period's readings by calendar month.
// keepZero keeps months without energy in the output, which rolling
// views need for trend continuity; anchored views drop them.
func MonthlyBreakdown(s model.Series, r model.DateRange, keepZero bool) []MonthTotal {
	type ym struct {
		year  int
		month time.Month
	}
	sums := make(map[ym]float64)
	for _, rd := range s.Slice(r) {
		k := ym{rd.Timestamp.Year(), rd.Timestamp.Month()}
		sums[k] += energyOf(s, rd)
	}

	var out []MonthTotal
	for cur := time.Date(r.Start.Year(), r.Start.Month(), 1, 0, 0, 0, 0, r.Start.Location()); !cur.After(r.End); cur = cur.AddDate(0, 1, 0) {
		e := sums[ym{cur.Year(), cur.Month()}]
		if e == 0 && !keepZero {
			continue
		}
		out = append(out, MonthTotal{Year: cur.Year(), Month: cur.Month(), EnergyWh: e})
	}
	return out
}
