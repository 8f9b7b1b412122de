// Package aggregate computes the display views over cached series:
// totals by period, monthly breakdowns, peak/off-peak splits, daily load
// curves and yearly maximum power.
//
// Every function here is pure over (series, schedule, period blocks) and
// re-derivable at any time from cache contents; no view is persisted.
// One implementation serves consumption and production alike; the data
// kind travels with the series.
package aggregate

import (
	"meterflow/internal/model"
	"meterflow/internal/normalize"
)

func energyOf(s model.Series, rd model.Reading) float64 {
	return normalize.EnergyWh(rd, s.Kind)
}

// sumWh sums the normalized energy of the readings lying in r, skipping
// malformed readings (normalized to zero).
func sumWh(s model.Series, r model.DateRange) float64 {
	total := 0.0
	for _, rd := range s.Slice(r) {
		total += energyOf(s, rd)
	}
	return total
}
