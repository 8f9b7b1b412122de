package aggregate

import (
	"meterflow/internal/model"
	"meterflow/internal/period"
	"meterflow/internal/tariff"
)

// TariffSplit partitions one period's energy by tariff class.
type TariffSplit struct {
	Label     string          `json:"label"`
	Current   model.DateRange `json:"current"`
	OffpeakWh float64         `json:"offpeak_wh"`
	PeakWh    float64         `json:"peak_wh"`
	TotalWh   float64         `json:"total_wh"`
}

// RateLookup resolves an already-negotiated per-kWh price for a tariff
// class. It is a collaborator hook, not a price catalog.
type RateLookup func(offpeak bool) float64

// Cost applies per-kWh rates to the split.
func (t TariffSplit) Cost(rates RateLookup) float64 {
	if rates == nil {
		return 0
	}
	return t.OffpeakWh/1000*rates(true) + t.PeakWh/1000*rates(false)
}

// OffpeakSplit partitions normalized energy into off-peak and peak per
// period block, classified by each reading's own interval-start time.
// Periods without any energy are dropped. An empty schedule classifies
// everything as peak.
func OffpeakSplit(s model.Series, schedule tariff.Schedule, blocks []period.Block) []TariffSplit {
	var out []TariffSplit
	for _, b := range blocks {
		split := TariffSplit{Label: b.Label, Current: b.Current}
		for _, rd := range s.Slice(b.Current) {
			e := energyOf(s, rd)
			if e == 0 {
				continue
			}
			if schedule.IsOffpeakAt(rd.Timestamp) {
				split.OffpeakWh += e
			} else {
				split.PeakWh += e
			}
		}
		split.TotalWh = split.OffpeakWh + split.PeakWh
		if split.TotalWh == 0 {
			continue
		}
		out = append(out, split)
	}
	return out
}
