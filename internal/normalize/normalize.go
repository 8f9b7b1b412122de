// Package normalize converts raw provider readings into uniform
// watt-hour quantities, whatever unit and interval length they arrived in.
package normalize

import (
	"strconv"
	"strings"

	"meterflow/internal/model"
)

// IntervalHours resolves a provider duration token of the form P<N><Unit>
// (Unit in D, H, M; a leading "PT" is tolerated for sub-day tokens) to the
// multiplier used for power readings:
//
//	D -> 1    a whole-day value is already a total, not a rate
//	H -> N
//	M -> N/60
//
// The second return is false when the token cannot be parsed.
func IntervalHours(token string) (float64, bool) {
	token = strings.ToUpper(strings.TrimSpace(token))
	if !strings.HasPrefix(token, "P") {
		return 0, false
	}
	token = strings.TrimPrefix(token, "P")
	token = strings.TrimPrefix(token, "T")
	if len(token) < 2 {
		return 0, false
	}

	unit := token[len(token)-1]
	n, err := strconv.Atoi(token[:len(token)-1])
	if err != nil || n <= 0 {
		return 0, false
	}

	switch unit {
	case 'D':
		return 1, true
	case 'H':
		return float64(n), true
	case 'M':
		return float64(n) / 60, true
	}
	return 0, false
}

// Hours resolves the effective duration multiplier for a reading,
// falling back to the data kind's nominal granularity when the token is
// missing or malformed. Callers needing a different fallback use
// HoursWithFallback.
func Hours(r model.Reading, kind model.DataKind) float64 {
	return HoursWithFallback(r, kind.NominalHours())
}

// HoursWithFallback is Hours with an explicit fallback, so the nominal
// default never silently applies where the caller knows better.
func HoursWithFallback(r model.Reading, fallback float64) float64 {
	if h, ok := IntervalHours(r.Interval); ok {
		return h
	}
	return fallback
}

// EnergyWh returns the energy of a reading in watt-hours. Energy readings
// pass through unchanged; power readings are multiplied by the interval
// duration in hours. Malformed readings yield 0, which callers filter.
func EnergyWh(r model.Reading, kind model.DataKind) float64 {
	if r.Value < 0 {
		return 0
	}
	switch r.Unit {
	case model.UnitEnergy:
		return r.Value
	case model.UnitPower:
		return r.Value * Hours(r, kind)
	}
	return 0
}

// AveragePowerKW derives the mean power over the reading's interval from
// its normalized energy. Returns 0 for malformed readings.
func AveragePowerKW(r model.Reading, kind model.DataKind) float64 {
	h := Hours(r, kind)
	if h <= 0 {
		return 0
	}
	return EnergyWh(r, kind) / h / 1000
}
