package aggregate

import (
	"sort"
	"time"

	"meterflow/internal/model"
	"meterflow/internal/normalize"
)

// minCurvePoints is the coverage threshold below which a day is excluded
// from load-curve views: under 10 points of 30-minute samples is less
// than 5 hours of data, not a curve.
const minCurvePoints = 10

// CurvePoint is one load-curve sample.
type CurvePoint struct {
	Time       time.Time `json:"time"`
	AvgPowerKW float64   `json:"avg_power_kw"`
	EnergyWh   float64   `json:"energy_wh"`
}

// DayCurve is the ordered load curve of one calendar day.
type DayCurve struct {
	Date   time.Time    `json:"date"`
	Points []CurvePoint `json:"points"`
}

// DailyLoadCurves groups detail readings by the calendar day of their
// own timestamp (which is the interval start, not end). Days with fewer
// than minCurvePoints samples are excluded.
func DailyLoadCurves(s model.Series) []DayCurve {
	byDay := make(map[time.Time][]CurvePoint)
	for _, rd := range s.Readings {
		day := model.Day(rd.Timestamp)
		byDay[day] = append(byDay[day], CurvePoint{
			Time:       rd.Timestamp,
			AvgPowerKW: normalize.AveragePowerKW(rd, s.Kind),
			EnergyWh:   normalize.EnergyWh(rd, s.Kind),
		})
	}

	out := make([]DayCurve, 0, len(byDay))
	for day, points := range byDay {
		if len(points) < minCurvePoints {
			continue
		}
		sort.Slice(points, func(i, j int) bool {
			return points[i].Time.Before(points[j].Time)
		})
		out = append(out, DayCurve{Date: day, Points: points})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
