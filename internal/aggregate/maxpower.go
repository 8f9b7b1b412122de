package aggregate

import (
	"sort"
	"time"

	"meterflow/internal/model"
)

// PowerPeak is one daily maximum-power reading, time of day retained.
type PowerPeak struct {
	Timestamp time.Time `json:"timestamp"`
	PowerW    float64   `json:"power_w"`
}

// YearPeaks holds one calendar year of maximum-power readings.
type YearPeaks struct {
	Year  int         `json:"year"`
	Peaks []PowerPeak `json:"peaks"`
}

// MaxPowerByYear groups max-power readings by calendar year, most recent
// year first. Calendar years, not rolling windows: the view is presented
// per year so that subscription-level choices stay comparable.
func MaxPowerByYear(s model.Series) []YearPeaks {
	byYear := make(map[int][]PowerPeak)
	for _, rd := range s.Readings {
		if rd.Value <= 0 {
			continue
		}
		y := rd.Timestamp.Year()
		byYear[y] = append(byYear[y], PowerPeak{Timestamp: rd.Timestamp, PowerW: rd.Value})
	}

	out := make([]YearPeaks, 0, len(byYear))
	for year, peaks := range byYear {
		sort.Slice(peaks, func(i, j int) bool {
			return peaks[i].Timestamp.Before(peaks[j].Timestamp)
		})
		out = append(out, YearPeaks{Year: year, Peaks: peaks})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}
