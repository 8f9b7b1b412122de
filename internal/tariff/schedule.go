// Package tariff decides which tariff window a point in time falls in,
// from per-meter off-peak schedules encoded the way contracts carry them.
package tariff

import (
	"regexp"
	"strconv"
	"time"
)

// HourRange is one off-peak window within a day. End may be earlier than
// Start, meaning the window wraps past midnight into the next day.
// Schedules apply uniformly every day of the week.
type HourRange struct {
	StartHour   int `json:"start_hour"`
	StartMinute int `json:"start_minute"`
	EndHour     int `json:"end_hour"`
	EndMinute   int `json:"end_minute"`
}

// Schedule is the ordered set of off-peak windows for one meter.
// An empty schedule classifies everything as peak.
type Schedule struct {
	Ranges []HourRange `json:"ranges"`
}

// rangeToken matches one window inside either supported encoding: the
// plain "HH:MM-HH:MM" form and the provider annotation that embeds
// "22H00-6H00" style windows in a descriptive string.
var rangeToken = regexp.MustCompile(`(\d{1,2})[:Hh](\d{2})\s*-\s*(\d{1,2})[:Hh](\d{2})`)

// Parse extracts every recognizable window from a raw schedule string.
// Unparsable input degrades to an empty schedule rather than an error:
// a broken contract annotation must never abort an aggregation.
func Parse(raw string) Schedule {
	var s Schedule
	for _, m := range rangeToken.FindAllStringSubmatch(raw, -1) {
		sh, _ := strconv.Atoi(m[1])
		sm, _ := strconv.Atoi(m[2])
		eh, _ := strconv.Atoi(m[3])
		em, _ := strconv.Atoi(m[4])
		if sh > 23 || eh > 23 || sm > 59 || em > 59 {
			continue
		}
		s.Ranges = append(s.Ranges, HourRange{
			StartHour: sh, StartMinute: sm,
			EndHour: eh, EndMinute: em,
		})
	}
	return s
}

// Empty reports whether the schedule has no windows.
func (s Schedule) Empty() bool { return len(s.Ranges) == 0 }

// IsOffpeak reports whether the given time of day falls inside any window.
// Windows are a disjunction; the first match wins.
func (s Schedule) IsOffpeak(hour, minute int) bool {
	sample := hour*60 + minute
	for _, r := range s.Ranges {
		start := r.StartHour*60 + r.StartMinute
		end := r.EndHour*60 + r.EndMinute
		if end > start {
			if sample >= start && sample < end {
				return true
			}
		} else {
			// Wraps past midnight.
			if sample >= start || sample < end {
				return true
			}
		}
	}
	return false
}

// IsOffpeakAt is IsOffpeak for a full timestamp.
func (s Schedule) IsOffpeakAt(t time.Time) bool {
	return s.IsOffpeak(t.Hour(), t.Minute())
}
