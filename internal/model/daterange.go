package model

import "time"

// DateRange is an inclusive calendar date range. Bounds are normalized to
// midnight in the calendar reference of the data; no timezone shifting of
// the date component ever happens.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Day drops the time-of-day component of t.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NewDateRange builds a range from two instants, normalized to whole days.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// Contains reports whether the date d falls inside the range.
func (r DateRange) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(r.Start) && !d.After(r.End)
}

// ContainsTime reports whether the instant t falls on a day inside the range.
func (r DateRange) ContainsTime(t time.Time) bool {
	return r.Contains(Day(t))
}

// Days returns the number of calendar days covered, inclusive.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// ShiftYears returns the same span moved by n years.
func (r DateRange) ShiftYears(n int) DateRange {
	return DateRange{Start: r.Start.AddDate(n, 0, 0), End: r.End.AddDate(n, 0, 0)}
}

// Intersect clips r to other. The second return is false when the ranges
// do not overlap.
func (r DateRange) Intersect(other DateRange) (DateRange, bool) {
	start := r.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := r.End
	if other.End.Before(end) {
		end = other.End
	}
	if start.After(end) {
		return DateRange{}, false
	}
	return DateRange{Start: start, End: end}, true
}

func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}
