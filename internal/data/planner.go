package data

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"meterflow/internal/model"
)

// Coverage classifies the outcome of a fetch plan.
type Coverage string

const (
	CoverageFull    Coverage = "full"
	CoveragePartial Coverage = "partial"
	CoverageFailed  Coverage = "failed"
)

// Fetcher is the remote side the planner drives. *Client implements it;
// tests substitute fakes.
type Fetcher interface {
	Fetch(ctx context.Context, meterID string, kind model.DataKind, r model.DateRange) (*FetchResult, error)
	MaxSpanDays(kind model.DataKind) int
}

// SubRangeError records the failure of one sub-range of a plan.
type SubRangeError struct {
	Range model.DateRange
	Err   error
}

// PartialDataError signals that a plan covered only part of the requested
// range. The merged subset is still usable; callers decide whether that
// is acceptable.
type PartialDataError struct {
	Requested model.DateRange
	Missing   []model.DateRange
}

func (e *PartialDataError) Error() string {
	spans := make([]string, len(e.Missing))
	for i, r := range e.Missing {
		spans[i] = r.String()
	}
	return fmt.Sprintf("partial data for %s: missing %s",
		e.Requested, strings.Join(spans, ", "))
}

// FullFetchError signals that no sub-range of a plan succeeded. The cache
// is left untouched in that case.
type FullFetchError struct {
	Requested model.DateRange
	First     error
}

func (e *FullFetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Requested, e.First)
}

func (e *FullFetchError) Unwrap() error { return e.First }

// PlanResult is the merged outcome of a fetch plan.
type PlanResult struct {
	MeterID   string
	Kind      model.DataKind
	Requested model.DateRange

	// Unit and Interval come from the first successful response, which
	// serves as the structural template for the merge.
	Unit     model.Unit
	Interval string

	Readings []model.Reading
	Coverage Coverage
	Failures []SubRangeError
}

// PartialError returns the typed warning for a partially covered plan,
// or nil when coverage is full.
func (r *PlanResult) PartialError() *PartialDataError {
	if r.Coverage != CoveragePartial {
		return nil
	}
	perr := &PartialDataError{Requested: r.Requested}
	for _, f := range r.Failures {
		perr.Missing = append(perr.Missing, f.Range)
	}
	return perr
}

// Planner splits a requested range around the provider's per-kind span
// limit, fetches all sub-ranges concurrently, and merges the settled
// results into one deduplicated series.
type Planner struct {
	fetcher Fetcher
}

func NewPlanner(fetcher Fetcher) *Planner {
	return &Planner{fetcher: fetcher}
}

// SplitRange covers requested with contiguous, non-overlapping sub-ranges
// of at most maxDays each, walking forward from the start. maxDays <= 0
// means no limit: the whole range is one sub-range.
func SplitRange(requested model.DateRange, maxDays int) []model.DateRange {
	if maxDays <= 0 || requested.Days() <= maxDays {
		return []model.DateRange{requested}
	}
	var out []model.DateRange
	start := requested.Start
	for !start.After(requested.End) {
		end := start.AddDate(0, 0, maxDays-1)
		if end.After(requested.End) {
			end = requested.End
		}
		out = append(out, model.DateRange{Start: start, End: end})
		start = end.AddDate(0, 0, 1)
	}
	return out
}

// Fetch runs the plan. It returns an error only when every sub-range
// failed; partial outcomes come back as a result with Coverage partial
// and the failed spans listed.
func (p *Planner) Fetch(ctx context.Context, meterID string, kind model.DataKind, requested model.DateRange) (*PlanResult, error) {
	subs := SplitRange(requested, p.fetcher.MaxSpanDays(kind))

	results := make([]*FetchResult, len(subs))
	errs := make([]error, len(subs))

	// Fan out, join on all. The merge must see every settled result,
	// success or failure; an error on one sub-range does not cancel
	// its siblings.
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub model.DateRange) {
			defer wg.Done()
			results[i], errs[i] = p.fetcher.Fetch(ctx, meterID, kind, sub)
		}(i, sub)
	}
	wg.Wait()

	res := &PlanResult{
		MeterID:   meterID,
		Kind:      kind,
		Requested: requested,
	}
	var firstErr error
	merged := model.Series{MeterID: meterID, Kind: kind}
	for i, fr := range results {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			res.Failures = append(res.Failures, SubRangeError{Range: subs[i], Err: errs[i]})
			continue
		}
		if res.Unit == "" {
			res.Unit = fr.Unit
			res.Interval = fr.Interval
		}
		if fr.Partial {
			res.Failures = append(res.Failures, SubRangeError{
				Range: subs[i],
				Err:   fmt.Errorf("provider reported partial data: %s", fr.PartialCode),
			})
		}
		merged = merged.Merge(fr.Readings)
	}

	succeeded := len(subs) - countErrs(errs)
	if succeeded == 0 {
		res.Coverage = CoverageFailed
		return nil, &FullFetchError{Requested: requested, First: firstErr}
	}

	res.Readings = merged.Readings
	if len(res.Failures) > 0 {
		res.Coverage = CoveragePartial
	} else {
		res.Coverage = CoverageFull
	}
	return res, nil
}

func countErrs(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}
