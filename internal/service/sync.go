// Package service orchestrates fetch plans into the cache and exposes the
// progress of a running sync as one tagged phase instead of a pile of
// per-kind booleans.
package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"meterflow/internal/cache"
	"meterflow/internal/data"
	"meterflow/internal/model"
)

// Phase is the tagged state of a meter's sync pipeline.
// Keep these values stable; they are API output.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseFetchingDaily    Phase = "fetching-daily"
	PhaseFetchingDetail   Phase = "fetching-detail"
	PhaseFetchingMaxPower Phase = "fetching-max-power"
	PhaseFetchingProd     Phase = "fetching-production"
	PhaseReady            Phase = "ready"
	PhasePartialFailure   Phase = "partial-failure"
	PhaseFailed           Phase = "failed"
)

func phaseFor(kind model.DataKind) Phase {
	switch {
	case kind.Production():
		return PhaseFetchingProd
	case kind == model.MaxPower:
		return PhaseFetchingMaxPower
	case kind.Detail():
		return PhaseFetchingDetail
	default:
		return PhaseFetchingDaily
	}
}

// KindReport is the per-kind outcome of one sync run.
type KindReport struct {
	Kind     model.DataKind `json:"data_kind"`
	Coverage data.Coverage  `json:"coverage"`
	Count    int            `json:"count"`
	Warning  string         `json:"warning,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// SyncReport is the state of one meter's latest sync run.
type SyncReport struct {
	JobID      uuid.UUID       `json:"job_id"`
	MeterID    string          `json:"meter_id"`
	Window     model.DateRange `json:"window"`
	Phase      Phase           `json:"phase"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
	Kinds      []KindReport    `json:"kinds"`
}

// Syncer runs fetch plans and lands the results in the cache. Repeated or
// late runs only merge additively, so a superseded sync cannot corrupt
// state, only contribute data that is already there.
type Syncer struct {
	planner *data.Planner
	cache   *cache.Cache
	logger  *log.Logger

	mu      sync.RWMutex
	reports map[string]SyncReport
}

func NewSyncer(planner *data.Planner, c *cache.Cache, logger *log.Logger) *Syncer {
	if logger == nil {
		logger = log.Default()
	}
	return &Syncer{
		planner: planner,
		cache:   c,
		logger:  logger,
		reports: make(map[string]SyncReport),
	}
}

// Status returns the latest report for a meter, or an idle report when it
// has never synced.
func (s *Syncer) Status(meterID string) SyncReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.reports[meterID]; ok {
		return r
	}
	return SyncReport{MeterID: meterID, Phase: PhaseIdle}
}

func (s *Syncer) setReport(r SyncReport) {
	s.mu.Lock()
	s.reports[r.MeterID] = r
	s.mu.Unlock()
}

// SyncMeter fetches every data kind the contract entitles over the given
// window, merging each result into the cache as it lands. Kinds are
// independent: a failure on one never blocks the others, and aggregation
// consumers pick up each kind from its cache notification.
func (s *Syncer) SyncMeter(ctx context.Context, contract model.MeterContract, window model.DateRange) SyncReport {
	report := SyncReport{
		JobID:     uuid.New(),
		MeterID:   contract.MeterID,
		Window:    window,
		Phase:     PhaseIdle,
		StartedAt: time.Now(),
	}
	s.setReport(report)

	var full, partial, failed int
	for _, kind := range contract.FetchKinds() {
		report.Phase = phaseFor(kind)
		s.setReport(report)

		meterID := contract.MeterID
		if kind.Production() {
			meterID = contract.ProductionSource()
		}

		kr := s.fetchKind(ctx, meterID, kind, window)
		report.Kinds = append(report.Kinds, kr)
		switch kr.Coverage {
		case data.CoverageFull:
			full++
		case data.CoveragePartial:
			partial++
		default:
			failed++
		}
		s.setReport(report)
	}

	switch {
	case full > 0 && partial == 0 && failed == 0:
		report.Phase = PhaseReady
	case full+partial > 0:
		report.Phase = PhasePartialFailure
	default:
		report.Phase = PhaseFailed
	}
	report.FinishedAt = time.Now()
	s.setReport(report)
	return report
}

// fetchKind runs one plan and lands the merged readings. A fully failed
// plan performs no cache write; partially covered plans keep the
// successful subset, surfaced as a warning.
func (s *Syncer) fetchKind(ctx context.Context, meterID string, kind model.DataKind, window model.DateRange) KindReport {
	kr := KindReport{Kind: kind}

	res, err := s.planner.Fetch(ctx, meterID, kind, window)
	if err != nil {
		s.logger.Printf("sync %s/%s: %v", meterID, kind, err)
		kr.Coverage = data.CoverageFailed
		kr.Error = err.Error()
		return kr
	}

	kr.Coverage = res.Coverage
	if perr := res.PartialError(); perr != nil {
		s.logger.Printf("sync %s/%s: %v", meterID, kind, perr)
		kr.Warning = perr.Error()
	}

	merged, err := s.cache.Write(ctx, meterID, kind, res.Readings)
	if err != nil {
		kr.Coverage = data.CoverageFailed
		kr.Error = err.Error()
		return kr
	}
	kr.Count = len(merged.Readings)
	return kr
}
