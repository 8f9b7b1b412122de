package period

import (
	"testing"
	"time"

	"meterflow/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSeasonalAnchorBeforeMostRecent(t *testing.T) {
	// Tempo-style September 1 anchor with data up to 2025-11-10.
	blocks := Resolve(date(2025, 11, 10), date(2022, 1, 1), Seasonal, Anchor{Day: 1, Month: 9}, 3)
	if len(blocks) == 0 {
		t.Fatal("no blocks resolved")
	}

	cur := blocks[0]
	if !cur.Current.Start.Equal(date(2025, 9, 1)) || !cur.Current.End.Equal(date(2025, 11, 10)) {
		t.Errorf("current block = %s, want 2025-09-01..2025-11-10", cur.Current)
	}
	if !cur.Previous.Start.Equal(date(2024, 9, 1)) || !cur.Previous.End.Equal(date(2024, 11, 10)) {
		t.Errorf("previous range = %s, want 2024-09-01..2024-11-10", cur.Previous)
	}
	if cur.HasPrevious {
		t.Error("the most recent block must not carry a comparison")
	}
}

func TestSeasonalAnchorAfterMostRecent(t *testing.T) {
	// Anchor date later in the year than the data: current block starts
	// at last year's anchor.
	blocks := Resolve(date(2025, 3, 15), date(2022, 1, 1), Seasonal, Anchor{Day: 1, Month: 9}, 2)
	if len(blocks) == 0 {
		t.Fatal("no blocks resolved")
	}
	if !blocks[0].Current.Start.Equal(date(2024, 9, 1)) {
		t.Errorf("current start = %s, want 2024-09-01", blocks[0].Current.Start.Format("2006-01-02"))
	}
	if !blocks[0].Current.End.Equal(date(2025, 3, 15)) {
		t.Errorf("current end capped at most recent, got %s", blocks[0].Current.End.Format("2006-01-02"))
	}
}

func TestCalendarBlocks(t *testing.T) {
	blocks := Resolve(date(2025, 6, 30), date(2023, 1, 1), Calendar, Anchor{}, 3)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	if !blocks[0].Current.Start.Equal(date(2025, 1, 1)) || !blocks[0].Current.End.Equal(date(2025, 6, 30)) {
		t.Errorf("newest block = %s", blocks[0].Current)
	}
	if !blocks[1].Current.Start.Equal(date(2024, 1, 1)) || !blocks[1].Current.End.Equal(date(2024, 12, 31)) {
		t.Errorf("second block = %s", blocks[1].Current)
	}
	if blocks[0].Label != "2025" || blocks[1].Label != "2024" {
		t.Errorf("labels = %q, %q", blocks[0].Label, blocks[1].Label)
	}
	if blocks[0].HasPrevious || !blocks[1].HasPrevious || !blocks[2].HasPrevious {
		t.Error("only non-newest blocks carry a comparison")
	}
}

func TestSeasonalLabelsCrossYearBoundary(t *testing.T) {
	blocks := Resolve(date(2025, 11, 10), date(2022, 9, 1), Seasonal, Anchor{Day: 1, Month: 9}, 3)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	// Newest block sits inside 2025; the full older blocks span two years.
	if blocks[0].Label != "2025" {
		t.Errorf("newest label = %q, want 2025", blocks[0].Label)
	}
	if blocks[1].Label != "2024-2025" {
		t.Errorf("second label = %q, want 2024-2025", blocks[1].Label)
	}
	if !blocks[1].Current.Start.Equal(date(2024, 9, 1)) || !blocks[1].Current.End.Equal(date(2025, 8, 31)) {
		t.Errorf("second block = %s, want 2024-09-01..2025-08-31", blocks[1].Current)
	}
}

func TestRollingBlocks(t *testing.T) {
	mostRecent := date(2025, 11, 10)
	blocks := Resolve(mostRecent, date(2022, 1, 1), Rolling, Anchor{}, 3)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	if !blocks[0].Current.End.Equal(mostRecent) {
		t.Errorf("newest block must end at the most recent data date")
	}
	for i, b := range blocks {
		if b.Current.Days() != 365 {
			t.Errorf("block %d spans %d days, want 365", i, b.Current.Days())
		}
		if i > 0 && !blocks[i-1].Current.Start.Equal(b.Current.End.AddDate(0, 0, 1)) {
			t.Errorf("blocks %d and %d are not contiguous", i-1, i)
		}
	}
	// Each previous range is the same span one year back.
	b := blocks[1]
	if !b.Previous.Start.Equal(b.Current.Start.AddDate(-1, 0, 0)) {
		t.Error("previous range must be the current range shifted one year")
	}
}

func TestThinBlocksAreDropped(t *testing.T) {
	// Data starts 2025-10-01: the 2024 block has ~1 month of backing
	// data and must be dropped; the newest partial block survives.
	blocks := Resolve(date(2025, 11, 10), date(2025, 10, 1), Calendar, Anchor{}, 3)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want only the newest", len(blocks))
	}
	if blocks[0].Label != "2025" {
		t.Errorf("surviving label = %q", blocks[0].Label)
	}
}

func TestPreviousRangeShift(t *testing.T) {
	r := model.DateRange{Start: date(2025, 9, 1), End: date(2025, 11, 10)}
	p := r.ShiftYears(-1)
	if !p.Start.Equal(date(2024, 9, 1)) || !p.End.Equal(date(2024, 11, 10)) {
		t.Errorf("shifted range = %s", p)
	}
}
