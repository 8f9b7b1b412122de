package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"meterflow/internal/model"
)

func sample() model.Series {
	return model.Series{
		MeterID: "m1",
		Kind:    model.ConsumptionDetail,
		Readings: []model.Reading{
			{Timestamp: time.Date(2024, 6, 1, 0, 30, 0, 0, time.UTC), Value: 600, Unit: model.UnitPower, Interval: "PT30M"},
			{Timestamp: time.Date(2024, 6, 1, 1, 0, 0, 0, time.UTC), Value: 1000, Unit: model.UnitPower, Interval: "PT30M"},
		},
	}
}

func TestWriteSeriesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteSeriesCSV(path, sample()); err != nil {
		t.Fatalf("WriteSeriesCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header plus 2", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][6] != "energy_wh" {
		t.Errorf("header = %v", rows[0])
	}
	// 600 W over 30 minutes is 300 Wh.
	if rows[1][6] != "300" {
		t.Errorf("energy column = %q, want 300", rows[1][6])
	}
}

func TestSeriesJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.json")
	want := sample()
	if err := WriteSeriesJSON(path, want); err != nil {
		t.Fatalf("WriteSeriesJSON: %v", err)
	}

	got, err := ReadSeriesJSON(path)
	if err != nil {
		t.Fatalf("ReadSeriesJSON: %v", err)
	}
	if got.MeterID != want.MeterID || got.Kind != want.Kind {
		t.Errorf("key = %s/%s", got.MeterID, got.Kind)
	}
	if len(got.Readings) != len(want.Readings) {
		t.Fatalf("got %d readings", len(got.Readings))
	}
	if !got.Readings[0].Timestamp.Equal(want.Readings[0].Timestamp) {
		t.Errorf("timestamp = %s", got.Readings[0].Timestamp)
	}
}

func TestReadSeriesJSONRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`{"foo": 1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSeriesJSON(path); err == nil {
		t.Error("garbage dump must be rejected")
	}
}
