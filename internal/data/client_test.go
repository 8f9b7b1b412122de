package data

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"meterflow/internal/model"
)

const dailyBody = `{
  "meter_reading": {
    "usage_point_id": "12345678901234",
    "reading_type": {"unit": "Wh", "interval_length": "P1D"},
    "interval_reading": [
      {"value": "12000", "date": "2024-06-01"},
      {"value": "not-a-number", "date": "2024-06-02"},
      {"value": "9500", "date": "2024-06-03"}
    ]
  }
}`

const curveBody = `{
  "meter_reading": {
    "usage_point_id": "12345678901234",
    "reading_type": {"unit": "W", "interval_length": "PT30M"},
    "interval_reading": [
      {"value": "520", "date": "2024-06-01 00:30:00"},
      {"value": "480", "date": "2024-06-01 01:00:00"}
    ]
  }
}`

func TestClientFetchDaily(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(dailyBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", 5*time.Second)
	r := model.DateRange{Start: day(2024, 6, 1), End: day(2024, 6, 3)}
	res, err := c.Fetch(context.Background(), "12345678901234", model.ConsumptionDaily, r)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	// End bound on the wire is exclusive: one day past the range.
	wantPath := "/daily_consumption/12345678901234/start/2024-06-01/end/2024-06-04"
	if gotPath != wantPath {
		t.Errorf("path = %s, want %s", gotPath, wantPath)
	}
	if gotAuth != "test-token" {
		t.Errorf("authorization = %q", gotAuth)
	}
	if res.Unit != model.UnitEnergy || res.Interval != "P1D" {
		t.Errorf("template = %s/%s", res.Unit, res.Interval)
	}
	// The unparseable middle row is dropped, not fatal.
	if len(res.Readings) != 2 {
		t.Fatalf("got %d readings, want 2", len(res.Readings))
	}
	if res.Readings[0].Value != 12000 || res.Readings[1].Value != 9500 {
		t.Errorf("values = %v, %v", res.Readings[0].Value, res.Readings[1].Value)
	}
}

func TestClientFetchLoadCurve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(curveBody))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", 5*time.Second)
	r := model.DateRange{Start: day(2024, 6, 1), End: day(2024, 6, 1)}
	res, err := c.Fetch(context.Background(), "m1", model.ConsumptionDetail, r)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if res.Unit != model.UnitPower {
		t.Errorf("unit = %s, want W", res.Unit)
	}
	if len(res.Readings) != 2 {
		t.Fatalf("got %d readings", len(res.Readings))
	}
	if res.Readings[0].Interval != "PT30M" {
		t.Errorf("interval = %q, want inherited PT30M", res.Readings[0].Interval)
	}
	want := time.Date(2024, 6, 1, 0, 30, 0, 0, time.Local)
	if !res.Readings[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %s", res.Readings[0].Timestamp)
	}
}

func TestClientRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": "QUOTA_EXCEEDED", "message": "slow down"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t", 5*time.Second)
	r := model.DateRange{Start: day(2024, 6, 1), End: day(2024, 6, 1)}
	_, err := c.Fetch(context.Background(), "m1", model.ConsumptionDaily, r)

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if perr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d", perr.StatusCode)
	}
	if perr.Code != "QUOTA_EXCEEDED" {
		t.Errorf("code = %q", perr.Code)
	}
	if perr.RetryAfter != "42" {
		t.Errorf("retry-after = %q", perr.RetryAfter)
	}
}

func TestClientUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"code": "AUTH_EXPIRED", "message": "token expired"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "stale", 5*time.Second)
	r := model.DateRange{Start: day(2024, 6, 1), End: day(2024, 6, 1)}
	_, err := c.Fetch(context.Background(), "m1", model.MaxPower, r)

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if perr.StatusCode != http.StatusUnauthorized || perr.Code != "AUTH_EXPIRED" {
		t.Errorf("got %d/%s", perr.StatusCode, perr.Code)
	}
}

func TestEndpointFor(t *testing.T) {
	tests := []struct {
		kind model.DataKind
		want string
	}{
		{model.ConsumptionDaily, "daily_consumption"},
		{model.ConsumptionDetail, "consumption_load_curve"},
		{model.ProductionDaily, "daily_production"},
		{model.ProductionDetail, "production_load_curve"},
		{model.MaxPower, "daily_consumption_max_power"},
	}
	for _, tt := range tests {
		got, err := endpointFor(tt.kind)
		if err != nil {
			t.Errorf("endpointFor(%s): %v", tt.kind, err)
			continue
		}
		if got != tt.want {
			t.Errorf("endpointFor(%s) = %s, want %s", tt.kind, got, tt.want)
		}
	}
	if _, err := endpointFor(model.DataKind("bogus")); err == nil {
		t.Error("unknown kind must error")
	}
}
