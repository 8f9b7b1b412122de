package normalize

import (
	"testing"
	"time"

	"meterflow/internal/model"
)

func reading(value float64, unit model.Unit, interval string) model.Reading {
	return model.Reading{
		Timestamp: time.Date(2025, 3, 10, 12, 0, 0, 0, time.Local),
		Value:     value,
		Unit:      unit,
		Interval:  interval,
	}
}

func TestIntervalHours(t *testing.T) {
	tests := []struct {
		token string
		want  float64
		ok    bool
	}{
		{"P1D", 1, true},
		{"P1H", 1, true},
		{"P2H", 2, true},
		{"P30M", 0.5, true},
		{"PT30M", 0.5, true},
		{"P15M", 0.25, true},
		{"p1h", 1, true},
		{"", 0, false},
		{"P", 0, false},
		{"PD", 0, false},
		{"P0H", 0, false},
		{"P-1H", 0, false},
		{"P1X", 0, false},
		{"1H", 0, false},
	}
	for _, tt := range tests {
		got, ok := IntervalHours(tt.token)
		if ok != tt.ok || got != tt.want {
			t.Errorf("IntervalHours(%q) = %v, %v; want %v, %v", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEnergyWhPower(t *testing.T) {
	// A power reading over one hour normalizes to its own value in Wh.
	if got := EnergyWh(reading(500, model.UnitPower, "P1H"), model.ConsumptionDetail); got != 500 {
		t.Errorf("P1H power: got %v Wh, want 500", got)
	}
	// Over half an hour it normalizes to half the value.
	if got := EnergyWh(reading(500, model.UnitPower, "P30M"), model.ConsumptionDetail); got != 250 {
		t.Errorf("P30M power: got %v Wh, want 250", got)
	}
}

func TestEnergyWhEnergyPassthrough(t *testing.T) {
	if got := EnergyWh(reading(1234, model.UnitEnergy, "P1D"), model.ConsumptionDaily); got != 1234 {
		t.Errorf("energy reading: got %v Wh, want 1234 unchanged", got)
	}
}

func TestEnergyWhFallback(t *testing.T) {
	// Malformed token on a detail series falls back to 30 minutes.
	if got := EnergyWh(reading(1000, model.UnitPower, "garbage"), model.ConsumptionDetail); got != 500 {
		t.Errorf("detail fallback: got %v Wh, want 500", got)
	}
	// Daily series fall back to the whole-day multiplier of 1.
	if got := EnergyWh(reading(1000, model.UnitPower, ""), model.ConsumptionDaily); got != 1000 {
		t.Errorf("daily fallback: got %v Wh, want 1000", got)
	}
	// Callers can override the fallback.
	if got := HoursWithFallback(reading(0, model.UnitPower, "bad"), 2); got != 2 {
		t.Errorf("explicit fallback: got %v, want 2", got)
	}
}

func TestEnergyWhMalformed(t *testing.T) {
	// Malformed readings normalize to the zero sentinel, never panic.
	if got := EnergyWh(reading(-5, model.UnitPower, "P1H"), model.ConsumptionDetail); got != 0 {
		t.Errorf("negative value: got %v, want 0", got)
	}
	if got := EnergyWh(reading(100, model.Unit("J"), "P1H"), model.ConsumptionDetail); got != 0 {
		t.Errorf("unknown unit: got %v, want 0", got)
	}
}

func TestAveragePowerKW(t *testing.T) {
	// 250 Wh over 30 minutes is an average of 0.5 kW.
	if got := AveragePowerKW(reading(500, model.UnitPower, "P30M"), model.ConsumptionDetail); got != 0.5 {
		t.Errorf("got %v kW, want 0.5", got)
	}
}
