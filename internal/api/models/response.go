package models

import (
	"meterflow/internal/aggregate"
	"meterflow/internal/model"
)

// ErrorResponse is the error envelope of every non-2xx answer.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SummaryResponse is the totals-by-period view.
type SummaryResponse struct {
	MeterID string                  `json:"meter_id"`
	Kind    model.DataKind          `json:"data_kind"`
	Preset  string                  `json:"preset"`
	Periods []aggregate.PeriodTotal `json:"periods"`
}

// PeriodMonths is one period's monthly breakdown.
type PeriodMonths struct {
	Label  string                 `json:"label"`
	Months []aggregate.MonthTotal `json:"months"`
}

// MonthlyResponse is the monthly breakdown view.
type MonthlyResponse struct {
	MeterID string         `json:"meter_id"`
	Kind    model.DataKind `json:"data_kind"`
	Preset  string         `json:"preset"`
	Periods []PeriodMonths `json:"periods"`
}

// SplitWithCost is one period's tariff split, with the cost applied when
// per-kWh rates are configured.
type SplitWithCost struct {
	aggregate.TariffSplit
	CostEUR float64 `json:"cost_eur,omitempty"`
}

// OffpeakResponse is the peak/off-peak split view.
type OffpeakResponse struct {
	MeterID string          `json:"meter_id"`
	Kind    model.DataKind  `json:"data_kind"`
	Preset  string          `json:"preset"`
	Periods []SplitWithCost `json:"periods"`
}

// LoadCurveResponse is the daily load-curve view.
type LoadCurveResponse struct {
	MeterID string               `json:"meter_id"`
	Kind    model.DataKind       `json:"data_kind"`
	Days    []aggregate.DayCurve `json:"days"`
}

// MaxPowerResponse is the yearly maximum-power view.
type MaxPowerResponse struct {
	MeterID string                `json:"meter_id"`
	Years   []aggregate.YearPeaks `json:"years"`
}
