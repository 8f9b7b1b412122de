package model

// MeterContract is the per-meter metadata handed to us by the account
// layer: which streams the meter carries and the raw-encoded off-peak
// schedule from the contract.
//
// Schedules apply uniformly every day of the week; weekday/weekend
// variants are not modeled.
type MeterContract struct {
	MeterID           string `json:"meter_id"`
	Name              string `json:"name,omitempty"`
	OffpeakRanges     string `json:"offpeak_ranges,omitempty"`
	HasConsumption    bool   `json:"has_consumption"`
	HasProduction     bool   `json:"has_production"`
	ProductionMeterID string `json:"production_meter_id,omitempty"`
}

// ProductionSource returns the meter to query for production streams:
// the linked production meter when one exists, else the meter itself.
func (m MeterContract) ProductionSource() string {
	if m.ProductionMeterID != "" {
		return m.ProductionMeterID
	}
	return m.MeterID
}

// FetchKinds lists the data kinds the contract entitles us to fetch.
func (m MeterContract) FetchKinds() []DataKind {
	var kinds []DataKind
	if m.HasConsumption {
		kinds = append(kinds, ConsumptionDaily, ConsumptionDetail, MaxPower)
	}
	if m.HasProduction {
		kinds = append(kinds, ProductionDaily, ProductionDetail)
	}
	return kinds
}
