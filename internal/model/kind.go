package model

// DataKind identifies one provider reading stream for a meter.
// Keep these values stable; they are cache keys and API parameters.
type DataKind string

const (
	ConsumptionDaily  DataKind = "consumption-daily"
	ConsumptionDetail DataKind = "consumption-detail"
	ProductionDaily   DataKind = "production-daily"
	ProductionDetail  DataKind = "production-detail"
	MaxPower          DataKind = "max-power"
)

// Kinds lists every data kind, in fetch order.
func Kinds() []DataKind {
	return []DataKind{
		ConsumptionDaily,
		ConsumptionDetail,
		ProductionDaily,
		ProductionDetail,
		MaxPower,
	}
}

// Valid reports whether k names a known data kind.
func (k DataKind) Valid() bool {
	switch k {
	case ConsumptionDaily, ConsumptionDetail, ProductionDaily, ProductionDetail, MaxPower:
		return true
	}
	return false
}

// Detail reports whether k carries sub-hourly load-curve samples
// rather than daily totals.
func (k DataKind) Detail() bool {
	return k == ConsumptionDetail || k == ProductionDetail
}

// Production reports whether k belongs to the production direction.
func (k DataKind) Production() bool {
	return k == ProductionDaily || k == ProductionDetail
}

// NominalHours is the granularity assumed when a reading carries no
// parsable interval token: one day for daily kinds, 30 minutes for
// detail kinds.
func (k DataKind) NominalHours() float64 {
	if k.Detail() {
		return 0.5
	}
	return 1
}
