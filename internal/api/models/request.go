package models

// SyncRequest is the body of POST /api/v1/meters/:id/sync. Either a day
// count back from today or an explicit window.
type SyncRequest struct {
	Days int    `json:"days,omitempty"`
	From string `json:"from,omitempty"` // YYYY-MM-DD
	To   string `json:"to,omitempty"`   // YYYY-MM-DD
}

// ViewQuery carries the common query parameters of the aggregation views.
type ViewQuery struct {
	Direction string `form:"direction,default=consumption"` // consumption | production
	Preset    string `form:"preset"`
	AnchorDay int    `form:"anchor_day"`
	AnchorMon int    `form:"anchor_month"`
	Lookback  int    `form:"lookback"`
}

// LoadCurveQuery bounds the load-curve view.
type LoadCurveQuery struct {
	Direction string `form:"direction,default=consumption"`
	From      string `form:"from"` // YYYY-MM-DD
	To        string `form:"to"`   // YYYY-MM-DD
}
