package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"meterflow/internal/aggregate"
	"meterflow/internal/api/models"
	"meterflow/internal/model"
	"meterflow/internal/period"
	"meterflow/internal/tariff"
)

// kindsFor maps a view direction onto the daily and detail data kinds.
func kindsFor(direction string) (daily, detail model.DataKind, ok bool) {
	switch direction {
	case "", "consumption":
		return model.ConsumptionDaily, model.ConsumptionDetail, true
	case "production":
		return model.ProductionDaily, model.ProductionDetail, true
	}
	return "", "", false
}

// readSeries loads the cached series backing a view. Production kinds
// live under the linked production meter when the contract names one.
func (h *Handler) readSeries(c *gin.Context, contract model.MeterContract, kind model.DataKind) (model.Series, bool) {
	meterID := contract.MeterID
	if kind.Production() {
		meterID = contract.ProductionSource()
	}
	s, err := h.cache.Read(c.Request.Context(), meterID, kind)
	if err != nil {
		writeError(c, err)
		return model.Series{}, false
	}
	return s, true
}

// viewSetup binds the common view query and resolves the period blocks
// from the series' own data extent. An empty series resolves to no
// blocks, which every view renders as an empty 200.
func (h *Handler) viewSetup(c *gin.Context, s model.Series) (models.ViewQuery, []period.Block, bool) {
	var q models.ViewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_QUERY", Message: err.Error()},
		})
		return q, nil, false
	}

	preset := h.cfg.Tariff.PresetValue()
	if q.Preset != "" {
		preset = period.Preset(q.Preset)
		if !preset.Valid() {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "INVALID_PRESET", Message: "unknown preset " + q.Preset},
			})
			return q, nil, false
		}
	}
	q.Preset = string(preset)

	anchor := h.cfg.Tariff.Anchor()
	if q.AnchorDay != 0 || q.AnchorMon != 0 {
		anchor = period.Anchor{Day: q.AnchorDay, Month: q.AnchorMon}
	}
	lookback := q.Lookback
	if lookback <= 0 {
		lookback = h.cfg.Tariff.Lookback
	}

	if s.Empty() {
		return q, nil, true
	}
	return q, period.Resolve(s.Last(), s.First(), preset, anchor, lookback), true
}

// Summary handles GET /api/v1/meters/:id/summary (totals by period).
func (h *Handler) Summary(c *gin.Context) {
	contract, ok := h.contract(c)
	if !ok {
		return
	}
	daily, _, ok := kindsFor(c.Query("direction"))
	if !ok {
		writeBadDirection(c)
		return
	}
	s, ok := h.readSeries(c, contract, daily)
	if !ok {
		return
	}
	q, blocks, ok := h.viewSetup(c, s)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.SummaryResponse{
		MeterID: contract.MeterID,
		Kind:    daily,
		Preset:  q.Preset,
		Periods: aggregate.TotalsByPeriod(s, blocks),
	})
}

// Monthly handles GET /api/v1/meters/:id/monthly.
func (h *Handler) Monthly(c *gin.Context) {
	contract, ok := h.contract(c)
	if !ok {
		return
	}
	daily, _, ok := kindsFor(c.Query("direction"))
	if !ok {
		writeBadDirection(c)
		return
	}
	s, ok := h.readSeries(c, contract, daily)
	if !ok {
		return
	}
	q, blocks, ok := h.viewSetup(c, s)
	if !ok {
		return
	}

	// Rolling views keep zero months for trend continuity; anchored
	// views drop them.
	keepZero := q.Preset == string(period.Rolling)
	resp := models.MonthlyResponse{MeterID: contract.MeterID, Kind: daily, Preset: q.Preset}
	for _, b := range blocks {
		resp.Periods = append(resp.Periods, models.PeriodMonths{
			Label:  b.Label,
			Months: aggregate.MonthlyBreakdown(s, b.Current, keepZero),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Offpeak handles GET /api/v1/meters/:id/offpeak (peak/off-peak split).
// The split classifies detail-granularity readings; without cached detail
// data the view is simply empty.
func (h *Handler) Offpeak(c *gin.Context) {
	contract, ok := h.contract(c)
	if !ok {
		return
	}
	_, detail, ok := kindsFor(c.Query("direction"))
	if !ok {
		writeBadDirection(c)
		return
	}
	s, ok := h.readSeries(c, contract, detail)
	if !ok {
		return
	}
	q, blocks, ok := h.viewSetup(c, s)
	if !ok {
		return
	}

	schedule := tariff.Parse(contract.OffpeakRanges)
	rates := h.cfg.Tariff.Rates()
	resp := models.OffpeakResponse{MeterID: contract.MeterID, Kind: detail, Preset: q.Preset}
	for _, split := range aggregate.OffpeakSplit(s, schedule, blocks) {
		sc := models.SplitWithCost{TariffSplit: split}
		if rates != nil {
			sc.CostEUR = split.Cost(rates)
		}
		resp.Periods = append(resp.Periods, sc)
	}
	c.JSON(http.StatusOK, resp)
}

// LoadCurve handles GET /api/v1/meters/:id/loadcurve.
func (h *Handler) LoadCurve(c *gin.Context) {
	contract, ok := h.contract(c)
	if !ok {
		return
	}
	var q models.LoadCurveQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_QUERY", Message: err.Error()},
		})
		return
	}
	_, detail, ok := kindsFor(q.Direction)
	if !ok {
		writeBadDirection(c)
		return
	}
	s, ok := h.readSeries(c, contract, detail)
	if !ok {
		return
	}

	if q.From != "" && q.To != "" {
		from, err1 := time.ParseInLocation("2006-01-02", q.From, time.Local)
		to, err2 := time.ParseInLocation("2006-01-02", q.To, time.Local)
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "INVALID_WINDOW", Message: "from/to must be YYYY-MM-DD"},
			})
			return
		}
		s.Readings = s.Slice(model.NewDateRange(from, to))
	}

	c.JSON(http.StatusOK, models.LoadCurveResponse{
		MeterID: contract.MeterID,
		Kind:    detail,
		Days:    aggregate.DailyLoadCurves(s),
	})
}

// MaxPower handles GET /api/v1/meters/:id/maxpower.
func (h *Handler) MaxPower(c *gin.Context) {
	contract, ok := h.contract(c)
	if !ok {
		return
	}
	s, ok := h.readSeries(c, contract, model.MaxPower)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.MaxPowerResponse{
		MeterID: contract.MeterID,
		Years:   aggregate.MaxPowerByYear(s),
	})
}

func writeBadDirection(c *gin.Context) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_DIRECTION",
			Message: "direction must be consumption or production",
		},
	})
}
