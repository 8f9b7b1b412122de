package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"meterflow/internal/api/models"
	"meterflow/internal/model"
)

// defaultSyncDays is the window fetched when a sync request names none.
// Providers bound history anyway; anything missing comes back partial.
const defaultSyncDays = 365

// Sync handles POST /api/v1/meters/:id/sync ("fetch now").
func (h *Handler) Sync(c *gin.Context) {
	contract, ok := h.contract(c)
	if !ok {
		return
	}

	var req models.SyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
			})
			return
		}
	}

	window, err := syncWindow(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_WINDOW", Message: err.Error()},
		})
		return
	}

	report := h.syncer.SyncMeter(c.Request.Context(), contract, window)
	status := http.StatusOK
	if report.Phase == "failed" {
		status = http.StatusBadGateway
	}
	c.JSON(status, report)
}

// Status handles GET /api/v1/meters/:id/status.
func (h *Handler) Status(c *gin.Context) {
	contract, ok := h.contract(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.syncer.Status(contract.MeterID))
}

// ClearMeterCache handles DELETE /api/v1/meters/:id/cache.
func (h *Handler) ClearMeterCache(c *gin.Context) {
	contract, ok := h.contract(c)
	if !ok {
		return
	}
	kind := model.DataKind(c.Query("kind"))
	if kind != "" && !kind.Valid() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_KIND", Message: "unknown data kind " + string(kind)},
		})
		return
	}
	if err := h.cache.Clear(c.Request.Context(), contract.MeterID, kind); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearCache handles DELETE /api/v1/cache (full eviction).
func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.cache.Clear(c.Request.Context(), "", ""); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func syncWindow(req models.SyncRequest) (model.DateRange, error) {
	today := model.Day(time.Now())
	if req.From != "" || req.To != "" {
		from, err := time.ParseInLocation("2006-01-02", req.From, time.Local)
		if err != nil {
			return model.DateRange{}, err
		}
		to := today
		if req.To != "" {
			to, err = time.ParseInLocation("2006-01-02", req.To, time.Local)
			if err != nil {
				return model.DateRange{}, err
			}
		}
		return model.NewDateRange(from, to), nil
	}

	days := req.Days
	if days <= 0 {
		days = defaultSyncDays
	}
	return model.DateRange{Start: today.AddDate(0, 0, -days+1), End: today}, nil
}
