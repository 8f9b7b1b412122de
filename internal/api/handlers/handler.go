package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"meterflow/internal/api/models"
	"meterflow/internal/cache"
	"meterflow/internal/config"
	"meterflow/internal/data"
	"meterflow/internal/model"
	"meterflow/internal/service"
)

// Handler carries the engine pieces the HTTP surface works over.
type Handler struct {
	cfg    *config.Config
	cache  *cache.Cache
	syncer *service.Syncer
	logger *log.Logger
}

func New(cfg *config.Config, c *cache.Cache, syncer *service.Syncer, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{cfg: cfg, cache: c, syncer: syncer, logger: logger}
}

// contract resolves the meter from the path, answering 404 itself when
// the meter is not configured.
func (h *Handler) contract(c *gin.Context) (model.MeterContract, bool) {
	id := c.Param("id")
	m, ok := h.cfg.Meter(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "UNKNOWN_METER",
				Message: "meter " + id + " is not configured",
			},
		})
		return model.MeterContract{}, false
	}
	return m.Contract(), true
}

// writeError maps engine errors onto the error envelope. Provider errors
// keep their status semantics: auth problems come back 401, rate limits
// 429, everything else from the gateway 502.
func writeError(c *gin.Context, err error) {
	var perr *data.ProviderError
	if errors.As(err, &perr) {
		status := http.StatusBadGateway
		switch perr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			status = http.StatusUnauthorized
		case http.StatusTooManyRequests:
			status = http.StatusTooManyRequests
		}
		c.JSON(status, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    perr.Code,
				Message: perr.Message,
				Details: map[string]interface{}{
					"status_code": perr.StatusCode,
					"retry_after": perr.RetryAfter,
				},
			},
		})
		return
	}

	var ferr *data.FullFetchError
	if errors.As(err, &ferr) {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "FETCH_FAILED",
				Message: ferr.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INTERNAL_ERROR",
			Message: err.Error(),
		},
	})
}
