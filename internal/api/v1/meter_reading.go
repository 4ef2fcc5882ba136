package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/towerbill/towerbill/internal/api/dto"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/service"
	"github.com/towerbill/towerbill/internal/types"
)

type MeterReadingHandler struct {
	service service.MeterReadingService
	log     *logger.Logger
}

func NewMeterReadingHandler(service service.MeterReadingService, log *logger.Logger) *MeterReadingHandler {
	return &MeterReadingHandler{service: service, log: log}
}

// @Summary Submit a meter reading
// @Description Submit one meter value for an apartment, fee type and period
// @Tags MeterReadings
// @Accept json
// @Produce json
// @Param reading body dto.SubmitMeterReadingRequest true "Meter reading"
// @Success 201 {object} dto.MeterReadingResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 422 {object} ierr.ErrorResponse
// @Router /meter-readings [post]
func (h *MeterReadingHandler) SubmitReading(c *gin.Context) {
	var req dto.SubmitMeterReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.SubmitReading(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to submit meter reading", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary List readings of a building for a period
// @Tags MeterReadings
// @Produce json
// @Param building_id query string true "Building ID"
// @Param period query string true "Billing period (YYYY-MM)"
// @Success 200 {object} dto.ListMeterReadingsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /meter-readings [get]
func (h *MeterReadingHandler) ListReadings(c *gin.Context) {
	buildingID := c.Query("building_id")
	if buildingID == "" {
		c.Error(ierr.NewError("building_id is required").
			WithHint("Please provide the building ID").
			Mark(ierr.ErrValidation))
		return
	}
	period, err := types.ParseBillingPeriod(c.Query("period"))
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.service.ListReadings(c.Request.Context(), buildingID, period)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
