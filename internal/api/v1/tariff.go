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

type TariffHandler struct {
	service service.FeeCatalogService
	log     *logger.Logger
}

func NewTariffHandler(service service.FeeCatalogService, log *logger.Logger) *TariffHandler {
	return &TariffHandler{service: service, log: log}
}

// @Summary Quote a new tariff version
// @Description Append a new price version for a building and fee type
// @Tags Tariffs
// @Accept json
// @Produce json
// @Param tariff body dto.CreateTariffRequest true "Tariff configuration"
// @Success 201 {object} dto.TariffResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 422 {object} ierr.ErrorResponse
// @Router /tariffs [post]
func (h *TariffHandler) CreateTariff(c *gin.Context) {
	var req dto.CreateTariffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateTariff(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to create tariff", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a tariff version by ID
// @Tags Tariffs
// @Produce json
// @Param id path string true "Tariff ID"
// @Success 200 {object} dto.TariffResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /tariffs/{id} [get]
func (h *TariffHandler) GetTariff(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Tariff ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetTariff(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List tariff history
// @Tags Tariffs
// @Produce json
// @Param filter query types.TariffFilter false "Filter"
// @Success 200 {object} dto.ListTariffsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /tariffs [get]
func (h *TariffHandler) ListTariffs(c *gin.Context) {
	var filter types.TariffFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	resp, err := h.service.ListTariffs(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
