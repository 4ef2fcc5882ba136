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

type ApartmentHandler struct {
	service service.ApartmentService
	log     *logger.Logger
}

func NewApartmentHandler(service service.ApartmentService, log *logger.Logger) *ApartmentHandler {
	return &ApartmentHandler{service: service, log: log}
}

// @Summary Add an apartment to a building
// @Tags Apartments
// @Accept json
// @Produce json
// @Param apartment body dto.CreateApartmentRequest true "Apartment configuration"
// @Success 201 {object} dto.ApartmentResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /apartments [post]
func (h *ApartmentHandler) CreateApartment(c *gin.Context) {
	var req dto.CreateApartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateApartment(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to create apartment", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get an apartment by ID
// @Tags Apartments
// @Produce json
// @Param id path string true "Apartment ID"
// @Success 200 {object} dto.ApartmentResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /apartments/{id} [get]
func (h *ApartmentHandler) GetApartment(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Apartment ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetApartment(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update an apartment
// @Tags Apartments
// @Accept json
// @Produce json
// @Param id path string true "Apartment ID"
// @Param apartment body dto.UpdateApartmentRequest true "Fields to update"
// @Success 200 {object} dto.ApartmentResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /apartments/{id} [put]
func (h *ApartmentHandler) UpdateApartment(c *gin.Context) {
	id := c.Param("id")
	var req dto.UpdateApartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateApartment(c.Request.Context(), id, &req)
	if err != nil {
		h.log.Error("Failed to update apartment", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List apartments
// @Tags Apartments
// @Produce json
// @Param filter query types.ApartmentFilter false "Filter"
// @Success 200 {object} dto.ListApartmentsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /apartments [get]
func (h *ApartmentHandler) ListApartments(c *gin.Context) {
	var filter types.ApartmentFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	resp, err := h.service.ListApartments(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
