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

type BuildingHandler struct {
	service service.BuildingService
	log     *logger.Logger
}

func NewBuildingHandler(service service.BuildingService, log *logger.Logger) *BuildingHandler {
	return &BuildingHandler{service: service, log: log}
}

// @Summary Register a new building
// @Description Register a building with its reading window configuration
// @Tags Buildings
// @Accept json
// @Produce json
// @Param building body dto.CreateBuildingRequest true "Building configuration"
// @Success 201 {object} dto.BuildingResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /buildings [post]
func (h *BuildingHandler) CreateBuilding(c *gin.Context) {
	var req dto.CreateBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateBuilding(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to create building", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a building by ID
// @Tags Buildings
// @Produce json
// @Param id path string true "Building ID"
// @Success 200 {object} dto.BuildingResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /buildings/{id} [get]
func (h *BuildingHandler) GetBuilding(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Building ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetBuilding(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Update a building
// @Description Update building attributes, including the reading window
// @Tags Buildings
// @Accept json
// @Produce json
// @Param id path string true "Building ID"
// @Param building body dto.UpdateBuildingRequest true "Fields to update"
// @Success 200 {object} dto.BuildingResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /buildings/{id} [put]
func (h *BuildingHandler) UpdateBuilding(c *gin.Context) {
	id := c.Param("id")
	var req dto.UpdateBuildingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.UpdateBuilding(c.Request.Context(), id, &req)
	if err != nil {
		h.log.Error("Failed to update building", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List buildings
// @Tags Buildings
// @Produce json
// @Param filter query types.BuildingFilter false "Filter"
// @Success 200 {object} dto.ListBuildingsResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /buildings [get]
func (h *BuildingHandler) ListBuildings(c *gin.Context) {
	var filter types.BuildingFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}

	resp, err := h.service.ListBuildings(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
