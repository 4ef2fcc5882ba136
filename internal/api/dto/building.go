package dto

import (
	"context"

	"github.com/towerbill/towerbill/internal/domain/building"
	"github.com/towerbill/towerbill/internal/types"
	"github.com/towerbill/towerbill/internal/validator"
)

// CreateBuildingRequest represents the request to register a new building.
type CreateBuildingRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Address string `json:"address,omitempty" validate:"max=512"`
	Floors  int    `json:"floors,omitempty" validate:"gte=0"`

	// ReadingWindowStart/End bound the day-of-month range within which meter
	// readings are accepted. Zero values fall back to the configured default.
	ReadingWindowStart int `json:"reading_window_start,omitempty" validate:"gte=0,lte=31"`
	ReadingWindowEnd   int `json:"reading_window_end,omitempty" validate:"gte=0,lte=31"`
}

func (r *CreateBuildingRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateBuildingRequest) ToBuilding(ctx context.Context) *building.Building {
	return &building.Building{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BUILDING),
		Name:               r.Name,
		Address:            r.Address,
		Floors:             r.Floors,
		ReadingWindowStart: r.ReadingWindowStart,
		ReadingWindowEnd:   r.ReadingWindowEnd,
		Active:             true,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}
}

// UpdateBuildingRequest carries a partial update; nil fields are left as-is.
type UpdateBuildingRequest struct {
	Name               *string `json:"name,omitempty" validate:"omitempty,max=255"`
	Address            *string `json:"address,omitempty" validate:"omitempty,max=512"`
	Floors             *int    `json:"floors,omitempty" validate:"omitempty,gte=0"`
	ReadingWindowStart *int    `json:"reading_window_start,omitempty" validate:"omitempty,gte=1,lte=31"`
	ReadingWindowEnd   *int    `json:"reading_window_end,omitempty" validate:"omitempty,gte=1,lte=31"`
	Active             *bool   `json:"active,omitempty"`
}

func (r *UpdateBuildingRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// BuildingResponse represents a building in API responses.
type BuildingResponse struct {
	*building.Building
}

type ListBuildingsResponse = types.ListResponse[*BuildingResponse]
