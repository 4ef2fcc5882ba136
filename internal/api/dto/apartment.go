package dto

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/towerbill/towerbill/internal/domain/apartment"
	"github.com/towerbill/towerbill/internal/types"
	"github.com/towerbill/towerbill/internal/validator"
)

// CreateApartmentRequest represents the request to add an apartment to a
// building's roster.
type CreateApartmentRequest struct {
	BuildingID string `json:"building_id" validate:"required"`
	Code       string `json:"code" validate:"required,max=64"`
	Floor      int    `json:"floor,omitempty"`

	// Area and UnitCount are optional billing attributes. A tariff that needs
	// a missing attribute produces a skip at generation time, not an error.
	Area      *decimal.Decimal      `json:"area,omitempty"`
	UnitCount *int                  `json:"unit_count,omitempty" validate:"omitempty,gte=0"`
	Occupancy types.ApartmentStatus `json:"occupancy,omitempty"`
}

func (r *CreateApartmentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Occupancy != "" {
		return r.Occupancy.Validate()
	}
	return nil
}

func (r *CreateApartmentRequest) ToApartment(ctx context.Context) *apartment.Apartment {
	occupancy := r.Occupancy
	if occupancy == "" {
		occupancy = types.ApartmentStatusOccupied
	}
	return &apartment.Apartment{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_APARTMENT),
		BuildingID: r.BuildingID,
		Code:       r.Code,
		Floor:      r.Floor,
		Area:       r.Area,
		UnitCount:  r.UnitCount,
		Occupancy:  occupancy,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
}

// UpdateApartmentRequest carries a partial update; nil fields are left as-is.
type UpdateApartmentRequest struct {
	Code      *string                `json:"code,omitempty" validate:"omitempty,max=64"`
	Floor     *int                   `json:"floor,omitempty"`
	Area      *decimal.Decimal       `json:"area,omitempty"`
	UnitCount *int                   `json:"unit_count,omitempty" validate:"omitempty,gte=0"`
	Occupancy *types.ApartmentStatus `json:"occupancy,omitempty"`
}

func (r *UpdateApartmentRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Occupancy != nil {
		return r.Occupancy.Validate()
	}
	return nil
}

// ApartmentResponse represents an apartment in API responses.
type ApartmentResponse struct {
	*apartment.Apartment
}

type ListApartmentsResponse = types.ListResponse[*ApartmentResponse]
