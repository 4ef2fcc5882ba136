package apartment

import (
	"github.com/shopspring/decimal"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// Apartment belongs to exactly one building. Area feeds per-area tariffs and
// UnitCount feeds per-unit tariffs; either may be unset, in which case the
// generator records a skip instead of guessing.
type Apartment struct {
	ID         string                `json:"id"`
	BuildingID string                `json:"building_id"`
	Code       string                `json:"code"`
	Floor      int                   `json:"floor,omitempty"`
	Area       *decimal.Decimal      `json:"area,omitempty"`
	UnitCount  *int                  `json:"unit_count,omitempty"`
	Occupancy  types.ApartmentStatus `json:"occupancy"`
	types.BaseModel
}

func (a *Apartment) Validate() error {
	if a.BuildingID == "" {
		return ierr.NewError("building id is required").
			WithHint("Please provide the owning building ID").
			Mark(ierr.ErrValidation)
	}
	if a.Code == "" {
		return ierr.NewError("apartment code is required").
			WithHint("Please provide an apartment code").
			Mark(ierr.ErrValidation)
	}
	if a.Area != nil && !a.Area.IsPositive() {
		return ierr.NewError("area must be positive").
			WithHint("Apartment area must be greater than zero").
			WithReportableDetails(map[string]interface{}{"area": a.Area.String()}).
			Mark(ierr.ErrValidation)
	}
	if a.UnitCount != nil && *a.UnitCount < 0 {
		return ierr.NewError("unit count must not be negative").
			WithHint("Apartment unit count must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return a.Occupancy.Validate()
}
