package types

import (
	"github.com/samber/lo"
	ierr "github.com/towerbill/towerbill/internal/errors"
)

// ApartmentStatus is the occupancy state of an apartment. Only occupied and
// vacant apartments are invoiced; under-renovation units are skipped.
type ApartmentStatus string

const (
	ApartmentStatusOccupied   ApartmentStatus = "occupied"
	ApartmentStatusVacant     ApartmentStatus = "vacant"
	ApartmentStatusRenovation ApartmentStatus = "renovation"
)

func (s ApartmentStatus) Validate() error {
	allowed := []ApartmentStatus{
		ApartmentStatusOccupied,
		ApartmentStatusVacant,
		ApartmentStatusRenovation,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid apartment status").
			WithHint("Apartment status must be one of occupied, vacant, renovation").
			WithReportableDetails(map[string]interface{}{"apartment_status": s}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Billable reports whether apartments in this state receive invoices.
func (s ApartmentStatus) Billable() bool {
	return s == ApartmentStatusOccupied || s == ApartmentStatusVacant
}

// ApartmentFilter filters apartment roster lookups.
type ApartmentFilter struct {
	*QueryFilter
	BuildingIDs       []string          `json:"building_ids,omitempty" form:"building_id"`
	ApartmentStatuses []ApartmentStatus `json:"apartment_statuses,omitempty" form:"apartment_status"`
}

func NewApartmentFilter() *ApartmentFilter {
	return &ApartmentFilter{QueryFilter: NewDefaultQueryFilter()}
}

func (f *ApartmentFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	for _, s := range f.ApartmentStatuses {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
