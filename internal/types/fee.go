package types

import (
	"github.com/samber/lo"
	ierr "github.com/towerbill/towerbill/internal/errors"
)

// FeeType is a named category of charge, e.g. water or maintenance. Fee types
// are free-form per building; the tariff binds one to a calculation method.
type FeeType string

// CalculationMethod determines how a tariff turns into an invoice amount.
type CalculationMethod string

const (
	// CalculationMethodFlat charges the unit price as-is.
	CalculationMethodFlat CalculationMethod = "flat"
	// CalculationMethodPerUnit multiplies the unit price by the apartment's
	// registered unit count (e.g. parking spots).
	CalculationMethodPerUnit CalculationMethod = "per_unit"
	// CalculationMethodPerArea multiplies the unit price by the apartment area.
	CalculationMethodPerArea CalculationMethod = "per_area"
	// CalculationMethodMetered multiplies the unit price by the submitted
	// meter reading for the period.
	CalculationMethodMetered CalculationMethod = "metered"
)

func (m CalculationMethod) Validate() error {
	allowed := []CalculationMethod{
		CalculationMethodFlat,
		CalculationMethodPerUnit,
		CalculationMethodPerArea,
		CalculationMethodMetered,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid calculation method").
			WithHint("Calculation method must be one of flat, per_unit, per_area, metered").
			WithReportableDetails(map[string]interface{}{"calculation_method": m}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// TariffFilter filters tariff history lookups.
type TariffFilter struct {
	*QueryFilter
	BuildingIDs []string  `json:"building_ids,omitempty" form:"building_id"`
	FeeTypes    []FeeType `json:"fee_types,omitempty" form:"fee_type"`
}

func NewTariffFilter() *TariffFilter {
	return &TariffFilter{QueryFilter: NewDefaultQueryFilter()}
}

func (f *TariffFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	return f.QueryFilter.Validate()
}
