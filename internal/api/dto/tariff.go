package dto

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/towerbill/towerbill/internal/domain/tariff"
	"github.com/towerbill/towerbill/internal/types"
	"github.com/towerbill/towerbill/internal/validator"
)

// CreateTariffRequest represents the request to quote a new price for a
// (building, fee type) pair. Tariffs are append-only; the new version
// supersedes the previous one from its creation instant onward.
type CreateTariffRequest struct {
	BuildingID        string                  `json:"building_id" validate:"required"`
	FeeType           types.FeeType           `json:"fee_type" validate:"required,max=64"`
	CalculationMethod types.CalculationMethod `json:"calculation_method" validate:"required"`
	UnitPrice         decimal.Decimal         `json:"unit_price"`
	UnitLabel         string                  `json:"unit_label,omitempty" validate:"max=32"`
}

func (r *CreateTariffRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.CalculationMethod.Validate()
}

func (r *CreateTariffRequest) ToTariff(ctx context.Context) *tariff.Tariff {
	return &tariff.Tariff{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TARIFF),
		BuildingID:        r.BuildingID,
		FeeType:           r.FeeType,
		CalculationMethod: r.CalculationMethod,
		UnitPrice:         r.UnitPrice,
		UnitLabel:         r.UnitLabel,
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
}

// TariffResponse represents one tariff version in API responses.
type TariffResponse struct {
	*tariff.Tariff
}

type ListTariffsResponse = types.ListResponse[*TariffResponse]
