package dto

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/towerbill/towerbill/internal/domain/reading"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
	"github.com/towerbill/towerbill/internal/validator"
)

// SubmitMeterReadingRequest represents the submission of one meter value for
// an apartment, fee type and billing period.
type SubmitMeterReadingRequest struct {
	ApartmentID string          `json:"apartment_id" validate:"required"`
	FeeType     types.FeeType   `json:"fee_type" validate:"required,max=64"`
	Period      string          `json:"period" validate:"required"`
	Value       decimal.Decimal `json:"value"`

	// SubmittedAt defaults to now when omitted. It is the instant checked
	// against the building's reading window.
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

func (r *SubmitMeterReadingRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if _, err := types.ParseBillingPeriod(r.Period); err != nil {
		return err
	}
	if r.Value.IsNegative() {
		return ierr.NewError("reading value must not be negative").
			WithHint("Meter reading value must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *SubmitMeterReadingRequest) ToMeterReading(ctx context.Context, buildingID string) *reading.MeterReading {
	period, _ := types.ParseBillingPeriod(r.Period)
	submittedAt := time.Now().UTC()
	if r.SubmittedAt != nil {
		submittedAt = r.SubmittedAt.UTC()
	}
	return &reading.MeterReading{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_METER_READING),
		ApartmentID: r.ApartmentID,
		BuildingID:  buildingID,
		FeeType:     r.FeeType,
		Period:      period,
		Value:       r.Value,
		SubmittedAt: submittedAt,
		BaseModel:   types.GetDefaultBaseModel(ctx),
	}
}

// MeterReadingResponse represents a stored reading in API responses.
type MeterReadingResponse struct {
	*reading.MeterReading
}

type ListMeterReadingsResponse = types.ListResponse[*MeterReadingResponse]
