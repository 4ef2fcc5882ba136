package reading

import (
	"time"

	"github.com/shopspring/decimal"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// MeterReading is one submitted meter value for (apartment, fee type, period).
// Window legality is checked at submission and re-checked at generation time.
type MeterReading struct {
	ID          string              `json:"id"`
	ApartmentID string              `json:"apartment_id"`
	BuildingID  string              `json:"building_id"`
	FeeType     types.FeeType       `json:"fee_type"`
	Period      types.BillingPeriod `json:"period"`
	Value       decimal.Decimal     `json:"value"`
	SubmittedAt time.Time           `json:"submitted_at"`
	types.BaseModel
}

func (r *MeterReading) Validate() error {
	if r.ApartmentID == "" {
		return ierr.NewError("apartment id is required").
			WithHint("Please provide the apartment ID").
			Mark(ierr.ErrValidation)
	}
	if r.FeeType == "" {
		return ierr.NewError("fee type is required").
			WithHint("Please provide the metered fee type").
			Mark(ierr.ErrValidation)
	}
	if err := r.Period.Validate(); err != nil {
		return err
	}
	if r.Value.IsNegative() {
		return ierr.NewError("reading value must not be negative").
			WithHint("Meter reading value must be zero or positive").
			WithReportableDetails(map[string]interface{}{"value": r.Value.String()}).
			Mark(ierr.ErrValidation)
	}
	if r.SubmittedAt.IsZero() {
		return ierr.NewError("submission time is required").
			WithHint("Please provide the submission timestamp").
			Mark(ierr.ErrValidation)
	}
	return nil
}
