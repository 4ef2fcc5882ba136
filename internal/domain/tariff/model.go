package tariff

import (
	"time"

	"github.com/shopspring/decimal"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// Tariff is one price quotation version for a (building, fee type) pair.
// Tariffs are append-only: creating a new one supersedes the previous active
// entry, history is retained for audit. The active tariff as of an instant is
// the most recently created one at or before that instant.
type Tariff struct {
	ID                string                  `json:"id"`
	BuildingID        string                  `json:"building_id"`
	FeeType           types.FeeType           `json:"fee_type"`
	CalculationMethod types.CalculationMethod `json:"calculation_method"`
	UnitPrice         decimal.Decimal         `json:"unit_price"`
	UnitLabel         string                  `json:"unit_label,omitempty"`
	types.BaseModel
}

func (t *Tariff) Validate() error {
	if t.BuildingID == "" {
		return ierr.NewError("building id is required").
			WithHint("Please provide the building ID the tariff applies to").
			Mark(ierr.ErrValidation)
	}
	if t.FeeType == "" {
		return ierr.NewError("fee type is required").
			WithHint("Please provide a fee type, e.g. water or maintenance").
			Mark(ierr.ErrValidation)
	}
	if err := t.CalculationMethod.Validate(); err != nil {
		return err
	}
	if !t.UnitPrice.IsPositive() {
		return ierr.NewError("unit price must be positive").
			WithHint("Tariff unit price must be greater than zero").
			WithReportableDetails(map[string]interface{}{"unit_price": t.UnitPrice.String()}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ActiveAt reports whether this tariff version existed at the given instant.
func (t *Tariff) ActiveAt(asOf time.Time) bool {
	return !t.CreatedAt.After(asOf)
}
