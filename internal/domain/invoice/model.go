package invoice

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/towerbill/towerbill/internal/types"
)

// Invoice is one charge for (apartment, fee type, billing period). The triple
// is unique; generation never creates a second invoice for the same key.
// Amount is immutable once the status leaves pending.
type Invoice struct {
	ID            string              `json:"id"`
	ApartmentID   string              `json:"apartment_id"`
	BuildingID    string              `json:"building_id"`
	FeeType       types.FeeType       `json:"fee_type"`
	Amount        decimal.Decimal     `json:"amount"`
	InvoiceStatus types.InvoiceStatus `json:"invoice_status"`
	Period        types.BillingPeriod `json:"period"`
	PeriodStart   time.Time           `json:"period_start"`
	PeriodEnd     time.Time           `json:"period_end"`
	IssuedBy      string              `json:"issued_by,omitempty"`
	PaidAt        *time.Time          `json:"paid_at,omitempty"`
	types.BaseModel
}

// IsTerminal reports whether the invoice can no longer change status.
func (i *Invoice) IsTerminal() bool {
	return i.InvoiceStatus == types.InvoiceStatusPaid || i.InvoiceStatus == types.InvoiceStatusCancelled
}

// OverdueEligible reports whether the invoice qualifies for the overdue sweep
// at the given instant: still pending and its period ended more than
// overdueAfterDays ago.
func (i *Invoice) OverdueEligible(asOf time.Time, overdueAfterDays int) bool {
	if i.InvoiceStatus != types.InvoiceStatusPending {
		return false
	}
	return asOf.After(i.PeriodEnd.AddDate(0, 0, overdueAfterDays))
}
