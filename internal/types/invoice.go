package types

import (
	"time"

	"github.com/samber/lo"
	ierr "github.com/towerbill/towerbill/internal/errors"
)

// InvoiceStatus is the payment lifecycle of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// invoiceTransitions is the full set of legal status moves. Paid and
// cancelled are terminal.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusPending: {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCancelled},
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	return lo.Contains(invoiceTransitions[s], target)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusPending,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Invoice status must be one of pending, paid, overdue, cancelled").
			WithReportableDetails(map[string]interface{}{"invoice_status": s}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoiceFilter filters invoice listings.
type InvoiceFilter struct {
	*QueryFilter
	BuildingIDs   []string        `json:"building_ids,omitempty" form:"building_id"`
	ApartmentIDs  []string        `json:"apartment_ids,omitempty" form:"apartment_id"`
	FeeTypes      []FeeType       `json:"fee_types,omitempty" form:"fee_type"`
	InvoiceStatus []InvoiceStatus `json:"invoice_status,omitempty" form:"invoice_status"`
	Period        *BillingPeriod  `json:"period,omitempty"`
	// PeriodEndBefore selects invoices whose period ended before the given
	// instant. Used by the overdue sweep.
	PeriodEndBefore *time.Time `json:"period_end_before,omitempty"`
}

func NewInvoiceFilter() *InvoiceFilter {
	return &InvoiceFilter{QueryFilter: NewDefaultQueryFilter()}
}

func (f *InvoiceFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	for _, s := range f.InvoiceStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	if f.Period != nil {
		return f.Period.Validate()
	}
	return nil
}
