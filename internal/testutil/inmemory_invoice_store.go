package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/towerbill/towerbill/internal/domain/invoice"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]

	mu   sync.Mutex
	keys map[string]string // composite key -> invoice ID
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
		keys:          make(map[string]string),
	}
}

func invoiceKey(apartmentID string, feeType types.FeeType, period types.BillingPeriod) string {
	return fmt.Sprintf("%s|%s|%s", apartmentID, feeType, period)
}

func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}
	copied := *inv
	if inv.PaidAt != nil {
		paidAt := *inv.PaidAt
		copied.PaidAt = &paidAt
	}
	return &copied
}

// CreateBatch is all-or-nothing: uniqueness of every row is checked under the
// key lock before any row is inserted.
func (s *InMemoryInvoiceStore) CreateBatch(ctx context.Context, invoices []*invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inv := range invoices {
		key := invoiceKey(inv.ApartmentID, inv.FeeType, inv.Period)
		if _, ok := s.keys[key]; ok {
			return ierr.NewError("invoice already exists").
				WithHint("An invoice already exists for this apartment, fee type and period").
				WithReportableDetails(map[string]interface{}{
					"apartment_id": inv.ApartmentID,
					"fee_type":     inv.FeeType,
					"period":       inv.Period.String(),
				}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	for _, inv := range invoices {
		if err := s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv)); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create invoice").
				Mark(ierr.ErrDatabase)
		}
		s.keys[invoiceKey(inv.ApartmentID, inv.FeeType, inv.Period)] = inv.ID
	}
	return nil
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || inv.Status == types.StatusDeleted {
		return nil, ierr.NewError("invoice not found").
			WithHint("No invoice exists with the given ID").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) GetByKey(ctx context.Context, apartmentID string, feeType types.FeeType, period types.BillingPeriod) (*invoice.Invoice, error) {
	s.mu.Lock()
	id, ok := s.keys[invoiceKey(apartmentID, feeType, period)]
	s.mu.Unlock()
	if !ok {
		return nil, ierr.NewError("invoice not found").
			WithHint("No invoice exists with the given key").
			Mark(ierr.ErrNotFound)
	}
	return s.Get(ctx, id)
}

func (s *InMemoryInvoiceStore) UpdateStatus(ctx context.Context, id string, from, to types.InvoiceStatus, paidAt *time.Time) error {
	err := s.InMemoryStore.Mutate(ctx, id, func(inv *invoice.Invoice) (*invoice.Invoice, error) {
		if inv.InvoiceStatus != from {
			return nil, ierr.NewError("invoice status changed concurrently").
				WithHint("The invoice status changed since it was read; re-read and retry").
				WithReportableDetails(map[string]interface{}{
					"invoice_id":      id,
					"expected_status": from,
					"actual_status":   inv.InvoiceStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		updated := copyInvoice(inv)
		updated.InvoiceStatus = to
		if paidAt != nil {
			updated.PaidAt = paidAt
		}
		updated.UpdatedAt = time.Now().UTC()
		return updated, nil
	})
	if err == ErrNotFound {
		return ierr.NewError("invoice not found").
			WithHint("No invoice exists with the given ID").
			Mark(ierr.ErrNotFound)
	}
	return err
}

func invoiceFilterFn(_ context.Context, inv *invoice.Invoice, raw interface{}) bool {
	filter, ok := raw.(*types.InvoiceFilter)
	if !ok || filter == nil {
		return inv.Status == types.StatusPublished
	}
	if inv.Status != filter.GetStatus() {
		return false
	}
	if len(filter.BuildingIDs) > 0 && !lo.Contains(filter.BuildingIDs, inv.BuildingID) {
		return false
	}
	if len(filter.ApartmentIDs) > 0 && !lo.Contains(filter.ApartmentIDs, inv.ApartmentID) {
		return false
	}
	if len(filter.FeeTypes) > 0 && !lo.Contains(filter.FeeTypes, inv.FeeType) {
		return false
	}
	if len(filter.InvoiceStatus) > 0 && !lo.Contains(filter.InvoiceStatus, inv.InvoiceStatus) {
		return false
	}
	if filter.Period != nil && inv.Period != *filter.Period {
		return false
	}
	if filter.PeriodEndBefore != nil && !inv.PeriodEnd.Before(*filter.PeriodEndBefore) {
		return false
	}
	return true
}

func invoiceSortFn(a, b *invoice.Invoice) bool {
	return a.CreatedAt.After(b.CreatedAt)
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	invoices, err := s.InMemoryStore.List(ctx, filter, invoiceFilterFn, invoiceSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(invoices, func(inv *invoice.Invoice, _ int) *invoice.Invoice {
		return copyInvoice(inv)
	}), nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, invoiceFilterFn)
}
