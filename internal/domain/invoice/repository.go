package invoice

import (
	"context"
	"time"

	"github.com/towerbill/towerbill/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// CreateBatch stores a set of invoices atomically; either all rows of a
	// generation run are committed or none
	CreateBatch(ctx context.Context, invoices []*Invoice) error

	// Get retrieves an invoice by ID
	Get(ctx context.Context, id string) (*Invoice, error)

	// GetByKey retrieves the invoice for (apartment, fee type, period).
	// Returns a not-found error when none exists.
	GetByKey(ctx context.Context, apartmentID string, feeType types.FeeType, period types.BillingPeriod) (*Invoice, error)

	// UpdateStatus transitions the invoice status with a compare-and-swap on
	// the current status: the write is rejected when the stored status no
	// longer equals from. paidAt is set only on transitions to paid.
	UpdateStatus(ctx context.Context, id string, from, to types.InvoiceStatus, paidAt *time.Time) error

	// List retrieves invoices with filters
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// Count returns the count of invoices matching the filter
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)
}
