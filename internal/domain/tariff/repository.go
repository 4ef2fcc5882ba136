package tariff

import (
	"context"
	"time"

	"github.com/towerbill/towerbill/internal/types"
)

// Repository defines the interface for tariff persistence operations.
// Tariffs are never updated or deleted, only appended.
type Repository interface {
	// Create appends a new tariff version
	Create(ctx context.Context, t *Tariff) error

	// Get retrieves a tariff by ID
	Get(ctx context.Context, id string) (*Tariff, error)

	// GetActive retrieves the tariff for (building, fee type) whose validity
	// interval contains asOf, i.e. the most recent version created at or
	// before asOf. Returns a not-found error when no version applies.
	GetActive(ctx context.Context, buildingID string, feeType types.FeeType, asOf time.Time) (*Tariff, error)

	// ListFeeTypes returns the distinct fee types that have at least one
	// tariff version for the building created at or before asOf.
	ListFeeTypes(ctx context.Context, buildingID string, asOf time.Time) ([]types.FeeType, error)

	// List retrieves tariff history with filters
	List(ctx context.Context, filter *types.TariffFilter) ([]*Tariff, error)

	// Count returns the count of tariffs matching the filter
	Count(ctx context.Context, filter *types.TariffFilter) (int, error)
}
