package apartment

import (
	"context"

	"github.com/towerbill/towerbill/internal/types"
)

// Repository defines the interface for apartment persistence operations
type Repository interface {
	// Create creates a new apartment
	Create(ctx context.Context, a *Apartment) error

	// Get retrieves an apartment by ID
	Get(ctx context.Context, id string) (*Apartment, error)

	// Update updates an existing apartment
	Update(ctx context.Context, a *Apartment) error

	// ListByBuilding retrieves all apartments of a building
	ListByBuilding(ctx context.Context, buildingID string) ([]*Apartment, error)

	// List retrieves apartments with filters
	List(ctx context.Context, filter *types.ApartmentFilter) ([]*Apartment, error)

	// Count returns the count of apartments matching the filter
	Count(ctx context.Context, filter *types.ApartmentFilter) (int, error)
}
