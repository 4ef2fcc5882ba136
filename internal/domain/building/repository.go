package building

import (
	"context"

	"github.com/towerbill/towerbill/internal/types"
)

// Repository defines the interface for building persistence operations
type Repository interface {
	// Create creates a new building
	Create(ctx context.Context, b *Building) error

	// Get retrieves a building by ID
	Get(ctx context.Context, id string) (*Building, error)

	// Update updates an existing building
	Update(ctx context.Context, b *Building) error

	// List retrieves buildings with filters
	List(ctx context.Context, filter *types.BuildingFilter) ([]*Building, error)

	// Count returns the count of buildings matching the filter
	Count(ctx context.Context, filter *types.BuildingFilter) (int, error)
}
