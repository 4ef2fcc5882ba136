package reading

import (
	"context"

	"github.com/towerbill/towerbill/internal/types"
)

// Repository defines the interface for meter reading persistence operations
type Repository interface {
	// Create stores a new reading; at most one exists per
	// (apartment, fee type, period)
	Create(ctx context.Context, r *MeterReading) error

	// GetByKey retrieves the reading for (apartment, fee type, period).
	// Returns a not-found error when none was submitted.
	GetByKey(ctx context.Context, apartmentID string, feeType types.FeeType, period types.BillingPeriod) (*MeterReading, error)

	// ListByBuildingPeriod retrieves all readings of a building for a period
	ListByBuildingPeriod(ctx context.Context, buildingID string, period types.BillingPeriod) ([]*MeterReading, error)
}
