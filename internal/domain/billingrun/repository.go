package billingrun

import (
	"context"

	"github.com/towerbill/towerbill/internal/types"
)

// Repository defines the interface for billing run persistence operations
type Repository interface {
	// Create stores a new run; at most one exists per (building, period)
	Create(ctx context.Context, run *BillingRun) error

	// Get retrieves a run by ID
	Get(ctx context.Context, id string) (*BillingRun, error)

	// GetByBuildingAndPeriod retrieves the run for (building, period).
	// Returns a not-found error when generation never started for the cycle.
	GetByBuildingAndPeriod(ctx context.Context, buildingID string, period types.BillingPeriod) (*BillingRun, error)

	// TransitionStatus compare-and-swaps the run status. The write is
	// rejected with a conflict error when the stored status no longer
	// equals from; that rejection is the generation mutual-exclusion gate.
	TransitionStatus(ctx context.Context, id string, from, to types.BillingRunStatus) error

	// Update persists run fields other than the status column
	// (recorded result, timestamps, metadata).
	Update(ctx context.Context, run *BillingRun) error
}
