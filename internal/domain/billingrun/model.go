package billingrun

import (
	"time"

	"github.com/towerbill/towerbill/internal/types"
)

// BillingRun is the persisted state of one (building, period) generation
// cycle. Its status column is the serialization point: Open→Closing is a
// compare-and-swap and only the holder of that swap may write invoices for
// the cycle. The recorded result makes closed-period re-invocation a replay.
type BillingRun struct {
	ID         string                  `json:"id"`
	BuildingID string                  `json:"building_id"`
	Period     types.BillingPeriod     `json:"period"`
	RunStatus  types.BillingRunStatus  `json:"run_status"`
	Result     *types.GenerationResult `json:"result,omitempty"`
	StartedAt  *time.Time              `json:"started_at,omitempty"`
	ClosedAt   *time.Time              `json:"closed_at,omitempty"`
	ClosedBy   string                  `json:"closed_by,omitempty"`
	Metadata   types.Metadata          `json:"metadata,omitempty"`
	types.BaseModel
}

// IsClosed reports whether the cycle is finalized.
func (r *BillingRun) IsClosed() bool {
	return r.RunStatus == types.BillingRunStatusClosed
}

// AcceptsReadings reports whether meter readings may still be submitted for
// this cycle. Once generation starts (Closing) submissions are rejected.
func (r *BillingRun) AcceptsReadings() bool {
	return r.RunStatus == types.BillingRunStatusOpen
}
