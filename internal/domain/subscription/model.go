package subscription

import (
	"time"

	"github.com/shopspring/decimal"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// Subscription is a project-level SaaS subscription. Expiry is observed, not
// pushed: an active subscription past ExpiresAt reads as expired when
// evaluated, and the sweep persists that observation.
type Subscription struct {
	ID            string                   `json:"id"`
	ProjectID     string                   `json:"project_id"`
	PlanCode      string                   `json:"plan_code"`
	Amount        decimal.Decimal          `json:"amount"`
	AmountPaid    decimal.Decimal          `json:"amount_paid"`
	NumMonths     int                      `json:"num_months"`
	ExpiresAt     time.Time                `json:"expires_at"`
	SubStatus     types.SubscriptionStatus `json:"sub_status"`
	ApprovedAt    *time.Time               `json:"approved_at,omitempty"`
	RenewedFromID *string                  `json:"renewed_from_id,omitempty"`
	types.BaseModel
}

func (s *Subscription) Validate() error {
	if s.ProjectID == "" {
		return ierr.NewError("project id is required").
			WithHint("Please provide the owning project ID").
			Mark(ierr.ErrValidation)
	}
	if s.PlanCode == "" {
		return ierr.NewError("plan code is required").
			WithHint("Please provide a plan code").
			Mark(ierr.ErrValidation)
	}
	if !s.Amount.IsPositive() {
		return ierr.NewError("amount must be positive").
			WithHint("Subscription amount must be greater than zero").
			WithReportableDetails(map[string]interface{}{"amount": s.Amount.String()}).
			Mark(ierr.ErrValidation)
	}
	if s.AmountPaid.IsNegative() {
		return ierr.NewError("amount paid must not be negative").
			WithHint("Amount paid must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if s.NumMonths < 1 {
		return ierr.NewError("num months must be at least 1").
			WithHint("Subscription length must be at least one month").
			Mark(ierr.ErrValidation)
	}
	return s.SubStatus.Validate()
}

// FullyPaid reports whether the recorded payments cover the amount.
func (s *Subscription) FullyPaid() bool {
	return s.AmountPaid.GreaterThanOrEqual(s.Amount)
}

// ExpiredAsOf reports whether an active subscription has passed its expiry.
func (s *Subscription) ExpiredAsOf(now time.Time) bool {
	return s.SubStatus == types.SubscriptionStatusActive && now.After(s.ExpiresAt)
}
