package dto

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/towerbill/towerbill/internal/domain/subscription"
	"github.com/towerbill/towerbill/internal/types"
	"github.com/towerbill/towerbill/internal/validator"
)

// CreateSubscriptionRequest represents the request to open a subscription for
// a project. It starts in pending_approval until payment is confirmed.
type CreateSubscriptionRequest struct {
	ProjectID string          `json:"project_id" validate:"required"`
	PlanCode  string          `json:"plan_code" validate:"required,max=64"`
	Amount    decimal.Decimal `json:"amount"`
	NumMonths int             `json:"num_months" validate:"required,gte=1,lte=60"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *CreateSubscriptionRequest) ToSubscription(ctx context.Context, now time.Time) *subscription.Subscription {
	return &subscription.Subscription{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		ProjectID:  r.ProjectID,
		PlanCode:   r.PlanCode,
		Amount:     r.Amount,
		AmountPaid: decimal.Zero,
		NumMonths:  r.NumMonths,
		ExpiresAt:  now.AddDate(0, r.NumMonths, 0),
		SubStatus:  types.SubscriptionStatusPendingApproval,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
}

// RecordSubscriptionPaymentRequest records a received payment against a
// pending subscription.
type RecordSubscriptionPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (r *RecordSubscriptionPaymentRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// RenewSubscriptionRequest opens a successor subscription that starts when
// the current one expires.
type RenewSubscriptionRequest struct {
	NumMonths int             `json:"num_months" validate:"required,gte=1,lte=60"`
	Amount    decimal.Decimal `json:"amount"`
}

func (r *RenewSubscriptionRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// SweepExpiredResponse reports the outcome of an expiry sweep.
type SweepExpiredResponse struct {
	MarkedExpired   int      `json:"marked_expired"`
	SubscriptionIDs []string `json:"subscription_ids"`
}

// SubscriptionResponse represents a subscription in API responses.
type SubscriptionResponse struct {
	*subscription.Subscription
}

type ListSubscriptionsResponse = types.ListResponse[*SubscriptionResponse]
