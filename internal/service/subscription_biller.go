package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/towerbill/towerbill/internal/api/dto"
	"github.com/towerbill/towerbill/internal/domain/subscription"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// SubscriptionBillerService manages project-level SaaS subscriptions. A
// subscription activates only once fully paid; expiry is observed by the
// sweep rather than pushed by a timer.
type SubscriptionBillerService interface {
	CreateSubscription(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error)
	ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error)

	// RecordPayment credits a received payment against the subscription.
	RecordPayment(ctx context.Context, id string, req *dto.RecordSubscriptionPaymentRequest) (*dto.SubscriptionResponse, error)

	// Approve activates a pending subscription. Approval requires the
	// recorded payments to cover the full amount.
	Approve(ctx context.Context, id string) (*dto.SubscriptionResponse, error)

	// Renew opens a successor subscription that takes over when the current
	// one ends.
	Renew(ctx context.Context, id string, req *dto.RenewSubscriptionRequest) (*dto.SubscriptionResponse, error)

	// SweepExpired persists the expired state of every active subscription
	// past its expiry instant.
	SweepExpired(ctx context.Context, now time.Time) (*dto.SweepExpiredResponse, error)
}

type subscriptionBillerService struct {
	ServiceParams
}

func NewSubscriptionBillerService(params ServiceParams) SubscriptionBillerService {
	return &subscriptionBillerService{ServiceParams: params}
}

func (s *subscriptionBillerService) CreateSubscription(ctx context.Context, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub := req.ToSubscription(ctx, time.Now().UTC())
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := s.SubscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("created subscription",
		"subscription_id", sub.ID,
		"project_id", sub.ProjectID,
		"plan_code", sub.PlanCode,
		"num_months", sub.NumMonths,
	)
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionBillerService) GetSubscription(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionBillerService) ListSubscriptions(ctx context.Context, filter *types.SubscriptionFilter) (*dto.ListSubscriptionsResponse, error) {
	if filter == nil {
		filter = types.NewSubscriptionFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	subs, err := s.SubscriptionRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.SubscriptionRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListSubscriptionsResponse{
		Items: lo.Map(subs, func(sub *subscription.Subscription, _ int) *dto.SubscriptionResponse {
			return &dto.SubscriptionResponse{Subscription: sub}
		}),
		Pagination: types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *subscriptionBillerService) RecordPayment(ctx context.Context, id string, req *dto.RecordSubscriptionPaymentRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, ierr.NewError("payment amount must be positive").
			WithHint("Payment amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}

	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.SubStatus == types.SubscriptionStatusCancelled || sub.SubStatus == types.SubscriptionStatusExpired {
		return nil, ierr.NewError("subscription no longer accepts payments").
			WithHint("Payments can only be recorded on pending or active subscriptions").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": sub.ID,
				"sub_status":      sub.SubStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	sub.AmountPaid = sub.AmountPaid.Add(req.Amount)
	sub.UpdatedAt = time.Now().UTC()
	sub.UpdatedBy = types.GetUserID(ctx)
	if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("recorded subscription payment",
		"subscription_id", sub.ID,
		"amount", req.Amount.String(),
		"amount_paid", sub.AmountPaid.String(),
	)
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionBillerService) Approve(ctx context.Context, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.SubStatus != types.SubscriptionStatusPendingApproval {
		return nil, ierr.NewError("subscription is not pending approval").
			WithHint("Only pending subscriptions can be approved").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": sub.ID,
				"sub_status":      sub.SubStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	if !sub.FullyPaid() {
		return nil, ierr.NewError("subscription is not fully paid").
			WithHintf("Approval requires full payment; %s of %s received", sub.AmountPaid, sub.Amount).
			WithReportableDetails(map[string]interface{}{
				"subscription_id": sub.ID,
				"amount":          sub.Amount.String(),
				"amount_paid":     sub.AmountPaid.String(),
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	sub.SubStatus = types.SubscriptionStatusActive
	sub.ApprovedAt = &now
	// The paid term starts at approval, not at creation.
	sub.ExpiresAt = now.AddDate(0, sub.NumMonths, 0)
	sub.UpdatedAt = now
	sub.UpdatedBy = types.GetUserID(ctx)
	if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("approved subscription",
		"subscription_id", sub.ID,
		"expires_at", sub.ExpiresAt,
	)
	return &dto.SubscriptionResponse{Subscription: sub}, nil
}

func (s *subscriptionBillerService) Renew(ctx context.Context, id string, req *dto.RenewSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := s.SubscriptionRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.SubStatus != types.SubscriptionStatusActive && current.SubStatus != types.SubscriptionStatusExpired {
		return nil, ierr.NewError("subscription cannot be renewed").
			WithHint("Only active or expired subscriptions can be renewed").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": current.ID,
				"sub_status":      current.SubStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = current.Amount
	}
	successor := &subscription.Subscription{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_SUBSCRIPTION),
		ProjectID:     current.ProjectID,
		PlanCode:      current.PlanCode,
		Amount:        amount,
		NumMonths:     req.NumMonths,
		ExpiresAt:     current.ExpiresAt.AddDate(0, req.NumMonths, 0),
		SubStatus:     types.SubscriptionStatusPendingApproval,
		RenewedFromID: &current.ID,
		BaseModel:     types.GetDefaultBaseModel(ctx),
	}
	if err := successor.Validate(); err != nil {
		return nil, err
	}
	if err := s.SubscriptionRepo.Create(ctx, successor); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("renewed subscription",
		"subscription_id", current.ID,
		"successor_id", successor.ID,
		"num_months", req.NumMonths,
	)
	return &dto.SubscriptionResponse{Subscription: successor}, nil
}

func (s *subscriptionBillerService) SweepExpired(ctx context.Context, now time.Time) (*dto.SweepExpiredResponse, error) {
	filter := &types.SubscriptionFilter{
		QueryFilter:        types.NewNoLimitQueryFilter(),
		SubscriptionStatus: []types.SubscriptionStatus{types.SubscriptionStatusActive},
	}
	active, err := s.SubscriptionRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	var expired []string
	for _, sub := range active {
		if !sub.ExpiredAsOf(now) {
			continue
		}
		sub.SubStatus = types.SubscriptionStatusExpired
		sub.UpdatedAt = now
		sub.UpdatedBy = types.GetUserID(ctx)
		if err := s.SubscriptionRepo.Update(ctx, sub); err != nil {
			return nil, err
		}
		expired = append(expired, sub.ID)
	}

	s.Logger.WithContext(ctx).Infow("swept expired subscriptions",
		"active", len(active),
		"marked_expired", len(expired),
	)
	return &dto.SweepExpiredResponse{
		MarkedExpired:   len(expired),
		SubscriptionIDs: expired,
	}, nil
}
