package types

import (
	"github.com/samber/lo"
	ierr "github.com/towerbill/towerbill/internal/errors"
)

// SubscriptionStatus is the lifecycle of a project-level SaaS subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusPendingApproval SubscriptionStatus = "pending_approval"
	SubscriptionStatusActive          SubscriptionStatus = "active"
	SubscriptionStatusExpired         SubscriptionStatus = "expired"
	SubscriptionStatusCancelled       SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusPendingApproval,
		SubscriptionStatusActive,
		SubscriptionStatusExpired,
		SubscriptionStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Subscription status must be one of pending_approval, active, expired, cancelled").
			WithReportableDetails(map[string]interface{}{"subscription_status": s}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SubscriptionFilter filters subscription listings.
type SubscriptionFilter struct {
	*QueryFilter
	ProjectIDs         []string             `json:"project_ids,omitempty" form:"project_id"`
	SubscriptionStatus []SubscriptionStatus `json:"subscription_status,omitempty" form:"subscription_status"`
}

func NewSubscriptionFilter() *SubscriptionFilter {
	return &SubscriptionFilter{QueryFilter: NewDefaultQueryFilter()}
}

func (f *SubscriptionFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	if err := f.QueryFilter.Validate(); err != nil {
		return err
	}
	for _, s := range f.SubscriptionStatus {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
