package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/towerbill/towerbill/internal/api/dto"
	"github.com/towerbill/towerbill/internal/cache"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/testutil"
	"github.com/towerbill/towerbill/internal/types"
)

type SubscriptionBillerSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionBillerService
	params  ServiceParams
}

func TestSubscriptionBiller(t *testing.T) {
	suite.Run(t, new(SubscriptionBillerSuite))
}

func (s *SubscriptionBillerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.params = ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		DB:               s.GetDB(),
		Cache:            cache.NewInMemoryCache(),
		BuildingRepo:     s.GetStores().BuildingRepo,
		ApartmentRepo:    s.GetStores().ApartmentRepo,
		TariffRepo:       s.GetStores().TariffRepo,
		ReadingRepo:      s.GetStores().ReadingRepo,
		InvoiceRepo:      s.GetStores().InvoiceRepo,
		BillingRunRepo:   s.GetStores().BillingRunRepo,
		SubscriptionRepo: s.GetStores().SubscriptionRepo,
	}
	s.service = NewSubscriptionBillerService(s.params)
}

func (s *SubscriptionBillerSuite) createSubscription(amount string, months int) *dto.SubscriptionResponse {
	resp, err := s.service.CreateSubscription(s.GetContext(), &dto.CreateSubscriptionRequest{
		ProjectID: "proj_1",
		PlanCode:  "standard",
		Amount:    decimal.RequireFromString(amount),
		NumMonths: months,
	})
	s.Require().NoError(err)
	return resp
}

func (s *SubscriptionBillerSuite) pay(id, amount string) (*dto.SubscriptionResponse, error) {
	return s.service.RecordPayment(s.GetContext(), id, &dto.RecordSubscriptionPaymentRequest{
		Amount: decimal.RequireFromString(amount),
	})
}

func (s *SubscriptionBillerSuite) TestCreateStartsPendingApproval() {
	resp := s.createSubscription("1200000", 12)

	s.Equal(types.SubscriptionStatusPendingApproval, resp.SubStatus)
	s.True(resp.AmountPaid.IsZero())
	s.Nil(resp.ApprovedAt)
}

func (s *SubscriptionBillerSuite) TestApproveRequiresFullPayment() {
	sub := s.createSubscription("1200000", 12)

	_, err := s.service.Approve(s.GetContext(), sub.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.pay(sub.ID, "600000")
	s.NoError(err)

	_, err = s.service.Approve(s.GetContext(), sub.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err), "partial payment must not unlock approval")
}

func (s *SubscriptionBillerSuite) TestApproveActivatesAndSetsExpiry() {
	sub := s.createSubscription("1200000", 12)
	_, err := s.pay(sub.ID, "1200000")
	s.NoError(err)

	before := time.Now().UTC()
	resp, err := s.service.Approve(s.GetContext(), sub.ID)
	s.NoError(err)

	s.Equal(types.SubscriptionStatusActive, resp.SubStatus)
	s.NotNil(resp.ApprovedAt)
	// Term runs from approval, not from creation.
	s.WithinDuration(before.AddDate(0, 12, 0), resp.ExpiresAt, time.Minute)
}

func (s *SubscriptionBillerSuite) TestApproveRejectsNonPending() {
	sub := s.createSubscription("100000", 1)
	_, err := s.pay(sub.ID, "100000")
	s.NoError(err)
	_, err = s.service.Approve(s.GetContext(), sub.ID)
	s.NoError(err)

	_, err = s.service.Approve(s.GetContext(), sub.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionBillerSuite) TestOverpaymentAllowed() {
	sub := s.createSubscription("100000", 1)
	_, err := s.pay(sub.ID, "150000")
	s.NoError(err)

	resp, err := s.service.Approve(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusActive, resp.SubStatus)
}

func (s *SubscriptionBillerSuite) TestNonPositivePaymentRejected() {
	sub := s.createSubscription("100000", 1)

	_, err := s.pay(sub.ID, "0")
	s.Error(err)
	s.True(ierr.IsValidation(err))

	_, err = s.pay(sub.ID, "-50")
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *SubscriptionBillerSuite) TestRenewCreatesPendingSuccessor() {
	sub := s.createSubscription("1200000", 12)
	_, err := s.pay(sub.ID, "1200000")
	s.NoError(err)
	approved, err := s.service.Approve(s.GetContext(), sub.ID)
	s.NoError(err)

	successor, err := s.service.Renew(s.GetContext(), sub.ID, &dto.RenewSubscriptionRequest{NumMonths: 6})
	s.NoError(err)

	s.Equal(types.SubscriptionStatusPendingApproval, successor.SubStatus)
	s.Require().NotNil(successor.RenewedFromID)
	s.Equal(sub.ID, *successor.RenewedFromID)
	// Successor term chains off the current expiry.
	s.WithinDuration(approved.ExpiresAt.AddDate(0, 6, 0), successor.ExpiresAt, time.Second)
	// Amount defaults to the current subscription's amount.
	s.True(successor.Amount.Equal(decimal.RequireFromString("1200000")))
}

func (s *SubscriptionBillerSuite) TestRenewRejectsPending() {
	sub := s.createSubscription("100000", 1)

	_, err := s.service.Renew(s.GetContext(), sub.ID, &dto.RenewSubscriptionRequest{NumMonths: 1})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *SubscriptionBillerSuite) TestSweepExpired() {
	sub := s.createSubscription("100000", 1)
	_, err := s.pay(sub.ID, "100000")
	s.NoError(err)
	approved, err := s.service.Approve(s.GetContext(), sub.ID)
	s.NoError(err)

	// Before expiry nothing moves.
	resp, err := s.service.SweepExpired(s.GetContext(), approved.ExpiresAt.Add(-time.Hour))
	s.NoError(err)
	s.Equal(0, resp.MarkedExpired)

	resp, err = s.service.SweepExpired(s.GetContext(), approved.ExpiresAt.Add(time.Hour))
	s.NoError(err)
	s.Equal(1, resp.MarkedExpired)
	s.Equal([]string{sub.ID}, resp.SubscriptionIDs)

	got, err := s.service.GetSubscription(s.GetContext(), sub.ID)
	s.NoError(err)
	s.Equal(types.SubscriptionStatusExpired, got.SubStatus)

	// Expired subscriptions stop accepting payments but can still be renewed.
	_, err = s.pay(sub.ID, "100000")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	_, err = s.service.Renew(s.GetContext(), sub.ID, &dto.RenewSubscriptionRequest{NumMonths: 3})
	s.NoError(err)
}
