package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/towerbill/towerbill/internal/api/dto"
	"github.com/towerbill/towerbill/internal/cache"
	"github.com/towerbill/towerbill/internal/domain/invoice"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/testutil"
	"github.com/towerbill/towerbill/internal/types"
)

type InvoiceLedgerSuite struct {
	testutil.BaseServiceTestSuite
	service InvoiceLedgerService
	params  ServiceParams

	period types.BillingPeriod
}

func TestInvoiceLedger(t *testing.T) {
	suite.Run(t, new(InvoiceLedgerSuite))
}

func (s *InvoiceLedgerSuite) SetupTest() {
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
	s.service = NewInvoiceLedgerService(s.params)
	s.period = types.NewBillingPeriod(2025, time.May)
}

func (s *InvoiceLedgerSuite) createInvoice(id, apartmentID string, feeType types.FeeType, period types.BillingPeriod) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:            id,
		ApartmentID:   apartmentID,
		BuildingID:    "bldg_test",
		FeeType:       feeType,
		Amount:        decimal.RequireFromString("150000"),
		InvoiceStatus: types.InvoiceStatusPending,
		Period:        period,
		PeriodStart:   period.Start(),
		PeriodEnd:     period.End(),
		BaseModel:     types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.InvoiceRepo.CreateBatch(s.GetContext(), []*invoice.Invoice{inv}))
	return inv
}

func (s *InvoiceLedgerSuite) transition(id string, status types.InvoiceStatus) (*dto.InvoiceResponse, error) {
	return s.service.UpdateInvoiceStatus(s.GetContext(), id, &dto.UpdateInvoiceStatusRequest{Status: status})
}

func (s *InvoiceLedgerSuite) TestPendingToPaidSetsPaidAt() {
	s.createInvoice("inv_1", "apt_1", "maintenance", s.period)

	resp, err := s.transition("inv_1", types.InvoiceStatusPaid)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)
	s.NotNil(resp.PaidAt)
}

func (s *InvoiceLedgerSuite) TestPaidIsTerminal() {
	s.createInvoice("inv_1", "apt_1", "maintenance", s.period)
	_, err := s.transition("inv_1", types.InvoiceStatusPaid)
	s.NoError(err)

	for _, target := range []types.InvoiceStatus{
		types.InvoiceStatusPending,
		types.InvoiceStatusOverdue,
		types.InvoiceStatusCancelled,
	} {
		_, err := s.transition("inv_1", target)
		s.Error(err)
		s.True(ierr.IsInvalidOperation(err), "paid invoice must not move to %s", target)
	}
}

func (s *InvoiceLedgerSuite) TestOverdueCanBePaid() {
	s.createInvoice("inv_1", "apt_1", "maintenance", s.period)

	_, err := s.transition("inv_1", types.InvoiceStatusOverdue)
	s.NoError(err)

	resp, err := s.transition("inv_1", types.InvoiceStatusPaid)
	s.NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)
	s.NotNil(resp.PaidAt)
}

func (s *InvoiceLedgerSuite) TestCancelledIsTerminal() {
	s.createInvoice("inv_1", "apt_1", "maintenance", s.period)
	_, err := s.transition("inv_1", types.InvoiceStatusCancelled)
	s.NoError(err)

	_, err = s.transition("inv_1", types.InvoiceStatusPaid)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceLedgerSuite) TestSweepOverdue() {
	// Period ended long ago: eligible.
	old := types.NewBillingPeriod(2025, time.January)
	s.createInvoice("inv_old", "apt_1", "maintenance", old)

	// Paid invoices are never swept.
	s.createInvoice("inv_paid", "apt_2", "maintenance", old)
	_, err := s.transition("inv_paid", types.InvoiceStatusPaid)
	s.NoError(err)

	// Recent period: not yet eligible.
	now := old.End().AddDate(0, 1, 0)
	recent := types.NewBillingPeriod(now.Year(), now.Month())
	s.createInvoice("inv_recent", "apt_3", "maintenance", recent)

	resp, err := s.service.SweepOverdue(s.GetContext(), now)
	s.NoError(err)
	s.Equal(1, resp.MarkedOverdue)
	s.Equal([]string{"inv_old"}, resp.InvoiceIDs)

	inv, err := s.params.InvoiceRepo.Get(s.GetContext(), "inv_old")
	s.NoError(err)
	s.Equal(types.InvoiceStatusOverdue, inv.InvoiceStatus)

	inv, err = s.params.InvoiceRepo.Get(s.GetContext(), "inv_recent")
	s.NoError(err)
	s.Equal(types.InvoiceStatusPending, inv.InvoiceStatus)
}

func (s *InvoiceLedgerSuite) TestSweepIsIdempotent() {
	old := types.NewBillingPeriod(2025, time.January)
	s.createInvoice("inv_old", "apt_1", "maintenance", old)
	now := old.End().AddDate(0, 2, 0)

	first, err := s.service.SweepOverdue(s.GetContext(), now)
	s.NoError(err)
	s.Equal(1, first.MarkedOverdue)

	second, err := s.service.SweepOverdue(s.GetContext(), now)
	s.NoError(err)
	s.Equal(0, second.MarkedOverdue)
}
