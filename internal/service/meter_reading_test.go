package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/towerbill/towerbill/internal/api/dto"
	"github.com/towerbill/towerbill/internal/cache"
	"github.com/towerbill/towerbill/internal/domain/building"
	"github.com/towerbill/towerbill/internal/domain/tariff"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/testutil"
	"github.com/towerbill/towerbill/internal/types"
)

type MeterReadingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service   MeterReadingService
	generator InvoiceGeneratorService
	params    ServiceParams

	building *building.Building
	period   types.BillingPeriod
}

func TestMeterReadingService(t *testing.T) {
	suite.Run(t, new(MeterReadingServiceSuite))
}

func (s *MeterReadingServiceSuite) SetupTest() {
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
	s.service = NewMeterReadingService(s.params)
	s.generator = NewInvoiceGeneratorService(s.params)

	s.period = types.NewBillingPeriod(2025, time.April)
	s.building = &building.Building{
		ID:                 "bldg_test",
		Name:               "Sunrise Tower",
		ReadingWindowStart: 3,
		ReadingWindowEnd:   7,
		Active:             true,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.BuildingRepo.Create(s.GetContext(), s.building))

	apt := &dto.CreateApartmentRequest{BuildingID: s.building.ID, Code: "B-201"}
	a := apt.ToApartment(s.GetContext())
	a.ID = "apt_1"
	s.NoError(s.params.ApartmentRepo.Create(s.GetContext(), a))

	t := &tariff.Tariff{
		ID:                "tarf_water",
		BuildingID:        s.building.ID,
		FeeType:           "water",
		CalculationMethod: types.CalculationMethodMetered,
		UnitPrice:         decimal.RequireFromString("20000"),
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}
	t.CreatedAt = s.period.Start().AddDate(0, -1, 0)
	s.NoError(s.params.TariffRepo.Create(s.GetContext(), t))

	flat := &tariff.Tariff{
		ID:                "tarf_maintenance",
		BuildingID:        s.building.ID,
		FeeType:           "maintenance",
		CalculationMethod: types.CalculationMethodFlat,
		UnitPrice:         decimal.RequireFromString("150000"),
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}
	flat.CreatedAt = s.period.Start().AddDate(0, -1, 0)
	s.NoError(s.params.TariffRepo.Create(s.GetContext(), flat))
}

func (s *MeterReadingServiceSuite) submit(value string, submittedAt time.Time) (*dto.MeterReadingResponse, error) {
	return s.service.SubmitReading(s.GetContext(), &dto.SubmitMeterReadingRequest{
		ApartmentID: "apt_1",
		FeeType:     "water",
		Period:      s.period.String(),
		Value:       decimal.RequireFromString(value),
		SubmittedAt: &submittedAt,
	})
}

func (s *MeterReadingServiceSuite) TestWindowBoundaries() {
	s.Run("first window day accepted", func() {
		resp, err := s.submit("10", s.period.Day(3))
		s.NoError(err)
		s.NotNil(resp)
	})

	s.Run("last window day accepted", func() {
		// End of day 7 is still inside the window. A different period avoids
		// colliding with the reading submitted above.
		next := s.period.Next()
		lastInstant := next.Day(7).Add(23*time.Hour + 59*time.Minute)
		_, err := s.service.SubmitReading(s.GetContext(), &dto.SubmitMeterReadingRequest{
			ApartmentID: "apt_1",
			FeeType:     "water",
			Period:      next.String(),
			Value:       decimal.RequireFromString("10"),
			SubmittedAt: &lastInstant,
		})
		s.NoError(err)
	})
}

func (s *MeterReadingServiceSuite) TestBeforeWindowRejected() {
	_, err := s.submit("10", s.period.Day(2).Add(23*time.Hour))
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *MeterReadingServiceSuite) TestAfterWindowRejected() {
	_, err := s.submit("10", s.period.Day(8))
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *MeterReadingServiceSuite) TestDuplicateReadingRejected() {
	_, err := s.submit("10", s.period.Day(4))
	s.NoError(err)

	_, err = s.submit("11", s.period.Day(5))
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *MeterReadingServiceSuite) TestNonMeteredFeeRejected() {
	submittedAt := s.period.Day(4)
	_, err := s.service.SubmitReading(s.GetContext(), &dto.SubmitMeterReadingRequest{
		ApartmentID: "apt_1",
		FeeType:     "maintenance",
		Period:      s.period.String(),
		Value:       decimal.RequireFromString("10"),
		SubmittedAt: &submittedAt,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *MeterReadingServiceSuite) TestUnknownFeeTypeRejected() {
	submittedAt := s.period.Day(4)
	_, err := s.service.SubmitReading(s.GetContext(), &dto.SubmitMeterReadingRequest{
		ApartmentID: "apt_1",
		FeeType:     "electricity",
		Period:      s.period.String(),
		Value:       decimal.RequireFromString("10"),
		SubmittedAt: &submittedAt,
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *MeterReadingServiceSuite) TestGenerationLockBlocksSubmission() {
	// While a generation run holds the lock for the cycle, an in-window
	// submission is rejected instead of committing behind the generator.
	err := s.GetDB().WithTx(s.GetContext(), func(txCtx context.Context) error {
		lockReq := types.LockRequest{Key: types.BillingRunLockKey(s.building.ID, s.period)}
		s.Require().NoError(s.GetDB().AcquireGenerationLock(txCtx, lockReq))

		_, subErr := s.submit("10", s.period.Day(4))
		s.Error(subErr)
		s.True(ierr.IsInvalidOperation(subErr))
		return nil
	})
	s.NoError(err)

	// The lock is released with the transaction; the submission now lands.
	_, err = s.submit("10", s.period.Day(4))
	s.NoError(err)
}

func (s *MeterReadingServiceSuite) TestClosedPeriodBeatsWindow() {
	// Close the period by generating invoices.
	_, err := s.generator.GenerateInvoices(s.GetContext(), &dto.GenerateInvoicesRequest{
		BuildingID: s.building.ID,
		Period:     s.period.String(),
	})
	s.NoError(err)

	// Even an in-window submission is rejected once the run is closed.
	_, err = s.submit("10", s.period.Day(4))
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
