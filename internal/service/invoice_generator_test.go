package service

import (
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/towerbill/towerbill/internal/api/dto"
	"github.com/towerbill/towerbill/internal/cache"
	"github.com/towerbill/towerbill/internal/domain/apartment"
	"github.com/towerbill/towerbill/internal/domain/building"
	"github.com/towerbill/towerbill/internal/domain/reading"
	"github.com/towerbill/towerbill/internal/domain/tariff"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/testutil"
	"github.com/towerbill/towerbill/internal/types"
)

type InvoiceGeneratorSuite struct {
	testutil.BaseServiceTestSuite
	service InvoiceGeneratorService
	params  ServiceParams

	building *building.Building
	period   types.BillingPeriod
}

func TestInvoiceGenerator(t *testing.T) {
	suite.Run(t, new(InvoiceGeneratorSuite))
}

func (s *InvoiceGeneratorSuite) SetupTest() {
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
	s.service = NewInvoiceGeneratorService(s.params)

	s.period = types.NewBillingPeriod(2025, time.March)
	s.building = &building.Building{
		ID:                 "bldg_test",
		Name:               "Sunrise Tower",
		ReadingWindowStart: 1,
		ReadingWindowEnd:   5,
		Active:             true,
		BaseModel:          types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.BuildingRepo.Create(s.GetContext(), s.building))
}

func (s *InvoiceGeneratorSuite) createApartment(id, code string, area *decimal.Decimal, unitCount *int, occupancy types.ApartmentStatus) *apartment.Apartment {
	apt := &apartment.Apartment{
		ID:         id,
		BuildingID: s.building.ID,
		Code:       code,
		Area:       area,
		UnitCount:  unitCount,
		Occupancy:  occupancy,
		BaseModel:  types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.ApartmentRepo.Create(s.GetContext(), apt))
	return apt
}

func (s *InvoiceGeneratorSuite) createTariff(id string, feeType types.FeeType, method types.CalculationMethod, price string) *tariff.Tariff {
	t := &tariff.Tariff{
		ID:                id,
		BuildingID:        s.building.ID,
		FeeType:           feeType,
		CalculationMethod: method,
		UnitPrice:         decimal.RequireFromString(price),
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}
	t.CreatedAt = s.period.Start().AddDate(0, -1, 0)
	s.NoError(s.params.TariffRepo.Create(s.GetContext(), t))
	return t
}

func (s *InvoiceGeneratorSuite) submitReading(apartmentID string, feeType types.FeeType, value string, submittedAt time.Time) {
	m := &reading.MeterReading{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_METER_READING),
		ApartmentID: apartmentID,
		BuildingID:  s.building.ID,
		FeeType:     feeType,
		Period:      s.period,
		Value:       decimal.RequireFromString(value),
		SubmittedAt: submittedAt,
		BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
	}
	s.NoError(s.params.ReadingRepo.Create(s.GetContext(), m))
}

func (s *InvoiceGeneratorSuite) generate() (*dto.GenerateInvoicesResponse, error) {
	return s.service.GenerateInvoices(s.GetContext(), &dto.GenerateInvoicesRequest{
		BuildingID: s.building.ID,
		Period:     s.period.String(),
	})
}

func (s *InvoiceGeneratorSuite) TestOmittedPeriodDefaultsToCurrent() {
	s.createApartment("apt_1", "A-101", nil, nil, types.ApartmentStatusOccupied)
	s.createTariff("tarf_1", "maintenance", types.CalculationMethodFlat, "150000")

	resp, err := s.service.GenerateInvoices(s.GetContext(), &dto.GenerateInvoicesRequest{
		BuildingID: s.building.ID,
	})
	s.NoError(err)

	current := types.CurrentBillingPeriod(time.Now())
	s.Equal(current.String(), resp.Period)
	s.Equal(types.BillingRunStatusClosed, resp.RunStatus)
	s.Len(resp.Result.CreatedInvoiceIDs, 1)

	inv, err := s.params.InvoiceRepo.GetByKey(s.GetContext(), "apt_1", "maintenance", current)
	s.NoError(err)
	s.Equal(current.Start(), inv.PeriodStart)
}

func (s *InvoiceGeneratorSuite) TestGenerateFlatFee() {
	s.createApartment("apt_1", "A-101", nil, nil, types.ApartmentStatusOccupied)
	s.createTariff("tarf_1", "maintenance", types.CalculationMethodFlat, "150000")

	resp, err := s.generate()
	s.NoError(err)
	s.Equal(types.BillingRunStatusClosed, resp.RunStatus)
	s.False(resp.Replayed)
	s.Len(resp.Result.CreatedInvoiceIDs, 1)
	s.Empty(resp.Result.Skipped)

	inv, err := s.params.InvoiceRepo.GetByKey(s.GetContext(), "apt_1", "maintenance", s.period)
	s.NoError(err)
	s.True(inv.Amount.Equal(decimal.RequireFromString("150000")))
	s.Equal(types.InvoiceStatusPending, inv.InvoiceStatus)
	s.Equal(s.period.Start(), inv.PeriodStart)
}

func (s *InvoiceGeneratorSuite) TestGeneratePerAreaFee() {
	s.createApartment("apt_1", "A-101", lo.ToPtr(decimal.RequireFromString("72.5")), nil, types.ApartmentStatusOccupied)
	s.createTariff("tarf_1", "heating", types.CalculationMethodPerArea, "1200")

	resp, err := s.generate()
	s.NoError(err)
	s.Len(resp.Result.CreatedInvoiceIDs, 1)

	inv, err := s.params.InvoiceRepo.GetByKey(s.GetContext(), "apt_1", "heating", s.period)
	s.NoError(err)
	s.True(inv.Amount.Equal(decimal.RequireFromString("87000")), "got %s", inv.Amount)
}

func (s *InvoiceGeneratorSuite) TestGeneratePerUnitFee() {
	s.createApartment("apt_1", "A-101", nil, lo.ToPtr(2), types.ApartmentStatusOccupied)
	s.createTariff("tarf_1", "parking", types.CalculationMethodPerUnit, "50000")

	resp, err := s.generate()
	s.NoError(err)
	s.Len(resp.Result.CreatedInvoiceIDs, 1)

	inv, err := s.params.InvoiceRepo.GetByKey(s.GetContext(), "apt_1", "parking", s.period)
	s.NoError(err)
	s.True(inv.Amount.Equal(decimal.RequireFromString("100000")))
}

func (s *InvoiceGeneratorSuite) TestGenerateMeteredFee() {
	s.createApartment("apt_1", "A-101", nil, nil, types.ApartmentStatusOccupied)
	s.createTariff("tarf_1", "water", types.CalculationMethodMetered, "20000")
	s.submitReading("apt_1", "water", "12", s.period.Day(3))

	resp, err := s.generate()
	s.NoError(err)
	s.Len(resp.Result.CreatedInvoiceIDs, 1)

	inv, err := s.params.InvoiceRepo.GetByKey(s.GetContext(), "apt_1", "water", s.period)
	s.NoError(err)
	s.True(inv.Amount.Equal(decimal.RequireFromString("240000")), "12 units at 20000 should bill 240000, got %s", inv.Amount)
}

func (s *InvoiceGeneratorSuite) TestSkipReasons() {
	s.createTariff("tarf_area", "heating", types.CalculationMethodPerArea, "1200")
	s.createTariff("tarf_unit", "parking", types.CalculationMethodPerUnit, "50000")
	s.createTariff("tarf_meter", "water", types.CalculationMethodMetered, "20000")

	// No area, no unit count, no reading: every fee type is skipped.
	s.createApartment("apt_1", "A-101", nil, nil, types.ApartmentStatusOccupied)

	resp, err := s.generate()
	s.NoError(err)
	s.Empty(resp.Result.CreatedInvoiceIDs)
	s.Len(resp.Result.Skipped, 3)

	reasons := lo.Map(resp.Result.Skipped, func(item types.SkippedLineItem, _ int) types.SkipReason {
		return item.Reason
	})
	s.Contains(reasons, types.SkipReasonMissingArea)
	s.Contains(reasons, types.SkipReasonMissingUnitCount)
	s.Contains(reasons, types.SkipReasonMissingReading)
}

func (s *InvoiceGeneratorSuite) TestSkipReadingOutOfWindow() {
	s.createApartment("apt_1", "A-101", nil, nil, types.ApartmentStatusOccupied)
	s.createTariff("tarf_1", "water", types.CalculationMethodMetered, "20000")
	// Day 10 is past the day-5 window end.
	s.submitReading("apt_1", "water", "12", s.period.Day(10))

	resp, err := s.generate()
	s.NoError(err)
	s.Empty(resp.Result.CreatedInvoiceIDs)
	s.Len(resp.Result.Skipped, 1)
	s.Equal(types.SkipReasonReadingOutOfWindow, resp.Result.Skipped[0].Reason)
}

func (s *InvoiceGeneratorSuite) TestRenovationApartmentNotBilled() {
	s.createApartment("apt_1", "A-101", nil, nil, types.ApartmentStatusRenovation)
	s.createApartment("apt_2", "A-102", nil, nil, types.ApartmentStatusVacant)
	s.createTariff("tarf_1", "maintenance", types.CalculationMethodFlat, "150000")

	resp, err := s.generate()
	s.NoError(err)
	// Vacant apartments are billed, renovation ones are not even a skip.
	s.Len(resp.Result.CreatedInvoiceIDs, 1)
	s.Empty(resp.Result.Skipped)

	_, err = s.params.InvoiceRepo.GetByKey(s.GetContext(), "apt_1", "maintenance", s.period)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceGeneratorSuite) TestGenerateIsIdempotent() {
	s.createApartment("apt_1", "A-101", nil, nil, types.ApartmentStatusOccupied)
	s.createTariff("tarf_1", "maintenance", types.CalculationMethodFlat, "150000")

	first, err := s.generate()
	s.NoError(err)
	s.False(first.Replayed)

	second, err := s.generate()
	s.NoError(err)
	s.True(second.Replayed)
	s.Equal(first.Result.CreatedInvoiceIDs, second.Result.CreatedInvoiceIDs)

	count, err := s.params.InvoiceRepo.Count(s.GetContext(), &types.InvoiceFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		BuildingIDs: []string{s.building.ID},
	})
	s.NoError(err)
	s.Equal(1, count)
}

func (s *InvoiceGeneratorSuite) TestInactiveBuildingRejected() {
	s.building.Active = false
	s.NoError(s.params.BuildingRepo.Update(s.GetContext(), s.building))

	_, err := s.generate()
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceGeneratorSuite) TestReopenAndRegenerate() {
	s.createApartment("apt_1", "A-101", nil, nil, types.ApartmentStatusOccupied)
	s.createTariff("tarf_1", "maintenance", types.CalculationMethodFlat, "150000")

	first, err := s.generate()
	s.NoError(err)
	s.Len(first.Result.CreatedInvoiceIDs, 1)

	run, err := s.service.ReopenPeriod(s.GetContext(), &dto.ReopenPeriodRequest{
		BuildingID: s.building.ID,
		Period:     s.period.String(),
		Reason:     "missed parking tariff",
	})
	s.NoError(err)
	s.Equal(types.BillingRunStatusOpen, run.RunStatus)
	s.Nil(run.Result)
	s.Equal("missed parking tariff", run.Metadata["reopened_reason"])

	// A new fee type added after the reopen is billed; the original invoice
	// is skipped, not duplicated.
	s.createApartment("apt_2", "A-102", nil, lo.ToPtr(1), types.ApartmentStatusOccupied)
	s.createTariff("tarf_2", "parking", types.CalculationMethodPerUnit, "50000")

	second, err := s.generate()
	s.NoError(err)
	s.False(second.Replayed)
	s.Len(second.Result.CreatedInvoiceIDs, 2)

	skipped := lo.Filter(second.Result.Skipped, func(item types.SkippedLineItem, _ int) bool {
		return item.Reason == types.SkipReasonAlreadyInvoiced
	})
	s.Len(skipped, 1)
	s.Equal("apt_1", skipped[0].ApartmentID)

	count, err := s.params.InvoiceRepo.Count(s.GetContext(), &types.InvoiceFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		BuildingIDs: []string{s.building.ID},
	})
	s.NoError(err)
	s.Equal(3, count)
}

func (s *InvoiceGeneratorSuite) TestReopenRequiresClosedRun() {
	_, err := s.service.ReopenPeriod(s.GetContext(), &dto.ReopenPeriodRequest{
		BuildingID: s.building.ID,
		Period:     s.period.String(),
		Reason:     "nothing to reopen",
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceGeneratorSuite) TestConcurrentGenerationSingleWinner() {
	s.createApartment("apt_1", "A-101", nil, nil, types.ApartmentStatusOccupied)
	s.createTariff("tarf_1", "maintenance", types.CalculationMethodFlat, "150000")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.generate()
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			s.True(ierr.IsAlreadyExists(err), "loser should see a conflict, got %v", err)
		}
	}
	// Replays of the already closed run also count as success; at least one
	// attempt must have closed the period, and exactly one invoice exists.
	s.GreaterOrEqual(winners, 1)

	count, err := s.params.InvoiceRepo.Count(s.GetContext(), &types.InvoiceFilter{
		QueryFilter: types.NewNoLimitQueryFilter(),
		BuildingIDs: []string{s.building.ID},
	})
	s.NoError(err)
	s.Equal(1, count)
}
