package service

import (
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

type FeeCatalogSuite struct {
	testutil.BaseServiceTestSuite
	service FeeCatalogService
	params  ServiceParams

	building *building.Building
}

func TestFeeCatalog(t *testing.T) {
	suite.Run(t, new(FeeCatalogSuite))
}

func (s *FeeCatalogSuite) SetupTest() {
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
	s.service = NewFeeCatalogService(s.params)

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

// seedVersion inserts a tariff version with an explicit creation instant,
// bypassing the service so tests can control version ordering.
func (s *FeeCatalogSuite) seedVersion(id string, feeType types.FeeType, price string, createdAt time.Time) *tariff.Tariff {
	t := &tariff.Tariff{
		ID:                id,
		BuildingID:        s.building.ID,
		FeeType:           feeType,
		CalculationMethod: types.CalculationMethodFlat,
		UnitPrice:         decimal.RequireFromString(price),
		BaseModel:         types.GetDefaultBaseModel(s.GetContext()),
	}
	t.CreatedAt = createdAt
	s.NoError(s.params.TariffRepo.Create(s.GetContext(), t))
	return t
}

func (s *FeeCatalogSuite) TestCreateTariff() {
	resp, err := s.service.CreateTariff(s.GetContext(), &dto.CreateTariffRequest{
		BuildingID:        s.building.ID,
		FeeType:           "maintenance",
		CalculationMethod: types.CalculationMethodFlat,
		UnitPrice:         decimal.RequireFromString("150000"),
	})
	s.NoError(err)
	s.NotEmpty(resp.ID)
	s.Equal(types.CalculationMethodFlat, resp.CalculationMethod)
}

func (s *FeeCatalogSuite) TestCreateTariffRejectsInactiveBuilding() {
	s.building.Active = false
	s.NoError(s.params.BuildingRepo.Update(s.GetContext(), s.building))

	_, err := s.service.CreateTariff(s.GetContext(), &dto.CreateTariffRequest{
		BuildingID:        s.building.ID,
		FeeType:           "maintenance",
		CalculationMethod: types.CalculationMethodFlat,
		UnitPrice:         decimal.RequireFromString("150000"),
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *FeeCatalogSuite) TestCreateTariffRejectsUnknownBuilding() {
	_, err := s.service.CreateTariff(s.GetContext(), &dto.CreateTariffRequest{
		BuildingID:        "bldg_missing",
		FeeType:           "maintenance",
		CalculationMethod: types.CalculationMethodFlat,
		UnitPrice:         decimal.RequireFromString("150000"),
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *FeeCatalogSuite) TestActiveTariffPicksLatestVersion() {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	s.seedVersion("tarf_v1", "maintenance", "100000", base)
	s.seedVersion("tarf_v2", "maintenance", "120000", base.AddDate(0, 2, 0))

	s.Run("between versions the older one applies", func() {
		t, err := s.service.ActiveTariff(s.GetContext(), s.building.ID, "maintenance", base.AddDate(0, 1, 0))
		s.NoError(err)
		s.Equal("tarf_v1", t.ID)
		s.True(t.UnitPrice.Equal(decimal.RequireFromString("100000")))
	})

	s.Run("after the second version it supersedes", func() {
		t, err := s.service.ActiveTariff(s.GetContext(), s.building.ID, "maintenance", base.AddDate(0, 3, 0))
		s.NoError(err)
		s.Equal("tarf_v2", t.ID)
	})

	s.Run("before any version there is no tariff", func() {
		_, err := s.service.ActiveTariff(s.GetContext(), s.building.ID, "maintenance", base.AddDate(0, 0, -1))
		s.Error(err)
		s.True(ierr.IsNotFound(err))
	})
}

func (s *FeeCatalogSuite) TestActiveTariffCaching() {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	s.seedVersion("tarf_v1", "maintenance", "100000", base)

	asOf := base.AddDate(0, 1, 0)
	first, err := s.service.ActiveTariff(s.GetContext(), s.building.ID, "maintenance", asOf)
	s.NoError(err)
	s.Equal("tarf_v1", first.ID)

	// A newer version seeded behind the cache is not visible for the same
	// lookup until the cache is invalidated.
	s.seedVersion("tarf_v2", "maintenance", "120000", base.AddDate(0, 0, 15))
	cached, err := s.service.ActiveTariff(s.GetContext(), s.building.ID, "maintenance", asOf)
	s.NoError(err)
	s.Equal("tarf_v1", cached.ID)

	// Creating a tariff through the service drops the building's cache.
	_, err = s.service.CreateTariff(s.GetContext(), &dto.CreateTariffRequest{
		BuildingID:        s.building.ID,
		FeeType:           "water",
		CalculationMethod: types.CalculationMethodMetered,
		UnitPrice:         decimal.RequireFromString("20000"),
	})
	s.NoError(err)

	fresh, err := s.service.ActiveTariff(s.GetContext(), s.building.ID, "maintenance", asOf)
	s.NoError(err)
	s.Equal("tarf_v2", fresh.ID)
}

func (s *FeeCatalogSuite) TestActiveFeeTypes() {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	s.seedVersion("tarf_m1", "maintenance", "100000", base)
	s.seedVersion("tarf_m2", "maintenance", "120000", base.AddDate(0, 1, 0))
	s.seedVersion("tarf_w1", "water", "20000", base)
	s.seedVersion("tarf_late", "parking", "50000", base.AddDate(1, 0, 0))

	feeTypes, err := s.service.ActiveFeeTypes(s.GetContext(), s.building.ID, base.AddDate(0, 2, 0))
	s.NoError(err)
	// Multiple versions collapse to one fee type; parking is not active yet.
	s.ElementsMatch([]types.FeeType{"maintenance", "water"}, feeTypes)
}

func (s *FeeCatalogSuite) TestListTariffs() {
	base := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	s.seedVersion("tarf_m1", "maintenance", "100000", base)
	s.seedVersion("tarf_w1", "water", "20000", base.AddDate(0, 1, 0))

	filter := types.NewTariffFilter()
	filter.BuildingIDs = []string{s.building.ID}
	resp, err := s.service.ListTariffs(s.GetContext(), filter)
	s.NoError(err)
	s.Equal(2, resp.Pagination.Total)
	s.Len(resp.Items, 2)
	// Newest version first.
	s.Equal("tarf_w1", resp.Items[0].ID)
}
