package service

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/towerbill/towerbill/internal/api/dto"
	"github.com/towerbill/towerbill/internal/domain/tariff"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

const tariffCachePrefix = "tariff:active:"

// FeeCatalogService manages the per-building tariff catalog. Tariffs are
// append-only price versions; the catalog answers "which tariff applies as of
// this instant" for the generator and caches the answer briefly.
type FeeCatalogService interface {
	CreateTariff(ctx context.Context, req *dto.CreateTariffRequest) (*dto.TariffResponse, error)
	GetTariff(ctx context.Context, id string) (*dto.TariffResponse, error)
	ListTariffs(ctx context.Context, filter *types.TariffFilter) (*dto.ListTariffsResponse, error)

	// ActiveTariff resolves the tariff in force for (building, fee type) at
	// asOf. A fee type with no tariff yet is a legitimate not-found, not a
	// failure.
	ActiveTariff(ctx context.Context, buildingID string, feeType types.FeeType, asOf time.Time) (*tariff.Tariff, error)

	// ActiveFeeTypes returns the fee types that have at least one tariff
	// version for the building as of the instant.
	ActiveFeeTypes(ctx context.Context, buildingID string, asOf time.Time) ([]types.FeeType, error)
}

type feeCatalogService struct {
	ServiceParams
}

func NewFeeCatalogService(params ServiceParams) FeeCatalogService {
	return &feeCatalogService{ServiceParams: params}
}

func (s *feeCatalogService) CreateTariff(ctx context.Context, req *dto.CreateTariffRequest) (*dto.TariffResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The building must exist and be active; quoting prices for archived
	// buildings is rejected.
	b, err := s.BuildingRepo.Get(ctx, req.BuildingID)
	if err != nil {
		return nil, err
	}
	if !b.Active {
		return nil, ierr.NewError("building is not active").
			WithHint("Tariffs can only be created for active buildings").
			WithReportableDetails(map[string]interface{}{"building_id": b.ID}).
			Mark(ierr.ErrInvalidOperation)
	}

	t := req.ToTariff(ctx)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.TariffRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	// Drop cached snapshots for the building so the new version is visible
	// to the next generation run immediately.
	s.Cache.DeleteByPrefix(ctx, tariffCachePrefix+t.BuildingID)

	s.Logger.WithContext(ctx).Infow("created tariff",
		"tariff_id", t.ID,
		"building_id", t.BuildingID,
		"fee_type", t.FeeType,
		"calculation_method", t.CalculationMethod,
		"unit_price", t.UnitPrice.String(),
	)
	return &dto.TariffResponse{Tariff: t}, nil
}

func (s *feeCatalogService) GetTariff(ctx context.Context, id string) (*dto.TariffResponse, error) {
	t, err := s.TariffRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.TariffResponse{Tariff: t}, nil
}

func (s *feeCatalogService) ListTariffs(ctx context.Context, filter *types.TariffFilter) (*dto.ListTariffsResponse, error) {
	if filter == nil {
		filter = types.NewTariffFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	tariffs, err := s.TariffRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.TariffRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListTariffsResponse{
		Items: lo.Map(tariffs, func(t *tariff.Tariff, _ int) *dto.TariffResponse {
			return &dto.TariffResponse{Tariff: t}
		}),
		Pagination: types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *feeCatalogService) ActiveTariff(ctx context.Context, buildingID string, feeType types.FeeType, asOf time.Time) (*tariff.Tariff, error) {
	key := fmt.Sprintf("%s%s:%s:%d", tariffCachePrefix, buildingID, feeType, asOf.Unix())
	if cached, ok := s.Cache.Get(ctx, key); ok {
		if t, ok := cached.(*tariff.Tariff); ok {
			return t, nil
		}
	}

	t, err := s.TariffRepo.GetActive(ctx, buildingID, feeType, asOf)
	if err != nil {
		return nil, err
	}

	s.Cache.Set(ctx, key, t, s.Config.Billing.CatalogCacheTTL)
	return t, nil
}

func (s *feeCatalogService) ActiveFeeTypes(ctx context.Context, buildingID string, asOf time.Time) ([]types.FeeType, error) {
	return s.TariffRepo.ListFeeTypes(ctx, buildingID, asOf)
}
