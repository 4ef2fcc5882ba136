package testutil

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/towerbill/towerbill/internal/domain/tariff"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// InMemoryTariffStore implements tariff.Repository
type InMemoryTariffStore struct {
	*InMemoryStore[*tariff.Tariff]
}

func NewInMemoryTariffStore() *InMemoryTariffStore {
	return &InMemoryTariffStore{InMemoryStore: NewInMemoryStore[*tariff.Tariff]()}
}

func copyTariff(t *tariff.Tariff) *tariff.Tariff {
	if t == nil {
		return nil
	}
	copied := *t
	return &copied
}

func (s *InMemoryTariffStore) Create(ctx context.Context, t *tariff.Tariff) error {
	if err := s.InMemoryStore.Create(ctx, t.ID, copyTariff(t)); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create tariff").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemoryTariffStore) Get(ctx context.Context, id string) (*tariff.Tariff, error) {
	t, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || t.Status == types.StatusDeleted {
		return nil, ierr.NewError("tariff not found").
			WithHint("No tariff exists with the given ID").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyTariff(t), nil
}

func (s *InMemoryTariffStore) GetActive(ctx context.Context, buildingID string, feeType types.FeeType, asOf time.Time) (*tariff.Tariff, error) {
	versions, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, t *tariff.Tariff, _ interface{}) bool {
		return t.BuildingID == buildingID && t.FeeType == feeType &&
			t.Status == types.StatusPublished && t.ActiveAt(asOf)
	}, func(a, b *tariff.Tariff) bool {
		return a.CreatedAt.After(b.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ierr.NewError("no active tariff").
			WithHint("No tariff applies for this building and fee type at the given instant").
			WithReportableDetails(map[string]interface{}{
				"building_id": buildingID,
				"fee_type":    feeType,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyTariff(versions[0]), nil
}

func (s *InMemoryTariffStore) ListFeeTypes(ctx context.Context, buildingID string, asOf time.Time) ([]types.FeeType, error) {
	versions, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, t *tariff.Tariff, _ interface{}) bool {
		return t.BuildingID == buildingID && t.Status == types.StatusPublished && t.ActiveAt(asOf)
	}, func(a, b *tariff.Tariff) bool {
		return a.FeeType < b.FeeType
	})
	if err != nil {
		return nil, err
	}
	return lo.Uniq(lo.Map(versions, func(t *tariff.Tariff, _ int) types.FeeType {
		return t.FeeType
	})), nil
}

func tariffFilterFn(_ context.Context, t *tariff.Tariff, raw interface{}) bool {
	filter, ok := raw.(*types.TariffFilter)
	if !ok || filter == nil {
		return t.Status == types.StatusPublished
	}
	if t.Status != filter.GetStatus() {
		return false
	}
	if len(filter.BuildingIDs) > 0 && !lo.Contains(filter.BuildingIDs, t.BuildingID) {
		return false
	}
	if len(filter.FeeTypes) > 0 && !lo.Contains(filter.FeeTypes, t.FeeType) {
		return false
	}
	return true
}

func tariffSortFn(a, b *tariff.Tariff) bool {
	return a.CreatedAt.After(b.CreatedAt)
}

func (s *InMemoryTariffStore) List(ctx context.Context, filter *types.TariffFilter) ([]*tariff.Tariff, error) {
	tariffs, err := s.InMemoryStore.List(ctx, filter, tariffFilterFn, tariffSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(tariffs, func(t *tariff.Tariff, _ int) *tariff.Tariff {
		return copyTariff(t)
	}), nil
}

func (s *InMemoryTariffStore) Count(ctx context.Context, filter *types.TariffFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, tariffFilterFn)
}
