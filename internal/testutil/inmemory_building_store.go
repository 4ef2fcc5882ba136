package testutil

import (
	"context"

	"github.com/samber/lo"
	"github.com/towerbill/towerbill/internal/domain/building"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// InMemoryBuildingStore implements building.Repository
type InMemoryBuildingStore struct {
	*InMemoryStore[*building.Building]
}

func NewInMemoryBuildingStore() *InMemoryBuildingStore {
	return &InMemoryBuildingStore{InMemoryStore: NewInMemoryStore[*building.Building]()}
}

func copyBuilding(b *building.Building) *building.Building {
	if b == nil {
		return nil
	}
	copied := *b
	return &copied
}

func (s *InMemoryBuildingStore) Create(ctx context.Context, b *building.Building) error {
	if err := s.InMemoryStore.Create(ctx, b.ID, copyBuilding(b)); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create building").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemoryBuildingStore) Get(ctx context.Context, id string) (*building.Building, error) {
	b, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || b.Status == types.StatusDeleted {
		return nil, ierr.NewError("building not found").
			WithHint("No building exists with the given ID").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyBuilding(b), nil
}

func (s *InMemoryBuildingStore) Update(ctx context.Context, b *building.Building) error {
	if err := s.InMemoryStore.Update(ctx, b.ID, copyBuilding(b)); err != nil {
		return ierr.NewError("building not found").
			WithHint("No building exists with the given ID").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func buildingFilterFn(_ context.Context, b *building.Building, raw interface{}) bool {
	filter, ok := raw.(*types.BuildingFilter)
	if !ok || filter == nil {
		return b.Status == types.StatusPublished
	}
	if b.Status != filter.GetStatus() {
		return false
	}
	if len(filter.BuildingIDs) > 0 && !lo.Contains(filter.BuildingIDs, b.ID) {
		return false
	}
	if filter.ActiveOnly && !b.Active {
		return false
	}
	return true
}

func buildingSortFn(a, b *building.Building) bool {
	return a.CreatedAt.After(b.CreatedAt)
}

func (s *InMemoryBuildingStore) List(ctx context.Context, filter *types.BuildingFilter) ([]*building.Building, error) {
	buildings, err := s.InMemoryStore.List(ctx, filter, buildingFilterFn, buildingSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(buildings, func(b *building.Building, _ int) *building.Building {
		return copyBuilding(b)
	}), nil
}

func (s *InMemoryBuildingStore) Count(ctx context.Context, filter *types.BuildingFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, buildingFilterFn)
}
