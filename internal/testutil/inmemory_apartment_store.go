package testutil

import (
	"context"

	"github.com/samber/lo"
	"github.com/towerbill/towerbill/internal/domain/apartment"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// InMemoryApartmentStore implements apartment.Repository
type InMemoryApartmentStore struct {
	*InMemoryStore[*apartment.Apartment]
}

func NewInMemoryApartmentStore() *InMemoryApartmentStore {
	return &InMemoryApartmentStore{InMemoryStore: NewInMemoryStore[*apartment.Apartment]()}
}

func copyApartment(a *apartment.Apartment) *apartment.Apartment {
	if a == nil {
		return nil
	}
	copied := *a
	if a.Area != nil {
		area := *a.Area
		copied.Area = &area
	}
	if a.UnitCount != nil {
		count := *a.UnitCount
		copied.UnitCount = &count
	}
	return &copied
}

func (s *InMemoryApartmentStore) Create(ctx context.Context, a *apartment.Apartment) error {
	if err := s.InMemoryStore.Create(ctx, a.ID, copyApartment(a)); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create apartment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (s *InMemoryApartmentStore) Get(ctx context.Context, id string) (*apartment.Apartment, error) {
	a, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || a.Status == types.StatusDeleted {
		return nil, ierr.NewError("apartment not found").
			WithHint("No apartment exists with the given ID").
			WithReportableDetails(map[string]interface{}{"id": id}).
			Mark(ierr.ErrNotFound)
	}
	return copyApartment(a), nil
}

func (s *InMemoryApartmentStore) Update(ctx context.Context, a *apartment.Apartment) error {
	if err := s.InMemoryStore.Update(ctx, a.ID, copyApartment(a)); err != nil {
		return ierr.NewError("apartment not found").
			WithHint("No apartment exists with the given ID").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryApartmentStore) ListByBuilding(ctx context.Context, buildingID string) ([]*apartment.Apartment, error) {
	apartments, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, a *apartment.Apartment, _ interface{}) bool {
		return a.BuildingID == buildingID && a.Status == types.StatusPublished
	}, apartmentSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(apartments, func(a *apartment.Apartment, _ int) *apartment.Apartment {
		return copyApartment(a)
	}), nil
}

func apartmentFilterFn(_ context.Context, a *apartment.Apartment, raw interface{}) bool {
	filter, ok := raw.(*types.ApartmentFilter)
	if !ok || filter == nil {
		return a.Status == types.StatusPublished
	}
	if a.Status != filter.GetStatus() {
		return false
	}
	if len(filter.BuildingIDs) > 0 && !lo.Contains(filter.BuildingIDs, a.BuildingID) {
		return false
	}
	if len(filter.ApartmentStatuses) > 0 && !lo.Contains(filter.ApartmentStatuses, a.Occupancy) {
		return false
	}
	return true
}

// Deterministic roster order keeps generation results stable across runs.
func apartmentSortFn(a, b *apartment.Apartment) bool {
	if a.BuildingID != b.BuildingID {
		return a.BuildingID < b.BuildingID
	}
	return a.Code < b.Code
}

func (s *InMemoryApartmentStore) List(ctx context.Context, filter *types.ApartmentFilter) ([]*apartment.Apartment, error) {
	apartments, err := s.InMemoryStore.List(ctx, filter, apartmentFilterFn, apartmentSortFn)
	if err != nil {
		return nil, err
	}
	return lo.Map(apartments, func(a *apartment.Apartment, _ int) *apartment.Apartment {
		return copyApartment(a)
	}), nil
}

func (s *InMemoryApartmentStore) Count(ctx context.Context, filter *types.ApartmentFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, apartmentFilterFn)
}
