package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/samber/lo"
	"github.com/towerbill/towerbill/internal/domain/reading"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// InMemoryReadingStore implements reading.Repository
type InMemoryReadingStore struct {
	*InMemoryStore[*reading.MeterReading]

	mu   sync.Mutex
	keys map[string]string // composite key -> reading ID
}

func NewInMemoryReadingStore() *InMemoryReadingStore {
	return &InMemoryReadingStore{
		InMemoryStore: NewInMemoryStore[*reading.MeterReading](),
		keys:          make(map[string]string),
	}
}

func readingKey(apartmentID string, feeType types.FeeType, period types.BillingPeriod) string {
	return fmt.Sprintf("%s|%s|%s", apartmentID, feeType, period)
}

func copyReading(m *reading.MeterReading) *reading.MeterReading {
	if m == nil {
		return nil
	}
	copied := *m
	return &copied
}

func (s *InMemoryReadingStore) Create(ctx context.Context, m *reading.MeterReading) error {
	key := readingKey(m.ApartmentID, m.FeeType, m.Period)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return ierr.NewError("reading already submitted").
			WithHint("A reading was already submitted for this apartment, fee type and period").
			WithReportableDetails(map[string]interface{}{
				"apartment_id": m.ApartmentID,
				"fee_type":     m.FeeType,
				"period":       m.Period.String(),
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	if err := s.InMemoryStore.Create(ctx, m.ID, copyReading(m)); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to store meter reading").
			Mark(ierr.ErrDatabase)
	}
	s.keys[key] = m.ID
	return nil
}

func (s *InMemoryReadingStore) GetByKey(ctx context.Context, apartmentID string, feeType types.FeeType, period types.BillingPeriod) (*reading.MeterReading, error) {
	s.mu.Lock()
	id, ok := s.keys[readingKey(apartmentID, feeType, period)]
	s.mu.Unlock()
	if !ok {
		return nil, ierr.NewError("meter reading not found").
			WithHint("No reading was submitted for this apartment, fee type and period").
			Mark(ierr.ErrNotFound)
	}

	m, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read meter reading").
			Mark(ierr.ErrDatabase)
	}
	return copyReading(m), nil
}

func (s *InMemoryReadingStore) ListByBuildingPeriod(ctx context.Context, buildingID string, period types.BillingPeriod) ([]*reading.MeterReading, error) {
	readings, err := s.InMemoryStore.List(ctx, nil, func(_ context.Context, m *reading.MeterReading, _ interface{}) bool {
		return m.BuildingID == buildingID && m.Period == period && m.Status == types.StatusPublished
	}, func(a, b *reading.MeterReading) bool {
		if a.ApartmentID != b.ApartmentID {
			return a.ApartmentID < b.ApartmentID
		}
		return a.FeeType < b.FeeType
	})
	if err != nil {
		return nil, err
	}
	return lo.Map(readings, func(m *reading.MeterReading, _ int) *reading.MeterReading {
		return copyReading(m)
	}), nil
}
