package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/towerbill/towerbill/internal/domain/billingrun"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// InMemoryBillingRunStore implements billingrun.Repository
type InMemoryBillingRunStore struct {
	*InMemoryStore[*billingrun.BillingRun]

	mu   sync.Mutex
	keys map[string]string // building|period -> run ID
}

func NewInMemoryBillingRunStore() *InMemoryBillingRunStore {
	return &InMemoryBillingRunStore{
		InMemoryStore: NewInMemoryStore[*billingrun.BillingRun](),
		keys:          make(map[string]string),
	}
}

func runKey(buildingID string, period types.BillingPeriod) string {
	return fmt.Sprintf("%s|%s", buildingID, period)
}

func copyBillingRun(run *billingrun.BillingRun) *billingrun.BillingRun {
	if run == nil {
		return nil
	}
	copied := *run
	if run.StartedAt != nil {
		startedAt := *run.StartedAt
		copied.StartedAt = &startedAt
	}
	if run.ClosedAt != nil {
		closedAt := *run.ClosedAt
		copied.ClosedAt = &closedAt
	}
	if run.Result != nil {
		result := types.GenerationResult{
			CreatedInvoiceIDs: append([]string{}, run.Result.CreatedInvoiceIDs...),
			Skipped:           append([]types.SkippedLineItem{}, run.Result.Skipped...),
		}
		copied.Result = &result
	}
	if run.Metadata != nil {
		metadata := make(types.Metadata, len(run.Metadata))
		for k, v := range run.Metadata {
			metadata[k] = v
		}
		copied.Metadata = metadata
	}
	return &copied
}

func (s *InMemoryBillingRunStore) Create(ctx context.Context, run *billingrun.BillingRun) error {
	key := runKey(run.BuildingID, run.Period)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return ierr.NewError("billing run already exists").
			WithHint("A billing run already exists for this building and period").
			WithReportableDetails(map[string]interface{}{
				"building_id": run.BuildingID,
				"period":      run.Period.String(),
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	if err := s.InMemoryStore.Create(ctx, run.ID, copyBillingRun(run)); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create billing run").
			Mark(ierr.ErrDatabase)
	}
	s.keys[key] = run.ID
	return nil
}

func (s *InMemoryBillingRunStore) Get(ctx context.Context, id string) (*billingrun.BillingRun, error) {
	run, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.NewError("billing run not found").
			WithHint("No billing run exists with the given ID").
			Mark(ierr.ErrNotFound)
	}
	return copyBillingRun(run), nil
}

func (s *InMemoryBillingRunStore) GetByBuildingAndPeriod(ctx context.Context, buildingID string, period types.BillingPeriod) (*billingrun.BillingRun, error) {
	s.mu.Lock()
	id, ok := s.keys[runKey(buildingID, period)]
	s.mu.Unlock()
	if !ok {
		return nil, ierr.NewError("billing run not found").
			WithHint("No billing run exists for this building and period").
			Mark(ierr.ErrNotFound)
	}
	return s.Get(ctx, id)
}

// TransitionStatus compare-and-swaps the run status under the store lock,
// matching the single-winner semantics of the SQL implementation.
func (s *InMemoryBillingRunStore) TransitionStatus(ctx context.Context, id string, from, to types.BillingRunStatus) error {
	err := s.InMemoryStore.Mutate(ctx, id, func(run *billingrun.BillingRun) (*billingrun.BillingRun, error) {
		if run.RunStatus != from {
			return nil, ierr.NewError("billing run status changed concurrently").
				WithHint("Another generation run is in progress for this building and period").
				WithReportableDetails(map[string]interface{}{
					"billing_run_id":  id,
					"expected_status": from,
					"actual_status":   run.RunStatus,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		updated := copyBillingRun(run)
		updated.RunStatus = to
		updated.UpdatedAt = time.Now().UTC()
		return updated, nil
	})
	if err == ErrNotFound {
		return ierr.NewError("billing run not found").
			WithHint("No billing run exists with the given ID").
			Mark(ierr.ErrNotFound)
	}
	return err
}

func (s *InMemoryBillingRunStore) Update(ctx context.Context, run *billingrun.BillingRun) error {
	err := s.InMemoryStore.Mutate(ctx, run.ID, func(stored *billingrun.BillingRun) (*billingrun.BillingRun, error) {
		updated := copyBillingRun(run)
		// The status column is owned by TransitionStatus.
		updated.RunStatus = stored.RunStatus
		return updated, nil
	})
	if err == ErrNotFound {
		return ierr.NewError("billing run not found").
			WithHint("No billing run exists with the given ID").
			Mark(ierr.ErrNotFound)
	}
	return err
}
