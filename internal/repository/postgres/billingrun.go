package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/towerbill/towerbill/internal/domain/billingrun"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/postgres"
	"github.com/towerbill/towerbill/internal/types"
)

type billingRunRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

func NewBillingRunRepository(client *postgres.Client, log *logger.Logger) billingrun.Repository {
	return &billingRunRepository{client: client, log: log}
}

const billingRunColumns = `
	id, building_id, period_year, period_month, run_status, result,
	started_at, closed_at, closed_by, metadata,
	status, created_at, updated_at, created_by, updated_by`

func (r *billingRunRepository) Create(ctx context.Context, run *billingrun.BillingRun) error {
	result, metadata, err := marshalRunPayload(run)
	if err != nil {
		return err
	}
	_, err = r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO billing_runs (`+billingRunColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		run.ID, run.BuildingID, run.Period.Year, int(run.Period.Month),
		run.RunStatus, result, run.StartedAt, run.ClosedAt, run.ClosedBy, metadata,
		run.Status, run.CreatedAt, run.UpdatedAt, run.CreatedBy, run.UpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A billing run already exists for this building and period").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create billing run").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *billingRunRepository) Get(ctx context.Context, id string) (*billingrun.BillingRun, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+billingRunColumns+`
		FROM billing_runs
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	return scanBillingRun(row)
}

func (r *billingRunRepository) GetByBuildingAndPeriod(ctx context.Context, buildingID string, period types.BillingPeriod) (*billingrun.BillingRun, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+billingRunColumns+`
		FROM billing_runs
		WHERE building_id = $1 AND period_year = $2 AND period_month = $3 AND status = $4`,
		buildingID, period.Year, int(period.Month), types.StatusPublished,
	)
	return scanBillingRun(row)
}

// TransitionStatus is the serialization point for concurrent generation: the
// compare-and-swap on run_status admits exactly one winner.
func (r *billingRunRepository) TransitionStatus(ctx context.Context, id string, from, to types.BillingRunStatus) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE billing_runs
		SET run_status = $3, updated_at = $4
		WHERE id = $1 AND run_status = $2`,
		id, from, to, time.Now().UTC(),
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to transition billing run status").
			Mark(ierr.ErrDatabase)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to inspect billing run transition result").
			Mark(ierr.ErrDatabase)
	}
	if n == 0 {
		return ierr.NewError("billing run status changed concurrently").
			WithHint("Another generation run is in progress for this building and period").
			WithReportableDetails(map[string]interface{}{
				"billing_run_id":  id,
				"expected_status": from,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (r *billingRunRepository) Update(ctx context.Context, run *billingrun.BillingRun) error {
	result, metadata, err := marshalRunPayload(run)
	if err != nil {
		return err
	}
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE billing_runs
		SET result = $2, started_at = $3, closed_at = $4, closed_by = $5,
			metadata = $6, updated_at = $7, updated_by = $8
		WHERE id = $1`,
		run.ID, result, run.StartedAt, run.ClosedAt, run.ClosedBy,
		metadata, run.UpdatedAt, run.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update billing run").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "billing run")
}

func marshalRunPayload(run *billingrun.BillingRun) (result, metadata interface{}, err error) {
	if run.Result != nil {
		b, err := json.Marshal(run.Result)
		if err != nil {
			return nil, nil, ierr.WithError(err).
				WithHint("Failed to encode generation result").
				Mark(ierr.ErrInternal)
		}
		result = b
	}
	if run.Metadata != nil {
		b, err := json.Marshal(run.Metadata)
		if err != nil {
			return nil, nil, ierr.WithError(err).
				WithHint("Failed to encode billing run metadata").
				Mark(ierr.ErrInternal)
		}
		metadata = b
	}
	return result, metadata, nil
}

func scanBillingRun(row rowScanner) (*billingrun.BillingRun, error) {
	var run billingrun.BillingRun
	var month int
	var result, metadata []byte
	err := row.Scan(
		&run.ID, &run.BuildingID, &run.Period.Year, &month, &run.RunStatus,
		&result, &run.StartedAt, &run.ClosedAt, &run.ClosedBy, &metadata,
		&run.Status, &run.CreatedAt, &run.UpdatedAt, &run.CreatedBy, &run.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("billing run not found").
			WithHint("No billing run exists for this building and period").
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read billing run row").
			Mark(ierr.ErrDatabase)
	}
	run.Period.Month = time.Month(month)
	if len(result) > 0 {
		var gr types.GenerationResult
		if err := json.Unmarshal(result, &gr); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to decode generation result").
				Mark(ierr.ErrDatabase)
		}
		run.Result = &gr
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &run.Metadata); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to decode billing run metadata").
				Mark(ierr.ErrDatabase)
		}
	}
	return &run, nil
}
