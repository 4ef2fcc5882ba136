package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/towerbill/towerbill/internal/domain/tariff"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/postgres"
	"github.com/towerbill/towerbill/internal/types"
)

type tariffRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

func NewTariffRepository(client *postgres.Client, log *logger.Logger) tariff.Repository {
	return &tariffRepository{client: client, log: log}
}

const tariffColumns = `
	id, building_id, fee_type, calculation_method, unit_price, unit_label,
	status, created_at, updated_at, created_by, updated_by`

func (r *tariffRepository) Create(ctx context.Context, t *tariff.Tariff) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO tariffs (`+tariffColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.BuildingID, t.FeeType, t.CalculationMethod, t.UnitPrice.String(),
		t.UnitLabel, t.Status, t.CreatedAt, t.UpdatedAt, t.CreatedBy, t.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create tariff").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *tariffRepository) Get(ctx context.Context, id string) (*tariff.Tariff, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+tariffColumns+`
		FROM tariffs
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	return scanTariff(row)
}

// GetActive picks the most recently created version at or before asOf: the
// append-only table plus this query is the superseding model.
func (r *tariffRepository) GetActive(ctx context.Context, buildingID string, feeType types.FeeType, asOf time.Time) (*tariff.Tariff, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+tariffColumns+`
		FROM tariffs
		WHERE building_id = $1 AND fee_type = $2 AND created_at <= $3 AND status = $4
		ORDER BY created_at DESC
		LIMIT 1`,
		buildingID, feeType, asOf, types.StatusPublished,
	)
	return scanTariff(row)
}

func (r *tariffRepository) ListFeeTypes(ctx context.Context, buildingID string, asOf time.Time) ([]types.FeeType, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT DISTINCT fee_type
		FROM tariffs
		WHERE building_id = $1 AND created_at <= $2 AND status = $3
		ORDER BY fee_type`,
		buildingID, asOf, types.StatusPublished,
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list fee types").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var result []types.FeeType
	for rows.Next() {
		var ft types.FeeType
		if err := rows.Scan(&ft); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to read fee type row").
				Mark(ierr.ErrDatabase)
		}
		result = append(result, ft)
	}
	return result, rows.Err()
}

func (r *tariffRepository) List(ctx context.Context, filter *types.TariffFilter) ([]*tariff.Tariff, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+tariffColumns+`
		FROM tariffs
		WHERE status = $1
		AND (cardinality($2::text[]) = 0 OR building_id = ANY($2))
		AND (cardinality($3::text[]) = 0 OR fee_type = ANY($3))
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`,
		filter.GetStatus(), pq.Array(filter.BuildingIDs),
		pq.Array(feeTypeStrings(filter.FeeTypes)),
		filter.GetLimit(), filter.GetOffset(),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list tariffs").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var result []*tariff.Tariff
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *tariffRepository) Count(ctx context.Context, filter *types.TariffFilter) (int, error) {
	var count int
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM tariffs
		WHERE status = $1
		AND (cardinality($2::text[]) = 0 OR building_id = ANY($2))
		AND (cardinality($3::text[]) = 0 OR fee_type = ANY($3))`,
		filter.GetStatus(), pq.Array(filter.BuildingIDs),
		pq.Array(feeTypeStrings(filter.FeeTypes)),
	).Scan(&count)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count tariffs").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func scanTariff(row rowScanner) (*tariff.Tariff, error) {
	var t tariff.Tariff
	var unitPrice string
	err := row.Scan(
		&t.ID, &t.BuildingID, &t.FeeType, &t.CalculationMethod, &unitPrice,
		&t.UnitLabel, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.CreatedBy, &t.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("tariff not found").
			WithHint("No active tariff exists for this building and fee type").
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read tariff row").
			Mark(ierr.ErrDatabase)
	}
	if err := parseDecimalInto(unitPrice, &t.UnitPrice); err != nil {
		return nil, err
	}
	return &t, nil
}

func feeTypeStrings(feeTypes []types.FeeType) []string {
	out := make([]string, len(feeTypes))
	for i, ft := range feeTypes {
		out[i] = string(ft)
	}
	return out
}
