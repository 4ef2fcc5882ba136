package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/towerbill/towerbill/internal/domain/building"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/postgres"
	"github.com/towerbill/towerbill/internal/types"
)

type buildingRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

func NewBuildingRepository(client *postgres.Client, log *logger.Logger) building.Repository {
	return &buildingRepository{client: client, log: log}
}

const buildingColumns = `
	id, name, address, floors, reading_window_start, reading_window_end,
	active, status, created_at, updated_at, created_by, updated_by`

func (r *buildingRepository) Create(ctx context.Context, b *building.Building) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO buildings (`+buildingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		b.ID, b.Name, b.Address, b.Floors, b.ReadingWindowStart, b.ReadingWindowEnd,
		b.Active, b.Status, b.CreatedAt, b.UpdatedAt, b.CreatedBy, b.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create building").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *buildingRepository) Get(ctx context.Context, id string) (*building.Building, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+buildingColumns+`
		FROM buildings
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	return scanBuilding(row)
}

func (r *buildingRepository) Update(ctx context.Context, b *building.Building) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE buildings
		SET name = $2, address = $3, floors = $4, reading_window_start = $5,
			reading_window_end = $6, active = $7, status = $8,
			updated_at = $9, updated_by = $10
		WHERE id = $1`,
		b.ID, b.Name, b.Address, b.Floors, b.ReadingWindowStart,
		b.ReadingWindowEnd, b.Active, b.Status, b.UpdatedAt, b.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update building").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "building")
}

func (r *buildingRepository) List(ctx context.Context, filter *types.BuildingFilter) ([]*building.Building, error) {
	query := `
		SELECT ` + buildingColumns + `
		FROM buildings
		WHERE status = $1
		AND (cardinality($2::text[]) = 0 OR id = ANY($2))
		AND ($3 = false OR active)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.client.Querier(ctx).QueryContext(ctx, query,
		filter.GetStatus(), pq.Array(filter.BuildingIDs), filter.ActiveOnly,
		filter.GetLimit(), filter.GetOffset(),
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list buildings").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var result []*building.Building
	for rows.Next() {
		b, err := scanBuilding(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func (r *buildingRepository) Count(ctx context.Context, filter *types.BuildingFilter) (int, error) {
	var count int
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM buildings
		WHERE status = $1
		AND (cardinality($2::text[]) = 0 OR id = ANY($2))
		AND ($3 = false OR active)`,
		filter.GetStatus(), pq.Array(filter.BuildingIDs), filter.ActiveOnly,
	).Scan(&count)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count buildings").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBuilding(row rowScanner) (*building.Building, error) {
	var b building.Building
	err := row.Scan(
		&b.ID, &b.Name, &b.Address, &b.Floors, &b.ReadingWindowStart,
		&b.ReadingWindowEnd, &b.Active, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		&b.CreatedBy, &b.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("building not found").
			WithHint("No building exists with the given ID").
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read building row").
			Mark(ierr.ErrDatabase)
	}
	return &b, nil
}

// requireRowAffected converts a zero-row update into a not-found error.
func requireRowAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to inspect update result").
			Mark(ierr.ErrDatabase)
	}
	if n == 0 {
		return ierr.NewErrorf("%s not found", entity).
			WithHintf("No %s exists with the given ID", entity).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
