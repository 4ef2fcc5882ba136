package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/towerbill/towerbill/internal/domain/apartment"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/postgres"
	"github.com/towerbill/towerbill/internal/types"
)

type apartmentRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

func NewApartmentRepository(client *postgres.Client, log *logger.Logger) apartment.Repository {
	return &apartmentRepository{client: client, log: log}
}

const apartmentColumns = `
	id, building_id, code, floor, area, unit_count, occupancy,
	status, created_at, updated_at, created_by, updated_by`

func (r *apartmentRepository) Create(ctx context.Context, a *apartment.Apartment) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO apartments (`+apartmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.BuildingID, a.Code, a.Floor, decimalPtrToString(a.Area), a.UnitCount,
		a.Occupancy, a.Status, a.CreatedAt, a.UpdatedAt, a.CreatedBy, a.UpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("An apartment with this code already exists in the building").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create apartment").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *apartmentRepository) Get(ctx context.Context, id string) (*apartment.Apartment, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+apartmentColumns+`
		FROM apartments
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	return scanApartment(row)
}

func (r *apartmentRepository) Update(ctx context.Context, a *apartment.Apartment) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE apartments
		SET code = $2, floor = $3, area = $4, unit_count = $5, occupancy = $6,
			status = $7, updated_at = $8, updated_by = $9
		WHERE id = $1`,
		a.ID, a.Code, a.Floor, decimalPtrToString(a.Area), a.UnitCount,
		a.Occupancy, a.Status, a.UpdatedAt, a.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update apartment").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "apartment")
}

func (r *apartmentRepository) ListByBuilding(ctx context.Context, buildingID string) ([]*apartment.Apartment, error) {
	filter := types.NewApartmentFilter()
	filter.QueryFilter = types.NewNoLimitQueryFilter()
	filter.BuildingIDs = []string{buildingID}
	return r.List(ctx, filter)
}

func (r *apartmentRepository) List(ctx context.Context, filter *types.ApartmentFilter) ([]*apartment.Apartment, error) {
	query := `
		SELECT ` + apartmentColumns + `
		FROM apartments
		WHERE status = $1
		AND (cardinality($2::text[]) = 0 OR building_id = ANY($2))
		AND (cardinality($3::text[]) = 0 OR occupancy = ANY($3))
		ORDER BY building_id, code`
	args := []interface{}{
		filter.GetStatus(),
		pq.Array(filter.BuildingIDs),
		pq.Array(apartmentStatusStrings(filter.ApartmentStatuses)),
	}
	if !filter.IsUnlimited() {
		query += ` LIMIT $4 OFFSET $5`
		args = append(args, filter.GetLimit(), filter.GetOffset())
	}

	rows, err := r.client.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list apartments").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var result []*apartment.Apartment
	for rows.Next() {
		a, err := scanApartment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (r *apartmentRepository) Count(ctx context.Context, filter *types.ApartmentFilter) (int, error) {
	var count int
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM apartments
		WHERE status = $1
		AND (cardinality($2::text[]) = 0 OR building_id = ANY($2))
		AND (cardinality($3::text[]) = 0 OR occupancy = ANY($3))`,
		filter.GetStatus(),
		pq.Array(filter.BuildingIDs),
		pq.Array(apartmentStatusStrings(filter.ApartmentStatuses)),
	).Scan(&count)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count apartments").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func scanApartment(row rowScanner) (*apartment.Apartment, error) {
	var a apartment.Apartment
	var area sql.NullString
	err := row.Scan(
		&a.ID, &a.BuildingID, &a.Code, &a.Floor, &area, &a.UnitCount,
		&a.Occupancy, &a.Status, &a.CreatedAt, &a.UpdatedAt, &a.CreatedBy, &a.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("apartment not found").
			WithHint("No apartment exists with the given ID").
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read apartment row").
			Mark(ierr.ErrDatabase)
	}
	if area.Valid {
		d, err := decimal.NewFromString(area.String)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to parse apartment area").
				Mark(ierr.ErrDatabase)
		}
		a.Area = &d
	}
	return &a, nil
}

func apartmentStatusStrings(statuses []types.ApartmentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func decimalPtrToString(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
