package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/towerbill/towerbill/internal/domain/reading"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/postgres"
	"github.com/towerbill/towerbill/internal/types"
)

type readingRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

func NewReadingRepository(client *postgres.Client, log *logger.Logger) reading.Repository {
	return &readingRepository{client: client, log: log}
}

const readingColumns = `
	id, apartment_id, building_id, fee_type, period_year, period_month,
	value, submitted_at, status, created_at, updated_at, created_by, updated_by`

func (r *readingRepository) Create(ctx context.Context, m *reading.MeterReading) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO meter_readings (`+readingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.ID, m.ApartmentID, m.BuildingID, m.FeeType, m.Period.Year, int(m.Period.Month),
		m.Value.String(), m.SubmittedAt, m.Status, m.CreatedAt, m.UpdatedAt,
		m.CreatedBy, m.UpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHint("A reading was already submitted for this apartment, fee type and period").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to store meter reading").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *readingRepository) GetByKey(ctx context.Context, apartmentID string, feeType types.FeeType, period types.BillingPeriod) (*reading.MeterReading, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+readingColumns+`
		FROM meter_readings
		WHERE apartment_id = $1 AND fee_type = $2 AND period_year = $3
		AND period_month = $4 AND status = $5`,
		apartmentID, feeType, period.Year, int(period.Month), types.StatusPublished,
	)
	return scanReading(row)
}

func (r *readingRepository) ListByBuildingPeriod(ctx context.Context, buildingID string, period types.BillingPeriod) ([]*reading.MeterReading, error) {
	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT `+readingColumns+`
		FROM meter_readings
		WHERE building_id = $1 AND period_year = $2 AND period_month = $3 AND status = $4
		ORDER BY apartment_id, fee_type`,
		buildingID, period.Year, int(period.Month), types.StatusPublished,
	)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list meter readings").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var result []*reading.MeterReading
	for rows.Next() {
		m, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func scanReading(row rowScanner) (*reading.MeterReading, error) {
	var m reading.MeterReading
	var value string
	var month int
	err := row.Scan(
		&m.ID, &m.ApartmentID, &m.BuildingID, &m.FeeType, &m.Period.Year, &month,
		&value, &m.SubmittedAt, &m.Status, &m.CreatedAt, &m.UpdatedAt,
		&m.CreatedBy, &m.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("meter reading not found").
			WithHint("No reading was submitted for this apartment, fee type and period").
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read meter reading row").
			Mark(ierr.ErrDatabase)
	}
	m.Period.Month = time.Month(month)
	if err := parseDecimalInto(value, &m.Value); err != nil {
		return nil, err
	}
	return &m, nil
}
