package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/towerbill/towerbill/internal/domain/invoice"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/postgres"
	"github.com/towerbill/towerbill/internal/types"
)

type invoiceRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

func NewInvoiceRepository(client *postgres.Client, log *logger.Logger) invoice.Repository {
	return &invoiceRepository{client: client, log: log}
}

const invoiceColumns = `
	id, apartment_id, building_id, fee_type, amount, invoice_status,
	period_year, period_month, period_start, period_end, issued_by, paid_at,
	status, created_at, updated_at, created_by, updated_by`

// CreateBatch inserts all rows inside one transaction so a failed generation
// run never leaves a partial invoice set behind.
func (r *invoiceRepository) CreateBatch(ctx context.Context, invoices []*invoice.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	return r.client.WithTx(ctx, func(txCtx context.Context) error {
		for _, inv := range invoices {
			_, err := r.client.Querier(txCtx).ExecContext(txCtx, `
				INSERT INTO invoices (`+invoiceColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
				inv.ID, inv.ApartmentID, inv.BuildingID, inv.FeeType, inv.Amount.String(),
				inv.InvoiceStatus, inv.Period.Year, int(inv.Period.Month),
				inv.PeriodStart, inv.PeriodEnd, inv.IssuedBy, inv.PaidAt,
				inv.Status, inv.CreatedAt, inv.UpdatedAt, inv.CreatedBy, inv.UpdatedBy,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return ierr.WithError(err).
						WithHint("An invoice already exists for this apartment, fee type and period").
						WithReportableDetails(map[string]interface{}{
							"apartment_id": inv.ApartmentID,
							"fee_type":     inv.FeeType,
							"period":       inv.Period.String(),
						}).
						Mark(ierr.ErrAlreadyExists)
				}
				return ierr.WithError(err).
					WithHint("Failed to create invoice").
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	return scanInvoice(row)
}

func (r *invoiceRepository) GetByKey(ctx context.Context, apartmentID string, feeType types.FeeType, period types.BillingPeriod) (*invoice.Invoice, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE apartment_id = $1 AND fee_type = $2 AND period_year = $3
		AND period_month = $4 AND status = $5`,
		apartmentID, feeType, period.Year, int(period.Month), types.StatusPublished,
	)
	return scanInvoice(row)
}

// UpdateStatus guards against lost updates: the WHERE clause carries the
// expected current status so a concurrent transition makes this a no-row
// update, surfaced as a conflict.
func (r *invoiceRepository) UpdateStatus(ctx context.Context, id string, from, to types.InvoiceStatus, paidAt *time.Time) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE invoices
		SET invoice_status = $3, paid_at = COALESCE($4, paid_at), updated_at = $5
		WHERE id = $1 AND invoice_status = $2`,
		id, from, to, paidAt, time.Now().UTC(),
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update invoice status").
			Mark(ierr.ErrDatabase)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to inspect status update result").
			Mark(ierr.ErrDatabase)
	}
	if n == 0 {
		return ierr.NewError("invoice status changed concurrently").
			WithHint("The invoice status changed since it was read; re-read and retry").
			WithReportableDetails(map[string]interface{}{
				"invoice_id":      id,
				"expected_status": from,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	query, args := invoiceFilterQuery(`SELECT `+invoiceColumns, filter)
	query += ` ORDER BY created_at DESC`
	if !filter.IsUnlimited() {
		query += ` LIMIT $8 OFFSET $9`
		args = append(args, filter.GetLimit(), filter.GetOffset())
	}

	rows, err := r.client.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var result []*invoice.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, inv)
	}
	return result, rows.Err()
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	query, args := invoiceFilterQuery(`SELECT COUNT(*)`, filter)
	var count int
	if err := r.client.Querier(ctx).QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func invoiceFilterQuery(selectClause string, filter *types.InvoiceFilter) (string, []interface{}) {
	var periodYear, periodMonth interface{}
	if filter.Period != nil {
		periodYear = filter.Period.Year
		periodMonth = int(filter.Period.Month)
	}

	query := selectClause + `
		FROM invoices
		WHERE status = $1
		AND (cardinality($2::text[]) = 0 OR building_id = ANY($2))
		AND (cardinality($3::text[]) = 0 OR apartment_id = ANY($3))
		AND (cardinality($4::text[]) = 0 OR invoice_status = ANY($4))
		AND ($5::int IS NULL OR (period_year = $5 AND period_month = $6))
		AND ($7::timestamptz IS NULL OR period_end < $7)`

	statuses := make([]string, len(filter.InvoiceStatus))
	for i, s := range filter.InvoiceStatus {
		statuses[i] = string(s)
	}

	args := []interface{}{
		filter.GetStatus(),
		pq.Array(filter.BuildingIDs),
		pq.Array(filter.ApartmentIDs),
		pq.Array(statuses),
		periodYear, periodMonth,
		filter.PeriodEndBefore,
	}
	return query, args
}

func scanInvoice(row rowScanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	var amount string
	var month int
	err := row.Scan(
		&inv.ID, &inv.ApartmentID, &inv.BuildingID, &inv.FeeType, &amount,
		&inv.InvoiceStatus, &inv.Period.Year, &month, &inv.PeriodStart,
		&inv.PeriodEnd, &inv.IssuedBy, &inv.PaidAt, &inv.Status,
		&inv.CreatedAt, &inv.UpdatedAt, &inv.CreatedBy, &inv.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("invoice not found").
			WithHint("No invoice exists with the given key").
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read invoice row").
			Mark(ierr.ErrDatabase)
	}
	inv.Period.Month = time.Month(month)
	if err := parseDecimalInto(amount, &inv.Amount); err != nil {
		return nil, err
	}
	return &inv, nil
}
