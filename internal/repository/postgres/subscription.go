package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/towerbill/towerbill/internal/domain/subscription"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/postgres"
	"github.com/towerbill/towerbill/internal/types"
)

type subscriptionRepository struct {
	client *postgres.Client
	log    *logger.Logger
}

func NewSubscriptionRepository(client *postgres.Client, log *logger.Logger) subscription.Repository {
	return &subscriptionRepository{client: client, log: log}
}

const subscriptionColumns = `
	id, project_id, plan_code, amount, amount_paid, num_months, expires_at,
	sub_status, approved_at, renewed_from_id,
	status, created_at, updated_at, created_by, updated_by`

func (r *subscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) error {
	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		s.ID, s.ProjectID, s.PlanCode, s.Amount.String(), s.AmountPaid.String(),
		s.NumMonths, s.ExpiresAt, s.SubStatus, s.ApprovedAt, s.RenewedFromID,
		s.Status, s.CreatedAt, s.UpdatedAt, s.CreatedBy, s.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create subscription").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = $1 AND status != $2`,
		id, types.StatusDeleted,
	)
	return scanSubscription(row)
}

func (r *subscriptionRepository) Update(ctx context.Context, s *subscription.Subscription) error {
	res, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE subscriptions
		SET amount = $2, amount_paid = $3, num_months = $4, expires_at = $5,
			sub_status = $6, approved_at = $7, status = $8,
			updated_at = $9, updated_by = $10
		WHERE id = $1`,
		s.ID, s.Amount.String(), s.AmountPaid.String(), s.NumMonths, s.ExpiresAt,
		s.SubStatus, s.ApprovedAt, s.Status, s.UpdatedAt, s.UpdatedBy,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	return requireRowAffected(res, "subscription")
}

func (r *subscriptionRepository) List(ctx context.Context, filter *types.SubscriptionFilter) ([]*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE status = $1
		AND (cardinality($2::text[]) = 0 OR project_id = ANY($2))
		AND (cardinality($3::text[]) = 0 OR sub_status = ANY($3))
		ORDER BY created_at DESC`
	args := []interface{}{
		filter.GetStatus(),
		pq.Array(filter.ProjectIDs),
		pq.Array(subscriptionStatusStrings(filter.SubscriptionStatus)),
	}
	if !filter.IsUnlimited() {
		query += ` LIMIT $4 OFFSET $5`
		args = append(args, filter.GetLimit(), filter.GetOffset())
	}

	rows, err := r.client.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var result []*subscription.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *subscriptionRepository) Count(ctx context.Context, filter *types.SubscriptionFilter) (int, error) {
	var count int
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM subscriptions
		WHERE status = $1
		AND (cardinality($2::text[]) = 0 OR project_id = ANY($2))
		AND (cardinality($3::text[]) = 0 OR sub_status = ANY($3))`,
		filter.GetStatus(),
		pq.Array(filter.ProjectIDs),
		pq.Array(subscriptionStatusStrings(filter.SubscriptionStatus)),
	).Scan(&count)
	if err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count subscriptions").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func scanSubscription(row rowScanner) (*subscription.Subscription, error) {
	var s subscription.Subscription
	var amount, amountPaid string
	err := row.Scan(
		&s.ID, &s.ProjectID, &s.PlanCode, &amount, &amountPaid, &s.NumMonths,
		&s.ExpiresAt, &s.SubStatus, &s.ApprovedAt, &s.RenewedFromID,
		&s.Status, &s.CreatedAt, &s.UpdatedAt, &s.CreatedBy, &s.UpdatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, ierr.NewError("subscription not found").
			WithHint("No subscription exists with the given ID").
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to read subscription row").
			Mark(ierr.ErrDatabase)
	}
	if err := parseDecimalInto(amount, &s.Amount); err != nil {
		return nil, err
	}
	if err := parseDecimalInto(amountPaid, &s.AmountPaid); err != nil {
		return nil, err
	}
	return &s, nil
}

func subscriptionStatusStrings(statuses []types.SubscriptionStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
