package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// pg error code 55P03 = lock_not_available (lock_timeout expired)
const pqLockNotAvailable = "55P03"

// AcquireGenerationLock takes the advisory lock serializing invoice
// generation for one (building, period) key. A zero or negative timeout is
// fail-fast: a held lock surfaces immediately as an already-exists conflict
// so the caller can back off and retry. The lock is released automatically
// on commit/rollback and must be taken inside a transaction.
func (c *Client) AcquireGenerationLock(ctx context.Context, req types.LockRequest) error {
	tx := c.TxFromContext(ctx)
	if tx == nil {
		return ierr.NewError("generation lock requires a transaction").
			WithHint("Invoice generation must run inside a transaction").
			Mark(ierr.ErrInternal)
	}

	timeout := req.GetTimeout()

	if timeout <= 0 {
		ok, err := c.tryAdvisoryLock(ctx, req.Key)
		if err != nil {
			return err
		}
		if !ok {
			return ierr.NewError("generation already in progress").
				WithHint("Another generation run holds the lock for this building and period").
				WithReportableDetails(map[string]interface{}{"lock_key": req.Key}).
				Mark(ierr.ErrAlreadyExists)
		}
		return nil
	}

	// lock_timeout is transaction-local and resets on commit/rollback.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", timeout.Milliseconds())); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to set lock timeout").
			Mark(ierr.ErrDatabase)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, req.Key); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqLockNotAvailable {
			return ierr.WithError(err).
				WithHintf("Could not acquire the generation lock within %v", timeout).
				WithReportableDetails(map[string]interface{}{"lock_key": req.Key}).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to acquire generation lock").
			Mark(ierr.ErrDatabase)
	}

	return nil
}

// tryAdvisoryLock attempts the lock without waiting. Released on
// commit/rollback.
func (c *Client) tryAdvisoryLock(ctx context.Context, key string) (bool, error) {
	tx := c.TxFromContext(ctx)

	var ok bool
	err := tx.QueryRowContext(ctx, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, key).Scan(&ok)
	if err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to probe generation lock").
			Mark(ierr.ErrDatabase)
	}
	return ok, nil
}
