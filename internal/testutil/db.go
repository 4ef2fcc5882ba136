package testutil

import (
	"context"
	"sync"

	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

type fakeTxKey struct{}

type fakeTx struct {
	held []string
}

// FakeDBClient implements postgres.IClient for service tests. Transactions
// are passthrough; generation locks are per-process try-locks released when
// the enclosing WithTx returns, mirroring advisory xact locks.
type FakeDBClient struct {
	mu    sync.Mutex
	locks map[string]bool
}

func NewFakeDBClient() *FakeDBClient {
	return &FakeDBClient{locks: make(map[string]bool)}
}

func (c *FakeDBClient) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(fakeTxKey{}).(*fakeTx); ok {
		return fn(ctx)
	}

	tx := &fakeTx{}
	err := fn(context.WithValue(ctx, fakeTxKey{}, tx))

	c.mu.Lock()
	for _, key := range tx.held {
		delete(c.locks, key)
	}
	c.mu.Unlock()
	return err
}

func (c *FakeDBClient) AcquireGenerationLock(ctx context.Context, req types.LockRequest) error {
	tx, ok := ctx.Value(fakeTxKey{}).(*fakeTx)
	if !ok {
		return ierr.NewError("generation lock requires a transaction").
			WithHint("Invoice generation must run inside a transaction").
			Mark(ierr.ErrInternal)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[req.Key] {
		return ierr.NewError("generation already in progress").
			WithHint("Another generation run holds the lock for this building and period").
			WithReportableDetails(map[string]interface{}{"lock_key": req.Key}).
			Mark(ierr.ErrAlreadyExists)
	}
	c.locks[req.Key] = true
	tx.held = append(tx.held, req.Key)
	return nil
}
