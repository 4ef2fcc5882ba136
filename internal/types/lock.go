package types

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// LockScope represents the scope of a generation lock.
type LockScope string

const (
	// LockScopeBillingRun serializes invoice generation per (building, period).
	LockScopeBillingRun LockScope = "billing_run"
)

// DefaultLockTimeout bounds how long a caller may wait on a held lock before
// the fail-fast path kicks in.
const DefaultLockTimeout = 30 * time.Second

// LockRequest describes a lock acquisition. A nil Timeout means the default;
// zero or negative means fail-fast.
type LockRequest struct {
	Key     string
	Timeout *time.Duration
}

func (r LockRequest) GetTimeout() time.Duration {
	if r.Timeout == nil {
		return DefaultLockTimeout
	}
	return *r.Timeout
}

// GenerateLockKey builds a deterministic lock key from a scope and params,
// in the form scope:key1=value1:key2=value2. Postgres hashes it internally;
// the in-process lock table uses it verbatim.
func GenerateLockKey(scope LockScope, params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}
	return b.String()
}

// BillingRunLockKey is the lock key serializing generation for one building
// and period.
func BillingRunLockKey(buildingID string, period BillingPeriod) string {
	return GenerateLockKey(LockScopeBillingRun, map[string]interface{}{
		"building_id": buildingID,
		"period":      period.String(),
	})
}
