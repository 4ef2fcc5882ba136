package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateLockKeyIsDeterministic(t *testing.T) {
	// Param order must not influence the key.
	a := GenerateLockKey(LockScopeBillingRun, map[string]interface{}{
		"building_id": "bldg_1",
		"period":      "2025-03",
	})
	b := GenerateLockKey(LockScopeBillingRun, map[string]interface{}{
		"period":      "2025-03",
		"building_id": "bldg_1",
	})
	assert.Equal(t, a, b)
	assert.Equal(t, "billing_run:building_id=bldg_1:period=2025-03", a)
}

func TestBillingRunLockKey(t *testing.T) {
	period := NewBillingPeriod(2025, time.March)
	key := BillingRunLockKey("bldg_1", period)
	assert.Equal(t, "billing_run:building_id=bldg_1:period=2025-03", key)

	// Distinct buildings and periods get distinct keys.
	assert.NotEqual(t, key, BillingRunLockKey("bldg_2", period))
	assert.NotEqual(t, key, BillingRunLockKey("bldg_1", period.Next()))
}

func TestLockRequestTimeout(t *testing.T) {
	assert.Equal(t, DefaultLockTimeout, LockRequest{Key: "k"}.GetTimeout())

	zero := time.Duration(0)
	assert.Equal(t, zero, LockRequest{Key: "k", Timeout: &zero}.GetTimeout())

	custom := 5 * time.Second
	assert.Equal(t, custom, LockRequest{Key: "k", Timeout: &custom}.GetTimeout())
}
