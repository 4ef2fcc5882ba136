package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/towerbill/towerbill/internal/domain/building"
	"github.com/towerbill/towerbill/internal/types"
)

func windowBuilding(start, end int) *building.Building {
	return &building.Building{
		ID:                 "bldg_test",
		Name:               "Sunrise Tower",
		ReadingWindowStart: start,
		ReadingWindowEnd:   end,
		Active:             true,
	}
}

func TestReadingWindowBounds(t *testing.T) {
	policy := NewReadingWindowPolicy()
	period := types.NewBillingPeriod(2025, time.March)

	start, end := policy.WindowBounds(windowBuilding(5, 10), period)
	assert.Equal(t, time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC), start)
	// End is exclusive: midnight after the last window day.
	assert.Equal(t, time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC), end)
}

func TestReadingWindowInclusiveBoundaries(t *testing.T) {
	policy := NewReadingWindowPolicy()
	period := types.NewBillingPeriod(2025, time.March)
	b := windowBuilding(5, 10)

	tests := []struct {
		name        string
		submittedAt time.Time
		within      bool
	}{
		{"midnight of first window day", period.Day(5), true},
		{"end of last window day", period.Day(10).Add(23*time.Hour + 59*time.Minute + 59*time.Second), true},
		{"just before window opens", period.Day(5).Add(-time.Second), false},
		{"midnight after last window day", period.Day(11), false},
		{"mid window", period.Day(7).Add(12 * time.Hour), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.within, policy.IsWithinWindow(b, period, tc.submittedAt))
		})
	}
}

func TestReadingWindowSingleDay(t *testing.T) {
	policy := NewReadingWindowPolicy()
	period := types.NewBillingPeriod(2025, time.March)
	b := windowBuilding(15, 15)

	assert.True(t, policy.IsWithinWindow(b, period, period.Day(15).Add(time.Hour)))
	assert.False(t, policy.IsWithinWindow(b, period, period.Day(16)))
	assert.False(t, policy.IsWithinWindow(b, period, period.Day(14).Add(23*time.Hour)))
}

func TestReadingWindowClampsToMonthLength(t *testing.T) {
	policy := NewReadingWindowPolicy()
	b := windowBuilding(28, 31)

	// February 2025 has 28 days; a day-31 bound clamps to the 28th and the
	// window still spills into March 1st exclusive.
	feb := types.NewBillingPeriod(2025, time.February)
	start, end := policy.WindowBounds(b, feb)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), end)

	assert.True(t, policy.IsWithinWindow(b, feb, time.Date(2025, time.February, 28, 12, 0, 0, 0, time.UTC)))
	assert.False(t, policy.IsWithinWindow(b, feb, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)))

	// In a 31-day month the same bounds are used unclamped.
	mar := types.NewBillingPeriod(2025, time.March)
	start, end = policy.WindowBounds(b, mar)
	assert.Equal(t, time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestReadingWindowNormalizesTimezone(t *testing.T) {
	policy := NewReadingWindowPolicy()
	period := types.NewBillingPeriod(2025, time.March)
	b := windowBuilding(5, 10)

	// 01:00+02:00 on the 11th is 23:00 UTC on the 10th, still inside.
	zone := time.FixedZone("EET", 2*3600)
	inside := time.Date(2025, time.March, 11, 1, 0, 0, 0, zone)
	assert.True(t, policy.IsWithinWindow(b, period, inside))
}
