package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBillingPeriod(t *testing.T) {
	tests := []struct {
		input   string
		want    BillingPeriod
		wantErr bool
	}{
		{"2025-03", BillingPeriod{Year: 2025, Month: time.March}, false},
		{"2025-12", BillingPeriod{Year: 2025, Month: time.December}, false},
		{"2025-13", BillingPeriod{}, true},
		{"2025-00", BillingPeriod{}, true},
		{"2025-3", BillingPeriod{}, true},
		{"202503", BillingPeriod{}, true},
		{"", BillingPeriod{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseBillingPeriod(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBillingPeriodBounds(t *testing.T) {
	p := NewBillingPeriod(2025, time.March)

	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), p.Start())
	assert.Equal(t, time.Date(2025, time.March, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), p.End())
	assert.Equal(t, 31, p.Days())

	assert.True(t, p.Contains(p.Start()))
	assert.True(t, p.Contains(p.End()))
	assert.False(t, p.Contains(p.Start().Add(-time.Nanosecond)))
	assert.False(t, p.Contains(p.End().Add(time.Nanosecond)))
}

func TestBillingPeriodDayClamp(t *testing.T) {
	feb := NewBillingPeriod(2025, time.February)
	assert.Equal(t, 28, feb.Days())
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), feb.Day(31))
	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), feb.Day(0))

	leap := NewBillingPeriod(2024, time.February)
	assert.Equal(t, 29, leap.Days())
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), leap.Day(31))
}

func TestBillingPeriodNext(t *testing.T) {
	assert.Equal(t, NewBillingPeriod(2025, time.April), NewBillingPeriod(2025, time.March).Next())
	assert.Equal(t, NewBillingPeriod(2026, time.January), NewBillingPeriod(2025, time.December).Next())
}

func TestBillingPeriodString(t *testing.T) {
	assert.Equal(t, "2025-03", NewBillingPeriod(2025, time.March).String())
	assert.Equal(t, "2025-12", NewBillingPeriod(2025, time.December).String())

	// String round-trips through Parse.
	p := NewBillingPeriod(2025, time.July)
	parsed, err := ParseBillingPeriod(p.String())
	assert.NoError(t, err)
	assert.Equal(t, p, parsed)
}

func TestBillingPeriodValidate(t *testing.T) {
	assert.NoError(t, NewBillingPeriod(2025, time.March).Validate())
	assert.Error(t, NewBillingPeriod(1999, time.March).Validate())
	assert.Error(t, NewBillingPeriod(2201, time.March).Validate())
	assert.Error(t, BillingPeriod{Year: 2025, Month: 13}.Validate())
	assert.Error(t, BillingPeriod{Year: 2025}.Validate())
}

func TestCurrentBillingPeriod(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*3600)
	// 02:00 on July 1st in UTC+5 is still June 30th in UTC.
	now := time.Date(2025, time.July, 1, 2, 0, 0, 0, zone)
	assert.Equal(t, NewBillingPeriod(2025, time.June), CurrentBillingPeriod(now))
}
