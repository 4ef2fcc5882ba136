package types

import (
	"fmt"
	"time"

	ierr "github.com/towerbill/towerbill/internal/errors"
)

// BillingPeriod identifies one (year, calendar month) billing cycle. It is a
// value type; the persisted state of a cycle for a building lives in the
// billing run entity.
type BillingPeriod struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func NewBillingPeriod(year int, month time.Month) BillingPeriod {
	return BillingPeriod{Year: year, Month: month}
}

// CurrentBillingPeriod returns the period containing the given instant (UTC).
func CurrentBillingPeriod(now time.Time) BillingPeriod {
	now = now.UTC()
	return BillingPeriod{Year: now.Year(), Month: now.Month()}
}

// ParseBillingPeriod parses the wire format "2006-01".
func ParseBillingPeriod(s string) (BillingPeriod, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return BillingPeriod{}, ierr.WithError(err).
			WithHint("Billing period must be in YYYY-MM format").
			WithReportableDetails(map[string]interface{}{"period": s}).
			Mark(ierr.ErrValidation)
	}
	return BillingPeriod{Year: t.Year(), Month: t.Month()}, nil
}

// Start returns midnight UTC on the first day of the period.
func (p BillingPeriod) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the last nanosecond of the period.
func (p BillingPeriod) End() time.Time {
	return p.Start().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// Days returns the number of days in the period's month.
func (p BillingPeriod) Days() int {
	return p.Start().AddDate(0, 1, -1).Day()
}

// Day returns midnight UTC on the given day of the period, clamped to the
// month's last day so a day-31 window bound is usable in a 30-day month.
func (p BillingPeriod) Day(day int) time.Time {
	if day < 1 {
		day = 1
	}
	if max := p.Days(); day > max {
		day = max
	}
	return time.Date(p.Year, p.Month, day, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether the instant falls inside the period.
func (p BillingPeriod) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start()) && !t.After(p.End())
}

func (p BillingPeriod) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Next returns the following period.
func (p BillingPeriod) Next() BillingPeriod {
	t := p.Start().AddDate(0, 1, 0)
	return BillingPeriod{Year: t.Year(), Month: t.Month()}
}

func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

func (p BillingPeriod) Validate() error {
	if p.Year < 2000 || p.Year > 2200 {
		return ierr.NewError("billing period year out of range").
			WithHint("Billing period year must be between 2000 and 2200").
			Mark(ierr.ErrValidation)
	}
	if p.Month < time.January || p.Month > time.December {
		return ierr.NewError("billing period month out of range").
			WithHint("Billing period month must be between 1 and 12").
			Mark(ierr.ErrValidation)
	}
	return nil
}
