package service

import (
	"time"

	"github.com/towerbill/towerbill/internal/domain/building"
	"github.com/towerbill/towerbill/internal/types"
)

// ReadingWindowPolicy decides whether a meter reading submission instant is
// legal for a building and billing period. The policy is pure; window
// misconfiguration is rejected when the building is saved, so evaluation
// never fails.
type ReadingWindowPolicy interface {
	// WindowBounds returns the window start instant and the exclusive end
	// instant inside the period. Day bounds are clamped to the month length.
	WindowBounds(b *building.Building, period types.BillingPeriod) (time.Time, time.Time)

	// IsWithinWindow reports whether submittedAt falls inside the window.
	// Both boundary days count as inside.
	IsWithinWindow(b *building.Building, period types.BillingPeriod, submittedAt time.Time) bool
}

type readingWindowPolicy struct{}

func NewReadingWindowPolicy() ReadingWindowPolicy {
	return readingWindowPolicy{}
}

func (readingWindowPolicy) WindowBounds(b *building.Building, period types.BillingPeriod) (time.Time, time.Time) {
	start := period.Day(b.ReadingWindowStart)
	// End of the last window day: midnight of the following day, exclusive.
	end := period.Day(b.ReadingWindowEnd).AddDate(0, 0, 1)
	return start, end
}

func (p readingWindowPolicy) IsWithinWindow(b *building.Building, period types.BillingPeriod, submittedAt time.Time) bool {
	start, end := p.WindowBounds(b, period)
	submittedAt = submittedAt.UTC()
	return !submittedAt.Before(start) && submittedAt.Before(end)
}
