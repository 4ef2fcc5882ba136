package building

import (
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// Building is a managed building. Its reading window bounds the day-of-month
// range within which metered readings may be submitted for a billing period.
type Building struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Address            string `json:"address,omitempty"`
	Floors             int    `json:"floors,omitempty"`
	ReadingWindowStart int    `json:"reading_window_start"`
	ReadingWindowEnd   int    `json:"reading_window_end"`
	Active             bool   `json:"active"`
	types.BaseModel
}

// Validate enforces the reading window invariants. Window misconfiguration is
// rejected here, at create/update time, never at policy evaluation time.
func (b *Building) Validate() error {
	if b.Name == "" {
		return ierr.NewError("building name is required").
			WithHint("Please provide a building name").
			Mark(ierr.ErrValidation)
	}
	if b.ReadingWindowStart < 1 || b.ReadingWindowEnd > 31 {
		return ierr.NewError("reading window out of range").
			WithHint("Reading window days must be between 1 and 31").
			WithReportableDetails(map[string]interface{}{
				"reading_window_start": b.ReadingWindowStart,
				"reading_window_end":   b.ReadingWindowEnd,
			}).
			Mark(ierr.ErrValidation)
	}
	if b.ReadingWindowStart > b.ReadingWindowEnd {
		return ierr.NewError("reading window start must not be after end").
			WithHint("Reading window start day must be less than or equal to the end day").
			WithReportableDetails(map[string]interface{}{
				"reading_window_start": b.ReadingWindowStart,
				"reading_window_end":   b.ReadingWindowEnd,
			}).
			Mark(ierr.ErrValidation)
	}
	if b.Floors < 0 {
		return ierr.NewError("floors must not be negative").
			WithHint("Please provide a valid floor count").
			Mark(ierr.ErrValidation)
	}
	return nil
}
