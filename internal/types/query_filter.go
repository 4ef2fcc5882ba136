package types

import (
	"github.com/samber/lo"
	ierr "github.com/towerbill/towerbill/internal/errors"
)

const (
	defaultFilterLimit = 50
	maxFilterLimit     = 1000
)

// QueryFilter holds the pagination and ordering options shared by all list
// endpoints. Pointer fields distinguish "not provided" from zero values.
type QueryFilter struct {
	Limit  *int    `json:"limit,omitempty" form:"limit"`
	Offset *int    `json:"offset,omitempty" form:"offset"`
	Order  *string `json:"order,omitempty" form:"order"`
	Status *Status `json:"status,omitempty" form:"status"`
}

// NewDefaultQueryFilter returns a filter with the default page size.
func NewDefaultQueryFilter() *QueryFilter {
	return &QueryFilter{
		Limit:  lo.ToPtr(defaultFilterLimit),
		Offset: lo.ToPtr(0),
		Status: lo.ToPtr(StatusPublished),
	}
}

// NewNoLimitQueryFilter returns a filter without pagination, for internal
// callers like the overdue sweep that must see every row.
func NewNoLimitQueryFilter() *QueryFilter {
	return &QueryFilter{
		Offset: lo.ToPtr(0),
		Status: lo.ToPtr(StatusPublished),
	}
}

func (f *QueryFilter) GetLimit() int {
	if f == nil || f.Limit == nil {
		return defaultFilterLimit
	}
	return *f.Limit
}

func (f *QueryFilter) GetOffset() int {
	if f == nil || f.Offset == nil {
		return 0
	}
	return *f.Offset
}

func (f *QueryFilter) GetOrder() string {
	if f == nil || f.Order == nil {
		return "desc"
	}
	return *f.Order
}

func (f *QueryFilter) GetStatus() Status {
	if f == nil || f.Status == nil {
		return StatusPublished
	}
	return *f.Status
}

// IsUnlimited reports whether pagination is disabled.
func (f *QueryFilter) IsUnlimited() bool {
	return f != nil && f.Limit == nil
}

func (f *QueryFilter) Validate() error {
	if f == nil {
		return nil
	}
	if f.Limit != nil && (*f.Limit < 1 || *f.Limit > maxFilterLimit) {
		return ierr.NewError("limit out of range").
			WithHintf("Limit must be between 1 and %d", maxFilterLimit).
			Mark(ierr.ErrValidation)
	}
	if f.Offset != nil && *f.Offset < 0 {
		return ierr.NewError("offset must not be negative").
			WithHint("Offset must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if f.Order != nil && *f.Order != "asc" && *f.Order != "desc" {
		return ierr.NewError("invalid order").
			WithHint("Order must be asc or desc").
			Mark(ierr.ErrValidation)
	}
	return nil
}
