package types

// BuildingFilter filters building listings.
type BuildingFilter struct {
	*QueryFilter
	BuildingIDs []string `json:"building_ids,omitempty" form:"building_id"`
	ActiveOnly  bool     `json:"active_only,omitempty" form:"active_only"`
}

func NewBuildingFilter() *BuildingFilter {
	return &BuildingFilter{QueryFilter: NewDefaultQueryFilter()}
}

func (f *BuildingFilter) Validate() error {
	if f.QueryFilter == nil {
		f.QueryFilter = NewDefaultQueryFilter()
	}
	return f.QueryFilter.Validate()
}
