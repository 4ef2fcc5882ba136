package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/towerbill/towerbill/internal/api/dto"
	"github.com/towerbill/towerbill/internal/domain/building"
	"github.com/towerbill/towerbill/internal/types"
)

// BuildingService manages the building roster, including each building's
// reading window configuration.
type BuildingService interface {
	CreateBuilding(ctx context.Context, req *dto.CreateBuildingRequest) (*dto.BuildingResponse, error)
	GetBuilding(ctx context.Context, id string) (*dto.BuildingResponse, error)
	UpdateBuilding(ctx context.Context, id string, req *dto.UpdateBuildingRequest) (*dto.BuildingResponse, error)
	ListBuildings(ctx context.Context, filter *types.BuildingFilter) (*dto.ListBuildingsResponse, error)
}

type buildingService struct {
	ServiceParams
}

func NewBuildingService(params ServiceParams) BuildingService {
	return &buildingService{ServiceParams: params}
}

func (s *buildingService) CreateBuilding(ctx context.Context, req *dto.CreateBuildingRequest) (*dto.BuildingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b := req.ToBuilding(ctx)
	// Buildings created without explicit window bounds get the configured
	// default window.
	if b.ReadingWindowStart == 0 && b.ReadingWindowEnd == 0 {
		b.ReadingWindowStart = s.Config.Billing.DefaultReadingWindowStart
		b.ReadingWindowEnd = s.Config.Billing.DefaultReadingWindowEnd
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if err := s.BuildingRepo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("created building",
		"building_id", b.ID,
		"name", b.Name,
		"reading_window_start", b.ReadingWindowStart,
		"reading_window_end", b.ReadingWindowEnd,
	)
	return &dto.BuildingResponse{Building: b}, nil
}

func (s *buildingService) GetBuilding(ctx context.Context, id string) (*dto.BuildingResponse, error) {
	b, err := s.BuildingRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.BuildingResponse{Building: b}, nil
}

func (s *buildingService) UpdateBuilding(ctx context.Context, id string, req *dto.UpdateBuildingRequest) (*dto.BuildingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b, err := s.BuildingRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Address != nil {
		b.Address = *req.Address
	}
	if req.Floors != nil {
		b.Floors = *req.Floors
	}
	if req.ReadingWindowStart != nil {
		b.ReadingWindowStart = *req.ReadingWindowStart
	}
	if req.ReadingWindowEnd != nil {
		b.ReadingWindowEnd = *req.ReadingWindowEnd
	}
	if req.Active != nil {
		b.Active = *req.Active
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	b.UpdatedAt = time.Now().UTC()
	b.UpdatedBy = types.GetUserID(ctx)
	if err := s.BuildingRepo.Update(ctx, b); err != nil {
		return nil, err
	}
	return &dto.BuildingResponse{Building: b}, nil
}

func (s *buildingService) ListBuildings(ctx context.Context, filter *types.BuildingFilter) (*dto.ListBuildingsResponse, error) {
	if filter == nil {
		filter = types.NewBuildingFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	buildings, err := s.BuildingRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.BuildingRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListBuildingsResponse{
		Items: lo.Map(buildings, func(b *building.Building, _ int) *dto.BuildingResponse {
			return &dto.BuildingResponse{Building: b}
		}),
		Pagination: types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset()),
	}, nil
}
