package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/towerbill/towerbill/internal/api/dto"
	"github.com/towerbill/towerbill/internal/domain/apartment"
	"github.com/towerbill/towerbill/internal/types"
)

// ApartmentService manages the apartment roster of each building.
type ApartmentService interface {
	CreateApartment(ctx context.Context, req *dto.CreateApartmentRequest) (*dto.ApartmentResponse, error)
	GetApartment(ctx context.Context, id string) (*dto.ApartmentResponse, error)
	UpdateApartment(ctx context.Context, id string, req *dto.UpdateApartmentRequest) (*dto.ApartmentResponse, error)
	ListApartments(ctx context.Context, filter *types.ApartmentFilter) (*dto.ListApartmentsResponse, error)
}

type apartmentService struct {
	ServiceParams
}

func NewApartmentService(params ServiceParams) ApartmentService {
	return &apartmentService{ServiceParams: params}
}

func (s *apartmentService) CreateApartment(ctx context.Context, req *dto.CreateApartmentRequest) (*dto.ApartmentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The owning building must exist.
	if _, err := s.BuildingRepo.Get(ctx, req.BuildingID); err != nil {
		return nil, err
	}

	a := req.ToApartment(ctx)
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.ApartmentRepo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("created apartment",
		"apartment_id", a.ID,
		"building_id", a.BuildingID,
		"code", a.Code,
	)
	return &dto.ApartmentResponse{Apartment: a}, nil
}

func (s *apartmentService) GetApartment(ctx context.Context, id string) (*dto.ApartmentResponse, error) {
	a, err := s.ApartmentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ApartmentResponse{Apartment: a}, nil
}

func (s *apartmentService) UpdateApartment(ctx context.Context, id string, req *dto.UpdateApartmentRequest) (*dto.ApartmentResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	a, err := s.ApartmentRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Code != nil {
		a.Code = *req.Code
	}
	if req.Floor != nil {
		a.Floor = *req.Floor
	}
	if req.Area != nil {
		a.Area = req.Area
	}
	if req.UnitCount != nil {
		a.UnitCount = req.UnitCount
	}
	if req.Occupancy != nil {
		a.Occupancy = *req.Occupancy
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}

	a.UpdatedAt = time.Now().UTC()
	a.UpdatedBy = types.GetUserID(ctx)
	if err := s.ApartmentRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return &dto.ApartmentResponse{Apartment: a}, nil
}

func (s *apartmentService) ListApartments(ctx context.Context, filter *types.ApartmentFilter) (*dto.ListApartmentsResponse, error) {
	if filter == nil {
		filter = types.NewApartmentFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	apartments, err := s.ApartmentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.ApartmentRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListApartmentsResponse{
		Items: lo.Map(apartments, func(a *apartment.Apartment, _ int) *dto.ApartmentResponse {
			return &dto.ApartmentResponse{Apartment: a}
		}),
		Pagination: types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset()),
	}, nil
}
