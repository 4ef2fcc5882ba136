package service

import (
	"context"

	"github.com/samber/lo"
	"github.com/towerbill/towerbill/internal/api/dto"
	"github.com/towerbill/towerbill/internal/domain/reading"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// MeterReadingService accepts metered consumption values. A submission is
// checked against the building's reading window and against the billing run
// state: once generation has started for the cycle, submissions are rejected.
type MeterReadingService interface {
	SubmitReading(ctx context.Context, req *dto.SubmitMeterReadingRequest) (*dto.MeterReadingResponse, error)
	GetReading(ctx context.Context, apartmentID string, feeType types.FeeType, period types.BillingPeriod) (*dto.MeterReadingResponse, error)
	ListReadings(ctx context.Context, buildingID string, period types.BillingPeriod) (*dto.ListMeterReadingsResponse, error)
}

type meterReadingService struct {
	ServiceParams
	windowPolicy ReadingWindowPolicy
}

func NewMeterReadingService(params ServiceParams) MeterReadingService {
	return &meterReadingService{
		ServiceParams: params,
		windowPolicy:  NewReadingWindowPolicy(),
	}
}

func (s *meterReadingService) SubmitReading(ctx context.Context, req *dto.SubmitMeterReadingRequest) (*dto.MeterReadingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	apt, err := s.ApartmentRepo.Get(ctx, req.ApartmentID)
	if err != nil {
		return nil, err
	}
	b, err := s.BuildingRepo.Get(ctx, apt.BuildingID)
	if err != nil {
		return nil, err
	}

	m := req.ToMeterReading(ctx, b.ID)

	// Readings only make sense for fee types billed by meter. A tariff must
	// exist by submission time; the generator would have nothing to price
	// the reading against otherwise.
	t, err := s.TariffRepo.GetActive(ctx, b.ID, m.FeeType, m.SubmittedAt)
	if err != nil {
		return nil, err
	}
	if t.CalculationMethod != types.CalculationMethodMetered {
		return nil, ierr.NewError("fee type is not metered").
			WithHint("Readings can only be submitted for metered fee types").
			WithReportableDetails(map[string]interface{}{
				"fee_type":           m.FeeType,
				"calculation_method": t.CalculationMethod,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	// The run check and the insert commit under the generation lock, so a
	// submission cannot slip in between the generator reading the cycle's
	// readings and closing the period. The run check wins over the window
	// check.
	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		lockReq := types.LockRequest{
			Key:     types.BillingRunLockKey(b.ID, m.Period),
			Timeout: lo.ToPtr(s.Config.Billing.GenerationLockTimeout),
		}
		if err := s.DB.AcquireGenerationLock(txCtx, lockReq); err != nil {
			if ierr.IsAlreadyExists(err) {
				return ierr.NewError("invoice generation is in progress").
					WithHint("Invoices are being generated for this period; readings are no longer accepted").
					WithReportableDetails(map[string]interface{}{
						"building_id": b.ID,
						"period":      m.Period.String(),
					}).
					Mark(ierr.ErrInvalidOperation)
			}
			return err
		}

		run, err := s.BillingRunRepo.GetByBuildingAndPeriod(txCtx, b.ID, m.Period)
		if err != nil && !ierr.IsNotFound(err) {
			return err
		}
		if run != nil && !run.AcceptsReadings() {
			return ierr.NewError("billing period is closed").
				WithHint("Invoices were already generated for this period; readings are no longer accepted").
				WithReportableDetails(map[string]interface{}{
					"building_id": b.ID,
					"period":      m.Period.String(),
					"run_status":  run.RunStatus,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		if !s.windowPolicy.IsWithinWindow(b, m.Period, m.SubmittedAt) {
			start, end := s.windowPolicy.WindowBounds(b, m.Period)
			return ierr.NewError("reading submitted outside the reading window").
				WithHintf("Readings for %s are accepted between day %d and day %d of the month", m.Period, b.ReadingWindowStart, b.ReadingWindowEnd).
				WithReportableDetails(map[string]interface{}{
					"submitted_at": m.SubmittedAt,
					"window_start": start,
					"window_end":   end,
				}).
				Mark(ierr.ErrInvalidOperation)
		}

		return s.ReadingRepo.Create(txCtx, m)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("submitted meter reading",
		"reading_id", m.ID,
		"apartment_id", m.ApartmentID,
		"fee_type", m.FeeType,
		"period", m.Period.String(),
		"value", m.Value.String(),
	)
	return &dto.MeterReadingResponse{MeterReading: m}, nil
}

func (s *meterReadingService) GetReading(ctx context.Context, apartmentID string, feeType types.FeeType, period types.BillingPeriod) (*dto.MeterReadingResponse, error) {
	m, err := s.ReadingRepo.GetByKey(ctx, apartmentID, feeType, period)
	if err != nil {
		return nil, err
	}
	return &dto.MeterReadingResponse{MeterReading: m}, nil
}

func (s *meterReadingService) ListReadings(ctx context.Context, buildingID string, period types.BillingPeriod) (*dto.ListMeterReadingsResponse, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	readings, err := s.ReadingRepo.ListByBuildingPeriod(ctx, buildingID, period)
	if err != nil {
		return nil, err
	}
	return &dto.ListMeterReadingsResponse{
		Items: lo.Map(readings, func(m *reading.MeterReading, _ int) *dto.MeterReadingResponse {
			return &dto.MeterReadingResponse{MeterReading: m}
		}),
		Pagination: types.NewPaginationResponse(len(readings), len(readings), 0),
	}, nil
}
