package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/towerbill/towerbill/internal/api/dto"
	"github.com/towerbill/towerbill/internal/domain/apartment"
	"github.com/towerbill/towerbill/internal/domain/billingrun"
	"github.com/towerbill/towerbill/internal/domain/building"
	"github.com/towerbill/towerbill/internal/domain/invoice"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

// InvoiceGeneratorService runs the monthly billing cycle for a building. A
// generation run prices every billable apartment against every active tariff,
// records skips for pairs it cannot price, and closes the period. Re-invoking
// a closed period replays the recorded result without touching invoices.
type InvoiceGeneratorService interface {
	GenerateInvoices(ctx context.Context, req *dto.GenerateInvoicesRequest) (*dto.GenerateInvoicesResponse, error)

	// ReopenPeriod flips a closed run back to open for corrections. Existing
	// invoices stay; a re-run skips already invoiced pairs.
	ReopenPeriod(ctx context.Context, req *dto.ReopenPeriodRequest) (*dto.BillingRunResponse, error)

	GetBillingRun(ctx context.Context, buildingID string, period types.BillingPeriod) (*dto.BillingRunResponse, error)
}

type invoiceGeneratorService struct {
	ServiceParams
	catalog      FeeCatalogService
	windowPolicy ReadingWindowPolicy
}

func NewInvoiceGeneratorService(params ServiceParams) InvoiceGeneratorService {
	return &invoiceGeneratorService{
		ServiceParams: params,
		catalog:       NewFeeCatalogService(params),
		windowPolicy:  NewReadingWindowPolicy(),
	}
}

func (s *invoiceGeneratorService) GenerateInvoices(ctx context.Context, req *dto.GenerateInvoicesRequest) (*dto.GenerateInvoicesResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	period := req.BillingPeriod()

	b, err := s.BuildingRepo.Get(ctx, req.BuildingID)
	if err != nil {
		return nil, err
	}
	if !b.Active {
		return nil, ierr.NewError("building is not active").
			WithHint("Invoices can only be generated for active buildings").
			WithReportableDetails(map[string]interface{}{"building_id": b.ID}).
			Mark(ierr.ErrInvalidOperation)
	}

	run, err := s.ensureRun(ctx, b.ID, period)
	if err != nil {
		return nil, err
	}

	// A closed period replays its recorded outcome. Invoices are never
	// touched on the replay path.
	if run.IsClosed() {
		s.Logger.WithContext(ctx).Infow("replaying closed billing run",
			"billing_run_id", run.ID,
			"building_id", b.ID,
			"period", period.String(),
		)
		return generateResponse(run, true), nil
	}

	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		lockReq := types.LockRequest{
			Key:     types.BillingRunLockKey(b.ID, period),
			Timeout: lo.ToPtr(s.Config.Billing.GenerationLockTimeout),
		}
		if err := s.DB.AcquireGenerationLock(txCtx, lockReq); err != nil {
			return err
		}

		// The compare-and-swap admits exactly one generation per cycle.
		if err := s.BillingRunRepo.TransitionStatus(txCtx, run.ID, types.BillingRunStatusOpen, types.BillingRunStatusClosing); err != nil {
			return err
		}

		result, genErr := s.generate(txCtx, b, period)
		if genErr != nil {
			// Systemic failure aborts the whole run; the period stays open
			// and no invoice of this run survives.
			if revertErr := s.BillingRunRepo.TransitionStatus(txCtx, run.ID, types.BillingRunStatusClosing, types.BillingRunStatusOpen); revertErr != nil {
				s.Logger.WithContext(txCtx).Errorw("failed to reopen billing run after aborted generation",
					"billing_run_id", run.ID,
					"error", revertErr,
				)
			}
			return genErr
		}

		now := time.Now().UTC()
		run.Result = result
		run.ClosedAt = &now
		run.ClosedBy = types.GetUserID(txCtx)
		run.UpdatedAt = now
		run.UpdatedBy = run.ClosedBy
		if err := s.BillingRunRepo.Update(txCtx, run); err != nil {
			return err
		}
		return s.BillingRunRepo.TransitionStatus(txCtx, run.ID, types.BillingRunStatusClosing, types.BillingRunStatusClosed)
	})
	if err != nil {
		return nil, err
	}

	run.RunStatus = types.BillingRunStatusClosed
	s.Logger.WithContext(ctx).Infow("closed billing run",
		"billing_run_id", run.ID,
		"building_id", b.ID,
		"period", period.String(),
		"invoices_created", len(run.Result.CreatedInvoiceIDs),
		"skipped", len(run.Result.Skipped),
	)
	return generateResponse(run, false), nil
}

// ensureRun fetches the run for (building, period), creating an open one on
// first touch. A concurrent first touch is resolved by re-reading after a
// conflicting create.
func (s *invoiceGeneratorService) ensureRun(ctx context.Context, buildingID string, period types.BillingPeriod) (*billingrun.BillingRun, error) {
	run, err := s.BillingRunRepo.GetByBuildingAndPeriod(ctx, buildingID, period)
	if err == nil {
		return run, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	now := time.Now().UTC()
	run = &billingrun.BillingRun{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_RUN),
		BuildingID: buildingID,
		Period:     period,
		RunStatus:  types.BillingRunStatusOpen,
		StartedAt:  &now,
		BaseModel:  types.GetDefaultBaseModel(ctx),
	}
	if err := s.BillingRunRepo.Create(ctx, run); err != nil {
		if ierr.IsAlreadyExists(err) {
			return s.BillingRunRepo.GetByBuildingAndPeriod(ctx, buildingID, period)
		}
		return nil, err
	}
	return run, nil
}

// generate prices every (billable apartment, active fee type) pair of the
// period. Unpriceable pairs become skips; only infrastructure failures abort
// the run.
func (s *invoiceGeneratorService) generate(ctx context.Context, b *building.Building, period types.BillingPeriod) (*types.GenerationResult, error) {
	asOf := period.End()

	feeTypes, err := s.catalog.ActiveFeeTypes(ctx, b.ID, asOf)
	if err != nil {
		return nil, err
	}
	apartments, err := s.ApartmentRepo.ListByBuilding(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	result := &types.GenerationResult{
		CreatedInvoiceIDs: []string{},
		Skipped:           []types.SkippedLineItem{},
	}
	var invoices []*invoice.Invoice

	for _, apt := range apartments {
		if !apt.Occupancy.Billable() {
			continue
		}
		for _, feeType := range feeTypes {
			t, err := s.catalog.ActiveTariff(ctx, b.ID, feeType, asOf)
			if err != nil {
				return nil, err
			}

			if _, err := s.InvoiceRepo.GetByKey(ctx, apt.ID, feeType, period); err == nil {
				result.Skipped = append(result.Skipped, types.SkippedLineItem{
					ApartmentID: apt.ID,
					FeeType:     feeType,
					Reason:      types.SkipReasonAlreadyInvoiced,
				})
				continue
			} else if !ierr.IsNotFound(err) {
				return nil, err
			}

			amount, skip, err := s.priceLineItem(ctx, b, apt, t.CalculationMethod, t.UnitPrice, feeType, period)
			if err != nil {
				return nil, err
			}
			if skip != nil {
				result.Skipped = append(result.Skipped, *skip)
				continue
			}

			inv := &invoice.Invoice{
				ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
				ApartmentID:   apt.ID,
				BuildingID:    b.ID,
				FeeType:       feeType,
				Amount:        amount,
				InvoiceStatus: types.InvoiceStatusPending,
				Period:        period,
				PeriodStart:   period.Start(),
				PeriodEnd:     period.End(),
				IssuedBy:      types.GetUserID(ctx),
				BaseModel:     types.GetDefaultBaseModel(ctx),
			}
			invoices = append(invoices, inv)
			result.CreatedInvoiceIDs = append(result.CreatedInvoiceIDs, inv.ID)
		}
	}

	if err := s.InvoiceRepo.CreateBatch(ctx, invoices); err != nil {
		return nil, err
	}
	return result, nil
}

// priceLineItem computes the amount for one (apartment, fee type) pair, or a
// skip when a required attribute or reading is missing.
func (s *invoiceGeneratorService) priceLineItem(ctx context.Context, b *building.Building, apt *apartment.Apartment, method types.CalculationMethod, unitPrice decimal.Decimal, feeType types.FeeType, period types.BillingPeriod) (decimal.Decimal, *types.SkippedLineItem, error) {
	skip := func(reason types.SkipReason) (decimal.Decimal, *types.SkippedLineItem, error) {
		return decimal.Zero, &types.SkippedLineItem{
			ApartmentID: apt.ID,
			FeeType:     feeType,
			Reason:      reason,
		}, nil
	}

	switch method {
	case types.CalculationMethodFlat:
		return unitPrice, nil, nil

	case types.CalculationMethodPerArea:
		if apt.Area == nil {
			return skip(types.SkipReasonMissingArea)
		}
		return unitPrice.Mul(*apt.Area), nil, nil

	case types.CalculationMethodPerUnit:
		// A zero unit count charges nothing, same as an unset one.
		if apt.UnitCount == nil || *apt.UnitCount == 0 {
			return skip(types.SkipReasonMissingUnitCount)
		}
		return unitPrice.Mul(decimal.NewFromInt(int64(*apt.UnitCount))), nil, nil

	case types.CalculationMethodMetered:
		m, err := s.ReadingRepo.GetByKey(ctx, apt.ID, feeType, period)
		if err != nil {
			if ierr.IsNotFound(err) {
				return skip(types.SkipReasonMissingReading)
			}
			return decimal.Zero, nil, err
		}
		// Window legality is re-checked at generation time; a reading that
		// slipped in outside the window is not billed.
		if !s.windowPolicy.IsWithinWindow(b, period, m.SubmittedAt) {
			return skip(types.SkipReasonReadingOutOfWindow)
		}
		return unitPrice.Mul(m.Value), nil, nil

	default:
		return decimal.Zero, nil, ierr.NewError("unknown calculation method").
			WithHint("The tariff carries an unsupported calculation method").
			WithReportableDetails(map[string]interface{}{"calculation_method": method}).
			Mark(ierr.ErrInternal)
	}
}

func (s *invoiceGeneratorService) ReopenPeriod(ctx context.Context, req *dto.ReopenPeriodRequest) (*dto.BillingRunResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	period := req.BillingPeriod()

	run, err := s.BillingRunRepo.GetByBuildingAndPeriod(ctx, req.BuildingID, period)
	if err != nil {
		return nil, err
	}
	if !run.IsClosed() {
		return nil, ierr.NewError("billing run is not closed").
			WithHint("Only closed periods can be reopened").
			WithReportableDetails(map[string]interface{}{
				"building_id": req.BuildingID,
				"period":      period.String(),
				"run_status":  run.RunStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.BillingRunRepo.TransitionStatus(txCtx, run.ID, types.BillingRunStatusClosed, types.BillingRunStatusOpen); err != nil {
			return err
		}

		// Invoices are never deleted on reopen; the recorded result is
		// cleared and the reopen is audited in the run metadata.
		now := time.Now().UTC()
		userID := types.GetUserID(txCtx)
		run.Result = nil
		run.ClosedAt = nil
		run.ClosedBy = ""
		if run.Metadata == nil {
			run.Metadata = types.Metadata{}
		}
		run.Metadata["reopened_at"] = now.Format(time.RFC3339)
		run.Metadata["reopened_by"] = userID
		run.Metadata["reopened_reason"] = req.Reason
		run.UpdatedAt = now
		run.UpdatedBy = userID
		return s.BillingRunRepo.Update(txCtx, run)
	})
	if err != nil {
		return nil, err
	}

	run.RunStatus = types.BillingRunStatusOpen
	s.Logger.WithContext(ctx).Infow("reopened billing run",
		"billing_run_id", run.ID,
		"building_id", run.BuildingID,
		"period", period.String(),
		"reason", req.Reason,
	)
	return &dto.BillingRunResponse{BillingRun: run}, nil
}

func (s *invoiceGeneratorService) GetBillingRun(ctx context.Context, buildingID string, period types.BillingPeriod) (*dto.BillingRunResponse, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}
	run, err := s.BillingRunRepo.GetByBuildingAndPeriod(ctx, buildingID, period)
	if err != nil {
		return nil, err
	}
	return &dto.BillingRunResponse{BillingRun: run}, nil
}

func generateResponse(run *billingrun.BillingRun, replayed bool) *dto.GenerateInvoicesResponse {
	return &dto.GenerateInvoicesResponse{
		BuildingID: run.BuildingID,
		Period:     run.Period.String(),
		RunStatus:  run.RunStatus,
		Replayed:   replayed,
		Result:     run.Result,
	}
}
