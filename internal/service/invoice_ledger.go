package service

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
	"github.com/towerbill/towerbill/internal/api/dto"
	"github.com/towerbill/towerbill/internal/domain/invoice"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/types"
)

const (
	sweepConcurrency = 4
	sweepMaxRetries  = 3
)

// InvoiceLedgerService tracks invoices along the payment lifecycle. Status
// moves follow the transition table; amounts never change after issuance.
type InvoiceLedgerService interface {
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)

	// UpdateInvoiceStatus transitions one invoice. Illegal moves, including
	// anything out of a terminal status, are rejected.
	UpdateInvoiceStatus(ctx context.Context, id string, req *dto.UpdateInvoiceStatusRequest) (*dto.InvoiceResponse, error)

	// SweepOverdue marks every pending invoice whose period ended more than
	// the configured number of days ago as overdue.
	SweepOverdue(ctx context.Context, now time.Time) (*dto.SweepOverdueResponse, error)
}

type invoiceLedgerService struct {
	ServiceParams
}

func NewInvoiceLedgerService(params ServiceParams) InvoiceLedgerService {
	return &invoiceLedgerService{ServiceParams: params}
}

func (s *invoiceLedgerService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceLedgerService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	count, err := s.InvoiceRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.ListInvoicesResponse{
		Items: lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
			return &dto.InvoiceResponse{Invoice: inv}
		}),
		Pagination: types.NewPaginationResponse(count, filter.GetLimit(), filter.GetOffset()),
	}, nil
}

func (s *invoiceLedgerService) UpdateInvoiceStatus(ctx context.Context, id string, req *dto.UpdateInvoiceStatusRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !inv.InvoiceStatus.CanTransitionTo(req.Status) {
		return nil, ierr.NewError("illegal invoice status transition").
			WithHintf("An invoice cannot move from %s to %s", inv.InvoiceStatus, req.Status).
			WithReportableDetails(map[string]interface{}{
				"invoice_id": inv.ID,
				"from":       inv.InvoiceStatus,
				"to":         req.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	var paidAt *time.Time
	if req.Status == types.InvoiceStatusPaid {
		paidAt = lo.ToPtr(time.Now().UTC())
	}

	if err := s.InvoiceRepo.UpdateStatus(ctx, inv.ID, inv.InvoiceStatus, req.Status, paidAt); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("updated invoice status",
		"invoice_id", inv.ID,
		"from", inv.InvoiceStatus,
		"to", req.Status,
	)

	inv.InvoiceStatus = req.Status
	inv.PaidAt = paidAt
	return &dto.InvoiceResponse{Invoice: inv}, nil
}

func (s *invoiceLedgerService) SweepOverdue(ctx context.Context, now time.Time) (*dto.SweepOverdueResponse, error) {
	cutoff := now.UTC().AddDate(0, 0, -s.Config.Billing.OverdueAfterDays)

	filter := &types.InvoiceFilter{
		QueryFilter:     types.NewNoLimitQueryFilter(),
		InvoiceStatus:   []types.InvoiceStatus{types.InvoiceStatusPending},
		PeriodEndBefore: &cutoff,
	}
	candidates, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		marked []string
	)

	// Fan out per building; invoices of one building are swept sequentially
	// to keep the write pattern tame.
	byBuilding := lo.GroupBy(candidates, func(inv *invoice.Invoice) string {
		return inv.BuildingID
	})

	p := pool.New().WithContext(ctx).WithMaxGoroutines(sweepConcurrency)
	for _, invoices := range byBuilding {
		invoices := invoices
		p.Go(func(ctx context.Context) error {
			for _, inv := range invoices {
				if err := s.markOverdue(ctx, inv); err != nil {
					if ierr.IsInvalidOperation(err) {
						// Lost the race against a payment; nothing to do.
						continue
					}
					return err
				}
				mu.Lock()
				marked = append(marked, inv.ID)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("swept overdue invoices",
		"candidates", len(candidates),
		"marked_overdue", len(marked),
	)
	return &dto.SweepOverdueResponse{
		MarkedOverdue: len(marked),
		InvoiceIDs:    marked,
	}, nil
}

// markOverdue flips one pending invoice to overdue, retrying transient
// database failures. A concurrent status change is surfaced as-is so the
// caller can skip the invoice.
func (s *invoiceLedgerService) markOverdue(ctx context.Context, inv *invoice.Invoice) error {
	op := func() error {
		err := s.InvoiceRepo.UpdateStatus(ctx, inv.ID, types.InvoiceStatusPending, types.InvoiceStatusOverdue, nil)
		if err != nil && !ierr.IsDatabase(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), sweepMaxRetries), ctx))
}
