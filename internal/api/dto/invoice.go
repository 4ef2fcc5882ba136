package dto

import (
	"time"

	"github.com/towerbill/towerbill/internal/domain/billingrun"
	"github.com/towerbill/towerbill/internal/domain/invoice"
	"github.com/towerbill/towerbill/internal/types"
	"github.com/towerbill/towerbill/internal/validator"
)

// GenerateInvoicesRequest triggers invoice generation for one building and
// billing period. An omitted period means the current month.
type GenerateInvoicesRequest struct {
	BuildingID string `json:"building_id" validate:"required"`
	Period     string `json:"period,omitempty"`
}

func (r *GenerateInvoicesRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.Period == "" {
		return nil
	}
	period, err := types.ParseBillingPeriod(r.Period)
	if err != nil {
		return err
	}
	return period.Validate()
}

func (r *GenerateInvoicesRequest) BillingPeriod() types.BillingPeriod {
	if r.Period == "" {
		return types.CurrentBillingPeriod(time.Now())
	}
	period, _ := types.ParseBillingPeriod(r.Period)
	return period
}

// GenerateInvoicesResponse reports what a generation run produced, or
// replays the recorded outcome when the period is already closed.
type GenerateInvoicesResponse struct {
	BuildingID string                  `json:"building_id"`
	Period     string                  `json:"period"`
	RunStatus  types.BillingRunStatus  `json:"run_status"`
	Replayed   bool                    `json:"replayed"`
	Result     *types.GenerationResult `json:"result"`
}

// ReopenPeriodRequest reopens a closed billing run for corrections. Existing
// invoices are untouched; a re-run skips already invoiced pairs.
type ReopenPeriodRequest struct {
	BuildingID string `json:"building_id" validate:"required"`
	Period     string `json:"period" validate:"required"`
	Reason     string `json:"reason" validate:"required,max=512"`
}

func (r *ReopenPeriodRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	_, err := types.ParseBillingPeriod(r.Period)
	return err
}

func (r *ReopenPeriodRequest) BillingPeriod() types.BillingPeriod {
	period, _ := types.ParseBillingPeriod(r.Period)
	return period
}

// UpdateInvoiceStatusRequest transitions one invoice along the payment
// lifecycle.
type UpdateInvoiceStatusRequest struct {
	Status types.InvoiceStatus `json:"status" validate:"required"`
}

func (r *UpdateInvoiceStatusRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Status.Validate()
}

// SweepOverdueResponse reports the outcome of an overdue sweep.
type SweepOverdueResponse struct {
	MarkedOverdue int      `json:"marked_overdue"`
	InvoiceIDs    []string `json:"invoice_ids"`
}

// BillingRunResponse represents the generation state of one (building,
// period) cycle in API responses.
type BillingRunResponse struct {
	*billingrun.BillingRun
}

// InvoiceResponse represents an invoice in API responses.
type InvoiceResponse struct {
	*invoice.Invoice
}

type ListInvoicesResponse = types.ListResponse[*InvoiceResponse]
