package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/towerbill/towerbill/internal/api/dto"
	ierr "github.com/towerbill/towerbill/internal/errors"
	"github.com/towerbill/towerbill/internal/logger"
	"github.com/towerbill/towerbill/internal/service"
	"github.com/towerbill/towerbill/internal/types"
)

type InvoiceHandler struct {
	generator service.InvoiceGeneratorService
	ledger    service.InvoiceLedgerService
	log       *logger.Logger
}

func NewInvoiceHandler(generator service.InvoiceGeneratorService, ledger service.InvoiceLedgerService, log *logger.Logger) *InvoiceHandler {
	return &InvoiceHandler{generator: generator, ledger: ledger, log: log}
}

// @Summary Generate invoices for a building and period
// @Description Run the billing cycle. Re-invoking a closed period replays the recorded result.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body dto.GenerateInvoicesRequest true "Generation target"
// @Success 200 {object} dto.GenerateInvoicesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 409 {object} ierr.ErrorResponse
// @Failure 422 {object} ierr.ErrorResponse
// @Router /invoices/generate [post]
func (h *InvoiceHandler) GenerateInvoices(c *gin.Context) {
	var req dto.GenerateInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.generator.GenerateInvoices(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to generate invoices", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Reopen a closed billing period
// @Description Reopen a closed run for corrections. Existing invoices are untouched.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body dto.ReopenPeriodRequest true "Reopen target and reason"
// @Success 200 {object} dto.BillingRunResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 422 {object} ierr.ErrorResponse
// @Router /billing-runs/reopen [post]
func (h *InvoiceHandler) ReopenPeriod(c *gin.Context) {
	var req dto.ReopenPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.generator.ReopenPeriod(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to reopen billing period", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get the billing run of a building and period
// @Tags Invoices
// @Produce json
// @Param building_id query string true "Building ID"
// @Param period query string true "Billing period (YYYY-MM)"
// @Success 200 {object} dto.BillingRunResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /billing-runs [get]
func (h *InvoiceHandler) GetBillingRun(c *gin.Context) {
	buildingID := c.Query("building_id")
	if buildingID == "" {
		c.Error(ierr.NewError("building_id is required").
			WithHint("Please provide the building ID").
			Mark(ierr.ErrValidation))
		return
	}
	period, err := types.ParseBillingPeriod(c.Query("period"))
	if err != nil {
		c.Error(err)
		return
	}

	resp, err := h.generator.GetBillingRun(c.Request.Context(), buildingID, period)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Get an invoice by ID
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("id is required").
			WithHint("Invoice ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.ledger.GetInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary List invoices
// @Tags Invoices
// @Produce json
// @Param filter query types.InvoiceFilter false "Filter"
// @Success 200 {object} dto.ListInvoicesResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter types.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid filter parameters").
			Mark(ierr.ErrValidation))
		return
	}
	if filter.QueryFilter == nil {
		filter.QueryFilter = types.NewDefaultQueryFilter()
	}
	if p := c.Query("period"); p != "" {
		period, err := types.ParseBillingPeriod(p)
		if err != nil {
			c.Error(err)
			return
		}
		filter.Period = &period
	}

	resp, err := h.ledger.ListInvoices(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Transition an invoice along the payment lifecycle
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param request body dto.UpdateInvoiceStatusRequest true "Target status"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 422 {object} ierr.ErrorResponse
// @Router /invoices/{id}/status [post]
func (h *InvoiceHandler) UpdateInvoiceStatus(c *gin.Context) {
	id := c.Param("id")
	var req dto.UpdateInvoiceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.ledger.UpdateInvoiceStatus(c.Request.Context(), id, &req)
	if err != nil {
		h.log.Error("Failed to update invoice status", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Mark long-pending invoices overdue
// @Description Sweep pending invoices whose period ended past the overdue threshold
// @Tags Invoices
// @Produce json
// @Success 200 {object} dto.SweepOverdueResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/sweep-overdue [post]
func (h *InvoiceHandler) SweepOverdue(c *gin.Context) {
	resp, err := h.ledger.SweepOverdue(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.log.Error("Failed to sweep overdue invoices", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
