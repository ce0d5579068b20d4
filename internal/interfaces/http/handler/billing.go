package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/telcobill/backend/internal/application/billing"
	"github.com/telcobill/backend/internal/domain/billing"
	"github.com/telcobill/backend/internal/domain/shared/valueobject"
	"github.com/telcobill/backend/internal/interfaces/http/middleware"
)

// BillingHandler exposes the billing run and invoice endpoints
type BillingHandler struct {
	BaseHandler
	billingService *billingapp.BillingService
	invoiceRepo    billing.InvoiceRepository
}

// NewBillingHandler creates a BillingHandler
func NewBillingHandler(billingService *billingapp.BillingService, invoiceRepo billing.InvoiceRepository) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		invoiceRepo:    invoiceRepo,
	}
}

// RegisterRoutes registers the billing endpoints
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	bill := rg.Group("/billing")
	{
		bill.POST("/runs", h.RunMonthly)
		bill.POST("/invoices", h.GenerateInvoice)
	}
	rg.GET("/subscribers/:msisdn/invoices", h.ListInvoices)
}

// RunBillingRequest selects the billing month; any date within the month works
type RunBillingRequest struct {
	Date string `json:"date" binding:"required"`
}

// GenerateInvoiceRequest invoices a single subscriber for one month
type GenerateInvoiceRequest struct {
	MSISDN string `json:"msisdn" binding:"required,msisdn"`
	Date   string `json:"date" binding:"required"`
}

// InvoiceResponse is the wire shape of an invoice
type InvoiceResponse struct {
	ID          string    `json:"id"`
	MSISDN      string    `json:"msisdn"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	TotalAmount string    `json:"total_amount"`
	AmountDue   string    `json:"amount_due"`
	GeneratedAt time.Time `json:"generated_at"`
	DueDate     time.Time `json:"due_date"`
	Status      string    `json:"status"`
}

func invoiceResponse(invoice *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:          invoice.ID.String(),
		MSISDN:      invoice.MSISDN.String(),
		PeriodStart: invoice.PeriodStart,
		PeriodEnd:   invoice.PeriodEnd,
		TotalAmount: invoice.TotalAmount.StringFixed(2),
		AmountDue:   invoice.AmountDue.StringFixed(2),
		GeneratedAt: invoice.GeneratedAt,
		DueDate:     invoice.DueDate,
		Status:      invoice.Status.String(),
	}
}

// RunMonthly invoices every active subscriber for the month containing the
// given date.
// POST /api/v1/billing/runs
func (h *BillingHandler) RunMonthly(c *gin.Context) {
	var req RunBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.FormatValidationError(err))
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		h.BadRequest(c, "date must be formatted YYYY-MM-DD")
		return
	}

	result, err := h.billingService.GenerateMonthlyBills(c.Request.Context(), date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GenerateInvoice rates and invoices one subscriber for the month containing
// the given date.
// POST /api/v1/billing/invoices
func (h *BillingHandler) GenerateInvoice(c *gin.Context) {
	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.FormatValidationError(err))
		return
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		h.BadRequest(c, "date must be formatted YYYY-MM-DD")
		return
	}

	invoice, err := h.billingService.CalculateCharges(c.Request.Context(), req.MSISDN, valueobject.CalendarMonth(date))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoiceResponse(invoice))
}

// ListInvoices returns a subscriber's invoices, newest period first.
// GET /api/v1/subscribers/:msisdn/invoices
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	msisdn := c.Param("msisdn")
	if !valueobject.IsValidMSISDN(msisdn) {
		h.BadRequest(c, "msisdn must be +27 followed by 9 digits")
		return
	}

	invoices, err := h.invoiceRepo.FindBySubscriber(c.Request.Context(), msisdn)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		out = append(out, invoiceResponse(&invoices[i]))
	}
	h.Success(c, out)
}
