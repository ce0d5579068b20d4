package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	billingapp "github.com/telcobill/backend/internal/application/billing"
	"github.com/telcobill/backend/internal/domain/billing"
	"github.com/telcobill/backend/internal/interfaces/http/middleware"
)

// PaymentHandler exposes the payment endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *billingapp.PaymentService
}

// NewPaymentHandler creates a PaymentHandler
func NewPaymentHandler(paymentService *billingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes registers the payment endpoints
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.RecordPayment)
	rg.GET("/invoices/:id/payments", h.ListPayments)
}

// RecordPaymentRequest applies a payment against an invoice
type RecordPaymentRequest struct {
	InvoiceID string `json:"invoice_id" binding:"required,uuid"`
	PaidAt    string `json:"paid_at" binding:"required"`
	Amount    string `json:"amount" binding:"required"`
	Method    string `json:"method" binding:"required"`
}

// PaymentResponse is the wire shape of a payment
type PaymentResponse struct {
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoice_id"`
	PaidAt    time.Time `json:"paid_at"`
	Amount    string    `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
}

// ReceiptResponse carries the payment and the invoice state it produced
type ReceiptResponse struct {
	Payment       PaymentResponse `json:"payment"`
	InvoiceStatus string          `json:"invoice_status"`
	AmountDue     string          `json:"amount_due"`
}

func paymentResponse(p *billing.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID.String(),
		InvoiceID: p.InvoiceID.String(),
		PaidAt:    p.PaidAt,
		Amount:    p.Amount.StringFixed(2),
		Method:    string(p.Method),
		Reference: p.Reference,
	}
}

// RecordPayment applies a payment to an invoice.
// POST /api/v1/payments
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, middleware.FormatValidationError(err))
		return
	}

	invoiceID, err := uuid.Parse(req.InvoiceID)
	if err != nil {
		h.BadRequest(c, "invoice_id must be a UUID")
		return
	}
	paidAt, err := time.Parse(dateLayout, req.PaidAt)
	if err != nil {
		h.BadRequest(c, "paid_at must be formatted YYYY-MM-DD")
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		h.BadRequest(c, "amount must be a decimal number")
		return
	}
	method := billing.PaymentMethod(req.Method)
	if !method.IsValid() {
		h.BadRequest(c, "method must be one of CARD, EFT, CASH, DEBIT_ORDER")
		return
	}

	receipt, err := h.paymentService.RecordPayment(c.Request.Context(), invoiceID, paidAt, amount, method)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ReceiptResponse{
		Payment:       paymentResponse(receipt.Payment),
		InvoiceStatus: receipt.Status.String(),
		AmountDue:     receipt.AmountDue.StringFixed(2),
	})
}

// ListPayments returns the payments applied to an invoice, oldest first.
// GET /api/v1/invoices/:id/payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	invoiceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invoice id must be a UUID")
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, paymentResponse(&payments[i]))
	}
	h.Success(c, out)
}
