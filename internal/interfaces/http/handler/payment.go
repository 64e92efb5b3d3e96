package handler

import (
	"github.com/gin-gonic/gin"

	paymentapp "github.com/casaops/backend/internal/application/payment"
)

// PaymentHandler handles payment-related API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *paymentapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *paymentapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Record godoc
// @ID           recordPayment
// @Summary      Record a payment
// @Description  Record a payment against one bill. An idempotency key makes retries safe: the same key replays the original result.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body payment.RecordPaymentRequest true "Payment request"
// @Success      201 {object} APIResponse[payment.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Actor not resolved")
		return
	}

	var req paymentapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.Record(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, payment)
}

// RecordBulk godoc
// @ID           recordBulkPayment
// @Summary      Record a lump-sum payment
// @Description  Record a lump sum for a tenant, swept across their outstanding bills oldest-first
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body payment.RecordBulkPaymentRequest true "Bulk payment request"
// @Success      201 {object} APIResponse[payment.BulkPaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/bulk [post]
func (h *PaymentHandler) RecordBulk(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Actor not resolved")
		return
	}

	var req paymentapp.RecordBulkPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.paymentService.RecordBulk(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, result)
}

// Reverse godoc
// @ID           reversePayment
// @Summary      Reverse a payment
// @Description  Reverse a recorded payment and restore the bill's outstanding balance
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Param        request body payment.ReversePaymentRequest true "Reversal reason"
// @Success      200 {object} APIResponse[payment.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id}/reverse [post]
func (h *PaymentHandler) Reverse(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Actor not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	var req paymentapp.ReversePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.paymentService.Reverse(c.Request.Context(), orgID, id, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, payment)
}

// GetByID godoc
// @ID           getPaymentById
// @Summary      Get payment by ID
// @Tags         payments
// @Produce      json
// @Param        id path string true "Payment ID" format(uuid)
// @Success      200 {object} APIResponse[payment.PaymentResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid payment ID")
		return
	}

	payment, err := h.paymentService.GetByID(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, payment)
}

// List godoc
// @ID           listPayments
// @Summary      List payments
// @Description  List payments with filtering and pagination
// @Tags         payments
// @Produce      json
// @Param        bill_id query string false "Filter by bill" format(uuid)
// @Param        tenant_id query string false "Filter by tenant" format(uuid)
// @Param        method query string false "Filter by method" Enums(cash, bank_transfer, gcash, deposit_application, other)
// @Param        status query string false "Filter by status" Enums(recorded, reversed)
// @Param        paid_from query string false "Paid on or after (YYYY-MM-DD)"
// @Param        paid_to query string false "Paid on or before (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]payment.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter paymentapp.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payments, total, err := h.paymentService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, payments, total, filter.Page, filter.PageSize)
}

// ListByBill godoc
// @ID           listBillPayments
// @Summary      List payments on a bill
// @Tags         payments
// @Produce      json
// @Param        id path string true "Bill ID" format(uuid)
// @Success      200 {object} APIResponse[[]payment.PaymentResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id}/payments [get]
func (h *PaymentHandler) ListByBill(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	billID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	payments, err := h.paymentService.ListByBill(c.Request.Context(), orgID, billID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, payments)
}
