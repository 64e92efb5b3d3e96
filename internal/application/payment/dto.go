package payment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/ledger"
)

// RecordPaymentRequest represents a payment recorded against one bill.
// The deposit_application method is reserved for move-out settlements and
// cannot be recorded manually.
type RecordPaymentRequest struct {
	BillID         uuid.UUID       `json:"bill_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Method         string          `json:"method" binding:"required,oneof=cash bank_transfer gcash other"`
	PaymentDate    time.Time       `json:"payment_date"`
	Reference      string          `json:"reference" binding:"omitempty,max=100"`
	Notes          string          `json:"notes"`
	IdempotencyKey string          `json:"idempotency_key" binding:"omitempty,max=100"`
}

// RecordBulkPaymentRequest represents a lump sum recorded against a tenant,
// swept across their outstanding bills oldest-first.
type RecordBulkPaymentRequest struct {
	TenantID       uuid.UUID       `json:"tenant_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Method         string          `json:"method" binding:"required,oneof=cash bank_transfer gcash other"`
	PaymentDate    time.Time       `json:"payment_date"`
	Reference      string          `json:"reference" binding:"omitempty,max=100"`
	Notes          string          `json:"notes"`
	IdempotencyKey string          `json:"idempotency_key" binding:"omitempty,max=100"`
}

// ReversePaymentRequest reverses a recorded payment
type ReversePaymentRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// PaymentListFilter represents filter options for listing payments
type PaymentListFilter struct {
	BillID   *uuid.UUID `form:"bill_id"`
	TenantID *uuid.UUID `form:"tenant_id"`
	Method   string     `form:"method" binding:"omitempty,oneof=cash bank_transfer gcash deposit_application other"`
	Status   string     `form:"status" binding:"omitempty,oneof=recorded reversed"`
	PaidFrom *time.Time `form:"paid_from" time_format:"2006-01-02"`
	PaidTo   *time.Time `form:"paid_to" time_format:"2006-01-02"`
	Search   string     `form:"search"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy   string     `form:"sort_by" binding:"omitempty,oneof=payment_number payment_date amount created_at"`
	SortDesc bool       `form:"sort_desc"`
}

// PaymentResponse represents payment data in responses
type PaymentResponse struct {
	ID             uuid.UUID                `json:"id"`
	PaymentNumber  string                   `json:"payment_number"`
	BillID         uuid.UUID                `json:"bill_id"`
	TenantID       uuid.UUID                `json:"tenant_id"`
	Amount         decimal.Decimal          `json:"amount"`
	Method         string                   `json:"method"`
	Allocation     billing.ComponentAmounts `json:"allocation"`
	PaymentDate    time.Time                `json:"payment_date"`
	Reference      string                   `json:"reference,omitempty"`
	Notes          string                   `json:"notes,omitempty"`
	Status         string                   `json:"status"`
	ReversedAt     *time.Time               `json:"reversed_at,omitempty"`
	ReversalReason string                   `json:"reversal_reason,omitempty"`
	CreatedAt      time.Time                `json:"created_at"`
}

// ToPaymentResponse converts a payment to a response DTO
func ToPaymentResponse(payment *ledger.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:             payment.ID,
		PaymentNumber:  payment.PaymentNumber,
		BillID:         payment.BillID,
		TenantID:       payment.TenantID,
		Amount:         payment.Amount,
		Method:         string(payment.Method),
		Allocation:     payment.Allocation,
		PaymentDate:    payment.PaymentDate,
		Reference:      payment.Reference,
		Notes:          payment.Notes,
		Status:         string(payment.Status),
		ReversedAt:     payment.ReversedAt,
		ReversalReason: payment.ReversalReason,
		CreatedAt:      payment.CreatedAt,
	}
}

// BulkPaymentResponse reports how a lump-sum payment settled across bills
type BulkPaymentResponse struct {
	Payments           []PaymentResponse `json:"payments"`
	TotalApplied       decimal.Decimal   `json:"total_applied"`
	BillsFullyPaid     []uuid.UUID       `json:"bills_fully_paid"`
	BillsPartiallyPaid []uuid.UUID       `json:"bills_partially_paid"`
}
