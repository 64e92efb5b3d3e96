package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/shared"
)

// AggregateTypePayment is the aggregate type identifier for payments
const AggregateTypePayment = "payment"

// Payment event types
const (
	EventTypePaymentRecorded = "ledger.payment.recorded"
	EventTypePaymentReversed = "ledger.payment.reversed"
)

// PaymentRecordedEvent is raised when a payment is recorded against a bill
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string                   `json:"payment_number"`
	BillID        uuid.UUID                `json:"bill_id"`
	TenantID      uuid.UUID                `json:"tenant_id"`
	Amount        decimal.Decimal          `json:"amount"`
	Method        PaymentMethod            `json:"method"`
	Allocation    billing.ComponentAmounts `json:"allocation"`
	PaymentDate   time.Time                `json:"payment_date"`
}

// NewPaymentRecordedEvent creates a new payment recorded event
func NewPaymentRecordedEvent(payment *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypePayment, payment.ID, payment.OrgID),
		PaymentNumber:   payment.PaymentNumber,
		BillID:          payment.BillID,
		TenantID:        payment.TenantID,
		Amount:          payment.Amount,
		Method:          payment.Method,
		Allocation:      payment.Allocation.Clone(),
		PaymentDate:     payment.PaymentDate,
	}
}

// PaymentReversedEvent is raised when a payment is reversed
type PaymentReversedEvent struct {
	shared.BaseDomainEvent
	PaymentNumber string          `json:"payment_number"`
	BillID        uuid.UUID       `json:"bill_id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

// NewPaymentReversedEvent creates a new payment reversed event
func NewPaymentReversedEvent(payment *Payment, reason string) *PaymentReversedEvent {
	return &PaymentReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentReversed, AggregateTypePayment, payment.ID, payment.OrgID),
		PaymentNumber:   payment.PaymentNumber,
		BillID:          payment.BillID,
		TenantID:        payment.TenantID,
		Amount:          payment.Amount,
		Reason:          reason,
	}
}
