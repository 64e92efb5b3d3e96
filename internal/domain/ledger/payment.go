package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

// PaymentMethod represents how a payment was made
type PaymentMethod string

const (
	PaymentMethodCash               PaymentMethod = "cash"
	PaymentMethodBankTransfer       PaymentMethod = "bank_transfer"
	PaymentMethodGCash              PaymentMethod = "gcash"
	PaymentMethodDepositApplication PaymentMethod = "deposit_application" // Generated by move-out settlement
	PaymentMethodOther              PaymentMethod = "other"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodGCash,
		PaymentMethodDepositApplication, PaymentMethodOther:
		return true
	}
	return false
}

// String returns the string representation
func (m PaymentMethod) String() string {
	return string(m)
}

// AllPaymentMethods returns all valid payment methods
func AllPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		PaymentMethodCash,
		PaymentMethodBankTransfer,
		PaymentMethodGCash,
		PaymentMethodDepositApplication,
		PaymentMethodOther,
	}
}

// PaymentStatus represents the status of a payment record
type PaymentStatus string

const (
	PaymentStatusRecorded PaymentStatus = "recorded"
	PaymentStatusReversed PaymentStatus = "reversed"
)

// Payment is an immutable record of money received against a bill, carrying
// the component allocation that was applied to the bill's buckets. Mistakes
// are corrected by reversal, never by editing the record.
type Payment struct {
	shared.OrgAggregateRoot
	PaymentNumber  string                   `gorm:"type:varchar(50);not null;uniqueIndex:idx_payment_org_number,priority:2"`
	BillID         uuid.UUID                `gorm:"type:uuid;not null;index"`
	TenantID       uuid.UUID                `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal          `gorm:"type:decimal(18,4);not null"`
	Method         PaymentMethod            `gorm:"type:varchar(30);not null"`
	Allocation     billing.ComponentAmounts `gorm:"type:jsonb;not null"`
	PaymentDate    time.Time                `gorm:"not null;index"` // When the money changed hands
	Reference      string                   `gorm:"type:varchar(100)"`
	Notes          string                   `gorm:"type:text"`
	Status         PaymentStatus            `gorm:"type:varchar(20);not null;default:'recorded';index"`
	IdempotencyKey string                   `gorm:"type:varchar(100);index"`
	ReversedAt     *time.Time
	ReversalReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "payments"
}

// NewPayment creates a payment record. The allocation must cover the payment
// amount exactly; anything else is rejected before the record exists.
func NewPayment(orgID, billID, tenantID uuid.UUID, paymentNumber string, amount valueobject.Money, method PaymentMethod, allocation billing.ComponentAmounts, paymentDate time.Time, reference string) (*Payment, error) {
	if err := validatePaymentNumber(paymentNumber); err != nil {
		return nil, err
	}
	if billID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BILL", "Bill ID cannot be empty")
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !amount.Amount().IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD", fmt.Sprintf("Invalid payment method: %s", method))
	}
	if paymentDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Payment date is required")
	}
	for component, componentAmount := range allocation {
		if !component.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown payment component %q", component))
		}
		if componentAmount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Allocation for %s cannot be negative", component))
		}
	}
	if !billing.ValidatePaymentAllocation(allocation, amount.Amount()) {
		return nil, shared.ErrAllocationMismatch
	}

	payment := &Payment{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		PaymentNumber:    paymentNumber,
		BillID:           billID,
		TenantID:         tenantID,
		Amount:           amount.Amount(),
		Method:           method,
		Allocation:       allocation.Clone(),
		PaymentDate:      paymentDate,
		Reference:        strings.TrimSpace(reference),
		Status:           PaymentStatusRecorded,
	}

	payment.AddDomainEvent(NewPaymentRecordedEvent(payment))

	return payment, nil
}

// IsReversed returns true if the payment has been reversed
func (p *Payment) IsReversed() bool {
	return p.Status == PaymentStatusReversed
}

// Reverse marks the payment as reversed. The record itself survives for the
// audit trail; backing the allocation out of the bill is the caller's job,
// in the same transaction.
func (p *Payment) Reverse(reason string) error {
	if p.IsReversed() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Payment %s is already reversed", p.PaymentNumber))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Reversal reason is required")
	}
	if len(reason) > 500 {
		return shared.NewDomainError("INVALID_REASON", "Reversal reason cannot exceed 500 characters")
	}

	now := time.Now()
	p.Status = PaymentStatusReversed
	p.ReversedAt = &now
	p.ReversalReason = reason
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentReversedEvent(p, reason))

	return nil
}

// SetIdempotencyKey marks the payment with the client-supplied key that
// created it, so retries can be answered with the original record.
func (p *Payment) SetIdempotencyKey(key string) {
	p.IdempotencyKey = key
}

// SetNotes sets free-form notes on the payment
func (p *Payment) SetNotes(notes string) {
	p.Notes = notes
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Validation functions

func validatePaymentNumber(number string) error {
	if number == "" {
		return shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot be empty")
	}
	if len(number) > 50 {
		return shared.NewDomainError("INVALID_PAYMENT_NUMBER", "Payment number cannot exceed 50 characters")
	}
	return nil
}
