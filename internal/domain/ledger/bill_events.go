package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/shared"
)

// AggregateTypeBill is the aggregate type identifier for bills
const AggregateTypeBill = "bill"

// Bill event types
const (
	EventTypeBillGenerated       = "ledger.bill.generated"
	EventTypeBillPenaltyApplied  = "ledger.bill.penalty_applied"
	EventTypeBillPaymentApplied  = "ledger.bill.payment_applied"
	EventTypeBillPaymentReverted = "ledger.bill.payment_reverted"
	EventTypeBillFullyPaid       = "ledger.bill.fully_paid"
)

// BillGeneratedEvent is raised when a cycle bill or final bill is created
type BillGeneratedEvent struct {
	shared.BaseDomainEvent
	BillNumber  string          `json:"bill_number"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	RoomID      uuid.UUID       `json:"room_id"`
	BranchID    uuid.UUID       `json:"branch_id"`
	CycleNumber int             `json:"cycle_number"`
	DueDate     time.Time       `json:"due_date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	IsFinalBill bool            `json:"is_final_bill"`
}

// NewBillGeneratedEvent creates a new bill generated event
func NewBillGeneratedEvent(bill *Bill) *BillGeneratedEvent {
	return &BillGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillGenerated, AggregateTypeBill, bill.ID, bill.OrgID),
		BillNumber:      bill.BillNumber,
		TenantID:        bill.TenantID,
		RoomID:          bill.RoomID,
		BranchID:        bill.BranchID,
		CycleNumber:     bill.CycleNumber,
		DueDate:         bill.DueDate,
		TotalAmount:     bill.TotalAmount,
		IsFinalBill:     bill.IsFinalBill,
	}
}

// BillPenaltyAppliedEvent is raised when a late penalty is added to a bill
type BillPenaltyAppliedEvent struct {
	shared.BaseDomainEvent
	BillNumber    string          `json:"bill_number"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	PenaltyAmount decimal.Decimal `json:"penalty_amount"`
	NewTotal      decimal.Decimal `json:"new_total"`
}

// NewBillPenaltyAppliedEvent creates a new penalty applied event
func NewBillPenaltyAppliedEvent(bill *Bill, penalty decimal.Decimal) *BillPenaltyAppliedEvent {
	return &BillPenaltyAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPenaltyApplied, AggregateTypeBill, bill.ID, bill.OrgID),
		BillNumber:      bill.BillNumber,
		TenantID:        bill.TenantID,
		PenaltyAmount:   penalty,
		NewTotal:        bill.TotalAmount,
	}
}

// BillPaymentAppliedEvent is raised when a payment allocation settles part of a bill
type BillPaymentAppliedEvent struct {
	shared.BaseDomainEvent
	BillNumber  string                   `json:"bill_number"`
	TenantID    uuid.UUID                `json:"tenant_id"`
	Allocation  billing.ComponentAmounts `json:"allocation"`
	PaidAmount  decimal.Decimal          `json:"paid_amount"`
	Outstanding decimal.Decimal          `json:"outstanding"`
	Status      BillStatus               `json:"status"`
}

// NewBillPaymentAppliedEvent creates a new payment applied event
func NewBillPaymentAppliedEvent(bill *Bill, allocation billing.ComponentAmounts) *BillPaymentAppliedEvent {
	return &BillPaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPaymentApplied, AggregateTypeBill, bill.ID, bill.OrgID),
		BillNumber:      bill.BillNumber,
		TenantID:        bill.TenantID,
		Allocation:      allocation.Clone(),
		PaidAmount:      bill.PaidAmount,
		Outstanding:     bill.OutstandingAmount(),
		Status:          bill.Status,
	}
}

// BillPaymentRevertedEvent is raised when a reversed payment is backed out of a bill
type BillPaymentRevertedEvent struct {
	shared.BaseDomainEvent
	BillNumber  string                   `json:"bill_number"`
	TenantID    uuid.UUID                `json:"tenant_id"`
	Allocation  billing.ComponentAmounts `json:"allocation"`
	PaidAmount  decimal.Decimal          `json:"paid_amount"`
	Outstanding decimal.Decimal          `json:"outstanding"`
	Status      BillStatus               `json:"status"`
}

// NewBillPaymentRevertedEvent creates a new payment reverted event
func NewBillPaymentRevertedEvent(bill *Bill, allocation billing.ComponentAmounts) *BillPaymentRevertedEvent {
	return &BillPaymentRevertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillPaymentReverted, AggregateTypeBill, bill.ID, bill.OrgID),
		BillNumber:      bill.BillNumber,
		TenantID:        bill.TenantID,
		Allocation:      allocation.Clone(),
		PaidAmount:      bill.PaidAmount,
		Outstanding:     bill.OutstandingAmount(),
		Status:          bill.Status,
	}
}

// BillFullyPaidEvent is raised when a bill transitions to fully paid
type BillFullyPaidEvent struct {
	shared.BaseDomainEvent
	BillNumber  string          `json:"bill_number"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	CycleNumber int             `json:"cycle_number"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewBillFullyPaidEvent creates a new fully paid event
func NewBillFullyPaidEvent(bill *Bill) *BillFullyPaidEvent {
	return &BillFullyPaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillFullyPaid, AggregateTypeBill, bill.ID, bill.OrgID),
		BillNumber:      bill.BillNumber,
		TenantID:        bill.TenantID,
		CycleNumber:     bill.CycleNumber,
		TotalAmount:     bill.TotalAmount,
	}
}
