package ledger

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

// BillStatus represents the payment status of a bill
type BillStatus string

const (
	BillStatusActive        BillStatus = "active" // Issued, nothing paid yet
	BillStatusPartiallyPaid BillStatus = "partially_paid"
	BillStatusFullyPaid     BillStatus = "fully_paid"
)

// SettlementSnapshot captures the engine's move-out breakdown on a final
// bill so settlement statements can be re-rendered later without replaying
// the calculation against state that has since changed.
type SettlementSnapshot struct {
	ProratedRent        decimal.Decimal `json:"prorated_rent"`
	ElectricityCharge   decimal.Decimal `json:"electricity_charge"`
	WaterCharge         decimal.Decimal `json:"water_charge"`
	ExtraFees           decimal.Decimal `json:"extra_fees"`
	OutstandingBills    decimal.Decimal `json:"outstanding_bills"`
	TotalBeforeDeposits decimal.Decimal `json:"total_before_deposits"`
	AdvancePayment      decimal.Decimal `json:"advance_payment"`
	SecurityDeposit     decimal.Decimal `json:"security_deposit"`
	DepositAvailable    decimal.Decimal `json:"deposit_available"`
	DepositApplied      decimal.Decimal `json:"deposit_applied"`
	DepositForfeited    decimal.Decimal `json:"deposit_forfeited"`
	DepositRefund       decimal.Decimal `json:"deposit_refund"`
	FinalTotal          decimal.Decimal `json:"final_total"`
	FullyPaidCycles     int             `json:"fully_paid_cycles"`
	IsRoomTransfer      bool            `json:"is_room_transfer"`
	MoveOutDate         time.Time       `json:"move_out_date"`
	MoveOutReason       string          `json:"move_out_reason"`
}

// NewSettlementSnapshot builds the persisted snapshot from the engine's
// breakdown and the inputs it was computed from.
func NewSettlementSnapshot(input billing.FinalBillInput, breakdown billing.FinalBillBreakdown, moveOutReason string) SettlementSnapshot {
	return SettlementSnapshot{
		ProratedRent:        breakdown.ProratedRent,
		ElectricityCharge:   breakdown.ElectricityCharge,
		WaterCharge:         breakdown.WaterCharge,
		ExtraFees:           breakdown.ExtraFees,
		OutstandingBills:    breakdown.OutstandingBills,
		TotalBeforeDeposits: breakdown.TotalBeforeDeposits,
		AdvancePayment:      input.AdvancePayment,
		SecurityDeposit:     input.SecurityDeposit,
		DepositAvailable:    breakdown.Deposits.AvailableAmount,
		DepositApplied:      breakdown.Deposits.AppliedAmount,
		DepositForfeited:    breakdown.Deposits.ForfeitedAmount,
		DepositRefund:       breakdown.Deposits.RefundAmount,
		FinalTotal:          breakdown.FinalTotal,
		FullyPaidCycles:     input.FullyPaidCycles,
		IsRoomTransfer:      input.IsRoomTransfer,
		MoveOutDate:         input.MoveOutDate,
		MoveOutReason:       moveOutReason,
	}
}

// Value implements driver.Valuer interface for GORM to store as JSONB.
// The receiver is a pointer so the nil snapshot on a regular bill persists
// as NULL.
func (s *SettlementSnapshot) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (s *SettlementSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = SettlementSnapshot{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan SettlementSnapshot: unsupported type")
	}

	if len(bytes) == 0 {
		*s = SettlementSnapshot{}
		return nil
	}

	return json.Unmarshal(bytes, s)
}

// Bill represents one billing cycle's charges for a tenant, broken into the
// component buckets the allocation engine settles payments against. Paid
// amounts are tracked per bucket so partial payments keep outstanding
// balances exact.
type Bill struct {
	shared.OrgAggregateRoot
	BillNumber  string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_bill_org_number,priority:2"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_bill_tenant_cycle,priority:1"`
	RoomID      uuid.UUID `gorm:"type:uuid;not null;index"`
	BranchID    uuid.UUID `gorm:"type:uuid;not null;index"`
	CycleNumber int       `gorm:"not null;uniqueIndex:idx_bill_tenant_cycle,priority:2"`
	PeriodStart time.Time `gorm:"type:date;not null"`
	PeriodEnd   time.Time `gorm:"type:date;not null"`
	DueDate     time.Time `gorm:"not null;index"`

	RentAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ElectricityAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	WaterAmount       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ExtraFeeAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ExtraFeeLabel     string          `gorm:"type:varchar(200)"`
	PenaltyAmount     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	RentPaid        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ElectricityPaid decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	WaterPaid       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ExtraFeePaid    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PenaltyPaid     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaidAmount  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status      BillStatus      `gorm:"type:varchar(20);not null;default:'active';index"`

	IsFinalBill bool                `gorm:"not null;default:false"`
	Settlement  *SettlementSnapshot `gorm:"type:jsonb"` // Only set on final bills
	Notes       string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Bill) TableName() string {
	return "bills"
}

// NewBill creates a regular cycle bill from the charges the billing service
// computed. The penalty bucket always starts empty; penalties are applied
// later when a payment arrives past the due date.
func NewBill(orgID, tenantID, roomID, branchID uuid.UUID, billNumber string, period billing.BillingPeriod, dueDate time.Time, rent, electricity, water, extraFee valueobject.Money, extraFeeLabel string) (*Bill, error) {
	if err := validateBillNumber(billNumber); err != nil {
		return nil, err
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if period.CycleNumber < 1 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Billing cycle number must be at least 1")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}
	for _, amount := range []valueobject.Money{rent, electricity, water, extraFee} {
		if amount.Amount().IsNegative() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Bill amounts cannot be negative")
		}
	}
	if extraFeeLabel != "" && len(extraFeeLabel) > 200 {
		return nil, shared.NewDomainError("INVALID_LABEL", "Extra fee label cannot exceed 200 characters")
	}

	bill := &Bill{
		OrgAggregateRoot:  shared.NewOrgAggregateRoot(orgID),
		BillNumber:        billNumber,
		TenantID:          tenantID,
		RoomID:            roomID,
		BranchID:          branchID,
		CycleNumber:       period.CycleNumber,
		PeriodStart:       period.Start,
		PeriodEnd:         period.End,
		DueDate:           dueDate,
		RentAmount:        rent.Amount(),
		ElectricityAmount: electricity.Amount(),
		WaterAmount:       water.Amount(),
		ExtraFeeAmount:    extraFee.Amount(),
		ExtraFeeLabel:     extraFeeLabel,
		Status:            BillStatusActive,
	}
	bill.TotalAmount = bill.chargeTotal()

	bill.AddDomainEvent(NewBillGeneratedEvent(bill))

	return bill, nil
}

// NewFinalBill creates the settlement bill for a move-out. Its charge
// buckets carry only the final cycle's own charges; balances still owed on
// earlier bills remain on those bills and are settled by the deposit
// application the settlement flow runs. The full engine breakdown is kept
// as a snapshot for statements.
func NewFinalBill(orgID, tenantID, roomID, branchID uuid.UUID, billNumber string, period billing.BillingPeriod, dueDate time.Time, snapshot SettlementSnapshot) (*Bill, error) {
	if err := validateBillNumber(billNumber); err != nil {
		return nil, err
	}
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if dueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date is required")
	}

	bill := &Bill{
		OrgAggregateRoot:  shared.NewOrgAggregateRoot(orgID),
		BillNumber:        billNumber,
		TenantID:          tenantID,
		RoomID:            roomID,
		BranchID:          branchID,
		CycleNumber:       period.CycleNumber,
		PeriodStart:       period.Start,
		PeriodEnd:         period.End,
		DueDate:           dueDate,
		RentAmount:        snapshot.ProratedRent,
		ElectricityAmount: snapshot.ElectricityCharge,
		WaterAmount:       snapshot.WaterCharge,
		ExtraFeeAmount:    snapshot.ExtraFees,
		Status:            BillStatusActive,
		IsFinalBill:       true,
		Settlement:        &snapshot,
	}
	bill.TotalAmount = bill.chargeTotal()
	if bill.TotalAmount.IsZero() {
		bill.Status = BillStatusFullyPaid
	}

	bill.AddDomainEvent(NewBillGeneratedEvent(bill))

	return bill, nil
}

func (b *Bill) chargeTotal() decimal.Decimal {
	return b.RentAmount.
		Add(b.ElectricityAmount).
		Add(b.WaterAmount).
		Add(b.ExtraFeeAmount).
		Add(b.PenaltyAmount)
}

// OutstandingAmount returns how much of the bill remains unpaid
func (b *Bill) OutstandingAmount() decimal.Decimal {
	return b.TotalAmount.Sub(b.PaidAmount)
}

// OutstandingComponents returns the unpaid balance per charge bucket, in the
// shape the allocation engine consumes.
func (b *Bill) OutstandingComponents() billing.ComponentAmounts {
	return billing.ComponentAmounts{
		billing.ComponentRent:        b.RentAmount.Sub(b.RentPaid),
		billing.ComponentElectricity: b.ElectricityAmount.Sub(b.ElectricityPaid),
		billing.ComponentWater:       b.WaterAmount.Sub(b.WaterPaid),
		billing.ComponentExtraFee:    b.ExtraFeeAmount.Sub(b.ExtraFeePaid),
		billing.ComponentPenalty:     b.PenaltyAmount.Sub(b.PenaltyPaid),
	}
}

// HasPenalty returns true if a late penalty has been applied to this bill
func (b *Bill) HasPenalty() bool {
	return b.PenaltyAmount.IsPositive()
}

// IsFullyPaid returns true once every charge on the bill is settled
func (b *Bill) IsFullyPaid() bool {
	return b.Status == BillStatusFullyPaid
}

// IsOverdue reports whether the bill is unpaid past its due date, compared
// as calendar dates in the business timezone.
func (b *Bill) IsOverdue(asOf time.Time) bool {
	if b.IsFullyPaid() {
		return false
	}
	loc := billing.BusinessLocation()
	due := b.DueDate.In(loc)
	at := asOf.In(loc)
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, loc)
	atDay := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, loc)
	return atDay.After(dueDay)
}

// ApplyPenalty adds a late-payment penalty to the bill. A bill is penalized
// at most once; final bills never accrue penalties because they are settled
// at composition time.
func (b *Bill) ApplyPenalty(penalty valueobject.Money) error {
	if b.IsFinalBill {
		return shared.NewDomainError("INVALID_STATE", "Final bills do not accrue penalties")
	}
	if b.IsFullyPaid() {
		return shared.NewDomainError("INVALID_STATE", "Cannot penalize a fully paid bill")
	}
	if b.HasPenalty() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Bill %s already carries a penalty", b.BillNumber))
	}
	if !penalty.Amount().IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Penalty must be positive")
	}

	b.PenaltyAmount = penalty.Amount()
	b.TotalAmount = b.chargeTotal()
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBillPenaltyAppliedEvent(b, penalty.Amount()))

	return nil
}

// ApplyPayment settles part of the bill according to a validated component
// allocation. The caller has already run the allocation through the payment
// engine's exact-sum gate; this method additionally refuses any bucket
// overshoot so the per-component ledger can never go negative.
func (b *Bill) ApplyPayment(allocation billing.ComponentAmounts) error {
	outstanding := b.OutstandingComponents()
	for component, amount := range allocation {
		if !component.IsValid() {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown bill component %q", component))
		}
		if amount.IsNegative() {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Allocation for %s cannot be negative", component))
		}
		if amount.GreaterThan(outstanding.Get(component)) {
			return shared.NewDomainError("EXCEEDS_OUTSTANDING",
				fmt.Sprintf("Allocation %s for %s exceeds its outstanding amount %s", amount, component, outstanding.Get(component)))
		}
	}

	wasFullyPaid := b.IsFullyPaid()

	b.RentPaid = b.RentPaid.Add(allocation.Get(billing.ComponentRent))
	b.ElectricityPaid = b.ElectricityPaid.Add(allocation.Get(billing.ComponentElectricity))
	b.WaterPaid = b.WaterPaid.Add(allocation.Get(billing.ComponentWater))
	b.ExtraFeePaid = b.ExtraFeePaid.Add(allocation.Get(billing.ComponentExtraFee))
	b.PenaltyPaid = b.PenaltyPaid.Add(allocation.Get(billing.ComponentPenalty))
	b.PaidAmount = b.PaidAmount.Add(allocation.Total())
	b.recomputeStatus()
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBillPaymentAppliedEvent(b, allocation))
	if !wasFullyPaid && b.IsFullyPaid() {
		b.AddDomainEvent(NewBillFullyPaidEvent(b))
	}

	return nil
}

// RevertPayment undoes a previously applied allocation when a payment is
// reversed. The bill returns to the status its remaining paid amounts imply.
func (b *Bill) RevertPayment(allocation billing.ComponentAmounts) error {
	paid := billing.ComponentAmounts{
		billing.ComponentRent:        b.RentPaid,
		billing.ComponentElectricity: b.ElectricityPaid,
		billing.ComponentWater:       b.WaterPaid,
		billing.ComponentExtraFee:    b.ExtraFeePaid,
		billing.ComponentPenalty:     b.PenaltyPaid,
	}
	for component, amount := range allocation {
		if !component.IsValid() {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Unknown bill component %q", component))
		}
		if amount.IsNegative() {
			return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Allocation for %s cannot be negative", component))
		}
		if amount.GreaterThan(paid.Get(component)) {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot revert %s from %s, only %s was paid", amount, component, paid.Get(component)))
		}
	}

	b.RentPaid = b.RentPaid.Sub(allocation.Get(billing.ComponentRent))
	b.ElectricityPaid = b.ElectricityPaid.Sub(allocation.Get(billing.ComponentElectricity))
	b.WaterPaid = b.WaterPaid.Sub(allocation.Get(billing.ComponentWater))
	b.ExtraFeePaid = b.ExtraFeePaid.Sub(allocation.Get(billing.ComponentExtraFee))
	b.PenaltyPaid = b.PenaltyPaid.Sub(allocation.Get(billing.ComponentPenalty))
	b.PaidAmount = b.PaidAmount.Sub(allocation.Total())
	b.recomputeStatus()
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBillPaymentRevertedEvent(b, allocation))

	return nil
}

// SetNotes sets free-form notes on the bill
func (b *Bill) SetNotes(notes string) {
	b.Notes = notes
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

func (b *Bill) recomputeStatus() {
	switch {
	case b.PaidAmount.GreaterThanOrEqual(b.TotalAmount):
		b.Status = BillStatusFullyPaid
	case b.PaidAmount.IsPositive():
		b.Status = BillStatusPartiallyPaid
	default:
		b.Status = BillStatusActive
	}
}

// Validation functions

func validateBillNumber(number string) error {
	if number == "" {
		return shared.NewDomainError("INVALID_BILL_NUMBER", "Bill number cannot be empty")
	}
	if len(number) > 50 {
		return shared.NewDomainError("INVALID_BILL_NUMBER", "Bill number cannot exceed 50 characters")
	}
	return nil
}
