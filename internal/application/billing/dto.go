package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/ledger"
)

// GenerateBillRequest represents a request to generate a cycle bill for a
// tenant. Electricity can be given as a peso amount or as metered usage in
// kWh; usage is priced at the branch's effective rate. Water defaults to the
// branch's flat rate when omitted.
type GenerateBillRequest struct {
	TenantID            uuid.UUID        `json:"tenant_id" binding:"required"`
	CycleNumber         *int             `json:"cycle_number" binding:"omitempty,min=1"`
	ElectricityAmount   *decimal.Decimal `json:"electricity_amount"`
	ElectricityUsageKwh *decimal.Decimal `json:"electricity_usage_kwh"`
	WaterAmount         *decimal.Decimal `json:"water_amount"`
	ExtraFeeAmount      *decimal.Decimal `json:"extra_fee_amount"`
	ExtraFeeLabel       string           `json:"extra_fee_label" binding:"omitempty,max=200"`
	Notes               string           `json:"notes"`
}

// BillListFilter represents filter options for listing bills
type BillListFilter struct {
	TenantID *uuid.UUID `form:"tenant_id"`
	BranchID *uuid.UUID `form:"branch_id"`
	Status   string     `form:"status" binding:"omitempty,oneof=active partially_paid fully_paid"`
	Overdue  bool       `form:"overdue"`
	Search   string     `form:"search"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy   string     `form:"sort_by" binding:"omitempty,oneof=bill_number due_date period_start total_amount created_at"`
	SortDesc bool       `form:"sort_desc"`
}

// UpdateBillNotesRequest updates the free-form notes on a bill
type UpdateBillNotesRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// BillResponse represents bill data in responses
type BillResponse struct {
	ID          uuid.UUID `json:"id"`
	BillNumber  string    `json:"bill_number"`
	TenantID    uuid.UUID `json:"tenant_id"`
	RoomID      uuid.UUID `json:"room_id"`
	BranchID    uuid.UUID `json:"branch_id"`
	CycleNumber int       `json:"cycle_number"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	DueDate     time.Time `json:"due_date"`

	RentAmount        decimal.Decimal `json:"rent_amount"`
	ElectricityAmount decimal.Decimal `json:"electricity_amount"`
	WaterAmount       decimal.Decimal `json:"water_amount"`
	ExtraFeeAmount    decimal.Decimal `json:"extra_fee_amount"`
	ExtraFeeLabel     string          `json:"extra_fee_label,omitempty"`
	PenaltyAmount     decimal.Decimal `json:"penalty_amount"`

	TotalAmount       decimal.Decimal `json:"total_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	Status            string          `json:"status"`

	IsFinalBill bool                       `json:"is_final_bill"`
	Settlement  *ledger.SettlementSnapshot `json:"settlement,omitempty"`
	Notes       string                     `json:"notes,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`
}

// ToBillResponse converts a bill to a response DTO
func ToBillResponse(bill *ledger.Bill) *BillResponse {
	return &BillResponse{
		ID:                bill.ID,
		BillNumber:        bill.BillNumber,
		TenantID:          bill.TenantID,
		RoomID:            bill.RoomID,
		BranchID:          bill.BranchID,
		CycleNumber:       bill.CycleNumber,
		PeriodStart:       bill.PeriodStart,
		PeriodEnd:         bill.PeriodEnd,
		DueDate:           bill.DueDate,
		RentAmount:        bill.RentAmount,
		ElectricityAmount: bill.ElectricityAmount,
		WaterAmount:       bill.WaterAmount,
		ExtraFeeAmount:    bill.ExtraFeeAmount,
		ExtraFeeLabel:     bill.ExtraFeeLabel,
		PenaltyAmount:     bill.PenaltyAmount,
		TotalAmount:       bill.TotalAmount,
		PaidAmount:        bill.PaidAmount,
		OutstandingAmount: bill.OutstandingAmount(),
		Status:            string(bill.Status),
		IsFinalBill:       bill.IsFinalBill,
		Settlement:        bill.Settlement,
		Notes:             bill.Notes,
		CreatedAt:         bill.CreatedAt,
		UpdatedAt:         bill.UpdatedAt,
	}
}

// GenerateDueBillsResult summarizes one run of the cycle-bill sweep
type GenerateDueBillsResult struct {
	Generated int `json:"generated"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// ApplyPenaltiesResult summarizes one run of the overdue penalty sweep
type ApplyPenaltiesResult struct {
	Scanned      int             `json:"scanned"`
	Applied      int             `json:"applied"`
	Failed       int             `json:"failed"`
	TotalPenalty decimal.Decimal `json:"total_penalty"`
}
