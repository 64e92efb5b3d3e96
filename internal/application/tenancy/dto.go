package tenancy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/tenancy"
)

// MoveInRequest represents a tenant moving into a vacant room
type MoveInRequest struct {
	RoomID           uuid.UUID        `json:"room_id" binding:"required"`
	FirstName        string           `json:"first_name" binding:"required,min=1,max=100" example:"Maria"`
	LastName         string           `json:"last_name" binding:"required,min=1,max=100" example:"Santos"`
	Phone            string           `json:"phone" binding:"max=50"`
	Email            string           `json:"email" binding:"omitempty,email,max=200"`
	EmergencyContact string           `json:"emergency_contact" binding:"max=200"`
	RentStartDate    time.Time        `json:"rent_start_date" binding:"required" example:"2026-01-15T00:00:00Z"`
	MonthlyRent      *decimal.Decimal `json:"monthly_rent"` // Defaults to the room's listed rent
	AdvancePayment   decimal.Decimal  `json:"advance_payment"`
	SecurityDeposit  decimal.Decimal  `json:"security_deposit"`
	Notes            string           `json:"notes"`
}

// UpdateTenantRequest represents a request to update tenant information
type UpdateTenantRequest struct {
	FirstName        *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	LastName         *string `json:"last_name" binding:"omitempty,min=1,max=100"`
	Phone            *string `json:"phone" binding:"omitempty,max=50"`
	Email            *string `json:"email" binding:"omitempty,max=200"`
	EmergencyContact *string `json:"emergency_contact" binding:"omitempty,max=200"`
	Notes            *string `json:"notes"`
}

// SetRentRequest changes a tenant's agreed monthly rent for future cycles
type SetRentRequest struct {
	MonthlyRent decimal.Decimal `json:"monthly_rent" binding:"required"`
}

// TenantListFilter represents filter options for listing tenants
type TenantListFilter struct {
	BranchID *uuid.UUID `form:"branch_id"`
	Status   string     `form:"status" binding:"omitempty,oneof=active moved_out"`
	Search   string     `form:"search" binding:"omitempty,max=200"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy   string     `form:"sort_by" binding:"omitempty,max=50"`
	SortDesc bool       `form:"sort_desc"`
}

// FinalCycleCharges carries the staff-entered charges for a tenant's last
// cycle: metered utilities and any one-off fees.
type FinalCycleCharges struct {
	ElectricityCharge decimal.Decimal `json:"electricity_charge"`
	WaterCharge       decimal.Decimal `json:"water_charge"`
	ExtraFees         decimal.Decimal `json:"extra_fees"`
	ExtraFeeLabel     string          `json:"extra_fee_label" binding:"max=200"`
}

// MoveOutRequest represents a tenant vacating their room
type MoveOutRequest struct {
	MoveOutDate time.Time `json:"move_out_date" binding:"required" example:"2026-06-30T00:00:00Z"`
	FinalCycleCharges
	Notes string `json:"notes"`
}

// TransferRequest moves an active tenant to another room. The old occupancy
// is settled with the transfer deposit policy first; any refund carries into
// the new occupancy's advance payment unless the deposits are given
// explicitly.
type TransferRequest struct {
	NewRoomID     uuid.UUID `json:"new_room_id" binding:"required"`
	EffectiveDate time.Time `json:"effective_date" binding:"required"`
	FinalCycleCharges
	NewMonthlyRent     *decimal.Decimal `json:"new_monthly_rent"` // Defaults to the new room's listed rent
	NewAdvancePayment  *decimal.Decimal `json:"new_advance_payment"`
	NewSecurityDeposit *decimal.Decimal `json:"new_security_deposit"`
}

// TenantResponse represents a tenant in API responses
type TenantResponse struct {
	ID               uuid.UUID       `json:"id"`
	OrgID            uuid.UUID       `json:"org_id"`
	FirstName        string          `json:"first_name"`
	LastName         string          `json:"last_name"`
	FullName         string          `json:"full_name"`
	Phone            string          `json:"phone,omitempty"`
	Email            string          `json:"email,omitempty"`
	EmergencyContact string          `json:"emergency_contact,omitempty"`
	BranchID         uuid.UUID       `json:"branch_id"`
	RoomID           uuid.UUID       `json:"room_id"`
	RentStartDate    time.Time       `json:"rent_start_date"`
	MonthlyRent      decimal.Decimal `json:"monthly_rent"`
	AdvancePayment   decimal.Decimal `json:"advance_payment"`
	SecurityDeposit  decimal.Decimal `json:"security_deposit"`
	Status           string          `json:"status"`
	MoveOutDate      *time.Time      `json:"move_out_date,omitempty"`
	MoveOutReason    *string         `json:"move_out_reason,omitempty"`
	FinalBillID      *uuid.UUID      `json:"final_bill_id,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version"`
}

// ToTenantResponse converts a domain tenant to a response DTO
func ToTenantResponse(tenant *tenancy.Tenant) *TenantResponse {
	resp := &TenantResponse{
		ID:               tenant.ID,
		OrgID:            tenant.OrgID,
		FirstName:        tenant.FirstName,
		LastName:         tenant.LastName,
		FullName:         tenant.FullName(),
		Phone:            tenant.Phone,
		Email:            tenant.Email,
		EmergencyContact: tenant.EmergencyContact,
		BranchID:         tenant.BranchID,
		RoomID:           tenant.RoomID,
		RentStartDate:    tenant.RentStartDate,
		MonthlyRent:      tenant.MonthlyRent,
		AdvancePayment:   tenant.AdvancePayment,
		SecurityDeposit:  tenant.SecurityDeposit,
		Status:           string(tenant.Status),
		MoveOutDate:      tenant.MoveOutDate,
		FinalBillID:      tenant.FinalBillID,
		Notes:            tenant.Notes,
		CreatedAt:        tenant.CreatedAt,
		UpdatedAt:        tenant.UpdatedAt,
		Version:          tenant.Version,
	}
	if tenant.MoveOutReason != nil {
		reason := string(*tenant.MoveOutReason)
		resp.MoveOutReason = &reason
	}
	return resp
}

// SettlementPreviewResponse itemizes a move-out settlement for review before
// it is committed. The same arithmetic runs on commit, so the preview matches
// the final bill peso for peso.
type SettlementPreviewResponse struct {
	CycleNumber         int             `json:"cycle_number"`
	PeriodStart         time.Time       `json:"period_start"`
	PeriodEnd           time.Time       `json:"period_end"`
	ProratedRent        decimal.Decimal `json:"prorated_rent"`
	ElectricityCharge   decimal.Decimal `json:"electricity_charge"`
	WaterCharge         decimal.Decimal `json:"water_charge"`
	ExtraFees           decimal.Decimal `json:"extra_fees"`
	OutstandingBills    decimal.Decimal `json:"outstanding_bills"`
	TotalBeforeDeposits decimal.Decimal `json:"total_before_deposits"`
	DepositAvailable    decimal.Decimal `json:"deposit_available"`
	DepositApplied      decimal.Decimal `json:"deposit_applied"`
	DepositForfeited    decimal.Decimal `json:"deposit_forfeited"`
	DepositRefund       decimal.Decimal `json:"deposit_refund"`
	FinalTotal          decimal.Decimal `json:"final_total"`
	IsRefund            bool            `json:"is_refund"`
	FullyPaidCycles     int             `json:"fully_paid_cycles"`
}

func toSettlementPreview(period billing.BillingPeriod, breakdown billing.FinalBillBreakdown, fullyPaidCycles int) *SettlementPreviewResponse {
	return &SettlementPreviewResponse{
		CycleNumber:         period.CycleNumber,
		PeriodStart:         period.Start,
		PeriodEnd:           period.End,
		ProratedRent:        breakdown.ProratedRent,
		ElectricityCharge:   breakdown.ElectricityCharge,
		WaterCharge:         breakdown.WaterCharge,
		ExtraFees:           breakdown.ExtraFees,
		OutstandingBills:    breakdown.OutstandingBills,
		TotalBeforeDeposits: breakdown.TotalBeforeDeposits,
		DepositAvailable:    breakdown.Deposits.AvailableAmount,
		DepositApplied:      breakdown.Deposits.AppliedAmount,
		DepositForfeited:    breakdown.Deposits.ForfeitedAmount,
		DepositRefund:       breakdown.Deposits.RefundAmount,
		FinalTotal:          breakdown.FinalTotal,
		IsRefund:            breakdown.IsRefund(),
		FullyPaidCycles:     fullyPaidCycles,
	}
}

// MoveOutResponse is the committed settlement: the closed tenancy, the final
// bill composed for it, and the itemized breakdown.
type MoveOutResponse struct {
	Tenant          TenantResponse            `json:"tenant"`
	FinalBillID     uuid.UUID                 `json:"final_bill_id"`
	FinalBillNumber string                    `json:"final_bill_number"`
	Settlement      SettlementPreviewResponse `json:"settlement"`
}

// TransferResponse is the outcome of a room transfer: the old occupancy's
// settlement plus the tenant re-anchored in the new room.
type TransferResponse struct {
	Tenant          TenantResponse            `json:"tenant"`
	FinalBillID     uuid.UUID                 `json:"final_bill_id"`
	FinalBillNumber string                    `json:"final_bill_number"`
	Settlement      SettlementPreviewResponse `json:"settlement"`
}
