package tenancy

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeTenant = "Tenant"

// Event type constants
const (
	EventTypeTenantMovedIn     = "TenantMovedIn"
	EventTypeTenantUpdated     = "TenantUpdated"
	EventTypeTenantRentChanged = "TenantRentChanged"
	EventTypeTenantMovedOut    = "TenantMovedOut"
	EventTypeTenantTransferred = "TenantTransferred"
)

// TenantMovedInEvent is published when a tenant moves into a room
type TenantMovedInEvent struct {
	shared.BaseDomainEvent
	TenantID      uuid.UUID       `json:"tenant_id"`
	BranchID      uuid.UUID       `json:"branch_id"`
	RoomID        uuid.UUID       `json:"room_id"`
	FullName      string          `json:"full_name"`
	RentStartDate time.Time       `json:"rent_start_date"`
	MonthlyRent   decimal.Decimal `json:"monthly_rent"`
}

// NewTenantMovedInEvent creates a new TenantMovedInEvent
func NewTenantMovedInEvent(tenant *Tenant) *TenantMovedInEvent {
	return &TenantMovedInEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantMovedIn, AggregateTypeTenant, tenant.ID, tenant.OrgID),
		TenantID:        tenant.ID,
		BranchID:        tenant.BranchID,
		RoomID:          tenant.RoomID,
		FullName:        tenant.FullName(),
		RentStartDate:   tenant.RentStartDate,
		MonthlyRent:     tenant.MonthlyRent,
	}
}

// TenantUpdatedEvent is published when a tenant's details change
type TenantUpdatedEvent struct {
	shared.BaseDomainEvent
	TenantID uuid.UUID `json:"tenant_id"`
	FullName string    `json:"full_name"`
	Phone    string    `json:"phone,omitempty"`
	Email    string    `json:"email,omitempty"`
}

// NewTenantUpdatedEvent creates a new TenantUpdatedEvent
func NewTenantUpdatedEvent(tenant *Tenant) *TenantUpdatedEvent {
	return &TenantUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantUpdated, AggregateTypeTenant, tenant.ID, tenant.OrgID),
		TenantID:        tenant.ID,
		FullName:        tenant.FullName(),
		Phone:           tenant.Phone,
		Email:           tenant.Email,
	}
}

// TenantRentChangedEvent is published when a tenant's agreed rent changes
type TenantRentChangedEvent struct {
	shared.BaseDomainEvent
	TenantID uuid.UUID       `json:"tenant_id"`
	OldRent  decimal.Decimal `json:"old_rent"`
	NewRent  decimal.Decimal `json:"new_rent"`
}

// NewTenantRentChangedEvent creates a new TenantRentChangedEvent
func NewTenantRentChangedEvent(tenant *Tenant, oldRent, newRent decimal.Decimal) *TenantRentChangedEvent {
	return &TenantRentChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantRentChanged, AggregateTypeTenant, tenant.ID, tenant.OrgID),
		TenantID:        tenant.ID,
		OldRent:         oldRent,
		NewRent:         newRent,
	}
}

// TenantMovedOutEvent is published when a tenancy ends. Notification
// handlers render the settlement statement off the final bill referenced by
// the tenant record.
type TenantMovedOutEvent struct {
	shared.BaseDomainEvent
	TenantID    uuid.UUID     `json:"tenant_id"`
	BranchID    uuid.UUID     `json:"branch_id"`
	RoomID      uuid.UUID     `json:"room_id"`
	FullName    string        `json:"full_name"`
	MoveOutDate time.Time     `json:"move_out_date"`
	Reason      MoveOutReason `json:"reason"`
	FinalBillID *uuid.UUID    `json:"final_bill_id,omitempty"`
}

// NewTenantMovedOutEvent creates a new TenantMovedOutEvent
func NewTenantMovedOutEvent(tenant *Tenant, moveOutDate time.Time, reason MoveOutReason) *TenantMovedOutEvent {
	return &TenantMovedOutEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantMovedOut, AggregateTypeTenant, tenant.ID, tenant.OrgID),
		TenantID:        tenant.ID,
		BranchID:        tenant.BranchID,
		RoomID:          tenant.RoomID,
		FullName:        tenant.FullName(),
		MoveOutDate:     moveOutDate,
		Reason:          reason,
		FinalBillID:     tenant.FinalBillID,
	}
}

// TenantTransferredEvent is published when a tenant moves to another room
type TenantTransferredEvent struct {
	shared.BaseDomainEvent
	TenantID      uuid.UUID `json:"tenant_id"`
	OldRoomID     uuid.UUID `json:"old_room_id"`
	NewRoomID     uuid.UUID `json:"new_room_id"`
	EffectiveDate time.Time `json:"effective_date"`
}

// NewTenantTransferredEvent creates a new TenantTransferredEvent
func NewTenantTransferredEvent(tenant *Tenant, oldRoomID, newRoomID uuid.UUID, effectiveDate time.Time) *TenantTransferredEvent {
	return &TenantTransferredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantTransferred, AggregateTypeTenant, tenant.ID, tenant.OrgID),
		TenantID:        tenant.ID,
		OldRoomID:       oldRoomID,
		NewRoomID:       newRoomID,
		EffectiveDate:   effectiveDate,
	}
}
