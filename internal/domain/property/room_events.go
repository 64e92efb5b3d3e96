package property

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeRoom = "Room"

// Event type constants
const (
	EventTypeRoomCreated            = "RoomCreated"
	EventTypeRoomUpdated            = "RoomUpdated"
	EventTypeRoomRentChanged        = "RoomRentChanged"
	EventTypeRoomOccupied           = "RoomOccupied"
	EventTypeRoomVacated            = "RoomVacated"
	EventTypeRoomMaintenanceStarted = "RoomMaintenanceStarted"
	EventTypeRoomMaintenanceEnded   = "RoomMaintenanceEnded"
)

// RoomCreatedEvent is published when a new room is created
type RoomCreatedEvent struct {
	shared.BaseDomainEvent
	RoomID   uuid.UUID       `json:"room_id"`
	BranchID uuid.UUID       `json:"branch_id"`
	Number   string          `json:"number"`
	Rent     decimal.Decimal `json:"rent"`
}

// NewRoomCreatedEvent creates a new RoomCreatedEvent
func NewRoomCreatedEvent(room *Room) *RoomCreatedEvent {
	return &RoomCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoomCreated, AggregateTypeRoom, room.ID, room.OrgID),
		RoomID:          room.ID,
		BranchID:        room.BranchID,
		Number:          room.Number,
		Rent:            room.MonthlyRent,
	}
}

// RoomUpdatedEvent is published when a room is updated
type RoomUpdatedEvent struct {
	shared.BaseDomainEvent
	RoomID   uuid.UUID `json:"room_id"`
	BranchID uuid.UUID `json:"branch_id"`
	Number   string    `json:"number"`
}

// NewRoomUpdatedEvent creates a new RoomUpdatedEvent
func NewRoomUpdatedEvent(room *Room) *RoomUpdatedEvent {
	return &RoomUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoomUpdated, AggregateTypeRoom, room.ID, room.OrgID),
		RoomID:          room.ID,
		BranchID:        room.BranchID,
		Number:          room.Number,
	}
}

// RoomRentChangedEvent is published when a room's monthly rent changes
type RoomRentChangedEvent struct {
	shared.BaseDomainEvent
	RoomID  uuid.UUID       `json:"room_id"`
	Number  string          `json:"number"`
	OldRent decimal.Decimal `json:"old_rent"`
	NewRent decimal.Decimal `json:"new_rent"`
}

// NewRoomRentChangedEvent creates a new RoomRentChangedEvent
func NewRoomRentChangedEvent(room *Room, oldRent, newRent decimal.Decimal) *RoomRentChangedEvent {
	return &RoomRentChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoomRentChanged, AggregateTypeRoom, room.ID, room.OrgID),
		RoomID:          room.ID,
		Number:          room.Number,
		OldRent:         oldRent,
		NewRent:         newRent,
	}
}

// RoomOccupiedEvent is published when a tenant moves into a room
type RoomOccupiedEvent struct {
	shared.BaseDomainEvent
	RoomID   uuid.UUID `json:"room_id"`
	BranchID uuid.UUID `json:"branch_id"`
	Number   string    `json:"number"`
	TenantID uuid.UUID `json:"tenant_id"`
}

// NewRoomOccupiedEvent creates a new RoomOccupiedEvent
func NewRoomOccupiedEvent(room *Room, tenantID uuid.UUID) *RoomOccupiedEvent {
	return &RoomOccupiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoomOccupied, AggregateTypeRoom, room.ID, room.OrgID),
		RoomID:          room.ID,
		BranchID:        room.BranchID,
		Number:          room.Number,
		TenantID:        tenantID,
	}
}

// RoomVacatedEvent is published when a tenant moves out of a room
type RoomVacatedEvent struct {
	shared.BaseDomainEvent
	RoomID   uuid.UUID  `json:"room_id"`
	BranchID uuid.UUID  `json:"branch_id"`
	Number   string     `json:"number"`
	TenantID *uuid.UUID `json:"tenant_id,omitempty"`
}

// NewRoomVacatedEvent creates a new RoomVacatedEvent
func NewRoomVacatedEvent(room *Room, tenantID *uuid.UUID) *RoomVacatedEvent {
	return &RoomVacatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoomVacated, AggregateTypeRoom, room.ID, room.OrgID),
		RoomID:          room.ID,
		BranchID:        room.BranchID,
		Number:          room.Number,
		TenantID:        tenantID,
	}
}

// RoomMaintenanceStartedEvent is published when a room enters maintenance
type RoomMaintenanceStartedEvent struct {
	shared.BaseDomainEvent
	RoomID uuid.UUID `json:"room_id"`
	Number string    `json:"number"`
}

// NewRoomMaintenanceStartedEvent creates a new RoomMaintenanceStartedEvent
func NewRoomMaintenanceStartedEvent(room *Room) *RoomMaintenanceStartedEvent {
	return &RoomMaintenanceStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoomMaintenanceStarted, AggregateTypeRoom, room.ID, room.OrgID),
		RoomID:          room.ID,
		Number:          room.Number,
	}
}

// RoomMaintenanceEndedEvent is published when a room returns to service
type RoomMaintenanceEndedEvent struct {
	shared.BaseDomainEvent
	RoomID uuid.UUID `json:"room_id"`
	Number string    `json:"number"`
}

// NewRoomMaintenanceEndedEvent creates a new RoomMaintenanceEndedEvent
func NewRoomMaintenanceEndedEvent(room *Room) *RoomMaintenanceEndedEvent {
	return &RoomMaintenanceEndedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRoomMaintenanceEnded, AggregateTypeRoom, room.ID, room.OrgID),
		RoomID:          room.ID,
		Number:          room.Number,
	}
}
