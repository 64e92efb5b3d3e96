package property

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

// RoomStatus represents the occupancy status of a room
type RoomStatus string

const (
	RoomStatusVacant      RoomStatus = "vacant"
	RoomStatusOccupied    RoomStatus = "occupied"
	RoomStatusMaintenance RoomStatus = "maintenance" // Temporarily out of inventory
)

// Room represents a rentable unit within a branch. It is the aggregate root
// for occupancy state; the tenant living in it is tracked by reference so
// move-in and move-out flows can enforce the vacant/occupied transitions.
type Room struct {
	shared.OrgAggregateRoot
	BranchID        uuid.UUID       `gorm:"type:uuid;not null;index;uniqueIndex:idx_room_branch_number,priority:1"`
	Number          string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_room_branch_number,priority:2"`
	Floor           int             `gorm:"not null;default:1"`
	MonthlyRent     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status          RoomStatus      `gorm:"type:varchar(20);not null;default:'vacant';index"`
	CurrentTenantID *uuid.UUID      `gorm:"type:uuid;index"` // Set while occupied
	Description     string          `gorm:"type:text"`
	Notes           string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Room) TableName() string {
	return "rooms"
}

// NewRoom creates a new vacant room in a branch
func NewRoom(orgID, branchID uuid.UUID, number string, floor int, monthlyRent valueobject.Money) (*Room, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if err := validateRoomNumber(number); err != nil {
		return nil, err
	}
	if monthlyRent.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_RENT", "Monthly rent cannot be negative")
	}

	room := &Room{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		BranchID:         branchID,
		Number:           number,
		Floor:            floor,
		MonthlyRent:      monthlyRent.Amount(),
		Status:           RoomStatusVacant,
	}

	room.AddDomainEvent(NewRoomCreatedEvent(room))

	return room, nil
}

// Update updates the room's descriptive information
func (r *Room) Update(number string, floor int, description string) error {
	if err := validateRoomNumber(number); err != nil {
		return err
	}

	r.Number = number
	r.Floor = floor
	r.Description = description
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewRoomUpdatedEvent(r))

	return nil
}

// SetMonthlyRent changes the room's monthly rent. Bills already generated
// keep the rent they were computed with; only future cycles pick this up.
func (r *Room) SetMonthlyRent(rent valueobject.Money) error {
	if rent.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_RENT", "Monthly rent cannot be negative")
	}

	oldRent := r.MonthlyRent
	r.MonthlyRent = rent.Amount()
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewRoomRentChangedEvent(r, oldRent, r.MonthlyRent))

	return nil
}

// Occupy assigns a tenant to the room. Only vacant rooms can be occupied;
// rooms under maintenance must be returned to service first.
func (r *Room) Occupy(tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if r.Status != RoomStatusVacant {
		return shared.NewDomainError("ROOM_UNAVAILABLE", "Room "+r.Number+" is "+string(r.Status)+" and cannot be occupied")
	}

	r.Status = RoomStatusOccupied
	r.CurrentTenantID = &tenantID
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewRoomOccupiedEvent(r, tenantID))

	return nil
}

// Vacate releases the room back to the vacant pool at move-out
func (r *Room) Vacate() error {
	if r.Status != RoomStatusOccupied {
		return shared.NewDomainError("INVALID_STATE", "Room "+r.Number+" is not occupied")
	}

	tenantID := r.CurrentTenantID
	r.Status = RoomStatusVacant
	r.CurrentTenantID = nil
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewRoomVacatedEvent(r, tenantID))

	return nil
}

// StartMaintenance takes a vacant room out of the rentable inventory
func (r *Room) StartMaintenance() error {
	if r.Status != RoomStatusVacant {
		return shared.NewDomainError("INVALID_STATE", "Only vacant rooms can be placed under maintenance")
	}

	r.Status = RoomStatusMaintenance
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewRoomMaintenanceStartedEvent(r))

	return nil
}

// EndMaintenance returns a room under maintenance to the vacant pool
func (r *Room) EndMaintenance() error {
	if r.Status != RoomStatusMaintenance {
		return shared.NewDomainError("INVALID_STATE", "Room "+r.Number+" is not under maintenance")
	}

	r.Status = RoomStatusVacant
	r.UpdatedAt = time.Now()
	r.IncrementVersion()

	r.AddDomainEvent(NewRoomMaintenanceEndedEvent(r))

	return nil
}

// SetNotes sets free-form notes on the room
func (r *Room) SetNotes(notes string) {
	r.Notes = notes
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

// IsAvailable returns true if the room can take a new tenant
func (r *Room) IsAvailable() bool {
	return r.Status == RoomStatusVacant
}

// IsOccupied returns true if a tenant currently lives in the room
func (r *Room) IsOccupied() bool {
	return r.Status == RoomStatusOccupied
}

// Validation functions

func validateRoomNumber(number string) error {
	if number == "" {
		return shared.NewDomainError("INVALID_ROOM_NUMBER", "Room number cannot be empty")
	}
	if len(number) > 50 {
		return shared.NewDomainError("INVALID_ROOM_NUMBER", "Room number cannot exceed 50 characters")
	}
	return nil
}
