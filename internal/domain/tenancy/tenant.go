package tenancy

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

// TenantStatus represents the occupancy status of a tenant
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusMovedOut TenantStatus = "moved_out"
)

// MoveOutReason distinguishes a tenant leaving the property from one moving
// to another room. The deposit policy treats transfers more favorably.
type MoveOutReason string

const (
	MoveOutReasonVacate   MoveOutReason = "vacate"
	MoveOutReasonTransfer MoveOutReason = "transfer"
)

// IsValid checks if the move-out reason is valid
func (r MoveOutReason) IsValid() bool {
	switch r {
	case MoveOutReasonVacate, MoveOutReasonTransfer:
		return true
	}
	return false
}

// Tenant represents a renter occupying (or having occupied) a room. It is
// the aggregate root for the tenancy lifecycle: the rent start date anchors
// every billing cycle, and the deposits held here fund the move-out
// settlement.
type Tenant struct {
	shared.OrgAggregateRoot
	FirstName        string          `gorm:"type:varchar(100);not null"`
	LastName         string          `gorm:"type:varchar(100);not null"`
	Phone            string          `gorm:"type:varchar(50);index"`
	Email            string          `gorm:"type:varchar(200);index"`
	EmergencyContact string          `gorm:"type:varchar(200)"` // Name and phone, free form
	BranchID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	RoomID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	RentStartDate    time.Time       `gorm:"type:date;not null"` // Billing anchor
	MonthlyRent      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AdvancePayment   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SecurityDeposit  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status           TenantStatus    `gorm:"type:varchar(20);not null;default:'active';index"`
	MoveOutDate      *time.Time      `gorm:"type:date"`
	MoveOutReason    *MoveOutReason  `gorm:"type:varchar(20)"`
	FinalBillID      *uuid.UUID      `gorm:"type:uuid"` // Settlement bill composed at move-out
	Notes            string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a tenant moving into a room. The rent start date becomes
// the billing anchor for every cycle of this occupancy; deposits are held
// until move-out.
func NewTenant(orgID, branchID, roomID uuid.UUID, firstName, lastName string, rentStartDate time.Time, monthlyRent, advancePayment, securityDeposit valueobject.Money) (*Tenant, error) {
	if err := validateTenantName(firstName, "First name"); err != nil {
		return nil, err
	}
	if err := validateTenantName(lastName, "Last name"); err != nil {
		return nil, err
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if roomID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ROOM", "Room ID cannot be empty")
	}
	if rentStartDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_RENT_START", "Rent start date is required")
	}
	if monthlyRent.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_RENT", "Monthly rent cannot be negative")
	}
	if advancePayment.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_DEPOSIT", "Advance payment cannot be negative")
	}
	if securityDeposit.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_DEPOSIT", "Security deposit cannot be negative")
	}

	tenant := &Tenant{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		FirstName:        strings.TrimSpace(firstName),
		LastName:         strings.TrimSpace(lastName),
		BranchID:         branchID,
		RoomID:           roomID,
		RentStartDate:    rentStartDate,
		MonthlyRent:      monthlyRent.Amount(),
		AdvancePayment:   advancePayment.Amount(),
		SecurityDeposit:  securityDeposit.Amount(),
		Status:           TenantStatusActive,
	}

	tenant.AddDomainEvent(NewTenantMovedInEvent(tenant))

	return tenant, nil
}

// FullName returns the tenant's display name
func (t *Tenant) FullName() string {
	return t.FirstName + " " + t.LastName
}

// IsActive returns true if the tenant currently occupies a room
func (t *Tenant) IsActive() bool {
	return t.Status == TenantStatusActive
}

// UpdateContact updates the tenant's contact information
func (t *Tenant) UpdateContact(phone, email, emergencyContact string) error {
	if phone != "" {
		if err := validateTenantPhone(phone); err != nil {
			return err
		}
	}
	if email != "" {
		if err := validateTenantEmail(email); err != nil {
			return err
		}
	}
	if emergencyContact != "" && len(emergencyContact) > 200 {
		return shared.NewDomainError("INVALID_CONTACT", "Emergency contact cannot exceed 200 characters")
	}

	t.Phone = phone
	t.Email = email
	t.EmergencyContact = emergencyContact
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantUpdatedEvent(t))

	return nil
}

// UpdateName corrects the tenant's name
func (t *Tenant) UpdateName(firstName, lastName string) error {
	if err := validateTenantName(firstName, "First name"); err != nil {
		return err
	}
	if err := validateTenantName(lastName, "Last name"); err != nil {
		return err
	}

	t.FirstName = strings.TrimSpace(firstName)
	t.LastName = strings.TrimSpace(lastName)
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantUpdatedEvent(t))

	return nil
}

// SetMonthlyRent changes the agreed monthly rent for future cycles
func (t *Tenant) SetMonthlyRent(rent valueobject.Money) error {
	if !t.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Cannot change rent for a moved-out tenant")
	}
	if rent.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_RENT", "Monthly rent cannot be negative")
	}

	oldRent := t.MonthlyRent
	t.MonthlyRent = rent.Amount()
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantRentChangedEvent(t, oldRent, t.MonthlyRent))

	return nil
}

// SetNotes sets free-form notes on the tenant
func (t *Tenant) SetNotes(notes string) {
	t.Notes = notes
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
}

// MoveOut closes the tenancy. The final bill referenced here is composed by
// the settlement flow before this transition is applied; a tenant cannot
// move out before their rent started.
func (t *Tenant) MoveOut(moveOutDate time.Time, reason MoveOutReason, finalBillID *uuid.UUID) error {
	if !t.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Tenant has already moved out")
	}
	if !reason.IsValid() {
		return shared.NewDomainError("INVALID_REASON", "Move-out reason must be 'vacate' or 'transfer'")
	}
	if moveOutDate.IsZero() {
		return shared.NewDomainError("INVALID_MOVE_OUT_DATE", "Move-out date is required")
	}
	if moveOutDate.Before(t.RentStartDate) {
		return shared.NewDomainError("INVALID_MOVE_OUT_DATE", "Move-out date cannot be before the rent start date")
	}

	t.Status = TenantStatusMovedOut
	t.MoveOutDate = &moveOutDate
	t.MoveOutReason = &reason
	t.FinalBillID = finalBillID
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantMovedOutEvent(t, moveOutDate, reason))

	return nil
}

// Transfer moves an active tenant to another room, resetting the billing
// anchor to the effective date. The caller settles the old occupancy first
// (with the transfer deposit policy) and passes the deposits that carry
// into the new room.
func (t *Tenant) Transfer(newBranchID, newRoomID uuid.UUID, effectiveDate time.Time, newRent, newAdvance, newSecurity valueobject.Money) error {
	if !t.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Cannot transfer a moved-out tenant")
	}
	if newBranchID == uuid.Nil {
		return shared.NewDomainError("INVALID_BRANCH", "Branch ID cannot be empty")
	}
	if newRoomID == uuid.Nil {
		return shared.NewDomainError("INVALID_ROOM", "Room ID cannot be empty")
	}
	if newRoomID == t.RoomID {
		return shared.NewDomainError("INVALID_ROOM", "Tenant already occupies this room")
	}
	if effectiveDate.IsZero() {
		return shared.NewDomainError("INVALID_TRANSFER_DATE", "Transfer effective date is required")
	}
	if newRent.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_RENT", "Monthly rent cannot be negative")
	}
	if newAdvance.Amount().IsNegative() || newSecurity.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_DEPOSIT", "Deposits cannot be negative")
	}

	oldRoomID := t.RoomID
	t.BranchID = newBranchID
	t.RoomID = newRoomID
	t.RentStartDate = effectiveDate
	t.MonthlyRent = newRent.Amount()
	t.AdvancePayment = newAdvance.Amount()
	t.SecurityDeposit = newSecurity.Amount()
	t.UpdatedAt = time.Now()
	t.IncrementVersion()

	t.AddDomainEvent(NewTenantTransferredEvent(t, oldRoomID, newRoomID, effectiveDate))

	return nil
}

// Validation functions

func validateTenantName(name, field string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return shared.NewDomainError("INVALID_NAME", field+" cannot be empty")
	}
	if len(trimmed) > 100 {
		return shared.NewDomainError("INVALID_NAME", field+" cannot exceed 100 characters")
	}
	return nil
}

func validateTenantPhone(phone string) error {
	if len(phone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 50 characters")
	}
	validPhone := regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	if !validPhone.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	return nil
}

func validateTenantEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	return nil
}
