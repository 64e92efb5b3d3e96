package property

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

// BranchStatus represents the operational status of a branch
type BranchStatus string

const (
	BranchStatusActive   BranchStatus = "active"
	BranchStatusArchived BranchStatus = "archived" // No longer operated; kept for reporting history
)

// Branch represents one apartment building or compound an org operates.
// It is the aggregate root for the room inventory under it and carries
// optional utility-rate overrides that take precedence over org settings.
type Branch struct {
	shared.OrgAggregateRoot
	Code            string              `gorm:"type:varchar(50);not null;uniqueIndex:idx_branch_org_code,priority:2"`
	Name            string              `gorm:"type:varchar(200);not null"`
	Address         valueobject.Address `gorm:"type:jsonb"`
	Status          BranchStatus        `gorm:"type:varchar(20);not null;default:'active'"`
	ContactName     string              `gorm:"type:varchar(100)"` // Caretaker or branch manager
	ContactPhone    string              `gorm:"type:varchar(50)"`
	ElectricityRate *decimal.Decimal    `gorm:"type:decimal(18,4)"` // Per kWh; nil falls back to org settings
	WaterRate       *decimal.Decimal    `gorm:"type:decimal(18,4)"` // Per cubic meter; nil falls back to org settings
	Notes           string              `gorm:"type:text"`
	SortOrder       int                 `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Branch) TableName() string {
	return "branches"
}

// NewBranch creates a new branch with required fields
func NewBranch(orgID uuid.UUID, code, name string, address valueobject.Address) (*Branch, error) {
	if err := validateBranchCode(code); err != nil {
		return nil, err
	}
	if err := validateBranchName(name); err != nil {
		return nil, err
	}

	branch := &Branch{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Code:             strings.ToUpper(code),
		Name:             name,
		Address:          address,
		Status:           BranchStatusActive,
	}

	branch.AddDomainEvent(NewBranchCreatedEvent(branch))

	return branch, nil
}

// Update updates the branch's basic information
func (b *Branch) Update(name string, address valueobject.Address) error {
	if err := validateBranchName(name); err != nil {
		return err
	}

	b.Name = name
	b.Address = address
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBranchUpdatedEvent(b))

	return nil
}

// SetContact sets the branch's caretaker contact information
func (b *Branch) SetContact(contactName, contactPhone string) error {
	if contactName != "" && len(contactName) > 100 {
		return shared.NewDomainError("INVALID_CONTACT_NAME", "Contact name cannot exceed 100 characters")
	}
	if contactPhone != "" && len(contactPhone) > 50 {
		return shared.NewDomainError("INVALID_PHONE", "Contact phone cannot exceed 50 characters")
	}

	b.ContactName = contactName
	b.ContactPhone = contactPhone
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// SetUtilityRates sets branch-level utility rate overrides. A nil rate
// clears the override so billing falls back to the org settings default.
func (b *Branch) SetUtilityRates(electricityRate, waterRate *valueobject.Money) error {
	oldElectricity := b.ElectricityRate
	oldWater := b.WaterRate

	if electricityRate != nil {
		if electricityRate.Amount().IsNegative() {
			return shared.NewDomainError("INVALID_RATE", "Electricity rate cannot be negative")
		}
		amount := electricityRate.Amount()
		b.ElectricityRate = &amount
	} else {
		b.ElectricityRate = nil
	}
	if waterRate != nil {
		if waterRate.Amount().IsNegative() {
			return shared.NewDomainError("INVALID_RATE", "Water rate cannot be negative")
		}
		amount := waterRate.Amount()
		b.WaterRate = &amount
	} else {
		b.WaterRate = nil
	}

	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBranchRatesChangedEvent(b, oldElectricity, oldWater))

	return nil
}

// EffectiveElectricityRate resolves the branch's electricity rate against
// the org-wide default.
func (b *Branch) EffectiveElectricityRate(orgDefault decimal.Decimal) decimal.Decimal {
	if b.ElectricityRate != nil {
		return *b.ElectricityRate
	}
	return orgDefault
}

// EffectiveWaterRate resolves the branch's water rate against the org-wide
// default.
func (b *Branch) EffectiveWaterRate(orgDefault decimal.Decimal) decimal.Decimal {
	if b.WaterRate != nil {
		return *b.WaterRate
	}
	return orgDefault
}

// SetNotes sets free-form notes on the branch
func (b *Branch) SetNotes(notes string) {
	b.Notes = notes
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
}

// Archive retires the branch from operation while keeping its history.
// Only branches with no occupied rooms may be archived; the caller checks
// occupancy before invoking this.
func (b *Branch) Archive() error {
	if b.Status == BranchStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Branch is already archived")
	}

	b.Status = BranchStatusArchived
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	b.AddDomainEvent(NewBranchArchivedEvent(b))

	return nil
}

// Restore returns an archived branch to active operation
func (b *Branch) Restore() error {
	if b.Status != BranchStatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Only archived branches can be restored")
	}

	b.Status = BranchStatusActive
	b.UpdatedAt = time.Now()
	b.IncrementVersion()

	return nil
}

// IsActive returns true if the branch is operating
func (b *Branch) IsActive() bool {
	return b.Status == BranchStatusActive
}

// Validation functions

func validateBranchCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Branch code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_CODE", "Branch code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_CODE", "Branch code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateBranchName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Branch name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Branch name cannot exceed 200 characters")
	}
	return nil
}
