package property

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeBranch = "Branch"

// Event type constants
const (
	EventTypeBranchCreated      = "BranchCreated"
	EventTypeBranchUpdated      = "BranchUpdated"
	EventTypeBranchRatesChanged = "BranchRatesChanged"
	EventTypeBranchArchived     = "BranchArchived"
)

// BranchCreatedEvent is published when a new branch is created
type BranchCreatedEvent struct {
	shared.BaseDomainEvent
	BranchID uuid.UUID `json:"branch_id"`
	Code     string    `json:"code"`
	Name     string    `json:"name"`
}

// NewBranchCreatedEvent creates a new BranchCreatedEvent
func NewBranchCreatedEvent(branch *Branch) *BranchCreatedEvent {
	return &BranchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchCreated, AggregateTypeBranch, branch.ID, branch.OrgID),
		BranchID:        branch.ID,
		Code:            branch.Code,
		Name:            branch.Name,
	}
}

// BranchUpdatedEvent is published when a branch is updated
type BranchUpdatedEvent struct {
	shared.BaseDomainEvent
	BranchID uuid.UUID `json:"branch_id"`
	Code     string    `json:"code"`
	Name     string    `json:"name"`
}

// NewBranchUpdatedEvent creates a new BranchUpdatedEvent
func NewBranchUpdatedEvent(branch *Branch) *BranchUpdatedEvent {
	return &BranchUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchUpdated, AggregateTypeBranch, branch.ID, branch.OrgID),
		BranchID:        branch.ID,
		Code:            branch.Code,
		Name:            branch.Name,
	}
}

// BranchRatesChangedEvent is published when a branch's utility rate
// overrides change. Bills generated after this event pick up the new rates.
type BranchRatesChangedEvent struct {
	shared.BaseDomainEvent
	BranchID           uuid.UUID        `json:"branch_id"`
	Code               string           `json:"code"`
	OldElectricityRate *decimal.Decimal `json:"old_electricity_rate,omitempty"`
	OldWaterRate       *decimal.Decimal `json:"old_water_rate,omitempty"`
	NewElectricityRate *decimal.Decimal `json:"new_electricity_rate,omitempty"`
	NewWaterRate       *decimal.Decimal `json:"new_water_rate,omitempty"`
}

// NewBranchRatesChangedEvent creates a new BranchRatesChangedEvent
func NewBranchRatesChangedEvent(branch *Branch, oldElectricity, oldWater *decimal.Decimal) *BranchRatesChangedEvent {
	return &BranchRatesChangedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeBranchRatesChanged, AggregateTypeBranch, branch.ID, branch.OrgID),
		BranchID:           branch.ID,
		Code:               branch.Code,
		OldElectricityRate: oldElectricity,
		OldWaterRate:       oldWater,
		NewElectricityRate: branch.ElectricityRate,
		NewWaterRate:       branch.WaterRate,
	}
}

// BranchArchivedEvent is published when a branch is archived
type BranchArchivedEvent struct {
	shared.BaseDomainEvent
	BranchID uuid.UUID `json:"branch_id"`
	Code     string    `json:"code"`
	Name     string    `json:"name"`
}

// NewBranchArchivedEvent creates a new BranchArchivedEvent
func NewBranchArchivedEvent(branch *Branch) *BranchArchivedEvent {
	return &BranchArchivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchArchived, AggregateTypeBranch, branch.ID, branch.OrgID),
		BranchID:        branch.ID,
		Code:            branch.Code,
		Name:            branch.Name,
	}
}
