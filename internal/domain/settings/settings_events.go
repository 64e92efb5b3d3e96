package settings

import (
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
)

// AggregateTypeSettings is the aggregate type identifier for org settings
const AggregateTypeSettings = "settings"

// Settings event types
const (
	EventTypeSettingsInitialized = "settings.initialized"
	EventTypeSettingsUpdated     = "settings.updated"
)

// SettingsInitializedEvent is raised when an organization's settings are
// first created with defaults
type SettingsInitializedEvent struct {
	shared.BaseDomainEvent
	PenaltyPercent decimal.Decimal `json:"penalty_percent"`
}

// NewSettingsInitializedEvent creates a new settings initialized event
func NewSettingsInitializedEvent(settings *Settings) *SettingsInitializedEvent {
	return &SettingsInitializedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSettingsInitialized, AggregateTypeSettings, settings.ID, settings.OrgID),
		PenaltyPercent:  settings.PenaltyPercent,
	}
}

// SettingsUpdatedEvent is raised on any settings change, with the section
// that changed and the resulting values
type SettingsUpdatedEvent struct {
	shared.BaseDomainEvent
	Section          string          `json:"section"`
	PenaltyPercent   decimal.Decimal `json:"penalty_percent"`
	ElectricityRate  decimal.Decimal `json:"electricity_rate"`
	WaterRate        decimal.Decimal `json:"water_rate"`
	ReminderLeadDays int             `json:"reminder_lead_days"`
}

// NewSettingsUpdatedEvent creates a new settings updated event
func NewSettingsUpdatedEvent(settings *Settings, section string) *SettingsUpdatedEvent {
	return &SettingsUpdatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeSettingsUpdated, AggregateTypeSettings, settings.ID, settings.OrgID),
		Section:          section,
		PenaltyPercent:   settings.PenaltyPercent,
		ElectricityRate:  settings.ElectricityRate,
		WaterRate:        settings.WaterRate,
		ReminderLeadDays: settings.ReminderLeadDays,
	}
}
