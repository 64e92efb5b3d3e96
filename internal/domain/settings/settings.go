package settings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

// Defaults applied when an organization has never saved settings.
const (
	DefaultPenaltyPercent   = 5
	DefaultReminderLeadDays = 3
	MaxReminderLeadDays     = 30
)

// Settings is the singleton-per-org configuration feeding the billing flows.
// Calculations never read it directly; services take a Snapshot and pass the
// values as explicit parameters.
type Settings struct {
	shared.OrgAggregateRoot
	PenaltyPercent   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:5"`
	ElectricityRate  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Pesos per kWh
	WaterRate        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Flat pesos per cycle
	ReminderLeadDays int             `gorm:"not null;default:3"`

	NotifyOnBillGenerated   bool `gorm:"not null;default:true"`
	NotifyOnPaymentRecorded bool `gorm:"not null;default:true"`
	NotifyOnBillOverdue     bool `gorm:"not null;default:true"`
	NotifyOnTenantMovedOut  bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Settings) TableName() string {
	return "org_settings"
}

// NewSettings creates settings with defaults for an organization
func NewSettings(orgID uuid.UUID) (*Settings, error) {
	if orgID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORG", "Organization ID cannot be empty")
	}

	settings := &Settings{
		OrgAggregateRoot:        shared.NewOrgAggregateRoot(orgID),
		PenaltyPercent:          decimal.NewFromInt(DefaultPenaltyPercent),
		ElectricityRate:         decimal.Zero,
		WaterRate:               decimal.Zero,
		ReminderLeadDays:        DefaultReminderLeadDays,
		NotifyOnBillGenerated:   true,
		NotifyOnPaymentRecorded: true,
		NotifyOnBillOverdue:     true,
		NotifyOnTenantMovedOut:  true,
	}

	settings.AddDomainEvent(NewSettingsInitializedEvent(settings))

	return settings, nil
}

// UpdatePenaltyPercent sets the late-payment penalty percentage
func (s *Settings) UpdatePenaltyPercent(percent decimal.Decimal) error {
	if percent.IsNegative() {
		return shared.NewDomainError("INVALID_PERCENT", "Penalty percent cannot be negative")
	}
	if percent.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_PERCENT", "Penalty percent cannot exceed 100")
	}

	s.PenaltyPercent = percent
	s.touch()
	s.AddDomainEvent(NewSettingsUpdatedEvent(s, "penalty_percent"))
	return nil
}

// UpdateDefaultRates sets the org-wide utility rates used when a branch has
// no override of its own.
func (s *Settings) UpdateDefaultRates(electricity, water valueobject.Money) error {
	if electricity.Amount().IsNegative() || water.Amount().IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Utility rates cannot be negative")
	}

	s.ElectricityRate = electricity.Amount()
	s.WaterRate = water.Amount()
	s.touch()
	s.AddDomainEvent(NewSettingsUpdatedEvent(s, "default_rates"))
	return nil
}

// UpdateReminderLeadDays sets how many days before the due date the
// due-soon reminder fires.
func (s *Settings) UpdateReminderLeadDays(days int) error {
	if days < 0 {
		return shared.NewDomainError("INVALID_LEAD_DAYS", "Reminder lead days cannot be negative")
	}
	if days > MaxReminderLeadDays {
		return shared.NewDomainError("INVALID_LEAD_DAYS", "Reminder lead days cannot exceed 30")
	}

	s.ReminderLeadDays = days
	s.touch()
	s.AddDomainEvent(NewSettingsUpdatedEvent(s, "reminder_lead_days"))
	return nil
}

// NotificationToggles is the set of notification switches
type NotificationToggles struct {
	BillGenerated   bool
	PaymentRecorded bool
	BillOverdue     bool
	TenantMovedOut  bool
}

// UpdateNotifications sets the notification toggles
func (s *Settings) UpdateNotifications(toggles NotificationToggles) {
	s.NotifyOnBillGenerated = toggles.BillGenerated
	s.NotifyOnPaymentRecorded = toggles.PaymentRecorded
	s.NotifyOnBillOverdue = toggles.BillOverdue
	s.NotifyOnTenantMovedOut = toggles.TenantMovedOut
	s.touch()
	s.AddDomainEvent(NewSettingsUpdatedEvent(s, "notifications"))
}

func (s *Settings) touch() {
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

// Snapshot is the read-only view services hand to calculations and
// notification decisions.
type Snapshot struct {
	PenaltyPercent   decimal.Decimal
	ElectricityRate  decimal.Decimal
	WaterRate        decimal.Decimal
	ReminderLeadDays int
	Notifications    NotificationToggles
}

// Snapshot returns the current values as an immutable view
func (s *Settings) Snapshot() Snapshot {
	return Snapshot{
		PenaltyPercent:   s.PenaltyPercent,
		ElectricityRate:  s.ElectricityRate,
		WaterRate:        s.WaterRate,
		ReminderLeadDays: s.ReminderLeadDays,
		Notifications: NotificationToggles{
			BillGenerated:   s.NotifyOnBillGenerated,
			PaymentRecorded: s.NotifyOnPaymentRecorded,
			BillOverdue:     s.NotifyOnBillOverdue,
			TenantMovedOut:  s.NotifyOnTenantMovedOut,
		},
	}
}

// DefaultSnapshot returns the values used before an org ever saves settings
func DefaultSnapshot() Snapshot {
	return Snapshot{
		PenaltyPercent:   decimal.NewFromInt(DefaultPenaltyPercent),
		ElectricityRate:  decimal.Zero,
		WaterRate:        decimal.Zero,
		ReminderLeadDays: DefaultReminderLeadDays,
		Notifications: NotificationToggles{
			BillGenerated:   true,
			PaymentRecorded: true,
			BillOverdue:     true,
			TenantMovedOut:  true,
		},
	}
}
