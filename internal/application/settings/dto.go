package settings

import (
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/settings"
)

// UpdateSettingsRequest updates an org's billing configuration. All fields
// are optional; omitted fields keep their current value.
type UpdateSettingsRequest struct {
	PenaltyPercent   *decimal.Decimal `json:"penalty_percent"`
	ElectricityRate  *decimal.Decimal `json:"electricity_rate"`
	WaterRate        *decimal.Decimal `json:"water_rate"`
	ReminderLeadDays *int             `json:"reminder_lead_days" binding:"omitempty,min=0,max=30"`

	NotifyOnBillGenerated   *bool `json:"notify_on_bill_generated"`
	NotifyOnPaymentRecorded *bool `json:"notify_on_payment_recorded"`
	NotifyOnBillOverdue     *bool `json:"notify_on_bill_overdue"`
	NotifyOnTenantMovedOut  *bool `json:"notify_on_tenant_moved_out"`
}

// NotificationTogglesResponse represents the notification switches
type NotificationTogglesResponse struct {
	BillGenerated   bool `json:"bill_generated"`
	PaymentRecorded bool `json:"payment_recorded"`
	BillOverdue     bool `json:"bill_overdue"`
	TenantMovedOut  bool `json:"tenant_moved_out"`
}

// SettingsResponse represents an org's effective settings
type SettingsResponse struct {
	PenaltyPercent   decimal.Decimal             `json:"penalty_percent"`
	ElectricityRate  decimal.Decimal             `json:"electricity_rate"`
	WaterRate        decimal.Decimal             `json:"water_rate"`
	ReminderLeadDays int                         `json:"reminder_lead_days"`
	Notifications    NotificationTogglesResponse `json:"notifications"`
}

// ToSettingsResponse converts a settings snapshot to a response DTO
func ToSettingsResponse(snap settings.Snapshot) *SettingsResponse {
	return &SettingsResponse{
		PenaltyPercent:   snap.PenaltyPercent,
		ElectricityRate:  snap.ElectricityRate,
		WaterRate:        snap.WaterRate,
		ReminderLeadDays: snap.ReminderLeadDays,
		Notifications: NotificationTogglesResponse{
			BillGenerated:   snap.Notifications.BillGenerated,
			PaymentRecorded: snap.Notifications.PaymentRecorded,
			BillOverdue:     snap.Notifications.BillOverdue,
			TenantMovedOut:  snap.Notifications.TenantMovedOut,
		},
	}
}
