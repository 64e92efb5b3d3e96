package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/casaops/backend/internal/domain/settings"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSettingsRepository implements SettingsRepository using GORM
type GormSettingsRepository struct {
	db *gorm.DB
}

// NewGormSettingsRepository creates a new GormSettingsRepository
func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

// FindByOrg finds the settings row for an organization
func (r *GormSettingsRepository) FindByOrg(ctx context.Context, orgID uuid.UUID) (*settings.Settings, error) {
	var s settings.Settings
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Save creates or updates the settings row
func (r *GormSettingsRepository) Save(ctx context.Context, s *settings.Settings) error {
	return r.db.WithContext(ctx).Save(s).Error
}

// SaveWithLock saves with optimistic locking. Domain mutators bump Version
// in memory before the save, so the row must still carry the previous value
// or another transaction got there first.
func (r *GormSettingsRepository) SaveWithLock(ctx context.Context, s *settings.Settings) error {
	result := r.db.WithContext(ctx).Model(&settings.Settings{}).
		Where("id = ? AND version = ?", s.ID, s.Version-1).
		Updates(map[string]interface{}{
			"penalty_percent":            s.PenaltyPercent,
			"electricity_rate":           s.ElectricityRate,
			"water_rate":                 s.WaterRate,
			"reminder_lead_days":         s.ReminderLeadDays,
			"notify_on_bill_generated":   s.NotifyOnBillGenerated,
			"notify_on_payment_recorded": s.NotifyOnPaymentRecorded,
			"notify_on_bill_overdue":     s.NotifyOnBillOverdue,
			"notify_on_tenant_moved_out": s.NotifyOnTenantMovedOut,
			"version":                    s.Version,
			"updated_at":                 time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The settings have been modified by another transaction")
	}
	return nil
}
