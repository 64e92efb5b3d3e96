package settings

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/application/audit"
	"github.com/casaops/backend/internal/domain/settings"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

// SettingsService manages per-org billing configuration. Orgs that never
// saved settings read the defaults; the row is created on first update.
type SettingsService struct {
	settingsRepo settings.SettingsRepository
	recorder     *audit.Recorder
	publisher    shared.EventPublisher
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(
	settingsRepo settings.SettingsRepository,
	recorder *audit.Recorder,
	publisher shared.EventPublisher,
) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		recorder:     recorder,
		publisher:    publisher,
	}
}

// Get returns the org's effective settings, defaults when none are saved
func (s *SettingsService) Get(ctx context.Context, orgID uuid.UUID) (*SettingsResponse, error) {
	stored, err := s.settingsRepo.FindByOrg(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ToSettingsResponse(settings.DefaultSnapshot()), nil
		}
		return nil, err
	}
	return ToSettingsResponse(stored.Snapshot()), nil
}

// Update applies partial changes to the org's settings, creating the row on
// first save.
func (s *SettingsService) Update(ctx context.Context, orgID uuid.UUID, actor audit.Actor, req UpdateSettingsRequest) (*SettingsResponse, error) {
	stored, err := s.settingsRepo.FindByOrg(ctx, orgID)
	created := false
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		stored, err = settings.NewSettings(orgID)
		if err != nil {
			return nil, err
		}
		created = true
	}

	if req.PenaltyPercent != nil {
		if err := stored.UpdatePenaltyPercent(*req.PenaltyPercent); err != nil {
			return nil, err
		}
	}
	if req.ElectricityRate != nil || req.WaterRate != nil {
		electricity := stored.ElectricityRate
		if req.ElectricityRate != nil {
			electricity = *req.ElectricityRate
		}
		water := stored.WaterRate
		if req.WaterRate != nil {
			water = *req.WaterRate
		}
		if err := stored.UpdateDefaultRates(
			valueobject.NewMoneyPHP(electricity), valueobject.NewMoneyPHP(water)); err != nil {
			return nil, err
		}
	}
	if req.ReminderLeadDays != nil {
		if err := stored.UpdateReminderLeadDays(*req.ReminderLeadDays); err != nil {
			return nil, err
		}
	}
	if req.NotifyOnBillGenerated != nil || req.NotifyOnPaymentRecorded != nil ||
		req.NotifyOnBillOverdue != nil || req.NotifyOnTenantMovedOut != nil {
		toggles := stored.Snapshot().Notifications
		if req.NotifyOnBillGenerated != nil {
			toggles.BillGenerated = *req.NotifyOnBillGenerated
		}
		if req.NotifyOnPaymentRecorded != nil {
			toggles.PaymentRecorded = *req.NotifyOnPaymentRecorded
		}
		if req.NotifyOnBillOverdue != nil {
			toggles.BillOverdue = *req.NotifyOnBillOverdue
		}
		if req.NotifyOnTenantMovedOut != nil {
			toggles.TenantMovedOut = *req.NotifyOnTenantMovedOut
		}
		stored.UpdateNotifications(toggles)
	}

	if created {
		err = s.settingsRepo.Save(ctx, stored)
	} else {
		err = s.settingsRepo.SaveWithLock(ctx, stored)
	}
	if err != nil {
		return nil, err
	}

	s.audit(ctx, orgID, actor, req)
	s.publish(ctx, stored)

	return ToSettingsResponse(stored.Snapshot()), nil
}

func (s *SettingsService) audit(ctx context.Context, orgID uuid.UUID, actor audit.Actor, payload any) {
	if s.recorder == nil {
		return
	}
	body, _ := json.Marshal(payload)
	s.recorder.Record(ctx, orgID, actor, audit.Entry{
		Action:       "settings.update",
		ResourceType: "settings",
		ResourceID:   orgID.String(),
		Payload:      body,
	})
}

func (s *SettingsService) publish(ctx context.Context, stored *settings.Settings) {
	if s.publisher == nil {
		return
	}
	events := stored.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	stored.ClearDomainEvents()
}
