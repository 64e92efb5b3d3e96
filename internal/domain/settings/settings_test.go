package settings

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

func newTestSettings(t *testing.T) *Settings {
	t.Helper()
	settings, err := NewSettings(uuid.New())
	require.NoError(t, err)
	settings.ClearDomainEvents()
	return settings
}

func TestNewSettings(t *testing.T) {
	t.Run("starts with documented defaults", func(t *testing.T) {
		orgID := uuid.New()

		settings, err := NewSettings(orgID)

		require.NoError(t, err)
		assert.Equal(t, orgID, settings.OrgID)
		assert.Equal(t, "5", settings.PenaltyPercent.String())
		assert.Equal(t, "0", settings.ElectricityRate.String())
		assert.Equal(t, "0", settings.WaterRate.String())
		assert.Equal(t, DefaultReminderLeadDays, settings.ReminderLeadDays)
		assert.True(t, settings.NotifyOnBillGenerated)
		assert.True(t, settings.NotifyOnBillOverdue)
		assert.Len(t, settings.GetDomainEvents(), 1)
	})

	t.Run("fails with nil org", func(t *testing.T) {
		settings, err := NewSettings(uuid.Nil)

		assert.Error(t, err)
		assert.Nil(t, settings)
	})
}

func TestSettingsUpdatePenaltyPercent(t *testing.T) {
	t.Run("accepts a fractional percent", func(t *testing.T) {
		settings := newTestSettings(t)
		version := settings.Version

		err := settings.UpdatePenaltyPercent(decimal.RequireFromString("2.5"))

		require.NoError(t, err)
		assert.Equal(t, "2.5", settings.PenaltyPercent.String())
		assert.Equal(t, version+1, settings.Version)

		events := settings.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeSettingsUpdated, events[0].EventType())
	})

	t.Run("accepts zero to disable penalties", func(t *testing.T) {
		settings := newTestSettings(t)

		require.NoError(t, settings.UpdatePenaltyPercent(decimal.Zero))

		assert.Equal(t, "0", settings.PenaltyPercent.String())
	})

	t.Run("rejects negative percent", func(t *testing.T) {
		settings := newTestSettings(t)

		err := settings.UpdatePenaltyPercent(decimal.RequireFromString("-1"))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be negative")
	})

	t.Run("rejects percent above 100", func(t *testing.T) {
		settings := newTestSettings(t)

		err := settings.UpdatePenaltyPercent(decimal.RequireFromString("100.01"))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed 100")
	})
}

func TestSettingsUpdateDefaultRates(t *testing.T) {
	t.Run("sets org-wide utility rates", func(t *testing.T) {
		settings := newTestSettings(t)

		err := settings.UpdateDefaultRates(
			valueobject.NewMoneyPHP(decimal.RequireFromString("12.5")),
			valueobject.NewMoneyPHP(decimal.RequireFromString("150")),
		)

		require.NoError(t, err)
		assert.Equal(t, "12.5", settings.ElectricityRate.String())
		assert.Equal(t, "150", settings.WaterRate.String())
	})

	t.Run("rejects negative rates", func(t *testing.T) {
		settings := newTestSettings(t)

		err := settings.UpdateDefaultRates(
			valueobject.NewMoneyPHP(decimal.RequireFromString("-1")),
			valueobject.NewMoneyPHP(decimal.Zero),
		)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be negative")
	})
}

func TestSettingsUpdateReminderLeadDays(t *testing.T) {
	t.Run("sets lead days within range", func(t *testing.T) {
		settings := newTestSettings(t)

		require.NoError(t, settings.UpdateReminderLeadDays(7))

		assert.Equal(t, 7, settings.ReminderLeadDays)
	})

	t.Run("rejects negative days", func(t *testing.T) {
		settings := newTestSettings(t)

		assert.Error(t, settings.UpdateReminderLeadDays(-1))
	})

	t.Run("rejects days beyond the cap", func(t *testing.T) {
		settings := newTestSettings(t)

		assert.Error(t, settings.UpdateReminderLeadDays(MaxReminderLeadDays+1))
	})
}

func TestSettingsSnapshot(t *testing.T) {
	t.Run("reflects current values", func(t *testing.T) {
		settings := newTestSettings(t)
		require.NoError(t, settings.UpdatePenaltyPercent(decimal.RequireFromString("3.5")))
		settings.UpdateNotifications(NotificationToggles{BillGenerated: true})

		snapshot := settings.Snapshot()

		assert.Equal(t, "3.5", snapshot.PenaltyPercent.String())
		assert.True(t, snapshot.Notifications.BillGenerated)
		assert.False(t, snapshot.Notifications.PaymentRecorded)
		assert.False(t, snapshot.Notifications.BillOverdue)
	})

	t.Run("default snapshot matches a fresh aggregate", func(t *testing.T) {
		settings := newTestSettings(t)

		assert.Equal(t, settings.Snapshot(), DefaultSnapshot())
	})
}
