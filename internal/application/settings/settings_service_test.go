package settings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/casaops/backend/internal/application/audit"
	"github.com/casaops/backend/internal/domain/settings"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

func moneyFromInt(amount int64) valueobject.Money {
	return valueobject.NewMoneyPHP(decimal.NewFromInt(amount))
}

// MockSettingsRepository is a mock implementation of settings.SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) FindByOrg(ctx context.Context, orgID uuid.UUID) (*settings.Settings, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.Settings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, s *settings.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSettingsRepository) SaveWithLock(ctx context.Context, s *settings.Settings) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func testActor() audit.Actor {
	return audit.Actor{ID: uuid.New(), Name: "Jun Reyes", Role: "admin"}
}

func newService() (*SettingsService, *MockSettingsRepository) {
	repo := new(MockSettingsRepository)
	return NewSettingsService(repo, nil, nil), repo
}

func TestSettingsService_Get_DefaultsWhenUnsaved(t *testing.T) {
	service, repo := newService()
	orgID := uuid.New()

	repo.On("FindByOrg", mock.Anything, orgID).Return(nil, shared.ErrNotFound)

	resp, err := service.Get(context.Background(), orgID)

	require.NoError(t, err)
	assert.True(t, resp.PenaltyPercent.Equal(decimal.NewFromInt(5)))
	assert.True(t, resp.ElectricityRate.IsZero())
	assert.Equal(t, 3, resp.ReminderLeadDays)
	assert.True(t, resp.Notifications.BillGenerated)
}

func TestSettingsService_Get_StoredValues(t *testing.T) {
	service, repo := newService()
	orgID := uuid.New()
	stored, err := settings.NewSettings(orgID)
	require.NoError(t, err)
	require.NoError(t, stored.UpdatePenaltyPercent(decimal.NewFromInt(10)))

	repo.On("FindByOrg", mock.Anything, orgID).Return(stored, nil)

	resp, err := service.Get(context.Background(), orgID)

	require.NoError(t, err)
	assert.True(t, resp.PenaltyPercent.Equal(decimal.NewFromInt(10)))
}

func TestSettingsService_Update_CreatesRowOnFirstSave(t *testing.T) {
	service, repo := newService()
	orgID := uuid.New()
	percent := decimal.NewFromInt(8)
	leadDays := 7

	repo.On("FindByOrg", mock.Anything, orgID).Return(nil, shared.ErrNotFound)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(s *settings.Settings) bool {
		return s.PenaltyPercent.Equal(percent) && s.ReminderLeadDays == 7
	})).Return(nil)

	resp, err := service.Update(context.Background(), orgID, testActor(), UpdateSettingsRequest{
		PenaltyPercent:   &percent,
		ReminderLeadDays: &leadDays,
	})

	require.NoError(t, err)
	assert.True(t, resp.PenaltyPercent.Equal(percent))
	assert.Equal(t, 7, resp.ReminderLeadDays)
	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestSettingsService_Update_MergesRates(t *testing.T) {
	service, repo := newService()
	orgID := uuid.New()
	stored, err := settings.NewSettings(orgID)
	require.NoError(t, err)
	require.NoError(t, stored.UpdateDefaultRates(
		moneyFromInt(12), moneyFromInt(500)))
	electricity := decimal.NewFromInt(14)

	repo.On("FindByOrg", mock.Anything, orgID).Return(stored, nil)
	repo.On("SaveWithLock", mock.Anything, stored).Return(nil)

	resp, err := service.Update(context.Background(), orgID, testActor(), UpdateSettingsRequest{
		ElectricityRate: &electricity,
	})

	require.NoError(t, err)
	assert.True(t, resp.ElectricityRate.Equal(decimal.NewFromInt(14)))
	assert.True(t, resp.WaterRate.Equal(decimal.NewFromInt(500)), "water rate untouched")
	repo.AssertExpectations(t)
}

func TestSettingsService_Update_InvalidPenaltyPercent(t *testing.T) {
	service, repo := newService()
	orgID := uuid.New()
	stored, err := settings.NewSettings(orgID)
	require.NoError(t, err)
	percent := decimal.NewFromInt(150)

	repo.On("FindByOrg", mock.Anything, orgID).Return(stored, nil)

	_, err = service.Update(context.Background(), orgID, testActor(), UpdateSettingsRequest{
		PenaltyPercent: &percent,
	})

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_PERCENT", domainErr.Code)
	repo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestSettingsService_Update_NotificationToggles(t *testing.T) {
	service, repo := newService()
	orgID := uuid.New()
	stored, err := settings.NewSettings(orgID)
	require.NoError(t, err)
	off := false

	repo.On("FindByOrg", mock.Anything, orgID).Return(stored, nil)
	repo.On("SaveWithLock", mock.Anything, stored).Return(nil)

	resp, err := service.Update(context.Background(), orgID, testActor(), UpdateSettingsRequest{
		NotifyOnBillOverdue: &off,
	})

	require.NoError(t, err)
	assert.False(t, resp.Notifications.BillOverdue)
	assert.True(t, resp.Notifications.BillGenerated, "other toggles untouched")
}
