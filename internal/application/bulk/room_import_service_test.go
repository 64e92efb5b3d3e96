package bulk

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/casaops/backend/internal/application/audit"
	"github.com/casaops/backend/internal/domain/bulk"
	"github.com/casaops/backend/internal/domain/property"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
	csvimport "github.com/casaops/backend/internal/infrastructure/import"
)

type MockImportHistoryRepository struct {
	mock.Mock
}

func (m *MockImportHistoryRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*bulk.ImportHistory, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bulk.ImportHistory), args.Error(1)
}

func (m *MockImportHistoryRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter bulk.ImportHistoryFilter, page, pageSize int) (*bulk.ImportHistoryListResult, error) {
	args := m.Called(ctx, orgID, filter, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bulk.ImportHistoryListResult), args.Error(1)
}

func (m *MockImportHistoryRepository) FindByStatus(ctx context.Context, orgID uuid.UUID, status bulk.ImportStatus) ([]*bulk.ImportHistory, error) {
	args := m.Called(ctx, orgID, status)
	return args.Get(0).([]*bulk.ImportHistory), args.Error(1)
}

func (m *MockImportHistoryRepository) FindPending(ctx context.Context, orgID uuid.UUID) ([]*bulk.ImportHistory, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]*bulk.ImportHistory), args.Error(1)
}

func (m *MockImportHistoryRepository) Save(ctx context.Context, history *bulk.ImportHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockImportHistoryRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Room), args.Error(1)
}

func (m *MockRoomRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*property.Room, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Room), args.Error(1)
}

func (m *MockRoomRepository) FindByNumber(ctx context.Context, orgID, branchID uuid.UUID, number string) (*property.Room, error) {
	args := m.Called(ctx, orgID, branchID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Room), args.Error(1)
}

func (m *MockRoomRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]property.Room, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).([]property.Room), args.Error(1)
}

func (m *MockRoomRepository) FindByBranch(ctx context.Context, orgID, branchID uuid.UUID, filter shared.Filter) ([]property.Room, error) {
	args := m.Called(ctx, orgID, branchID, filter)
	return args.Get(0).([]property.Room), args.Error(1)
}

func (m *MockRoomRepository) FindByStatus(ctx context.Context, orgID uuid.UUID, status property.RoomStatus, filter shared.Filter) ([]property.Room, error) {
	args := m.Called(ctx, orgID, status, filter)
	return args.Get(0).([]property.Room), args.Error(1)
}

func (m *MockRoomRepository) FindVacantByBranch(ctx context.Context, orgID, branchID uuid.UUID, filter shared.Filter) ([]property.Room, error) {
	args := m.Called(ctx, orgID, branchID, filter)
	return args.Get(0).([]property.Room), args.Error(1)
}

func (m *MockRoomRepository) FindByTenant(ctx context.Context, orgID, tenantID uuid.UUID) (*property.Room, error) {
	args := m.Called(ctx, orgID, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Room), args.Error(1)
}

func (m *MockRoomRepository) Save(ctx context.Context, room *property.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) SaveWithLock(ctx context.Context, room *property.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *MockRoomRepository) DeleteForOrg(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *MockRoomRepository) CountForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepository) CountByBranch(ctx context.Context, orgID, branchID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orgID, branchID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepository) CountByStatus(ctx context.Context, orgID uuid.UUID, status property.RoomStatus) (int64, error) {
	args := m.Called(ctx, orgID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepository) CountOccupiedByBranch(ctx context.Context, orgID, branchID uuid.UUID) (int64, error) {
	args := m.Called(ctx, orgID, branchID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepository) ExistsByNumber(ctx context.Context, orgID, branchID uuid.UUID, number string) (bool, error) {
	args := m.Called(ctx, orgID, branchID, number)
	return args.Bool(0), args.Error(1)
}

type MockBranchRepository struct {
	mock.Mock
}

func (m *MockBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Branch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Branch), args.Error(1)
}

func (m *MockBranchRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*property.Branch, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Branch), args.Error(1)
}

func (m *MockBranchRepository) FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*property.Branch, error) {
	args := m.Called(ctx, orgID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Branch), args.Error(1)
}

func (m *MockBranchRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]property.Branch, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).([]property.Branch), args.Error(1)
}

func (m *MockBranchRepository) FindActive(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]property.Branch, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).([]property.Branch), args.Error(1)
}

func (m *MockBranchRepository) Save(ctx context.Context, branch *property.Branch) error {
	args := m.Called(ctx, branch)
	return args.Error(0)
}

func (m *MockBranchRepository) SaveWithLock(ctx context.Context, branch *property.Branch) error {
	args := m.Called(ctx, branch)
	return args.Error(0)
}

func (m *MockBranchRepository) DeleteForOrg(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *MockBranchRepository) CountForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBranchRepository) ExistsByCode(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, orgID, code)
	return args.Bool(0), args.Error(1)
}

func importActor() audit.Actor {
	return audit.Actor{ID: uuid.New(), Name: "Jun Reyes", Role: "admin"}
}

func testBranch(t *testing.T, orgID uuid.UUID) *property.Branch {
	t.Helper()
	branch, err := property.NewBranch(orgID, "MAIN", "Main Branch", valueobject.Address{})
	require.NoError(t, err)
	return branch
}

func TestRoomImportService_Import(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	actor := importActor()

	t.Run("imports valid rows", func(t *testing.T) {
		historyRepo := new(MockImportHistoryRepository)
		roomRepo := new(MockRoomRepository)
		branchRepo := new(MockBranchRepository)
		service := NewRoomImportService(historyRepo, roomRepo, branchRepo, nil, nil, nil)

		branch := testBranch(t, orgID)
		historyRepo.On("Save", ctx, mock.Anything).Return(nil)
		branchRepo.On("FindByCode", ctx, orgID, "MAIN").Return(branch, nil)
		roomRepo.On("FindByNumber", ctx, orgID, branch.ID, mock.Anything).Return(nil, shared.ErrNotFound)
		roomRepo.On("Save", ctx, mock.MatchedBy(func(room *property.Room) bool {
			return room.BranchID == branch.ID && room.Status == property.RoomStatusVacant
		})).Return(nil)

		csv := strings.Join([]string{
			"branch_code,number,floor,monthly_rent,description",
			"MAIN,101,1,4500,Corner unit",
			"main,202,2,5200,",
		}, "\n")

		result, err := service.Import(ctx, orgID, actor, ImportRequest{
			FileName:     "rooms.csv",
			FileSize:     int64(len(csv)),
			ConflictMode: bulk.ConflictModeSkip,
			Data:         strings.NewReader(csv),
		})

		require.NoError(t, err)
		assert.Equal(t, 2, result.TotalRows)
		assert.Equal(t, 2, result.ImportedRows)
		assert.Equal(t, 0, result.ErrorRows)
		assert.Equal(t, bulk.ImportStatusCompleted, result.Status)
		roomRepo.AssertNumberOfCalls(t, "Save", 2)
		// Lowercase branch code resolves through the same cache entry
		branchRepo.AssertNumberOfCalls(t, "FindByCode", 1)
	})

	t.Run("invalid rows are reported, valid rows still land", func(t *testing.T) {
		historyRepo := new(MockImportHistoryRepository)
		roomRepo := new(MockRoomRepository)
		branchRepo := new(MockBranchRepository)
		service := NewRoomImportService(historyRepo, roomRepo, branchRepo, nil, nil, nil)

		branch := testBranch(t, orgID)
		historyRepo.On("Save", ctx, mock.Anything).Return(nil)
		branchRepo.On("FindByCode", ctx, orgID, "MAIN").Return(branch, nil)
		roomRepo.On("FindByNumber", ctx, orgID, branch.ID, "101").Return(nil, shared.ErrNotFound)
		roomRepo.On("Save", ctx, mock.Anything).Return(nil)

		csv := strings.Join([]string{
			"branch_code,number,floor,monthly_rent",
			"MAIN,101,1,4500",
			"MAIN,,1,4500",
			"MAIN,103,1,not-a-number",
		}, "\n")

		result, err := service.Import(ctx, orgID, actor, ImportRequest{
			FileName:     "rooms.csv",
			ConflictMode: bulk.ConflictModeSkip,
			Data:         strings.NewReader(csv),
		})

		require.NoError(t, err)
		assert.Equal(t, 3, result.TotalRows)
		assert.Equal(t, 1, result.ImportedRows)
		assert.Equal(t, 2, result.ErrorRows)
		assert.Len(t, result.Errors, 2)
		roomRepo.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("unknown branch code fails the row", func(t *testing.T) {
		historyRepo := new(MockImportHistoryRepository)
		roomRepo := new(MockRoomRepository)
		branchRepo := new(MockBranchRepository)
		service := NewRoomImportService(historyRepo, roomRepo, branchRepo, nil, nil, nil)

		historyRepo.On("Save", ctx, mock.Anything).Return(nil)
		branchRepo.On("FindByCode", ctx, orgID, "NOPE").Return(nil, shared.ErrNotFound)

		csv := "branch_code,number,floor,monthly_rent\nNOPE,101,1,4500\n"

		result, err := service.Import(ctx, orgID, actor, ImportRequest{
			FileName:     "rooms.csv",
			ConflictMode: bulk.ConflictModeSkip,
			Data:         strings.NewReader(csv),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.ErrorRows)
		assert.Equal(t, bulk.ImportStatusFailed, result.Status)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, csvimport.ErrCodeImportReferenceNotFound, result.Errors[0].Code)
		roomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("conflict mode skip leaves existing rooms alone", func(t *testing.T) {
		historyRepo := new(MockImportHistoryRepository)
		roomRepo := new(MockRoomRepository)
		branchRepo := new(MockBranchRepository)
		service := NewRoomImportService(historyRepo, roomRepo, branchRepo, nil, nil, nil)

		branch := testBranch(t, orgID)
		existing, err := property.NewRoom(orgID, branch.ID, "101", 1, valueobject.NewMoneyPHP(decimal.NewFromInt(4000)))
		require.NoError(t, err)

		historyRepo.On("Save", ctx, mock.Anything).Return(nil)
		branchRepo.On("FindByCode", ctx, orgID, "MAIN").Return(branch, nil)
		roomRepo.On("FindByNumber", ctx, orgID, branch.ID, "101").Return(existing, nil)

		csv := "branch_code,number,floor,monthly_rent\nMAIN,101,1,4500\n"

		result, err := service.Import(ctx, orgID, actor, ImportRequest{
			FileName:     "rooms.csv",
			ConflictMode: bulk.ConflictModeSkip,
			Data:         strings.NewReader(csv),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.SkippedRows)
		assert.Equal(t, 0, result.ImportedRows)
		roomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("conflict mode update refreshes rent and details", func(t *testing.T) {
		historyRepo := new(MockImportHistoryRepository)
		roomRepo := new(MockRoomRepository)
		branchRepo := new(MockBranchRepository)
		service := NewRoomImportService(historyRepo, roomRepo, branchRepo, nil, nil, nil)

		branch := testBranch(t, orgID)
		existing, err := property.NewRoom(orgID, branch.ID, "101", 1, valueobject.NewMoneyPHP(decimal.NewFromInt(4000)))
		require.NoError(t, err)

		historyRepo.On("Save", ctx, mock.Anything).Return(nil)
		branchRepo.On("FindByCode", ctx, orgID, "MAIN").Return(branch, nil)
		roomRepo.On("FindByNumber", ctx, orgID, branch.ID, "101").Return(existing, nil)
		roomRepo.On("SaveWithLock", ctx, existing).Return(nil)

		csv := "branch_code,number,floor,monthly_rent,description\nMAIN,101,2,4800,Renovated\n"

		result, err := service.Import(ctx, orgID, actor, ImportRequest{
			FileName:     "rooms.csv",
			ConflictMode: bulk.ConflictModeUpdate,
			Data:         strings.NewReader(csv),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.UpdatedRows)
		assert.True(t, existing.MonthlyRent.Equal(decimal.NewFromInt(4800)))
		assert.Equal(t, 2, existing.Floor)
		assert.Equal(t, "Renovated", existing.Description)
	})

	t.Run("conflict mode fail records the duplicate", func(t *testing.T) {
		historyRepo := new(MockImportHistoryRepository)
		roomRepo := new(MockRoomRepository)
		branchRepo := new(MockBranchRepository)
		service := NewRoomImportService(historyRepo, roomRepo, branchRepo, nil, nil, nil)

		branch := testBranch(t, orgID)
		existing, err := property.NewRoom(orgID, branch.ID, "101", 1, valueobject.NewMoneyPHP(decimal.NewFromInt(4000)))
		require.NoError(t, err)

		historyRepo.On("Save", ctx, mock.Anything).Return(nil)
		branchRepo.On("FindByCode", ctx, orgID, "MAIN").Return(branch, nil)
		roomRepo.On("FindByNumber", ctx, orgID, branch.ID, "101").Return(existing, nil)

		csv := "branch_code,number,floor,monthly_rent\nMAIN,101,1,4500\n"

		result, err := service.Import(ctx, orgID, actor, ImportRequest{
			FileName:     "rooms.csv",
			ConflictMode: bulk.ConflictModeFail,
			Data:         strings.NewReader(csv),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.ErrorRows)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, csvimport.ErrCodeImportDuplicateInDB, result.Errors[0].Code)
	})

	t.Run("missing required column fails the whole import", func(t *testing.T) {
		historyRepo := new(MockImportHistoryRepository)
		roomRepo := new(MockRoomRepository)
		branchRepo := new(MockBranchRepository)
		service := NewRoomImportService(historyRepo, roomRepo, branchRepo, nil, nil, nil)

		historyRepo.On("Save", ctx, mock.MatchedBy(func(h *bulk.ImportHistory) bool {
			return true
		})).Return(nil)

		csv := "number,floor\n101,1\n"

		_, err := service.Import(ctx, orgID, actor, ImportRequest{
			FileName:     "rooms.csv",
			ConflictMode: bulk.ConflictModeSkip,
			Data:         strings.NewReader(csv),
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_INPUT", domainErr.Code)
		// Two saves: the pending record, then the failed one
		historyRepo.AssertNumberOfCalls(t, "Save", 2)
	})
}

func TestRoomImportService_Validate(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	actor := importActor()

	historyRepo := new(MockImportHistoryRepository)
	roomRepo := new(MockRoomRepository)
	branchRepo := new(MockBranchRepository)
	service := NewRoomImportService(historyRepo, roomRepo, branchRepo, nil, nil, nil)

	branchRepo.On("ExistsByCode", ctx, orgID, "MAIN").Return(true, nil)
	branchRepo.On("ExistsByCode", ctx, orgID, "GHOST").Return(false, nil)

	csv := strings.Join([]string{
		"branch_code,number,floor,monthly_rent",
		"MAIN,101,1,4500",
		"GHOST,102,1,4500",
	}, "\n")

	result, err := service.Validate(ctx, orgID, actor, ImportRequest{
		FileName: "rooms.csv",
		Data:     strings.NewReader(csv),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 1, result.ValidRows)
	assert.Equal(t, 1, result.ErrorRows)
	roomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	historyRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
