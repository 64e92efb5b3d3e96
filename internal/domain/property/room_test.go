package property

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	room, err := NewRoom(uuid.New(), uuid.New(), "201", 2, valueobject.NewMoneyPHP(decimal.NewFromInt(3500)))
	require.NoError(t, err)
	return room
}

func TestNewRoom(t *testing.T) {
	orgID := uuid.New()
	branchID := uuid.New()
	rent := valueobject.NewMoneyPHP(decimal.NewFromInt(3500))

	t.Run("creates valid vacant room", func(t *testing.T) {
		room, err := NewRoom(orgID, branchID, "310-A", 3, rent)

		require.NoError(t, err)
		assert.NotNil(t, room)
		assert.Equal(t, orgID, room.OrgID)
		assert.Equal(t, branchID, room.BranchID)
		assert.Equal(t, "310-A", room.Number)
		assert.Equal(t, 3, room.Floor)
		assert.Equal(t, "3500", room.MonthlyRent.String())
		assert.Equal(t, RoomStatusVacant, room.Status)
		assert.Nil(t, room.CurrentTenantID)
		assert.True(t, room.IsAvailable())
	})

	t.Run("fails with empty branch", func(t *testing.T) {
		room, err := NewRoom(orgID, uuid.Nil, "310-A", 3, rent)

		assert.Error(t, err)
		assert.Nil(t, room)
		assert.Contains(t, err.Error(), "Branch ID cannot be empty")
	})

	t.Run("fails with empty number", func(t *testing.T) {
		room, err := NewRoom(orgID, branchID, "", 3, rent)

		assert.Error(t, err)
		assert.Nil(t, room)
		assert.Contains(t, err.Error(), "Room number cannot be empty")
	})

	t.Run("fails with negative rent", func(t *testing.T) {
		room, err := NewRoom(orgID, branchID, "310-A", 3, valueobject.NewMoneyPHP(decimal.NewFromInt(-1)))

		assert.Error(t, err)
		assert.Nil(t, room)
		assert.Contains(t, err.Error(), "Monthly rent cannot be negative")
	})
}

func TestRoomOccupancy(t *testing.T) {
	t.Run("occupies a vacant room", func(t *testing.T) {
		room := newTestRoom(t)
		tenantID := uuid.New()

		err := room.Occupy(tenantID)

		require.NoError(t, err)
		assert.Equal(t, RoomStatusOccupied, room.Status)
		require.NotNil(t, room.CurrentTenantID)
		assert.Equal(t, tenantID, *room.CurrentTenantID)
		assert.True(t, room.IsOccupied())
		assert.False(t, room.IsAvailable())
	})

	t.Run("fails to occupy an occupied room", func(t *testing.T) {
		room := newTestRoom(t)
		require.NoError(t, room.Occupy(uuid.New()))

		err := room.Occupy(uuid.New())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be occupied")
	})

	t.Run("fails to occupy a room under maintenance", func(t *testing.T) {
		room := newTestRoom(t)
		require.NoError(t, room.StartMaintenance())

		err := room.Occupy(uuid.New())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "maintenance")
	})

	t.Run("fails to occupy with an empty tenant", func(t *testing.T) {
		room := newTestRoom(t)

		err := room.Occupy(uuid.Nil)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Tenant ID cannot be empty")
	})

	t.Run("vacates an occupied room", func(t *testing.T) {
		room := newTestRoom(t)
		require.NoError(t, room.Occupy(uuid.New()))

		err := room.Vacate()

		require.NoError(t, err)
		assert.Equal(t, RoomStatusVacant, room.Status)
		assert.Nil(t, room.CurrentTenantID)
		assert.True(t, room.IsAvailable())
	})

	t.Run("fails to vacate a vacant room", func(t *testing.T) {
		room := newTestRoom(t)

		err := room.Vacate()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not occupied")
	})
}

func TestRoomMaintenance(t *testing.T) {
	t.Run("takes a vacant room out of inventory", func(t *testing.T) {
		room := newTestRoom(t)

		err := room.StartMaintenance()

		require.NoError(t, err)
		assert.Equal(t, RoomStatusMaintenance, room.Status)
		assert.False(t, room.IsAvailable())
	})

	t.Run("fails on an occupied room", func(t *testing.T) {
		room := newTestRoom(t)
		require.NoError(t, room.Occupy(uuid.New()))

		err := room.StartMaintenance()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Only vacant rooms")
	})

	t.Run("returns a room to the vacant pool", func(t *testing.T) {
		room := newTestRoom(t)
		require.NoError(t, room.StartMaintenance())

		err := room.EndMaintenance()

		require.NoError(t, err)
		assert.Equal(t, RoomStatusVacant, room.Status)
		assert.True(t, room.IsAvailable())
	})

	t.Run("fails to end maintenance on a vacant room", func(t *testing.T) {
		room := newTestRoom(t)

		err := room.EndMaintenance()

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not under maintenance")
	})
}

func TestRoomRent(t *testing.T) {
	t.Run("changes the monthly rent", func(t *testing.T) {
		room := newTestRoom(t)

		err := room.SetMonthlyRent(valueobject.NewMoneyPHP(decimal.RequireFromString("3750.50")))

		require.NoError(t, err)
		assert.Equal(t, "3750.5", room.MonthlyRent.String())
		events := room.GetDomainEvents()
		assert.Equal(t, EventTypeRoomRentChanged, events[len(events)-1].EventType())
	})

	t.Run("rejects negative rent", func(t *testing.T) {
		room := newTestRoom(t)

		err := room.SetMonthlyRent(valueobject.NewMoneyPHP(decimal.NewFromInt(-100)))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Monthly rent cannot be negative")
	})
}
