package property

import (
	"context"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/domain/shared"
)

// RoomRepository defines the interface for room persistence
type RoomRepository interface {
	// FindByID finds a room by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Room, error)

	// FindByIDForOrg finds a room by ID within an org
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Room, error)

	// FindByNumber finds a room by its number within a branch
	FindByNumber(ctx context.Context, orgID, branchID uuid.UUID, number string) (*Room, error)

	// FindAllForOrg finds all rooms for an org
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Room, error)

	// FindByBranch finds all rooms in a branch
	FindByBranch(ctx context.Context, orgID, branchID uuid.UUID, filter shared.Filter) ([]Room, error)

	// FindByStatus finds rooms by occupancy status for an org
	FindByStatus(ctx context.Context, orgID uuid.UUID, status RoomStatus, filter shared.Filter) ([]Room, error)

	// FindVacantByBranch finds rooms available for move-in within a branch
	FindVacantByBranch(ctx context.Context, orgID, branchID uuid.UUID, filter shared.Filter) ([]Room, error)

	// FindByTenant finds the room currently occupied by a tenant
	FindByTenant(ctx context.Context, orgID, tenantID uuid.UUID) (*Room, error)

	// Save creates or updates a room
	Save(ctx context.Context, room *Room) error

	// SaveWithLock saves a room with optimistic locking (version check)
	// Returns error if the version has changed (concurrent modification)
	SaveWithLock(ctx context.Context, room *Room) error

	// DeleteForOrg deletes a room within an org
	DeleteForOrg(ctx context.Context, orgID, id uuid.UUID) error

	// CountForOrg counts rooms for an org
	CountForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByBranch counts rooms in a branch
	CountByBranch(ctx context.Context, orgID, branchID uuid.UUID) (int64, error)

	// CountByStatus counts rooms by occupancy status for an org
	CountByStatus(ctx context.Context, orgID uuid.UUID, status RoomStatus) (int64, error)

	// CountOccupiedByBranch counts occupied rooms in a branch, used to guard
	// branch archival
	CountOccupiedByBranch(ctx context.Context, orgID, branchID uuid.UUID) (int64, error)

	// ExistsByNumber checks if a room with the given number exists in the branch
	ExistsByNumber(ctx context.Context, orgID, branchID uuid.UUID, number string) (bool, error)
}
