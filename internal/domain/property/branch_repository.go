package property

import (
	"context"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/domain/shared"
)

// BranchRepository defines the interface for branch persistence
type BranchRepository interface {
	// FindByID finds a branch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)

	// FindByIDForOrg finds a branch by ID within an org
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Branch, error)

	// FindByCode finds a branch by its code within an org
	FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*Branch, error)

	// FindAllForOrg finds all branches for an org
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Branch, error)

	// FindActive finds all active branches for an org
	FindActive(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Branch, error)

	// Save creates or updates a branch
	Save(ctx context.Context, branch *Branch) error

	// SaveWithLock saves a branch with optimistic locking (version check)
	// Returns error if the version has changed (concurrent modification)
	SaveWithLock(ctx context.Context, branch *Branch) error

	// DeleteForOrg deletes a branch within an org
	DeleteForOrg(ctx context.Context, orgID, id uuid.UUID) error

	// CountForOrg counts branches for an org
	CountForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsByCode checks if a branch with the given code exists in the org
	ExistsByCode(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
}
