package tenancy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/domain/shared"
)

// TenantRepository defines the interface for tenant persistence
type TenantRepository interface {
	// FindByID finds a tenant by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// FindByIDForOrg finds a tenant by ID within an org
	FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*Tenant, error)

	// FindAllForOrg finds all tenants for an org
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Tenant, error)

	// FindActiveForOrg finds all active tenants for an org
	FindActiveForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Tenant, error)

	// FindActiveByRoom finds the active tenant occupying a room, if any
	FindActiveByRoom(ctx context.Context, orgID, roomID uuid.UUID) (*Tenant, error)

	// FindByBranch finds tenants in a branch
	FindByBranch(ctx context.Context, orgID, branchID uuid.UUID, filter shared.Filter) ([]Tenant, error)

	// FindByStatus finds tenants by status for an org
	FindByStatus(ctx context.Context, orgID uuid.UUID, status TenantStatus, filter shared.Filter) ([]Tenant, error)

	// FindMovedOutBetween finds tenants whose move-out date falls in the
	// given range, used by turnover reporting
	FindMovedOutBetween(ctx context.Context, orgID uuid.UUID, from, to time.Time, filter shared.Filter) ([]Tenant, error)

	// Save creates or updates a tenant
	Save(ctx context.Context, tenant *Tenant) error

	// SaveWithLock saves a tenant with optimistic locking (version check)
	// Returns error if the version has changed (concurrent modification)
	SaveWithLock(ctx context.Context, tenant *Tenant) error

	// DeleteForOrg deletes a tenant within an org
	DeleteForOrg(ctx context.Context, orgID, id uuid.UUID) error

	// CountForOrg counts tenants for an org
	CountForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)

	// CountByStatus counts tenants by status for an org
	CountByStatus(ctx context.Context, orgID uuid.UUID, status TenantStatus) (int64, error)

	// ExistsActiveByRoom checks if a room already has an active tenant
	ExistsActiveByRoom(ctx context.Context, orgID, roomID uuid.UUID) (bool, error)
}
