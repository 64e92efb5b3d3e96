package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
)

// BillRepository defines the repository interface for Bill aggregate
type BillRepository interface {
	// FindByID finds a bill by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Bill, error)

	// FindByIDForOrg finds a bill by ID scoped to an organization
	FindByIDForOrg(ctx context.Context, id, orgID uuid.UUID) (*Bill, error)

	// FindByNumber finds a bill by its bill number within an organization
	FindByNumber(ctx context.Context, orgID uuid.UUID, billNumber string) (*Bill, error)

	// FindByTenantAndCycle finds the bill for a tenant's billing cycle, if one exists
	FindByTenantAndCycle(ctx context.Context, orgID, tenantID uuid.UUID, cycleNumber int) (*Bill, error)

	// FindByTenant finds bills for a tenant with filtering
	FindByTenant(ctx context.Context, orgID, tenantID uuid.UUID, filter shared.Filter) ([]Bill, error)

	// FindByBranch finds bills for a branch with filtering
	FindByBranch(ctx context.Context, orgID, branchID uuid.UUID, filter shared.Filter) ([]Bill, error)

	// FindAllForOrg finds bills in an organization with filtering
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Bill, error)

	// FindOutstandingByTenant finds a tenant's unpaid and partially paid bills,
	// oldest cycle first
	FindOutstandingByTenant(ctx context.Context, orgID, tenantID uuid.UUID) ([]Bill, error)

	// FindOverdueUnpenalized finds bills across all organizations that are past
	// due as of the given time, not fully paid, and have no penalty yet
	FindOverdueUnpenalized(ctx context.Context, asOf time.Time, limit int) ([]Bill, error)

	// FindDueBetween finds bills across all organizations whose due date falls
	// in [from, to), regardless of payment status
	FindDueBetween(ctx context.Context, from, to time.Time) ([]Bill, error)

	// CountFullyPaidCycles counts a tenant's fully paid regular cycle bills,
	// excluding final bills
	CountFullyPaidCycles(ctx context.Context, orgID, tenantID uuid.UUID) (int, error)

	// SumOutstandingByTenant sums the unpaid balance across a tenant's bills
	SumOutstandingByTenant(ctx context.Context, orgID, tenantID uuid.UUID) (decimal.Decimal, error)

	// Count counts bills in an organization matching the filter
	Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a bill
	Save(ctx context.Context, bill *Bill) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, bill *Bill) error

	// SaveAll persists multiple bills in one transaction
	SaveAll(ctx context.Context, bills []*Bill) error

	// DeleteForOrg deletes a bill scoped to an organization
	DeleteForOrg(ctx context.Context, orgID, id uuid.UUID) error

	// ExistsByTenantAndCycle checks whether a bill already exists for a
	// tenant's billing cycle
	ExistsByTenantAndCycle(ctx context.Context, orgID, tenantID uuid.UUID, cycleNumber int) (bool, error)
}
