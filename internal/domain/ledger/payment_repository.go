package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/domain/shared"
)

// PaymentRepository defines the repository interface for Payment aggregate
type PaymentRepository interface {
	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// FindByIDForOrg finds a payment by ID scoped to an organization
	FindByIDForOrg(ctx context.Context, id, orgID uuid.UUID) (*Payment, error)

	// FindByNumber finds a payment by its payment number within an organization
	FindByNumber(ctx context.Context, orgID uuid.UUID, paymentNumber string) (*Payment, error)

	// FindByBill finds all payments recorded against a bill, newest first
	FindByBill(ctx context.Context, orgID, billID uuid.UUID) ([]Payment, error)

	// FindByTenant finds payments for a tenant with filtering
	FindByTenant(ctx context.Context, orgID, tenantID uuid.UUID, filter shared.Filter) ([]Payment, error)

	// FindAllForOrg finds payments in an organization with filtering
	FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Payment, error)

	// FindByDateRange finds payments whose payment date falls in [from, to)
	FindByDateRange(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]Payment, error)

	// FindByIdempotencyKey finds the payment created under a client-supplied
	// idempotency key, if any
	FindByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (*Payment, error)

	// Count counts payments in an organization matching the filter
	Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a payment
	Save(ctx context.Context, payment *Payment) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, payment *Payment) error
}
