package audit

import (
	"context"

	"github.com/google/uuid"
)

// LogRepository defines the repository interface for audit logs. The log is
// append-only: there is no update or delete.
type LogRepository interface {
	// Save appends an audit log entry
	Save(ctx context.Context, log *Log) error

	// FindByID finds an entry by ID scoped to an organization
	FindByID(ctx context.Context, id, orgID uuid.UUID) (*Log, error)

	// Query finds entries for an organization matching the filter,
	// newest first
	Query(ctx context.Context, orgID uuid.UUID, filter LogFilter) ([]Log, error)

	// Count counts entries for an organization matching the filter
	Count(ctx context.Context, orgID uuid.UUID, filter LogFilter) (int64, error)
}
