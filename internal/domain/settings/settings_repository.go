package settings

import (
	"context"

	"github.com/google/uuid"
)

// SettingsRepository defines the repository interface for org settings
type SettingsRepository interface {
	// FindByOrg finds the settings row for an organization, or
	// shared.ErrNotFound if none has been saved yet
	FindByOrg(ctx context.Context, orgID uuid.UUID) (*Settings, error)

	// Save creates or updates the settings row
	Save(ctx context.Context, settings *Settings) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, settings *Settings) error
}
