package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casaops/backend/internal/domain/property"
)

// GormOrgProvider lists organizations for cross-org background work. An org
// counts as active while it has at least one active branch.
type GormOrgProvider struct {
	db *gorm.DB
}

// NewGormOrgProvider creates a new GormOrgProvider
func NewGormOrgProvider(db *gorm.DB) *GormOrgProvider {
	return &GormOrgProvider{db: db}
}

// GetAllActiveOrgIDs returns the distinct org IDs that own an active branch
func (p *GormOrgProvider) GetAllActiveOrgIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Model(&property.Branch{}).
		Where("status = ?", property.BranchStatusActive).
		Distinct().
		Pluck("org_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
