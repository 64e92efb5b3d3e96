package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casaops/backend/internal/domain/property"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBranchRepository implements BranchRepository using GORM
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// FindByID finds a branch by its ID
func (r *GormBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Branch, error) {
	var branch property.Branch
	if err := r.db.WithContext(ctx).First(&branch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// FindByIDForOrg finds a branch by ID within an org
func (r *GormBranchRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*property.Branch, error) {
	var branch property.Branch
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&branch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// FindByCode finds a branch by its code within an org
func (r *GormBranchRepository) FindByCode(ctx context.Context, orgID uuid.UUID, code string) (*property.Branch, error) {
	var branch property.Branch
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND code = ?", orgID, code).
		First(&branch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// FindAllForOrg finds all branches for an org with filtering
func (r *GormBranchRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]property.Branch, error) {
	var branches []property.Branch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&property.Branch{}).Where("org_id = ?", orgID),
		filter,
	)

	if err := query.Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// FindActive finds all active branches for an org
func (r *GormBranchRepository) FindActive(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]property.Branch, error) {
	var branches []property.Branch
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&property.Branch{}).
			Where("org_id = ? AND status = ?", orgID, property.BranchStatusActive),
		filter,
	)

	if err := query.Find(&branches).Error; err != nil {
		return nil, err
	}
	return branches, nil
}

// Save creates or updates a branch
func (r *GormBranchRepository) Save(ctx context.Context, branch *property.Branch) error {
	return r.db.WithContext(ctx).Save(branch).Error
}

// SaveWithLock saves a branch with optimistic locking. Domain mutators bump
// Version in memory before the save, so the row must still carry the
// previous value or another transaction got there first.
func (r *GormBranchRepository) SaveWithLock(ctx context.Context, branch *property.Branch) error {
	result := r.db.WithContext(ctx).Model(&property.Branch{}).
		Where("id = ? AND version = ?", branch.ID, branch.Version-1).
		Updates(map[string]interface{}{
			"code":             branch.Code,
			"name":             branch.Name,
			"address":          branch.Address,
			"status":           branch.Status,
			"contact_name":     branch.ContactName,
			"contact_phone":    branch.ContactPhone,
			"electricity_rate": branch.ElectricityRate,
			"water_rate":       branch.WaterRate,
			"notes":            branch.Notes,
			"sort_order":       branch.SortOrder,
			"version":          branch.Version,
			"updated_at":       time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The branch has been modified by another transaction")
	}
	return nil
}

// DeleteForOrg deletes a branch within an org
func (r *GormBranchRepository) DeleteForOrg(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&property.Branch{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForOrg counts branches for an org
func (r *GormBranchRepository) CountForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&property.Branch{}).Where("org_id = ?", orgID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByCode checks if a branch with the given code exists in the org
func (r *GormBranchRepository) ExistsByCode(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&property.Branch{}).
		Where("org_id = ? AND code = ?", orgID, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter conditions to query
func (r *GormBranchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, BranchSortFields, "sort_order")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}

// applyFilterWithoutPagination applies filter conditions without pagination
func (r *GormBranchRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("(code ILIKE ? OR name ILIKE ? OR contact_name ILIKE ?)",
			searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		}
	}

	return query
}
