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

// GormRoomRepository implements RoomRepository using GORM
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository creates a new GormRoomRepository
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	return &GormRoomRepository{db: db}
}

// conn returns the DB handle for ctx, joining an enclosing transaction when
// one is present.
func (r *GormRoomRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID finds a room by its ID
func (r *GormRoomRepository) FindByID(ctx context.Context, id uuid.UUID) (*property.Room, error) {
	var room property.Room
	if err := r.conn(ctx).First(&room, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// FindByIDForOrg finds a room by ID within an org
func (r *GormRoomRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*property.Room, error) {
	var room property.Room
	if err := r.conn(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// FindByNumber finds a room by its number within a branch
func (r *GormRoomRepository) FindByNumber(ctx context.Context, orgID, branchID uuid.UUID, number string) (*property.Room, error) {
	var room property.Room
	if err := r.conn(ctx).
		Where("org_id = ? AND branch_id = ? AND number = ?", orgID, branchID, number).
		First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// FindAllForOrg finds all rooms for an org with filtering
func (r *GormRoomRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]property.Room, error) {
	var rooms []property.Room
	query := r.applyFilter(
		r.conn(ctx).Model(&property.Room{}).Where("org_id = ?", orgID),
		filter,
	)

	if err := query.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// FindByBranch finds all rooms in a branch
func (r *GormRoomRepository) FindByBranch(ctx context.Context, orgID, branchID uuid.UUID, filter shared.Filter) ([]property.Room, error) {
	var rooms []property.Room
	query := r.applyFilter(
		r.conn(ctx).Model(&property.Room{}).
			Where("org_id = ? AND branch_id = ?", orgID, branchID),
		filter,
	)

	if err := query.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// FindByStatus finds rooms by occupancy status for an org
func (r *GormRoomRepository) FindByStatus(ctx context.Context, orgID uuid.UUID, status property.RoomStatus, filter shared.Filter) ([]property.Room, error) {
	var rooms []property.Room
	query := r.applyFilter(
		r.conn(ctx).Model(&property.Room{}).
			Where("org_id = ? AND status = ?", orgID, status),
		filter,
	)

	if err := query.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// FindVacantByBranch finds rooms available for move-in within a branch
func (r *GormRoomRepository) FindVacantByBranch(ctx context.Context, orgID, branchID uuid.UUID, filter shared.Filter) ([]property.Room, error) {
	var rooms []property.Room
	query := r.applyFilter(
		r.conn(ctx).Model(&property.Room{}).
			Where("org_id = ? AND branch_id = ? AND status = ?", orgID, branchID, property.RoomStatusVacant),
		filter,
	)

	if err := query.Find(&rooms).Error; err != nil {
		return nil, err
	}
	return rooms, nil
}

// FindByTenant finds the room currently occupied by a tenant
func (r *GormRoomRepository) FindByTenant(ctx context.Context, orgID, tenantID uuid.UUID) (*property.Room, error) {
	var room property.Room
	if err := r.conn(ctx).
		Where("org_id = ? AND current_tenant_id = ?", orgID, tenantID).
		First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &room, nil
}

// Save creates or updates a room
func (r *GormRoomRepository) Save(ctx context.Context, room *property.Room) error {
	return r.conn(ctx).Save(room).Error
}

// SaveWithLock saves a room with optimistic locking. Domain mutators bump
// Version in memory before the save, so the row must still carry the
// previous value or another transaction got there first.
func (r *GormRoomRepository) SaveWithLock(ctx context.Context, room *property.Room) error {
	result := r.conn(ctx).Model(&property.Room{}).
		Where("id = ? AND version = ?", room.ID, room.Version-1).
		Updates(map[string]interface{}{
			"branch_id":         room.BranchID,
			"number":            room.Number,
			"floor":             room.Floor,
			"monthly_rent":      room.MonthlyRent,
			"status":            room.Status,
			"current_tenant_id": room.CurrentTenantID,
			"description":       room.Description,
			"notes":             room.Notes,
			"version":           room.Version,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The room has been modified by another transaction")
	}
	return nil
}

// DeleteForOrg deletes a room within an org
func (r *GormRoomRepository) DeleteForOrg(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.conn(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&property.Room{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForOrg counts rooms for an org
func (r *GormRoomRepository) CountForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.conn(ctx).Model(&property.Room{}).Where("org_id = ?", orgID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByBranch counts rooms in a branch
func (r *GormRoomRepository) CountByBranch(ctx context.Context, orgID, branchID uuid.UUID) (int64, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&property.Room{}).
		Where("org_id = ? AND branch_id = ?", orgID, branchID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts rooms by occupancy status for an org
func (r *GormRoomRepository) CountByStatus(ctx context.Context, orgID uuid.UUID, status property.RoomStatus) (int64, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&property.Room{}).
		Where("org_id = ? AND status = ?", orgID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountOccupiedByBranch counts occupied rooms in a branch
func (r *GormRoomRepository) CountOccupiedByBranch(ctx context.Context, orgID, branchID uuid.UUID) (int64, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&property.Room{}).
		Where("org_id = ? AND branch_id = ? AND status = ?", orgID, branchID, property.RoomStatusOccupied).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByNumber checks if a room with the given number exists in the branch
func (r *GormRoomRepository) ExistsByNumber(ctx context.Context, orgID, branchID uuid.UUID, number string) (bool, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&property.Room{}).
		Where("org_id = ? AND branch_id = ? AND number = ?", orgID, branchID, number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter conditions to query
func (r *GormRoomRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, RoomSortFields, "number")
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
func (r *GormRoomRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("(number ILIKE ? OR description ILIKE ?)", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "branch_id":
			query = query.Where("branch_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "floor":
			query = query.Where("floor = ?", value)
		case "min_rent":
			query = query.Where("monthly_rent >= ?", value)
		case "max_rent":
			query = query.Where("monthly_rent <= ?", value)
		}
	}

	return query
}
