package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/tenancy"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

// conn returns the DB handle for ctx, joining an enclosing transaction when
// one is present.
func (r *GormTenantRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID finds a tenant by its ID
func (r *GormTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*tenancy.Tenant, error) {
	var tenant tenancy.Tenant
	if err := r.conn(ctx).First(&tenant, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// FindByIDForOrg finds a tenant by ID within an org
func (r *GormTenantRepository) FindByIDForOrg(ctx context.Context, orgID, id uuid.UUID) (*tenancy.Tenant, error) {
	var tenant tenancy.Tenant
	if err := r.conn(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// FindAllForOrg finds all tenants for an org with filtering
func (r *GormTenantRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]tenancy.Tenant, error) {
	var tenants []tenancy.Tenant
	query := r.applyFilter(
		r.conn(ctx).Model(&tenancy.Tenant{}).Where("org_id = ?", orgID),
		filter,
	)

	if err := query.Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// FindActiveForOrg finds all active tenants for an org
func (r *GormTenantRepository) FindActiveForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]tenancy.Tenant, error) {
	var tenants []tenancy.Tenant
	query := r.applyFilter(
		r.conn(ctx).Model(&tenancy.Tenant{}).
			Where("org_id = ? AND status = ?", orgID, tenancy.TenantStatusActive),
		filter,
	)

	if err := query.Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// FindActiveByRoom finds the active tenant occupying a room, if any
func (r *GormTenantRepository) FindActiveByRoom(ctx context.Context, orgID, roomID uuid.UUID) (*tenancy.Tenant, error) {
	var tenant tenancy.Tenant
	if err := r.conn(ctx).
		Where("org_id = ? AND room_id = ? AND status = ?", orgID, roomID, tenancy.TenantStatusActive).
		First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// FindByBranch finds tenants in a branch
func (r *GormTenantRepository) FindByBranch(ctx context.Context, orgID, branchID uuid.UUID, filter shared.Filter) ([]tenancy.Tenant, error) {
	var tenants []tenancy.Tenant
	query := r.applyFilter(
		r.conn(ctx).Model(&tenancy.Tenant{}).
			Where("org_id = ? AND branch_id = ?", orgID, branchID),
		filter,
	)

	if err := query.Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// FindByStatus finds tenants by status for an org
func (r *GormTenantRepository) FindByStatus(ctx context.Context, orgID uuid.UUID, status tenancy.TenantStatus, filter shared.Filter) ([]tenancy.Tenant, error) {
	var tenants []tenancy.Tenant
	query := r.applyFilter(
		r.conn(ctx).Model(&tenancy.Tenant{}).
			Where("org_id = ? AND status = ?", orgID, status),
		filter,
	)

	if err := query.Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// FindMovedOutBetween finds tenants whose move-out date falls in the range
func (r *GormTenantRepository) FindMovedOutBetween(ctx context.Context, orgID uuid.UUID, from, to time.Time, filter shared.Filter) ([]tenancy.Tenant, error) {
	var tenants []tenancy.Tenant
	query := r.applyFilter(
		r.conn(ctx).Model(&tenancy.Tenant{}).
			Where("org_id = ? AND status = ? AND move_out_date >= ? AND move_out_date < ?",
				orgID, tenancy.TenantStatusMovedOut, from, to),
		filter,
	)

	if err := query.Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// Save creates or updates a tenant
func (r *GormTenantRepository) Save(ctx context.Context, tenant *tenancy.Tenant) error {
	return r.conn(ctx).Save(tenant).Error
}

// SaveWithLock saves a tenant with optimistic locking. Domain mutators bump
// Version in memory before the save, so the row must still carry the
// previous value or another transaction got there first.
func (r *GormTenantRepository) SaveWithLock(ctx context.Context, tenant *tenancy.Tenant) error {
	result := r.conn(ctx).Model(&tenancy.Tenant{}).
		Where("id = ? AND version = ?", tenant.ID, tenant.Version-1).
		Updates(map[string]interface{}{
			"first_name":        tenant.FirstName,
			"last_name":         tenant.LastName,
			"phone":             tenant.Phone,
			"email":             tenant.Email,
			"emergency_contact": tenant.EmergencyContact,
			"branch_id":         tenant.BranchID,
			"room_id":           tenant.RoomID,
			"rent_start_date":   tenant.RentStartDate,
			"monthly_rent":      tenant.MonthlyRent,
			"advance_payment":   tenant.AdvancePayment,
			"security_deposit":  tenant.SecurityDeposit,
			"status":            tenant.Status,
			"move_out_date":     tenant.MoveOutDate,
			"move_out_reason":   tenant.MoveOutReason,
			"final_bill_id":     tenant.FinalBillID,
			"notes":             tenant.Notes,
			"version":           tenant.Version,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The tenant has been modified by another transaction")
	}
	return nil
}

// DeleteForOrg deletes a tenant within an org
func (r *GormTenantRepository) DeleteForOrg(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.conn(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&tenancy.Tenant{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountForOrg counts tenants for an org
func (r *GormTenantRepository) CountForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.conn(ctx).Model(&tenancy.Tenant{}).Where("org_id = ?", orgID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts tenants by status for an org
func (r *GormTenantRepository) CountByStatus(ctx context.Context, orgID uuid.UUID, status tenancy.TenantStatus) (int64, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&tenancy.Tenant{}).
		Where("org_id = ? AND status = ?", orgID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsActiveByRoom checks if a room already has an active tenant
func (r *GormTenantRepository) ExistsActiveByRoom(ctx context.Context, orgID, roomID uuid.UUID) (bool, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&tenancy.Tenant{}).
		Where("org_id = ? AND room_id = ? AND status = ?", orgID, roomID, tenancy.TenantStatusActive).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyFilter applies filter conditions to query
func (r *GormTenantRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, TenantSortFields, "created_at")
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
func (r *GormTenantRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("(first_name ILIKE ? OR last_name ILIKE ? OR phone ILIKE ? OR email ILIKE ?)",
			searchPattern, searchPattern, searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "branch_id":
			query = query.Where("branch_id = ?", value)
		case "room_id":
			query = query.Where("room_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "rent_start_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("rent_start_date >= ?", t)
			}
		case "rent_start_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("rent_start_date < ?", t)
			}
		}
	}

	return query
}
