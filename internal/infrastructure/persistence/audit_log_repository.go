package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/casaops/backend/internal/domain/audit"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAuditLogRepository implements LogRepository using GORM. The table is
// append-only: Save only ever inserts.
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Save appends an audit log entry
func (r *GormAuditLogRepository) Save(ctx context.Context, log *audit.Log) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByID finds an entry by ID scoped to an organization
func (r *GormAuditLogRepository) FindByID(ctx context.Context, id, orgID uuid.UUID) (*audit.Log, error) {
	var log audit.Log
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&log).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &log, nil
}

// Query finds entries for an organization matching the filter, newest first
func (r *GormAuditLogRepository) Query(ctx context.Context, orgID uuid.UUID, filter audit.LogFilter) ([]audit.Log, error) {
	var logs []audit.Log
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&audit.Log{}).Where("org_id = ?", orgID),
		filter,
	)

	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Count counts entries for an organization matching the filter
func (r *GormAuditLogRepository) Count(ctx context.Context, orgID uuid.UUID, filter audit.LogFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(
		r.db.WithContext(ctx).Model(&audit.Log{}).Where("org_id = ?", orgID),
		filter,
	)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter conditions to query
func (r *GormAuditLogRepository) applyFilter(query *gorm.DB, filter audit.LogFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.Page.OrderBy, AuditLogSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.Page.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))

	// Apply pagination
	if filter.Page.Page > 0 && filter.Page.PageSize > 0 {
		offset := (filter.Page.Page - 1) * filter.Page.PageSize
		query = query.Offset(offset).Limit(filter.Page.PageSize)
	}

	return query
}

// applyFilterWithoutPagination applies filter conditions without pagination
func (r *GormAuditLogRepository) applyFilterWithoutPagination(query *gorm.DB, filter audit.LogFilter) *gorm.DB {
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.ResourceID != "" {
		query = query.Where("resource_id = ?", filter.ResourceID)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}

	if filter.Page.Search != "" {
		searchPattern := "%" + filter.Page.Search + "%"
		query = query.Where("(action ILIKE ? OR resource_type ILIKE ? OR actor_name ILIKE ?)",
			searchPattern, searchPattern, searchPattern)
	}

	return query
}
