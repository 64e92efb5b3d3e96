package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casaops/backend/internal/domain/ledger"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// conn returns the DB handle for ctx, joining an enclosing transaction when
// one is present.
func (r *GormPaymentRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Payment, error) {
	var payment ledger.Payment
	if err := r.conn(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindByIDForOrg finds a payment by ID scoped to an organization
func (r *GormPaymentRepository) FindByIDForOrg(ctx context.Context, id, orgID uuid.UUID) (*ledger.Payment, error) {
	var payment ledger.Payment
	if err := r.conn(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindByNumber finds a payment by its payment number within an organization
func (r *GormPaymentRepository) FindByNumber(ctx context.Context, orgID uuid.UUID, paymentNumber string) (*ledger.Payment, error) {
	var payment ledger.Payment
	if err := r.conn(ctx).
		Where("org_id = ? AND payment_number = ?", orgID, paymentNumber).
		First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// FindByBill finds all payments recorded against a bill, newest first
func (r *GormPaymentRepository) FindByBill(ctx context.Context, orgID, billID uuid.UUID) ([]ledger.Payment, error) {
	var payments []ledger.Payment
	if err := r.conn(ctx).
		Where("org_id = ? AND bill_id = ?", orgID, billID).
		Order("payment_date DESC, created_at DESC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindByTenant finds payments for a tenant with filtering
func (r *GormPaymentRepository) FindByTenant(ctx context.Context, orgID, tenantID uuid.UUID, filter shared.Filter) ([]ledger.Payment, error) {
	var payments []ledger.Payment
	query := r.applyFilter(
		r.conn(ctx).Model(&ledger.Payment{}).
			Where("org_id = ? AND tenant_id = ?", orgID, tenantID),
		filter,
	)

	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindAllForOrg finds payments in an organization with filtering
func (r *GormPaymentRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]ledger.Payment, error) {
	var payments []ledger.Payment
	query := r.applyFilter(
		r.conn(ctx).Model(&ledger.Payment{}).Where("org_id = ?", orgID),
		filter,
	)

	if err := query.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindByDateRange finds payments whose payment date falls in [from, to)
func (r *GormPaymentRepository) FindByDateRange(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]ledger.Payment, error) {
	var payments []ledger.Payment
	if err := r.conn(ctx).
		Where("org_id = ? AND payment_date >= ? AND payment_date < ?", orgID, from, to).
		Order("payment_date ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// FindByIdempotencyKey finds the payment created under a client-supplied
// idempotency key, if any
func (r *GormPaymentRepository) FindByIdempotencyKey(ctx context.Context, orgID uuid.UUID, key string) (*ledger.Payment, error) {
	var payment ledger.Payment
	if err := r.conn(ctx).
		Where("org_id = ? AND idempotency_key = ?", orgID, key).
		First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// Count counts payments in an organization matching the filter
func (r *GormPaymentRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.conn(ctx).Model(&ledger.Payment{}).Where("org_id = ?", orgID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *ledger.Payment) error {
	return r.conn(ctx).Save(payment).Error
}

// SaveWithLock saves with optimistic locking. Payment records are immutable
// apart from reversal, so only the reversal fields are updated. Domain
// mutators bump Version in memory before the save, so the row must still
// carry the previous value or another transaction got there first.
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, payment *ledger.Payment) error {
	result := r.conn(ctx).Model(&ledger.Payment{}).
		Where("id = ? AND version = ?", payment.ID, payment.Version-1).
		Updates(map[string]interface{}{
			"status":          payment.Status,
			"notes":           payment.Notes,
			"reversed_at":     payment.ReversedAt,
			"reversal_reason": payment.ReversalReason,
			"version":         payment.Version,
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The payment has been modified by another transaction")
	}
	return nil
}

// ExistsByNumber checks if a payment number exists for an organization
func (r *GormPaymentRepository) ExistsByNumber(ctx context.Context, orgID uuid.UUID, paymentNumber string) (bool, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&ledger.Payment{}).
		Where("org_id = ? AND payment_number = ?", orgID, paymentNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GeneratePaymentNumber generates a unique payment number for an organization.
// Format: PAY-YYYYMMDD-NNNNN (e.g., PAY-20260830-00001)
func (r *GormPaymentRepository) GeneratePaymentNumber(ctx context.Context, orgID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("PAY-%s-", time.Now().Format("20060102"))

	// Get the highest payment number issued today
	var lastPayment ledger.Payment
	err := r.conn(ctx).
		Model(&ledger.Payment{}).
		Where("org_id = ? AND payment_number LIKE ?", orgID, prefix+"%").
		Order("payment_number DESC").
		First(&lastPayment).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastPayment.PaymentNumber != "" {
		parts := strings.Split(lastPayment.PaymentNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	paymentNumber := fmt.Sprintf("%s%05d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.ExistsByNumber(ctx, orgID, paymentNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			paymentNumber = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.ExistsByNumber(ctx, orgID, paymentNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return paymentNumber, nil
}

// applyFilter applies filter conditions to query
func (r *GormPaymentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, PaymentSortFields, "payment_date")
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
func (r *GormPaymentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("(payment_number ILIKE ? OR reference ILIKE ?)", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "bill_id":
			query = query.Where("bill_id = ?", value)
		case "tenant_id":
			query = query.Where("tenant_id = ?", value)
		case "method":
			query = query.Where("method = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "paid_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("payment_date >= ?", t)
			}
		case "paid_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("payment_date < ?", t)
			}
		}
	}

	return query
}
