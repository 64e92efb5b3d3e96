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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormBillRepository implements BillRepository using GORM
type GormBillRepository struct {
	db *gorm.DB
}

// NewGormBillRepository creates a new GormBillRepository
func NewGormBillRepository(db *gorm.DB) *GormBillRepository {
	return &GormBillRepository{db: db}
}

// conn returns the DB handle for ctx, joining an enclosing transaction when
// one is present.
func (r *GormBillRepository) conn(ctx context.Context) *gorm.DB {
	return dbFromContext(ctx, r.db).WithContext(ctx)
}

// FindByID finds a bill by its ID
func (r *GormBillRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Bill, error) {
	var bill ledger.Bill
	if err := r.conn(ctx).First(&bill, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}

// FindByIDForOrg finds a bill by ID scoped to an organization
func (r *GormBillRepository) FindByIDForOrg(ctx context.Context, id, orgID uuid.UUID) (*ledger.Bill, error) {
	var bill ledger.Bill
	if err := r.conn(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}

// FindByNumber finds a bill by its bill number within an organization
func (r *GormBillRepository) FindByNumber(ctx context.Context, orgID uuid.UUID, billNumber string) (*ledger.Bill, error) {
	var bill ledger.Bill
	if err := r.conn(ctx).
		Where("org_id = ? AND bill_number = ?", orgID, billNumber).
		First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}

// FindByTenantAndCycle finds the bill for a tenant's billing cycle
func (r *GormBillRepository) FindByTenantAndCycle(ctx context.Context, orgID, tenantID uuid.UUID, cycleNumber int) (*ledger.Bill, error) {
	var bill ledger.Bill
	if err := r.conn(ctx).
		Where("org_id = ? AND tenant_id = ? AND cycle_number = ?", orgID, tenantID, cycleNumber).
		First(&bill).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &bill, nil
}

// FindByTenant finds bills for a tenant with filtering
func (r *GormBillRepository) FindByTenant(ctx context.Context, orgID, tenantID uuid.UUID, filter shared.Filter) ([]ledger.Bill, error) {
	var bills []ledger.Bill
	query := r.applyFilter(
		r.conn(ctx).Model(&ledger.Bill{}).
			Where("org_id = ? AND tenant_id = ?", orgID, tenantID),
		filter,
	)

	if err := query.Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

// FindByBranch finds bills for a branch with filtering
func (r *GormBillRepository) FindByBranch(ctx context.Context, orgID, branchID uuid.UUID, filter shared.Filter) ([]ledger.Bill, error) {
	var bills []ledger.Bill
	query := r.applyFilter(
		r.conn(ctx).Model(&ledger.Bill{}).
			Where("org_id = ? AND branch_id = ?", orgID, branchID),
		filter,
	)

	if err := query.Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

// FindAllForOrg finds bills in an organization with filtering
func (r *GormBillRepository) FindAllForOrg(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]ledger.Bill, error) {
	var bills []ledger.Bill
	query := r.applyFilter(
		r.conn(ctx).Model(&ledger.Bill{}).Where("org_id = ?", orgID),
		filter,
	)

	if err := query.Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

// FindOutstandingByTenant finds a tenant's unpaid and partially paid bills,
// oldest cycle first. The order matters: payments sweep oldest bills first.
func (r *GormBillRepository) FindOutstandingByTenant(ctx context.Context, orgID, tenantID uuid.UUID) ([]ledger.Bill, error) {
	var bills []ledger.Bill
	if err := r.conn(ctx).
		Where("org_id = ? AND tenant_id = ? AND status IN ?",
			orgID, tenantID, []ledger.BillStatus{ledger.BillStatusActive, ledger.BillStatusPartiallyPaid}).
		Order("cycle_number ASC").
		Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

// FindOverdueUnpenalized finds bills across all organizations that are past
// due, not fully paid, and have no penalty yet. Used by the nightly penalty
// sweep, which runs outside any org's request scope.
func (r *GormBillRepository) FindOverdueUnpenalized(ctx context.Context, asOf time.Time, limit int) ([]ledger.Bill, error) {
	var bills []ledger.Bill
	query := r.conn(ctx).
		Where("due_date < ? AND status IN ? AND penalty_amount = 0 AND is_final_bill = ?",
			asOf, []ledger.BillStatus{ledger.BillStatusActive, ledger.BillStatusPartiallyPaid}, false).
		Order("due_date ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

// FindDueBetween finds bills across all organizations whose due date falls
// in [from, to), regardless of payment status
func (r *GormBillRepository) FindDueBetween(ctx context.Context, from, to time.Time) ([]ledger.Bill, error) {
	var bills []ledger.Bill
	if err := r.conn(ctx).
		Where("due_date >= ? AND due_date < ?", from, to).
		Order("due_date ASC").
		Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}

// CountFullyPaidCycles counts a tenant's fully paid regular cycle bills,
// excluding final bills
func (r *GormBillRepository) CountFullyPaidCycles(ctx context.Context, orgID, tenantID uuid.UUID) (int, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&ledger.Bill{}).
		Where("org_id = ? AND tenant_id = ? AND status = ? AND is_final_bill = ?",
			orgID, tenantID, ledger.BillStatusFullyPaid, false).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// SumOutstandingByTenant sums the unpaid balance across a tenant's bills
func (r *GormBillRepository) SumOutstandingByTenant(ctx context.Context, orgID, tenantID uuid.UUID) (decimal.Decimal, error) {
	var outstanding decimal.NullDecimal
	if err := r.conn(ctx).
		Model(&ledger.Bill{}).
		Where("org_id = ? AND tenant_id = ? AND status IN ?",
			orgID, tenantID, []ledger.BillStatus{ledger.BillStatusActive, ledger.BillStatusPartiallyPaid}).
		Select("SUM(total_amount - paid_amount)").
		Scan(&outstanding).Error; err != nil {
		return decimal.Zero, err
	}
	if !outstanding.Valid {
		return decimal.Zero, nil
	}
	return outstanding.Decimal, nil
}

// Count counts bills in an organization matching the filter
func (r *GormBillRepository) Count(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.conn(ctx).Model(&ledger.Bill{}).Where("org_id = ?", orgID)
	query = r.applyFilterWithoutPagination(query, filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a bill
func (r *GormBillRepository) Save(ctx context.Context, bill *ledger.Bill) error {
	return r.conn(ctx).Save(bill).Error
}

// SaveWithLock saves with optimistic locking. Domain mutators bump Version
// in memory before the save, so the row must still carry the previous value
// or another transaction got there first.
func (r *GormBillRepository) SaveWithLock(ctx context.Context, bill *ledger.Bill) error {
	result := r.conn(ctx).Model(&ledger.Bill{}).
		Where("id = ? AND version = ?", bill.ID, bill.Version-1).
		Updates(map[string]interface{}{
			"rent_amount":        bill.RentAmount,
			"electricity_amount": bill.ElectricityAmount,
			"water_amount":       bill.WaterAmount,
			"extra_fee_amount":   bill.ExtraFeeAmount,
			"extra_fee_label":    bill.ExtraFeeLabel,
			"penalty_amount":     bill.PenaltyAmount,
			"rent_paid":          bill.RentPaid,
			"electricity_paid":   bill.ElectricityPaid,
			"water_paid":         bill.WaterPaid,
			"extra_fee_paid":     bill.ExtraFeePaid,
			"penalty_paid":       bill.PenaltyPaid,
			"total_amount":       bill.TotalAmount,
			"paid_amount":        bill.PaidAmount,
			"status":             bill.Status,
			"due_date":           bill.DueDate,
			"settlement":         bill.Settlement,
			"notes":              bill.Notes,
			"version":            bill.Version,
			"updated_at":         time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The bill has been modified by another transaction")
	}
	return nil
}

// SaveAll persists multiple bills in one transaction
func (r *GormBillRepository) SaveAll(ctx context.Context, bills []*ledger.Bill) error {
	if len(bills) == 0 {
		return nil
	}
	return r.conn(ctx).Transaction(func(tx *gorm.DB) error {
		for _, bill := range bills {
			if err := tx.Save(bill).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteForOrg deletes a bill scoped to an organization
func (r *GormBillRepository) DeleteForOrg(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.conn(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&ledger.Bill{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByTenantAndCycle checks whether a bill already exists for a tenant's
// billing cycle
func (r *GormBillRepository) ExistsByTenantAndCycle(ctx context.Context, orgID, tenantID uuid.UUID, cycleNumber int) (bool, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&ledger.Bill{}).
		Where("org_id = ? AND tenant_id = ? AND cycle_number = ?", orgID, tenantID, cycleNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByNumber checks if a bill number exists for an organization
func (r *GormBillRepository) ExistsByNumber(ctx context.Context, orgID uuid.UUID, billNumber string) (bool, error) {
	var count int64
	if err := r.conn(ctx).
		Model(&ledger.Bill{}).
		Where("org_id = ? AND bill_number = ?", orgID, billNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GenerateBillNumber generates a unique bill number for an organization.
// Format: BILL-YYYYMMDD-NNNNN (e.g., BILL-20260830-00001)
func (r *GormBillRepository) GenerateBillNumber(ctx context.Context, orgID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("BILL-%s-", time.Now().Format("20060102"))

	// Get the highest bill number issued today
	var lastBill ledger.Bill
	err := r.conn(ctx).
		Model(&ledger.Bill{}).
		Where("org_id = ? AND bill_number LIKE ?", orgID, prefix+"%").
		Order("bill_number DESC").
		First(&lastBill).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	var nextNum int64 = 1
	if err == nil && lastBill.BillNumber != "" {
		parts := strings.Split(lastBill.BillNumber, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	billNumber := fmt.Sprintf("%s%05d", prefix, nextNum)

	// Verify uniqueness
	exists, err := r.ExistsByNumber(ctx, orgID, billNumber)
	if err != nil {
		return "", err
	}
	if exists {
		for i := 0; i < 100; i++ {
			nextNum++
			billNumber = fmt.Sprintf("%s%05d", prefix, nextNum)
			exists, err = r.ExistsByNumber(ctx, orgID, billNumber)
			if err != nil {
				return "", err
			}
			if !exists {
				break
			}
		}
	}

	return billNumber, nil
}

// applyFilter applies filter conditions to query
func (r *GormBillRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply sorting with whitelist validation to prevent SQL injection
	sortField := ValidateSortField(filter.OrderBy, BillSortFields, "created_at")
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
func (r *GormBillRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("bill_number ILIKE ?", searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "tenant_id":
			query = query.Where("tenant_id = ?", value)
		case "branch_id":
			query = query.Where("branch_id = ?", value)
		case "room_id":
			query = query.Where("room_id = ?", value)
		case "status":
			query = query.Where("status = ?", value)
		case "statuses":
			if statuses, ok := value.([]string); ok && len(statuses) > 0 {
				query = query.Where("status IN ?", statuses)
			}
		case "is_final_bill":
			query = query.Where("is_final_bill = ?", value)
		case "due_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("due_date >= ?", t)
			}
		case "due_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("due_date < ?", t)
			}
		case "period_from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("period_start >= ?", t)
			}
		case "period_to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("period_start < ?", t)
			}
		}
	}

	return query
}
