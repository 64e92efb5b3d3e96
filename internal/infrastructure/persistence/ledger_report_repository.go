package persistence

import (
	"time"

	"github.com/casaops/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormLedgerReportRepository implements LedgerReportRepository using GORM
type GormLedgerReportRepository struct {
	db *gorm.DB
}

// NewGormLedgerReportRepository creates a new GormLedgerReportRepository
func NewGormLedgerReportRepository(db *gorm.DB) *GormLedgerReportRepository {
	return &GormLedgerReportRepository{db: db}
}

// GetCollectionSummary returns payments received in the filter period,
// grouped by method and branch. Reversed payments are excluded.
func (r *GormLedgerReportRepository) GetCollectionSummary(filter report.LedgerReportFilter) (*report.CollectionSummary, error) {
	// Totals
	totalQuery := r.db.Table("payments p").
		Select("COALESCE(SUM(p.amount), 0) AS amount, COUNT(p.id) AS count").
		Where("p.org_id = ?", filter.OrgID).
		Where("p.status = ?", "recorded").
		Where("p.payment_date >= ? AND p.payment_date < ?", filter.StartDate, filter.EndDate)
	if filter.BranchID != nil {
		totalQuery = totalQuery.
			Joins("JOIN bills bl ON bl.id = p.bill_id").
			Where("bl.branch_id = ?", *filter.BranchID)
	}

	var total struct {
		Amount decimal.NullDecimal
		Count  int64
	}
	if err := totalQuery.Scan(&total).Error; err != nil {
		return nil, err
	}

	summary := &report.CollectionSummary{
		PeriodStart:    filter.StartDate,
		PeriodEnd:      filter.EndDate,
		TotalCollected: decimal.Zero,
		PaymentCount:   total.Count,
		ByMethod:       []report.CollectionByMethod{},
		ByBranch:       []report.CollectionByBranch{},
	}
	if total.Amount.Valid {
		summary.TotalCollected = total.Amount.Decimal
	}

	// Breakdown by payment method
	byMethodQuery := r.db.Table("payments p").
		Select("p.method AS method, COALESCE(SUM(p.amount), 0) AS amount, COUNT(p.id) AS payment_count").
		Where("p.org_id = ?", filter.OrgID).
		Where("p.status = ?", "recorded").
		Where("p.payment_date >= ? AND p.payment_date < ?", filter.StartDate, filter.EndDate)
	if filter.BranchID != nil {
		byMethodQuery = byMethodQuery.
			Joins("JOIN bills bl ON bl.id = p.bill_id").
			Where("bl.branch_id = ?", *filter.BranchID)
	}

	var byMethod []report.CollectionByMethod
	if err := byMethodQuery.
		Group("p.method").
		Order("amount DESC").
		Scan(&byMethod).Error; err != nil {
		return nil, err
	}
	if byMethod != nil {
		summary.ByMethod = byMethod
	}

	// Breakdown by branch, through the bill each payment settles
	byBranchQuery := r.db.Table("payments p").
		Select("b.id AS branch_id, b.name AS branch_name, COALESCE(SUM(p.amount), 0) AS amount, COUNT(p.id) AS payment_count").
		Joins("JOIN bills bl ON bl.id = p.bill_id").
		Joins("JOIN branches b ON b.id = bl.branch_id").
		Where("p.org_id = ?", filter.OrgID).
		Where("p.status = ?", "recorded").
		Where("p.payment_date >= ? AND p.payment_date < ?", filter.StartDate, filter.EndDate)
	if filter.BranchID != nil {
		byBranchQuery = byBranchQuery.Where("bl.branch_id = ?", *filter.BranchID)
	}

	var byBranch []report.CollectionByBranch
	if err := byBranchQuery.
		Group("b.id, b.name").
		Order("amount DESC").
		Scan(&byBranch).Error; err != nil {
		return nil, err
	}
	if byBranch != nil {
		summary.ByBranch = byBranch
	}

	return summary, nil
}

// GetArrearsAging returns overdue unpaid bills bucketed by days late as of
// the filter's end date
func (r *GormLedgerReportRepository) GetArrearsAging(filter report.LedgerReportFilter) (*report.ArrearsAging, error) {
	asOf := filter.EndDate
	if asOf.IsZero() {
		asOf = time.Now()
	}

	type arrearsRow struct {
		TenantID    uuid.UUID
		TenantName  string
		BranchName  string
		RoomNumber  string
		BillID      uuid.UUID
		BillNumber  string
		DueDate     time.Time
		Outstanding decimal.Decimal
	}

	query := r.db.Table("bills bl").
		Select(`bl.tenant_id AS tenant_id,
			t.first_name || ' ' || t.last_name AS tenant_name,
			b.name AS branch_name,
			rm.number AS room_number,
			bl.id AS bill_id,
			bl.bill_number AS bill_number,
			bl.due_date AS due_date,
			bl.total_amount - bl.paid_amount AS outstanding`).
		Joins("JOIN tenants t ON t.id = bl.tenant_id").
		Joins("JOIN branches b ON b.id = bl.branch_id").
		Joins("JOIN rooms rm ON rm.id = bl.room_id").
		Where("bl.org_id = ?", filter.OrgID).
		Where("bl.status IN ?", []string{"active", "partially_paid"}).
		Where("bl.due_date < ?", asOf).
		Order("bl.due_date ASC")
	if filter.BranchID != nil {
		query = query.Where("bl.branch_id = ?", *filter.BranchID)
	}

	var rows []arrearsRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}

	aging := &report.ArrearsAging{
		AsOf:             asOf,
		TotalOutstanding: decimal.Zero,
		Buckets:          []report.ArrearsBucket{},
		Rows:             make([]report.ArrearsRow, 0, len(rows)),
	}

	bucketTotals := map[string]*report.ArrearsBucket{}
	for _, row := range rows {
		daysLate := int(asOf.Sub(row.DueDate).Hours() / 24)
		if daysLate < 1 {
			daysLate = 1
		}
		bucket := agingBucket(daysLate)

		aging.TotalOutstanding = aging.TotalOutstanding.Add(row.Outstanding)
		aging.Rows = append(aging.Rows, report.ArrearsRow{
			TenantID:    row.TenantID,
			TenantName:  row.TenantName,
			BranchName:  row.BranchName,
			RoomNumber:  row.RoomNumber,
			BillID:      row.BillID,
			BillNumber:  row.BillNumber,
			DueDate:     row.DueDate,
			DaysLate:    daysLate,
			Outstanding: row.Outstanding,
			Bucket:      bucket,
		})

		if b, ok := bucketTotals[bucket]; ok {
			b.Amount = b.Amount.Add(row.Outstanding)
			b.BillCount++
		} else {
			bucketTotals[bucket] = &report.ArrearsBucket{
				Bucket:    bucket,
				Amount:    row.Outstanding,
				BillCount: 1,
			}
		}
	}

	// Emit buckets in fixed order, skipping empty ones
	for _, name := range []string{
		report.AgingBucket1To30,
		report.AgingBucket31To60,
		report.AgingBucket61To90,
		report.AgingBucketOver90,
	} {
		if b, ok := bucketTotals[name]; ok {
			aging.Buckets = append(aging.Buckets, *b)
		}
	}

	return aging, nil
}

// GetMonthlyIncome returns billed versus collected amounts per month in the
// filter period
func (r *GormLedgerReportRepository) GetMonthlyIncome(filter report.LedgerReportFilter) ([]report.MonthlyIncome, error) {
	type billedRow struct {
		Year      int
		Month     int
		Billed    decimal.Decimal
		Penalties decimal.Decimal
	}

	billedQuery := r.db.Table("bills bl").
		Select(`EXTRACT(YEAR FROM bl.period_start)::int AS year,
			EXTRACT(MONTH FROM bl.period_start)::int AS month,
			COALESCE(SUM(bl.total_amount), 0) AS billed,
			COALESCE(SUM(bl.penalty_amount), 0) AS penalties`).
		Where("bl.org_id = ?", filter.OrgID).
		Where("bl.period_start >= ? AND bl.period_start < ?", filter.StartDate, filter.EndDate).
		Group("year, month")
	if filter.BranchID != nil {
		billedQuery = billedQuery.Where("bl.branch_id = ?", *filter.BranchID)
	}

	var billedRows []billedRow
	if err := billedQuery.Scan(&billedRows).Error; err != nil {
		return nil, err
	}

	type collectedRow struct {
		Year      int
		Month     int
		Collected decimal.Decimal
		Deposits  decimal.Decimal
	}

	collectedQuery := r.db.Table("payments p").
		Select(`EXTRACT(YEAR FROM p.payment_date)::int AS year,
			EXTRACT(MONTH FROM p.payment_date)::int AS month,
			COALESCE(SUM(p.amount), 0) AS collected,
			COALESCE(SUM(p.amount) FILTER (WHERE p.method = 'deposit_application'), 0) AS deposits`).
		Where("p.org_id = ?", filter.OrgID).
		Where("p.status = ?", "recorded").
		Where("p.payment_date >= ? AND p.payment_date < ?", filter.StartDate, filter.EndDate).
		Group("year, month")
	if filter.BranchID != nil {
		collectedQuery = collectedQuery.
			Joins("JOIN bills bl ON bl.id = p.bill_id").
			Where("bl.branch_id = ?", *filter.BranchID)
	}

	var collectedRows []collectedRow
	if err := collectedQuery.Scan(&collectedRows).Error; err != nil {
		return nil, err
	}

	// Merge billed and collected by month
	type ym struct{ year, month int }
	merged := map[ym]*report.MonthlyIncome{}
	ensure := func(year, month int) *report.MonthlyIncome {
		key := ym{year, month}
		if m, ok := merged[key]; ok {
			return m
		}
		m := &report.MonthlyIncome{
			Year:            year,
			Month:           month,
			BilledAmount:    decimal.Zero,
			CollectedAmount: decimal.Zero,
			PenaltiesBilled: decimal.Zero,
			DepositsApplied: decimal.Zero,
			CollectionRate:  decimal.Zero,
		}
		merged[key] = m
		return m
	}

	for _, row := range billedRows {
		m := ensure(row.Year, row.Month)
		m.BilledAmount = row.Billed
		m.PenaltiesBilled = row.Penalties
	}
	for _, row := range collectedRows {
		m := ensure(row.Year, row.Month)
		m.CollectedAmount = row.Collected
		m.DepositsApplied = row.Deposits
	}

	hundred := decimal.NewFromInt(100)
	months := make([]report.MonthlyIncome, 0, len(merged))
	cursor := time.Date(filter.StartDate.Year(), filter.StartDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(filter.EndDate.Year(), filter.EndDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(end) {
		if m, ok := merged[ym{cursor.Year(), int(cursor.Month())}]; ok {
			if m.BilledAmount.IsPositive() {
				m.CollectionRate = m.CollectedAmount.Div(m.BilledAmount).Mul(hundred).Round(2)
			}
			months = append(months, *m)
		}
		cursor = cursor.AddDate(0, 1, 0)
	}

	return months, nil
}

// agingBucket maps days late onto a report bucket
func agingBucket(daysLate int) string {
	switch {
	case daysLate <= 30:
		return report.AgingBucket1To30
	case daysLate <= 60:
		return report.AgingBucket31To60
	case daysLate <= 90:
		return report.AgingBucket61To90
	default:
		return report.AgingBucketOver90
	}
}
