package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerReportFilter defines filtering options for ledger reports
type LedgerReportFilter struct {
	OrgID     uuid.UUID  `json:"-"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
	BranchID  *uuid.UUID `json:"branch_id,omitempty"`
}

// CollectionByMethod is collected money grouped by payment method
type CollectionByMethod struct {
	Method       string          `json:"method"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentCount int64           `json:"payment_count"`
}

// CollectionByBranch is collected money grouped by branch
type CollectionByBranch struct {
	BranchID     uuid.UUID       `json:"branch_id"`
	BranchName   string          `json:"branch_name"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentCount int64           `json:"payment_count"`
}

// CollectionSummary is a read model for payments received in a period.
// Reversed payments are excluded throughout.
type CollectionSummary struct {
	PeriodStart    time.Time            `json:"period_start"`
	PeriodEnd      time.Time            `json:"period_end"`
	TotalCollected decimal.Decimal      `json:"total_collected"`
	PaymentCount   int64                `json:"payment_count"`
	ByMethod       []CollectionByMethod `json:"by_method"`
	ByBranch       []CollectionByBranch `json:"by_branch"`
}

// Aging bucket labels, by days past due
const (
	AgingBucket1To30  = "1-30"
	AgingBucket31To60 = "31-60"
	AgingBucket61To90 = "61-90"
	AgingBucketOver90 = "90+"
)

// ArrearsRow is one overdue bill in the arrears aging report
type ArrearsRow struct {
	TenantID    uuid.UUID       `json:"tenant_id"`
	TenantName  string          `json:"tenant_name"`
	BranchName  string          `json:"branch_name"`
	RoomNumber  string          `json:"room_number"`
	BillID      uuid.UUID       `json:"bill_id"`
	BillNumber  string          `json:"bill_number"`
	DueDate     time.Time       `json:"due_date"`
	DaysLate    int             `json:"days_late"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Bucket      string          `json:"bucket"`
}

// ArrearsBucket aggregates overdue balances for one aging bucket
type ArrearsBucket struct {
	Bucket    string          `json:"bucket"`
	Amount    decimal.Decimal `json:"amount"`
	BillCount int64           `json:"bill_count"`
}

// ArrearsAging is a read model for overdue bills bucketed by days late
type ArrearsAging struct {
	AsOf             time.Time       `json:"as_of"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	Buckets          []ArrearsBucket `json:"buckets"`
	Rows             []ArrearsRow    `json:"rows"`
}

// MonthlyIncome is one month of billed versus collected amounts
type MonthlyIncome struct {
	Year            int             `json:"year"`
	Month           int             `json:"month"`
	BilledAmount    decimal.Decimal `json:"billed_amount"`    // Bill totals issued in the month
	CollectedAmount decimal.Decimal `json:"collected_amount"` // Payments received in the month
	PenaltiesBilled decimal.Decimal `json:"penalties_billed"` // Penalties applied in the month
	DepositsApplied decimal.Decimal `json:"deposits_applied"` // deposit_application payments
	CollectionRate  decimal.Decimal `json:"collection_rate"`  // CollectedAmount / BilledAmount * 100
}

// LedgerReportRepository provides collection, arrears and income read models
type LedgerReportRepository interface {
	// GetCollectionSummary returns payments received in the filter period,
	// grouped by method and branch
	GetCollectionSummary(filter LedgerReportFilter) (*CollectionSummary, error)

	// GetArrearsAging returns overdue unpaid bills bucketed by days late as
	// of the filter's end date
	GetArrearsAging(filter LedgerReportFilter) (*ArrearsAging, error)

	// GetMonthlyIncome returns billed versus collected amounts per month in
	// the filter period
	GetMonthlyIncome(filter LedgerReportFilter) ([]MonthlyIncome, error)
}
