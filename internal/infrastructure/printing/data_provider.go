package printing

import (
	"context"
	"time"

	"github.com/casaops/backend/internal/domain/printing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DataProvider is the interface for providing document data for template rendering.
// Each document type should have its own implementation.
type DataProvider interface {
	// GetDocType returns the document type this provider handles
	GetDocType() printing.DocType
	// GetData retrieves the document data for rendering
	// documentID is the ID of the document to render (a payment for receipts,
	// a tenant for statements, a final bill for settlement statements)
	GetData(ctx context.Context, orgID, documentID uuid.UUID) (*DocumentData, error)
}

// DocumentData is the common structure for all document data used in templates.
// It contains both common metadata and document-specific data.
type DocumentData struct {
	// Common metadata
	Meta DocumentMeta `json:"meta"`

	// Organization information
	Org OrgInfo `json:"org"`

	// Document-specific data (varies by document type)
	// This will be one of: PaymentReceiptData, TenantStatementData, FinalBillStatementData
	Document any `json:"document"`

	// Formatted/computed fields for convenience
	PrintDate     string `json:"printDate"`
	PrintDateTime string `json:"printDateTime"`
	PrintTime     string `json:"printTime"`
}

// DocumentMeta contains common metadata for all documents
type DocumentMeta struct {
	DocType     printing.DocType `json:"docType"`
	DocTypeName string           `json:"docTypeName"` // Display name
	DocNo       string           `json:"docNo"`       // Document number
	Status      string           `json:"status"`
	StatusText  string           `json:"statusText"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	CreatedBy   string           `json:"createdBy"`
	Notes       string           `json:"notes"`
}

// OrgInfo contains organization information for printing
type OrgInfo struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	Phone   string    `json:"phone"`
	Email   string    `json:"email"`
	Website string    `json:"website"`
	Logo    string    `json:"logo"` // URL or base64
	TaxID   string    `json:"taxId"`
}

// =============================================================================
// Payment Receipt Data
// =============================================================================

// PaymentReceiptData represents a recorded payment for receipt rendering
type PaymentReceiptData struct {
	ID              uuid.UUID        `json:"id"`
	PaymentNumber   string           `json:"paymentNumber"`
	BillID          uuid.UUID        `json:"billId"`
	BillNumber      string           `json:"billNumber"`
	Tenant          TenantInfo       `json:"tenant"`
	Branch          BranchInfo       `json:"branch"`
	Room            RoomInfo         `json:"room"`
	Method          string           `json:"method"`
	MethodText      string           `json:"methodText"`
	ReferenceNumber string           `json:"referenceNumber"` // External reference (GCash ref, deposit slip)
	PaymentDate     time.Time        `json:"paymentDate"`
	Amount          decimal.Decimal  `json:"amount"`
	Allocations     []AllocationLine `json:"allocations"` // How the amount was split across bill components
	BillTotal       decimal.Decimal  `json:"billTotal"`
	BillPaid        decimal.Decimal  `json:"billPaid"`
	BillBalance     decimal.Decimal  `json:"billBalance"` // Remaining after this payment
	ReceivedBy      string           `json:"receivedBy"`
	Notes           string           `json:"notes"`

	// Formatted fields
	AmountFormatted      string `json:"amountFormatted"`
	AmountInWords        string `json:"amountInWords"`
	BillTotalFormatted   string `json:"billTotalFormatted"`
	BillBalanceFormatted string `json:"billBalanceFormatted"`
	PaymentDateFormatted string `json:"paymentDateFormatted"`

	// Signature areas (received by / tenant acknowledgment)
	SignatureAreas []SignatureArea `json:"signatureAreas"`
}

// AllocationLine represents one bill component a payment was applied to
type AllocationLine struct {
	Index     int             `json:"index"` // 1-based index
	Component string          `json:"component"`
	Label     string          `json:"label"` // Display label, e.g. "Rent", "Electricity"
	Amount    decimal.Decimal `json:"amount"`

	// Formatted fields
	AmountFormatted string `json:"amountFormatted"`
}

// =============================================================================
// Tenant Statement Data
// =============================================================================

// TenantStatementData represents a statement of account for a tenant
type TenantStatementData struct {
	TenantID    uuid.UUID       `json:"tenantId"`
	Tenant      TenantInfo      `json:"tenant"`
	Branch      BranchInfo      `json:"branch"`
	Room        RoomInfo        `json:"room"`
	PeriodStart time.Time       `json:"periodStart"`
	PeriodEnd   time.Time       `json:"periodEnd"`
	Lines       []StatementLine `json:"lines"` // Bills and payments in chronological order
	TotalBilled decimal.Decimal `json:"totalBilled"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	LineCount   int             `json:"lineCount"`

	// Formatted fields
	PeriodStartFormatted string `json:"periodStartFormatted"`
	PeriodEndFormatted   string `json:"periodEndFormatted"`
	TotalBilledFormatted string `json:"totalBilledFormatted"`
	TotalPaidFormatted   string `json:"totalPaidFormatted"`
	OutstandingFormatted string `json:"outstandingFormatted"`
	OutstandingInWords   string `json:"outstandingInWords"`
}

// StatementLine represents one row on a statement of account.
// A bill contributes to the Charge column, a payment to the Credit column;
// Balance is the running total after the row.
type StatementLine struct {
	Index          int             `json:"index"`
	Date           time.Time       `json:"date"`
	DocumentNumber string          `json:"documentNumber"` // Bill or payment number
	Description    string          `json:"description"`
	Charge         decimal.Decimal `json:"charge"`
	Credit         decimal.Decimal `json:"credit"`
	Balance        decimal.Decimal `json:"balance"`

	// Formatted fields
	DateFormatted    string `json:"dateFormatted"`
	ChargeFormatted  string `json:"chargeFormatted"`
	CreditFormatted  string `json:"creditFormatted"`
	BalanceFormatted string `json:"balanceFormatted"`
}

// =============================================================================
// Final Bill Statement Data
// =============================================================================

// FinalBillStatementData represents a move-out settlement statement
type FinalBillStatementData struct {
	BillID        uuid.UUID  `json:"billId"`
	BillNumber    string     `json:"billNumber"`
	Tenant        TenantInfo `json:"tenant"`
	Branch        BranchInfo `json:"branch"`
	Room          RoomInfo   `json:"room"`
	PeriodStart   time.Time  `json:"periodStart"`
	PeriodEnd     time.Time  `json:"periodEnd"`
	MoveOutDate   time.Time  `json:"moveOutDate"`
	MoveOutReason string     `json:"moveOutReason"`

	// Settlement breakdown
	Charges             []ChargeLine    `json:"charges"` // Prorated rent, utilities, extras, open bills
	TotalBeforeDeposits decimal.Decimal `json:"totalBeforeDeposits"`
	AdvancePayment      decimal.Decimal `json:"advancePayment"`
	SecurityDeposit     decimal.Decimal `json:"securityDeposit"`
	DepositAvailable    decimal.Decimal `json:"depositAvailable"`
	DepositApplied      decimal.Decimal `json:"depositApplied"`
	DepositForfeited    decimal.Decimal `json:"depositForfeited"`
	DepositRefund       decimal.Decimal `json:"depositRefund"`
	FinalTotal          decimal.Decimal `json:"finalTotal"` // Amount still owed after deposits
	IsRoomTransfer      bool            `json:"isRoomTransfer"`

	// Formatted fields
	MoveOutDateFormatted      string `json:"moveOutDateFormatted"`
	TotalBeforeDepFormatted   string `json:"totalBeforeDepFormatted"`
	DepositAppliedFormatted   string `json:"depositAppliedFormatted"`
	DepositForfeitedFormatted string `json:"depositForfeitedFormatted"`
	DepositRefundFormatted    string `json:"depositRefundFormatted"`
	FinalTotalFormatted       string `json:"finalTotalFormatted"`
	FinalTotalInWords         string `json:"finalTotalInWords"`

	// Signature areas (settled by / tenant conformity)
	SignatureAreas []SignatureArea `json:"signatureAreas"`
}

// ChargeLine represents one charge row on a settlement statement
type ChargeLine struct {
	Index       int             `json:"index"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`

	// Formatted fields
	AmountFormatted string `json:"amountFormatted"`
}

// =============================================================================
// Common Info Types
// =============================================================================

// TenantInfo contains tenant information for printing
type TenantInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"` // Full name
	Phone string    `json:"phone"`
	Email string    `json:"email"`
}

// BranchInfo contains branch information for printing
type BranchInfo struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
	Phone   string    `json:"phone"`
}

// RoomInfo contains room information for printing
type RoomInfo struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	Floor       string          `json:"floor"`
	MonthlyRent decimal.Decimal `json:"monthlyRent"`

	// Formatted fields
	MonthlyRentFormatted string `json:"monthlyRentFormatted"`
}

// SignatureArea represents a signature area on a document
type SignatureArea struct {
	Label  string `json:"label"`  // e.g., "Received by", "Tenant"
	Name   string `json:"name"`   // Pre-filled name if known
	Date   string `json:"date"`   // Pre-filled date if known
	Signed bool   `json:"signed"` // Whether this has been signed
}

// =============================================================================
// Helper Functions for Data Providers
// =============================================================================

// NewDocumentData creates a new DocumentData with common fields initialized
func NewDocumentData(docType printing.DocType, docNo string) *DocumentData {
	now := time.Now()
	return &DocumentData{
		Meta: DocumentMeta{
			DocType:     docType,
			DocTypeName: docType.DisplayName(),
			DocNo:       docNo,
		},
		PrintDate:     now.Format("2006-01-02"),
		PrintDateTime: now.Format("2006-01-02 15:04:05"),
		PrintTime:     now.Format("15:04:05"),
	}
}

// FormatMoneyValue formats a decimal as money string for data providers
func FormatMoneyValue(d decimal.Decimal) string {
	return "₱" + formatDecimalWithCommas(d, 2)
}

// AmountToWords spells out a money value for data providers
func AmountToWords(d decimal.Decimal) string {
	return amountInWords(d)
}

// formatDecimalWithCommas formats a decimal with thousand separators
func formatDecimalWithCommas(d decimal.Decimal, precision int) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := splitDecimal(d.StringFixed(int32(precision)))
	intPart := parts[0]
	decPart := ""
	if len(parts) > 1 {
		decPart = "." + parts[1]
	}

	// Add thousand separators
	var result []byte
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}

	return sign + string(result) + decPart
}

func splitDecimal(s string) []string {
	for i, c := range s {
		if c == '.' {
			return []string{s[:i], s[i+1:]}
		}
	}
	return []string{s}
}
