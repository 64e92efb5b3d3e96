package printing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/ledger"
	domainprinting "github.com/casaops/backend/internal/domain/printing"
	"github.com/casaops/backend/internal/domain/property"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/tenancy"
	infraprinting "github.com/casaops/backend/internal/infrastructure/printing"
)

const statementPageSize = 1000

// ReceiptDataProvider assembles payment receipt data for rendering
type ReceiptDataProvider struct {
	paymentRepo ledger.PaymentRepository
	billRepo    ledger.BillRepository
	tenantRepo  tenancy.TenantRepository
	roomRepo    property.RoomRepository
	branchRepo  property.BranchRepository
}

// NewReceiptDataProvider creates a new ReceiptDataProvider
func NewReceiptDataProvider(
	paymentRepo ledger.PaymentRepository,
	billRepo ledger.BillRepository,
	tenantRepo tenancy.TenantRepository,
	roomRepo property.RoomRepository,
	branchRepo property.BranchRepository,
) *ReceiptDataProvider {
	return &ReceiptDataProvider{
		paymentRepo: paymentRepo,
		billRepo:    billRepo,
		tenantRepo:  tenantRepo,
		roomRepo:    roomRepo,
		branchRepo:  branchRepo,
	}
}

// GetDocType returns the document type this provider handles
func (p *ReceiptDataProvider) GetDocType() domainprinting.DocType {
	return domainprinting.DocTypePaymentReceipt
}

// GetData loads a payment and its surrounding records for receipt rendering
func (p *ReceiptDataProvider) GetData(ctx context.Context, orgID, documentID uuid.UUID) (*infraprinting.DocumentData, error) {
	payment, err := p.paymentRepo.FindByIDForOrg(ctx, documentID, orgID)
	if err != nil {
		return nil, err
	}
	bill, err := p.billRepo.FindByIDForOrg(ctx, payment.BillID, orgID)
	if err != nil {
		return nil, err
	}
	tenant, err := p.tenantRepo.FindByIDForOrg(ctx, orgID, payment.TenantID)
	if err != nil {
		return nil, err
	}
	room, err := p.roomRepo.FindByIDForOrg(ctx, orgID, bill.RoomID)
	if err != nil {
		return nil, err
	}
	branch, err := p.branchRepo.FindByIDForOrg(ctx, orgID, bill.BranchID)
	if err != nil {
		return nil, err
	}

	receipt := infraprinting.PaymentReceiptData{
		ID:              payment.ID,
		PaymentNumber:   payment.PaymentNumber,
		BillID:          bill.ID,
		BillNumber:      bill.BillNumber,
		Tenant:          tenantInfo(tenant),
		Branch:          branchInfo(branch),
		Room:            roomInfo(room),
		Method:          payment.Method.String(),
		MethodText:      methodText(payment.Method),
		ReferenceNumber: payment.Reference,
		PaymentDate:     payment.PaymentDate,
		Amount:          payment.Amount,
		Allocations:     allocationLines(payment.Allocation, bill.ExtraFeeLabel),
		BillTotal:       bill.TotalAmount,
		BillPaid:        bill.PaidAmount,
		BillBalance:     bill.OutstandingAmount(),
		Notes:           payment.Notes,

		AmountFormatted:      infraprinting.FormatMoneyValue(payment.Amount),
		AmountInWords:        infraprinting.AmountToWords(payment.Amount),
		BillTotalFormatted:   infraprinting.FormatMoneyValue(bill.TotalAmount),
		BillBalanceFormatted: infraprinting.FormatMoneyValue(bill.OutstandingAmount()),
		PaymentDateFormatted: payment.PaymentDate.Format("January 2, 2006"),

		SignatureAreas: []infraprinting.SignatureArea{
			{Label: "Received by"},
			{Label: "Tenant"},
		},
	}

	data := infraprinting.NewDocumentData(domainprinting.DocTypePaymentReceipt, payment.PaymentNumber)
	data.Meta.Status = string(payment.Status)
	data.Meta.StatusText = statusLabel(string(payment.Status))
	data.Meta.CreatedAt = payment.CreatedAt
	data.Meta.UpdatedAt = payment.UpdatedAt
	data.Meta.Notes = payment.Notes
	data.Document = receipt
	return data, nil
}

// StatementDataProvider assembles a tenant's statement of account
type StatementDataProvider struct {
	tenantRepo  tenancy.TenantRepository
	billRepo    ledger.BillRepository
	paymentRepo ledger.PaymentRepository
	roomRepo    property.RoomRepository
	branchRepo  property.BranchRepository
}

// NewStatementDataProvider creates a new StatementDataProvider
func NewStatementDataProvider(
	tenantRepo tenancy.TenantRepository,
	billRepo ledger.BillRepository,
	paymentRepo ledger.PaymentRepository,
	roomRepo property.RoomRepository,
	branchRepo property.BranchRepository,
) *StatementDataProvider {
	return &StatementDataProvider{
		tenantRepo:  tenantRepo,
		billRepo:    billRepo,
		paymentRepo: paymentRepo,
		roomRepo:    roomRepo,
		branchRepo:  branchRepo,
	}
}

// GetDocType returns the document type this provider handles
func (p *StatementDataProvider) GetDocType() domainprinting.DocType {
	return domainprinting.DocTypeTenantStatement
}

// GetData builds the charge/credit ledger for a tenant. The document ID is
// the tenant ID; the statement covers the whole occupancy.
func (p *StatementDataProvider) GetData(ctx context.Context, orgID, documentID uuid.UUID) (*infraprinting.DocumentData, error) {
	tenant, err := p.tenantRepo.FindByIDForOrg(ctx, orgID, documentID)
	if err != nil {
		return nil, err
	}
	room, err := p.roomRepo.FindByIDForOrg(ctx, orgID, tenant.RoomID)
	if err != nil {
		return nil, err
	}
	branch, err := p.branchRepo.FindByIDForOrg(ctx, orgID, tenant.BranchID)
	if err != nil {
		return nil, err
	}
	bills, err := p.billRepo.FindByTenant(ctx, orgID, tenant.ID, shared.Filter{
		PageSize: statementPageSize,
		OrderBy:  "due_date",
		OrderDir: "asc",
	})
	if err != nil {
		return nil, err
	}
	payments, err := p.paymentRepo.FindByTenant(ctx, orgID, tenant.ID, shared.Filter{
		PageSize: statementPageSize,
		OrderBy:  "payment_date",
		OrderDir: "asc",
	})
	if err != nil {
		return nil, err
	}

	statement := buildStatement(tenant, room, branch, bills, payments)
	docNo := fmt.Sprintf("SOA-%s", strings.ToUpper(tenant.ID.String()[:8]))

	data := infraprinting.NewDocumentData(domainprinting.DocTypeTenantStatement, docNo)
	data.Meta.Status = string(tenant.Status)
	data.Meta.StatusText = statusLabel(string(tenant.Status))
	data.Meta.CreatedAt = tenant.CreatedAt
	data.Meta.UpdatedAt = tenant.UpdatedAt
	data.Document = statement
	return data, nil
}

func buildStatement(tenant *tenancy.Tenant, room *property.Room, branch *property.Branch, bills []ledger.Bill, payments []ledger.Payment) infraprinting.TenantStatementData {
	type entry struct {
		date   time.Time
		docNo  string
		desc   string
		charge decimal.Decimal
		credit decimal.Decimal
	}

	entries := make([]entry, 0, len(bills)+len(payments))
	totalBilled := decimal.Zero
	totalPaid := decimal.Zero
	for i := range bills {
		b := &bills[i]
		desc := fmt.Sprintf("Bill for %s to %s",
			b.PeriodStart.Format("Jan 2, 2006"), b.PeriodEnd.Format("Jan 2, 2006"))
		if b.IsFinalBill {
			desc = "Final bill (move-out settlement)"
		}
		entries = append(entries, entry{
			date:   b.DueDate,
			docNo:  b.BillNumber,
			desc:   desc,
			charge: b.TotalAmount,
			credit: decimal.Zero,
		})
		totalBilled = totalBilled.Add(b.TotalAmount)
	}
	for i := range payments {
		pm := &payments[i]
		if pm.Status == ledger.PaymentStatusReversed {
			continue
		}
		entries = append(entries, entry{
			date:   pm.PaymentDate,
			docNo:  pm.PaymentNumber,
			desc:   fmt.Sprintf("Payment (%s)", methodText(pm.Method)),
			charge: decimal.Zero,
			credit: pm.Amount,
		})
		totalPaid = totalPaid.Add(pm.Amount)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].date.Before(entries[j].date)
	})

	lines := make([]infraprinting.StatementLine, 0, len(entries))
	balance := decimal.Zero
	for i, e := range entries {
		balance = balance.Add(e.charge).Sub(e.credit)
		lines = append(lines, infraprinting.StatementLine{
			Index:          i + 1,
			Date:           e.date,
			DocumentNumber: e.docNo,
			Description:    e.desc,
			Charge:         e.charge,
			Credit:         e.credit,
			Balance:        balance,

			DateFormatted:    e.date.Format("2006-01-02"),
			ChargeFormatted:  infraprinting.FormatMoneyValue(e.charge),
			CreditFormatted:  infraprinting.FormatMoneyValue(e.credit),
			BalanceFormatted: infraprinting.FormatMoneyValue(balance),
		})
	}

	periodStart := tenant.RentStartDate
	if len(lines) > 0 {
		periodStart = lines[0].Date
	}
	periodEnd := time.Now()
	outstanding := totalBilled.Sub(totalPaid)

	return infraprinting.TenantStatementData{
		TenantID:    tenant.ID,
		Tenant:      tenantInfo(tenant),
		Branch:      branchInfo(branch),
		Room:        roomInfo(room),
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Lines:       lines,
		TotalBilled: totalBilled,
		TotalPaid:   totalPaid,
		Outstanding: outstanding,
		LineCount:   len(lines),

		PeriodStartFormatted: periodStart.Format("January 2, 2006"),
		PeriodEndFormatted:   periodEnd.Format("January 2, 2006"),
		TotalBilledFormatted: infraprinting.FormatMoneyValue(totalBilled),
		TotalPaidFormatted:   infraprinting.FormatMoneyValue(totalPaid),
		OutstandingFormatted: infraprinting.FormatMoneyValue(outstanding),
		OutstandingInWords:   infraprinting.AmountToWords(outstanding),
	}
}

// FinalBillDataProvider assembles a move-out settlement statement
type FinalBillDataProvider struct {
	billRepo   ledger.BillRepository
	tenantRepo tenancy.TenantRepository
	roomRepo   property.RoomRepository
	branchRepo property.BranchRepository
}

// NewFinalBillDataProvider creates a new FinalBillDataProvider
func NewFinalBillDataProvider(
	billRepo ledger.BillRepository,
	tenantRepo tenancy.TenantRepository,
	roomRepo property.RoomRepository,
	branchRepo property.BranchRepository,
) *FinalBillDataProvider {
	return &FinalBillDataProvider{
		billRepo:   billRepo,
		tenantRepo: tenantRepo,
		roomRepo:   roomRepo,
		branchRepo: branchRepo,
	}
}

// GetDocType returns the document type this provider handles
func (p *FinalBillDataProvider) GetDocType() domainprinting.DocType {
	return domainprinting.DocTypeFinalBillStatement
}

// GetData loads a final bill and its settlement snapshot for rendering
func (p *FinalBillDataProvider) GetData(ctx context.Context, orgID, documentID uuid.UUID) (*infraprinting.DocumentData, error) {
	bill, err := p.billRepo.FindByIDForOrg(ctx, documentID, orgID)
	if err != nil {
		return nil, err
	}
	if !bill.IsFinalBill || bill.Settlement == nil {
		return nil, shared.NewDomainError("INVALID_STATE", "Bill is not a move-out settlement bill")
	}
	tenant, err := p.tenantRepo.FindByIDForOrg(ctx, orgID, bill.TenantID)
	if err != nil {
		return nil, err
	}
	room, err := p.roomRepo.FindByIDForOrg(ctx, orgID, bill.RoomID)
	if err != nil {
		return nil, err
	}
	branch, err := p.branchRepo.FindByIDForOrg(ctx, orgID, bill.BranchID)
	if err != nil {
		return nil, err
	}

	snap := bill.Settlement
	charges := settlementCharges(snap, bill.ExtraFeeLabel)

	statement := infraprinting.FinalBillStatementData{
		BillID:        bill.ID,
		BillNumber:    bill.BillNumber,
		Tenant:        tenantInfo(tenant),
		Branch:        branchInfo(branch),
		Room:          roomInfo(room),
		PeriodStart:   bill.PeriodStart,
		PeriodEnd:     bill.PeriodEnd,
		MoveOutDate:   snap.MoveOutDate,
		MoveOutReason: snap.MoveOutReason,

		Charges:             charges,
		TotalBeforeDeposits: snap.TotalBeforeDeposits,
		AdvancePayment:      snap.AdvancePayment,
		SecurityDeposit:     snap.SecurityDeposit,
		DepositAvailable:    snap.DepositAvailable,
		DepositApplied:      snap.DepositApplied,
		DepositForfeited:    snap.DepositForfeited,
		DepositRefund:       snap.DepositRefund,
		FinalTotal:          snap.FinalTotal,
		IsRoomTransfer:      snap.IsRoomTransfer,

		MoveOutDateFormatted:      snap.MoveOutDate.Format("January 2, 2006"),
		TotalBeforeDepFormatted:   infraprinting.FormatMoneyValue(snap.TotalBeforeDeposits),
		DepositAppliedFormatted:   infraprinting.FormatMoneyValue(snap.DepositApplied),
		DepositForfeitedFormatted: infraprinting.FormatMoneyValue(snap.DepositForfeited),
		DepositRefundFormatted:    infraprinting.FormatMoneyValue(snap.DepositRefund),
		FinalTotalFormatted:       infraprinting.FormatMoneyValue(snap.FinalTotal),
		FinalTotalInWords:         infraprinting.AmountToWords(snap.FinalTotal),

		SignatureAreas: []infraprinting.SignatureArea{
			{Label: "Settled by"},
			{Label: "Tenant conformity"},
		},
	}

	data := infraprinting.NewDocumentData(domainprinting.DocTypeFinalBillStatement, bill.BillNumber)
	data.Meta.Status = string(bill.Status)
	data.Meta.StatusText = statusLabel(string(bill.Status))
	data.Meta.CreatedAt = bill.CreatedAt
	data.Meta.UpdatedAt = bill.UpdatedAt
	data.Meta.Notes = bill.Notes
	data.Document = statement
	return data, nil
}

func settlementCharges(snap *ledger.SettlementSnapshot, extraFeeLabel string) []infraprinting.ChargeLine {
	type charge struct {
		desc   string
		amount decimal.Decimal
	}
	candidates := []charge{
		{"Prorated rent", snap.ProratedRent},
		{"Electricity", snap.ElectricityCharge},
		{"Water", snap.WaterCharge},
		{componentLabel(billing.ComponentExtraFee, extraFeeLabel), snap.ExtraFees},
		{"Unpaid prior bills", snap.OutstandingBills},
	}

	lines := make([]infraprinting.ChargeLine, 0, len(candidates))
	for _, c := range candidates {
		if c.amount.IsZero() {
			continue
		}
		lines = append(lines, infraprinting.ChargeLine{
			Index:           len(lines) + 1,
			Description:     c.desc,
			Amount:          c.amount,
			AmountFormatted: infraprinting.FormatMoneyValue(c.amount),
		})
	}
	return lines
}

func allocationLines(allocation billing.ComponentAmounts, extraFeeLabel string) []infraprinting.AllocationLine {
	lines := make([]infraprinting.AllocationLine, 0, len(allocation))
	for _, component := range billing.AllocationPriority() {
		amount, ok := allocation[component]
		if !ok || amount.IsZero() {
			continue
		}
		lines = append(lines, infraprinting.AllocationLine{
			Index:           len(lines) + 1,
			Component:       component.String(),
			Label:           componentLabel(component, extraFeeLabel),
			Amount:          amount,
			AmountFormatted: infraprinting.FormatMoneyValue(amount),
		})
	}
	return lines
}

func componentLabel(component billing.Component, extraFeeLabel string) string {
	switch component {
	case billing.ComponentRent:
		return "Rent"
	case billing.ComponentElectricity:
		return "Electricity"
	case billing.ComponentWater:
		return "Water"
	case billing.ComponentExtraFee:
		if extraFeeLabel != "" {
			return extraFeeLabel
		}
		return "Extra Fee"
	case billing.ComponentPenalty:
		return "Late Penalty"
	default:
		return component.String()
	}
}

func statusLabel(status string) string {
	s := strings.ReplaceAll(status, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func methodText(method ledger.PaymentMethod) string {
	switch method {
	case ledger.PaymentMethodCash:
		return "Cash"
	case ledger.PaymentMethodBankTransfer:
		return "Bank Transfer"
	case ledger.PaymentMethodGCash:
		return "GCash"
	case ledger.PaymentMethodDepositApplication:
		return "Deposit Application"
	case ledger.PaymentMethodOther:
		return "Other"
	default:
		return method.String()
	}
}

func tenantInfo(tenant *tenancy.Tenant) infraprinting.TenantInfo {
	return infraprinting.TenantInfo{
		ID:    tenant.ID,
		Name:  tenant.FullName(),
		Phone: tenant.Phone,
		Email: tenant.Email,
	}
}

func branchInfo(branch *property.Branch) infraprinting.BranchInfo {
	return infraprinting.BranchInfo{
		ID:      branch.ID,
		Code:    branch.Code,
		Name:    branch.Name,
		Address: branch.Address.FullAddress(),
		Phone:   branch.ContactPhone,
	}
}

func roomInfo(room *property.Room) infraprinting.RoomInfo {
	return infraprinting.RoomInfo{
		ID:          room.ID,
		Number:      room.Number,
		Floor:       fmt.Sprintf("%d", room.Floor),
		MonthlyRent: room.MonthlyRent,

		MonthlyRentFormatted: infraprinting.FormatMoneyValue(room.MonthlyRent),
	}
}
