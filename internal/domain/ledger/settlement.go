package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/shared/strategy"
)

// SweepSlice is one planned application of funds to a single bill, already
// split across the bill's charge buckets in settlement priority order.
type SweepSlice struct {
	Bill       *Bill
	Amount     decimal.Decimal
	Allocation billing.ComponentAmounts
}

// SweepPlan describes how an amount settles across a set of bills. Nothing
// is mutated while planning; the caller applies the slices and persists the
// results in one transaction.
type SweepPlan struct {
	Slices             []SweepSlice
	TotalApplied       decimal.Decimal
	RemainingAmount    decimal.Decimal
	BillsFullyPaid     []uuid.UUID
	BillsPartiallyPaid []uuid.UUID
}

// FIFOBillSweep plans payments across bills oldest-first, by due date and
// then creation date, so the longest-overdue balances clear before newer
// ones receive anything.
type FIFOBillSweep struct {
	strategy.BaseStrategy
}

// NewFIFOBillSweep creates a new FIFO bill sweep strategy
func NewFIFOBillSweep() *FIFOBillSweep {
	return &FIFOBillSweep{
		BaseStrategy: strategy.NewBaseStrategy(
			"fifo_bill_sweep",
			strategy.StrategyTypeAllocation,
			"Applies funds to the oldest outstanding bills first by due date, then creation date",
		),
	}
}

// Plan allocates the amount across the given bills in FIFO order. Fully
// paid bills are skipped; each slice's component split comes from the
// payment allocation engine.
func (s *FIFOBillSweep) Plan(amount decimal.Decimal, bills []*Bill) (*SweepPlan, error) {
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Sweep amount cannot be negative")
	}

	ordered := make([]*Bill, len(bills))
	copy(ordered, bills)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].DueDate.Equal(ordered[j].DueDate) {
			return ordered[i].DueDate.Before(ordered[j].DueDate)
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	plan := &SweepPlan{
		Slices:             make([]SweepSlice, 0, len(ordered)),
		TotalApplied:       decimal.Zero,
		RemainingAmount:    amount,
		BillsFullyPaid:     make([]uuid.UUID, 0),
		BillsPartiallyPaid: make([]uuid.UUID, 0),
	}

	for _, bill := range ordered {
		if plan.RemainingAmount.IsZero() {
			break
		}
		outstanding := bill.OutstandingAmount()
		if !outstanding.IsPositive() {
			continue
		}

		slice := decimal.Min(plan.RemainingAmount, outstanding)
		allocation, err := billing.AllocatePayment(bill.OutstandingComponents(), slice)
		if err != nil {
			return nil, err
		}

		plan.Slices = append(plan.Slices, SweepSlice{
			Bill:       bill,
			Amount:     slice,
			Allocation: allocation,
		})
		plan.TotalApplied = plan.TotalApplied.Add(slice)
		plan.RemainingAmount = plan.RemainingAmount.Sub(slice)

		if slice.GreaterThanOrEqual(outstanding) {
			plan.BillsFullyPaid = append(plan.BillsFullyPaid, bill.ID)
		} else {
			plan.BillsPartiallyPaid = append(plan.BillsPartiallyPaid, bill.ID)
		}
	}

	return plan, nil
}

// SettlementCharges carries the operator-entered charges for a tenant's
// final cycle.
type SettlementCharges struct {
	Electricity   decimal.Decimal
	Water         decimal.Decimal
	ExtraFees     decimal.Decimal
	ExtraFeeLabel string
}

// SettlementRequest is everything the move-out settlement needs: the final
// cycle being priced, the tenant's open bills, and the deposits held.
type SettlementRequest struct {
	MonthlyRent     decimal.Decimal
	Period          billing.BillingPeriod
	MoveOutDate     time.Time
	Charges         SettlementCharges
	OpenBills       []*Bill
	AdvancePayment  decimal.Decimal
	SecurityDeposit decimal.Decimal
	FullyPaidCycles int
	IsRoomTransfer  bool
}

// SettlementService prices a tenant's move-out and plans how the released
// deposit settles their ledger. It holds no state and touches no storage;
// the application layer gathers inputs and persists outcomes.
type SettlementService struct {
	sweep *FIFOBillSweep
}

// NewSettlementService creates a new settlement service
func NewSettlementService() *SettlementService {
	return &SettlementService{
		sweep: NewFIFOBillSweep(),
	}
}

// Calculate runs the final bill calculation for the request. Outstanding
// balances are summed from the open bills, so callers preview and commit
// from the same arithmetic.
func (s *SettlementService) Calculate(req SettlementRequest) (billing.FinalBillBreakdown, error) {
	outstanding := decimal.Zero
	for _, bill := range req.OpenBills {
		if bill.IsFullyPaid() {
			continue
		}
		outstanding = outstanding.Add(bill.OutstandingAmount())
	}

	return billing.CalculateFinalBill(billing.FinalBillInput{
		MonthlyRent:       req.MonthlyRent,
		PeriodStart:       req.Period.Start,
		PeriodEnd:         req.Period.End,
		MoveOutDate:       req.MoveOutDate,
		ElectricityCharge: req.Charges.Electricity,
		WaterCharge:       req.Charges.Water,
		ExtraFees:         req.Charges.ExtraFees,
		OutstandingBills:  outstanding,
		AdvancePayment:    req.AdvancePayment,
		SecurityDeposit:   req.SecurityDeposit,
		FullyPaidCycles:   req.FullyPaidCycles,
		IsRoomTransfer:    req.IsRoomTransfer,
	})
}

// PlanDepositApplication plans how the available deposit sweeps the
// tenant's ledger: open bills oldest-first, the final bill last. The plan's
// TotalApplied always equals the engine's AppliedAmount for the same
// inputs, because both cap at the total outstanding.
func (s *SettlementService) PlanDepositApplication(openBills []*Bill, finalBill *Bill, availableAmount decimal.Decimal) (*SweepPlan, error) {
	if finalBill == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Final bill is required to plan a deposit application")
	}

	// The final bill's due date trails every open bill's, so the sweep's
	// FIFO ordering reaches it last without special casing.
	bills := make([]*Bill, 0, len(openBills)+1)
	for _, bill := range openBills {
		if bill.ID == finalBill.ID {
			continue
		}
		bills = append(bills, bill)
	}
	bills = append(bills, finalBill)

	return s.sweep.Plan(availableAmount, bills)
}

// PlanBulkPayment plans how a lump-sum payment settles a tenant's open
// bills oldest-first. Used when an operator records one amount against a
// tenant rather than a specific bill.
func (s *SettlementService) PlanBulkPayment(openBills []*Bill, amount decimal.Decimal) (*SweepPlan, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	return s.sweep.Plan(amount, openBills)
}
