package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaops/backend/internal/domain/billing"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

func php(amount int64) valueobject.Money {
	return valueobject.NewMoneyPHP(decimal.NewFromInt(amount))
}

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func testPeriod() billing.BillingPeriod {
	return billing.BillingPeriod{
		CycleNumber: 3,
		Start:       date(2025, time.March, 15),
		End:         date(2025, time.April, 14),
	}
}

// newTestBill returns a bill with rent 3000, electricity 450, water 200 and
// a 150 parking fee, due 2025-04-24.
func newTestBill(t *testing.T) *Bill {
	t.Helper()
	period := testPeriod()
	bill, err := NewBill(uuid.New(), uuid.New(), uuid.New(), uuid.New(), "BILL-20250415-00001",
		period, billing.CalculateDueDate(period.End), php(3000), php(450), php(200), php(150), "Parking")
	require.NoError(t, err)
	bill.ClearDomainEvents()
	return bill
}

func TestNewBill(t *testing.T) {
	orgID := uuid.New()
	tenantID := uuid.New()
	roomID := uuid.New()
	branchID := uuid.New()
	period := testPeriod()
	dueDate := billing.CalculateDueDate(period.End)

	t.Run("creates active bill with component totals", func(t *testing.T) {
		bill, err := NewBill(orgID, tenantID, roomID, branchID, "BILL-20250415-00001",
			period, dueDate, php(3000), php(450), php(200), php(150), "Parking")

		require.NoError(t, err)
		assert.Equal(t, orgID, bill.OrgID)
		assert.Equal(t, tenantID, bill.TenantID)
		assert.Equal(t, 3, bill.CycleNumber)
		assert.Equal(t, period.Start, bill.PeriodStart)
		assert.Equal(t, period.End, bill.PeriodEnd)
		assert.Equal(t, "3800", bill.TotalAmount.String())
		assert.Equal(t, "0", bill.PaidAmount.String())
		assert.Equal(t, "0", bill.PenaltyAmount.String())
		assert.Equal(t, "Parking", bill.ExtraFeeLabel)
		assert.Equal(t, BillStatusActive, bill.Status)
		assert.False(t, bill.IsFinalBill)
		assert.Nil(t, bill.Settlement)

		events := bill.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeBillGenerated, events[0].EventType())
	})

	t.Run("fails with empty bill number", func(t *testing.T) {
		bill, err := NewBill(orgID, tenantID, roomID, branchID, "",
			period, dueDate, php(3000), php(0), php(0), php(0), "")

		assert.Error(t, err)
		assert.Nil(t, bill)
		assert.Contains(t, err.Error(), "Bill number cannot be empty")
	})

	t.Run("fails with nil tenant", func(t *testing.T) {
		bill, err := NewBill(orgID, uuid.Nil, roomID, branchID, "BILL-20250415-00002",
			period, dueDate, php(3000), php(0), php(0), php(0), "")

		assert.Error(t, err)
		assert.Nil(t, bill)
		assert.Contains(t, err.Error(), "Tenant ID cannot be empty")
	})

	t.Run("fails with invalid cycle number", func(t *testing.T) {
		badPeriod := billing.BillingPeriod{CycleNumber: 0, Start: period.Start, End: period.End}
		bill, err := NewBill(orgID, tenantID, roomID, branchID, "BILL-20250415-00003",
			badPeriod, dueDate, php(3000), php(0), php(0), php(0), "")

		assert.Error(t, err)
		assert.Nil(t, bill)
		assert.Contains(t, err.Error(), "cycle number must be at least 1")
	})

	t.Run("fails with negative charge", func(t *testing.T) {
		bill, err := NewBill(orgID, tenantID, roomID, branchID, "BILL-20250415-00004",
			period, dueDate, php(3000), php(-450), php(0), php(0), "")

		assert.Error(t, err)
		assert.Nil(t, bill)
		assert.Contains(t, err.Error(), "cannot be negative")
	})

	t.Run("fails with zero due date", func(t *testing.T) {
		bill, err := NewBill(orgID, tenantID, roomID, branchID, "BILL-20250415-00005",
			period, time.Time{}, php(3000), php(0), php(0), php(0), "")

		assert.Error(t, err)
		assert.Nil(t, bill)
		assert.Contains(t, err.Error(), "Due date is required")
	})
}

func TestBillOutstanding(t *testing.T) {
	t.Run("reports full balance on a fresh bill", func(t *testing.T) {
		bill := newTestBill(t)

		assert.Equal(t, "3800", bill.OutstandingAmount().String())

		components := bill.OutstandingComponents()
		assert.Equal(t, "3000", components.Get(billing.ComponentRent).String())
		assert.Equal(t, "450", components.Get(billing.ComponentElectricity).String())
		assert.Equal(t, "200", components.Get(billing.ComponentWater).String())
		assert.Equal(t, "150", components.Get(billing.ComponentExtraFee).String())
		assert.Equal(t, "0", components.Get(billing.ComponentPenalty).String())
	})

	t.Run("shrinks per component as payments land", func(t *testing.T) {
		bill := newTestBill(t)
		require.NoError(t, bill.ApplyPayment(billing.ComponentAmounts{
			billing.ComponentExtraFee:    dec("150"),
			billing.ComponentElectricity: dec("350"),
		}))

		components := bill.OutstandingComponents()
		assert.Equal(t, "0", components.Get(billing.ComponentExtraFee).String())
		assert.Equal(t, "100", components.Get(billing.ComponentElectricity).String())
		assert.Equal(t, "3000", components.Get(billing.ComponentRent).String())
		assert.Equal(t, "3300", bill.OutstandingAmount().String())
	})
}

func TestBillApplyPenalty(t *testing.T) {
	t.Run("applies penalty and grows the total", func(t *testing.T) {
		bill := newTestBill(t)
		version := bill.Version

		err := bill.ApplyPenalty(php(190))

		require.NoError(t, err)
		assert.Equal(t, "190", bill.PenaltyAmount.String())
		assert.Equal(t, "3990", bill.TotalAmount.String())
		assert.True(t, bill.HasPenalty())
		assert.Equal(t, version+1, bill.Version)

		events := bill.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeBillPenaltyApplied, events[0].EventType())
	})

	t.Run("rejects a second penalty", func(t *testing.T) {
		bill := newTestBill(t)
		require.NoError(t, bill.ApplyPenalty(php(190)))

		err := bill.ApplyPenalty(php(190))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "already carries a penalty")
	})

	t.Run("rejects non-positive penalty", func(t *testing.T) {
		bill := newTestBill(t)

		err := bill.ApplyPenalty(php(0))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Penalty must be positive")
	})

	t.Run("rejects penalty on a fully paid bill", func(t *testing.T) {
		bill := newTestBill(t)
		allocation, err := billing.AllocatePayment(bill.OutstandingComponents(), bill.OutstandingAmount())
		require.NoError(t, err)
		require.NoError(t, bill.ApplyPayment(allocation))
		require.True(t, bill.IsFullyPaid())

		err = bill.ApplyPenalty(php(190))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "fully paid")
	})

	t.Run("rejects penalty on a final bill", func(t *testing.T) {
		bill := newTestFinalBill(t)

		err := bill.ApplyPenalty(php(100))

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Final bills do not accrue penalties")
	})
}

func TestBillApplyPayment(t *testing.T) {
	t.Run("applies a priority allocation and becomes partially paid", func(t *testing.T) {
		bill := newTestBill(t)

		allocation, err := billing.AllocatePayment(bill.OutstandingComponents(), dec("500"))
		require.NoError(t, err)
		require.NoError(t, bill.ApplyPayment(allocation))

		// 500 lands on extra fee first, then electricity.
		assert.Equal(t, "150", bill.ExtraFeePaid.String())
		assert.Equal(t, "350", bill.ElectricityPaid.String())
		assert.Equal(t, "0", bill.RentPaid.String())
		assert.Equal(t, "500", bill.PaidAmount.String())
		assert.Equal(t, BillStatusPartiallyPaid, bill.Status)
	})

	t.Run("transitions to fully paid and raises the event", func(t *testing.T) {
		bill := newTestBill(t)

		allocation, err := billing.AllocatePayment(bill.OutstandingComponents(), bill.OutstandingAmount())
		require.NoError(t, err)
		require.NoError(t, bill.ApplyPayment(allocation))

		assert.True(t, bill.IsFullyPaid())
		assert.Equal(t, "0", bill.OutstandingAmount().String())

		events := bill.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeBillPaymentApplied, events[0].EventType())
		assert.Equal(t, EventTypeBillFullyPaid, events[1].EventType())
	})

	t.Run("accumulates across multiple payments", func(t *testing.T) {
		bill := newTestBill(t)

		first, err := billing.AllocatePayment(bill.OutstandingComponents(), dec("600"))
		require.NoError(t, err)
		require.NoError(t, bill.ApplyPayment(first))

		second, err := billing.AllocatePayment(bill.OutstandingComponents(), dec("3200"))
		require.NoError(t, err)
		require.NoError(t, bill.ApplyPayment(second))

		assert.Equal(t, "3800", bill.PaidAmount.String())
		assert.True(t, bill.IsFullyPaid())
	})

	t.Run("rejects allocation exceeding a component bucket", func(t *testing.T) {
		bill := newTestBill(t)

		err := bill.ApplyPayment(billing.ComponentAmounts{
			billing.ComponentRent: dec("3500"),
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds its outstanding amount")
		assert.Equal(t, "0", bill.PaidAmount.String())
	})

	t.Run("rejects unknown component", func(t *testing.T) {
		bill := newTestBill(t)

		err := bill.ApplyPayment(billing.ComponentAmounts{
			billing.Component("cable"): dec("10"),
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Unknown bill component")
	})

	t.Run("rejects negative allocation", func(t *testing.T) {
		bill := newTestBill(t)

		err := bill.ApplyPayment(billing.ComponentAmounts{
			billing.ComponentRent: dec("-100"),
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be negative")
	})
}

func TestBillRevertPayment(t *testing.T) {
	t.Run("restores balances and status", func(t *testing.T) {
		bill := newTestBill(t)
		allocation, err := billing.AllocatePayment(bill.OutstandingComponents(), dec("500"))
		require.NoError(t, err)
		require.NoError(t, bill.ApplyPayment(allocation))

		require.NoError(t, bill.RevertPayment(allocation))

		assert.Equal(t, "0", bill.PaidAmount.String())
		assert.Equal(t, "0", bill.ExtraFeePaid.String())
		assert.Equal(t, "0", bill.ElectricityPaid.String())
		assert.Equal(t, BillStatusActive, bill.Status)
		assert.Equal(t, "3800", bill.OutstandingAmount().String())
	})

	t.Run("drops back to partially paid when other payments remain", func(t *testing.T) {
		bill := newTestBill(t)
		first, err := billing.AllocatePayment(bill.OutstandingComponents(), dec("500"))
		require.NoError(t, err)
		require.NoError(t, bill.ApplyPayment(first))
		second, err := billing.AllocatePayment(bill.OutstandingComponents(), bill.OutstandingAmount())
		require.NoError(t, err)
		require.NoError(t, bill.ApplyPayment(second))
		require.True(t, bill.IsFullyPaid())

		require.NoError(t, bill.RevertPayment(second))

		assert.Equal(t, BillStatusPartiallyPaid, bill.Status)
		assert.Equal(t, "500", bill.PaidAmount.String())
	})

	t.Run("rejects reverting more than was paid", func(t *testing.T) {
		bill := newTestBill(t)
		allocation, err := billing.AllocatePayment(bill.OutstandingComponents(), dec("500"))
		require.NoError(t, err)
		require.NoError(t, bill.ApplyPayment(allocation))

		err = bill.RevertPayment(billing.ComponentAmounts{
			billing.ComponentElectricity: dec("400"),
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "only 350 was paid")
	})
}

func TestBillIsOverdue(t *testing.T) {
	bill := newTestBill(t)
	loc := billing.BusinessLocation()
	// Due 2025-04-24 00:00 in the business timezone.

	t.Run("false before the due date", func(t *testing.T) {
		assert.False(t, bill.IsOverdue(time.Date(2025, time.April, 20, 12, 0, 0, 0, loc)))
	})

	t.Run("false on the due date itself", func(t *testing.T) {
		assert.False(t, bill.IsOverdue(time.Date(2025, time.April, 24, 23, 59, 0, 0, loc)))
	})

	t.Run("true the day after", func(t *testing.T) {
		assert.True(t, bill.IsOverdue(time.Date(2025, time.April, 25, 0, 30, 0, 0, loc)))
	})

	t.Run("compares calendar days in the business timezone", func(t *testing.T) {
		// 2025-04-24 17:00 UTC is already 2025-04-25 01:00 in Manila.
		assert.True(t, bill.IsOverdue(time.Date(2025, time.April, 24, 17, 0, 0, 0, time.UTC)))
	})

	t.Run("false once fully paid", func(t *testing.T) {
		paid := newTestBill(t)
		allocation, err := billing.AllocatePayment(paid.OutstandingComponents(), paid.OutstandingAmount())
		require.NoError(t, err)
		require.NoError(t, paid.ApplyPayment(allocation))

		assert.False(t, paid.IsOverdue(time.Date(2025, time.May, 10, 0, 0, 0, 0, loc)))
	})
}

// newTestFinalBill builds a final bill from a move-out on 2025-03-24: ten
// days of a 3100 rent (prorated 1000), 200 electricity, 100 water, with 700
// still owed on earlier bills and a fully released 1500+1500 deposit.
func newTestFinalBill(t *testing.T) *Bill {
	t.Helper()
	input := billing.FinalBillInput{
		MonthlyRent:       dec("3100"),
		PeriodStart:       date(2025, time.March, 15),
		PeriodEnd:         date(2025, time.April, 14),
		MoveOutDate:       date(2025, time.March, 24),
		ElectricityCharge: dec("200"),
		WaterCharge:       dec("100"),
		ExtraFees:         dec("0"),
		OutstandingBills:  dec("700"),
		AdvancePayment:    dec("1500"),
		SecurityDeposit:   dec("1500"),
		FullyPaidCycles:   5,
		IsRoomTransfer:    false,
	}
	breakdown, err := billing.CalculateFinalBill(input)
	require.NoError(t, err)

	period := testPeriod()
	snapshot := NewSettlementSnapshot(input, breakdown, "vacate")
	bill, err := NewFinalBill(uuid.New(), uuid.New(), uuid.New(), uuid.New(), "BILL-20250324-00009",
		period, billing.CalculateDueDate(period.End), snapshot)
	require.NoError(t, err)
	bill.ClearDomainEvents()
	return bill
}

func TestNewFinalBill(t *testing.T) {
	t.Run("carries only the final cycle's own charges", func(t *testing.T) {
		bill := newTestFinalBill(t)

		assert.True(t, bill.IsFinalBill)
		assert.Equal(t, "1000", bill.RentAmount.String())
		assert.Equal(t, "200", bill.ElectricityAmount.String())
		assert.Equal(t, "100", bill.WaterAmount.String())
		// 700 owed on earlier bills stays on those bills.
		assert.Equal(t, "1300", bill.TotalAmount.String())
	})

	t.Run("keeps the settlement snapshot for statements", func(t *testing.T) {
		bill := newTestFinalBill(t)

		require.NotNil(t, bill.Settlement)
		assert.Equal(t, "2000", bill.Settlement.TotalBeforeDeposits.String())
		assert.Equal(t, "3000", bill.Settlement.DepositAvailable.String())
		assert.Equal(t, "2000", bill.Settlement.DepositApplied.String())
		assert.Equal(t, "0", bill.Settlement.DepositForfeited.String())
		assert.Equal(t, "1000", bill.Settlement.DepositRefund.String())
		assert.Equal(t, "-1000", bill.Settlement.FinalTotal.String())
		assert.Equal(t, "vacate", bill.Settlement.MoveOutReason)
	})

	t.Run("zero charge final bill starts fully paid", func(t *testing.T) {
		input := billing.FinalBillInput{
			MonthlyRent:     dec("0"),
			PeriodStart:     date(2025, time.March, 15),
			PeriodEnd:       date(2025, time.April, 14),
			MoveOutDate:     date(2025, time.March, 15),
			AdvancePayment:  dec("0"),
			SecurityDeposit: dec("0"),
			FullyPaidCycles: 1,
		}
		breakdown, err := billing.CalculateFinalBill(input)
		require.NoError(t, err)

		period := testPeriod()
		bill, err := NewFinalBill(uuid.New(), uuid.New(), uuid.New(), uuid.New(), "BILL-20250315-00010",
			period, billing.CalculateDueDate(period.End), NewSettlementSnapshot(input, breakdown, "vacate"))

		require.NoError(t, err)
		assert.True(t, bill.IsFullyPaid())
		assert.Equal(t, "0", bill.TotalAmount.String())
	})
}
