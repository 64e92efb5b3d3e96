package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
)

// FinalBillInput is the snapshot of tenant state a move-out settlement is
// computed from. All monetary figures are non-negative; the caller gathers
// them from the tenant's bills, deposits and org settings before invoking
// the composer.
type FinalBillInput struct {
	MonthlyRent decimal.Decimal
	PeriodStart time.Time // start of the cycle containing the move-out
	PeriodEnd   time.Time
	MoveOutDate time.Time

	ElectricityCharge decimal.Decimal
	WaterCharge       decimal.Decimal
	ExtraFees         decimal.Decimal
	OutstandingBills  decimal.Decimal // unpaid balance carried from earlier bills

	AdvancePayment  decimal.Decimal
	SecurityDeposit decimal.Decimal
	FullyPaidCycles int
	IsRoomTransfer  bool
}

// FinalBillBreakdown itemizes a move-out settlement. FinalTotal nets the
// charges against every deposit peso the policy released: positive means the
// tenant still owes that amount, negative means the property owes the tenant
// a refund of that magnitude (it always equals Deposits.RefundAmount then).
// Callers render the breakdown into settlement statements, so every charge
// line is carried through rather than collapsed into the total.
type FinalBillBreakdown struct {
	ProratedRent      decimal.Decimal
	ElectricityCharge decimal.Decimal
	WaterCharge       decimal.Decimal
	ExtraFees         decimal.Decimal
	OutstandingBills  decimal.Decimal

	TotalBeforeDeposits decimal.Decimal
	Deposits            DepositApplication
	FinalTotal          decimal.Decimal
}

// IsRefund reports whether the settlement nets out in the tenant's favor.
func (b FinalBillBreakdown) IsRefund() bool {
	return b.FinalTotal.IsNegative()
}

// CalculateFinalBill composes a tenant's move-out settlement: prorated rent
// for the final cycle plus utility charges, extra fees and any balance
// carried from earlier bills, less whatever portion of the deposits the
// deposit policy makes available.
func CalculateFinalBill(input FinalBillInput) (FinalBillBreakdown, error) {
	for _, check := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"electricity charge", input.ElectricityCharge},
		{"water charge", input.WaterCharge},
		{"extra fees", input.ExtraFees},
		{"outstanding bills", input.OutstandingBills},
	} {
		if check.value.IsNegative() {
			return FinalBillBreakdown{}, shared.NewDomainError("INVALID_INPUT",
				fmt.Sprintf("Final bill %s cannot be negative, got %s", check.name, check.value))
		}
	}

	proratedRent, err := CalculateProratedRent(input.MonthlyRent, input.PeriodStart, input.PeriodEnd, input.MoveOutDate)
	if err != nil {
		return FinalBillBreakdown{}, err
	}

	totalBeforeDeposits := proratedRent.
		Add(input.ElectricityCharge).
		Add(input.WaterCharge).
		Add(input.ExtraFees).
		Add(input.OutstandingBills)

	deposits, err := CalculateDepositApplication(
		input.AdvancePayment, input.SecurityDeposit, totalBeforeDeposits,
		input.FullyPaidCycles, input.IsRoomTransfer)
	if err != nil {
		return FinalBillBreakdown{}, err
	}

	return FinalBillBreakdown{
		ProratedRent:        proratedRent,
		ElectricityCharge:   input.ElectricityCharge,
		WaterCharge:         input.WaterCharge,
		ExtraFees:           input.ExtraFees,
		OutstandingBills:    input.OutstandingBills,
		TotalBeforeDeposits: totalBeforeDeposits,
		Deposits:            deposits,
		FinalTotal:          totalBeforeDeposits.Sub(deposits.AvailableAmount),
	}, nil
}

// MoveOutDateWithin reports whether moveOut falls inside the cycle that a
// final bill is being composed for. Kept beside the composer so callers can
// pre-validate before gathering the rest of the snapshot.
func MoveOutDateWithin(periodStart, periodEnd, moveOut time.Time) bool {
	d := normalizeDate(moveOut)
	return !d.Before(normalizeDate(periodStart)) && !d.After(normalizeDate(periodEnd))
}
