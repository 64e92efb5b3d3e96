package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
)

// MinCyclesForSecurityRelease is the number of fully-paid billing cycles a
// tenant must complete before the security deposit becomes applicable and
// refundable at move-out. Room transfers release it regardless of tenure.
const MinCyclesForSecurityRelease = 5

// DepositApplication is the disposition of a tenant's deposits at move-out.
// ForfeitedAmount is always exactly zero or exactly the full security
// deposit; the policy never forfeits partially.
type DepositApplication struct {
	AvailableAmount decimal.Decimal // advance, plus security when released
	AppliedAmount   decimal.Decimal // portion of available used against the balance
	ForfeitedAmount decimal.Decimal // zero, or the whole security deposit
	RefundAmount    decimal.Decimal // available minus applied
}

// CalculateDepositApplication decides how a tenant's advance payment and
// security deposit settle an outstanding balance at move-out.
//
// The security deposit is released — made available against the balance,
// with any excess refunded — when the move-out is a room transfer or the
// tenant has completed MinCyclesForSecurityRelease fully-paid cycles.
// Otherwise only the advance payment is available and the security deposit
// is forfeited in full.
func CalculateDepositApplication(advancePayment, securityDeposit, outstanding decimal.Decimal, fullyPaidCycles int, isRoomTransfer bool) (DepositApplication, error) {
	if advancePayment.IsNegative() {
		return DepositApplication{}, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Advance payment cannot be negative, got %s", advancePayment))
	}
	if securityDeposit.IsNegative() {
		return DepositApplication{}, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Security deposit cannot be negative, got %s", securityDeposit))
	}
	if outstanding.IsNegative() {
		return DepositApplication{}, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Outstanding balance cannot be negative, got %s", outstanding))
	}
	if fullyPaidCycles < 0 {
		return DepositApplication{}, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Fully-paid cycle count cannot be negative, got %d", fullyPaidCycles))
	}

	securityReleased := isRoomTransfer || fullyPaidCycles >= MinCyclesForSecurityRelease

	available := advancePayment
	forfeited := securityDeposit
	if securityReleased {
		available = advancePayment.Add(securityDeposit)
		forfeited = decimal.Zero
	}

	applied := decimal.Min(available, outstanding)

	return DepositApplication{
		AvailableAmount: available,
		AppliedAmount:   applied,
		ForfeitedAmount: forfeited,
		RefundAmount:    available.Sub(applied),
	}, nil
}
