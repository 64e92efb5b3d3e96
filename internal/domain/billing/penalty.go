package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
)

// CalculatePenalty computes the late fee for a bill paid after its due date:
// totalAmount x penaltyPercent / 100, rounded to the nearest whole peso.
// Payments on or before the due date (compared as calendar dates) carry no
// penalty. The percentage always comes from org settings via the caller;
// there is no built-in default.
//
// Whether a bill may be penalized at all is the caller's decision: a bill
// that already carries a penalty is not penalized again.
func CalculatePenalty(totalAmount decimal.Decimal, paymentDate, dueDate time.Time, penaltyPercent decimal.Decimal) (decimal.Decimal, error) {
	if totalAmount.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Penalty base amount cannot be negative, got %s", totalAmount))
	}
	if penaltyPercent.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Penalty percentage cannot be negative, got %s", penaltyPercent))
	}

	if !normalizeDate(paymentDate).After(normalizeDate(dueDate)) {
		return decimal.Zero, nil
	}

	penalty := totalAmount.Mul(penaltyPercent).Div(decimal.NewFromInt(100))
	return penalty.Round(0), nil
}
