package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/shared"
)

// CalculateProratedRent computes the rent owed for a cycle a tenant vacates
// partway through. The daily rate is the monthly rent spread over the
// inclusive day count of the full period, and the tenant owes that rate for
// each day from the period start through the move-out date, rounded to the
// nearest whole peso. A move-out on the period's last day reproduces the
// full monthly rent.
//
// The move-out date must fall inside the period; callers resolve the cycle
// containing the move-out before asking for proration.
func CalculateProratedRent(monthlyRent decimal.Decimal, periodStart, periodEnd, moveOutDate time.Time) (decimal.Decimal, error) {
	if monthlyRent.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Monthly rent cannot be negative, got %s", monthlyRent))
	}

	start := normalizeDate(periodStart)
	end := normalizeDate(periodEnd)
	moveOut := normalizeDate(moveOutDate)

	if end.Before(start) {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Period end %s precedes period start %s",
				end.Format("2006-01-02"), start.Format("2006-01-02")))
	}
	if moveOut.Before(start) || moveOut.After(end) {
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Move-out date %s is outside the billing period %s to %s",
				moveOut.Format("2006-01-02"), start.Format("2006-01-02"), end.Format("2006-01-02")))
	}

	totalDays := inclusiveDays(start, end)
	daysOccupied := inclusiveDays(start, moveOut)

	dailyRate := monthlyRent.Div(decimal.NewFromInt(int64(totalDays)))
	return dailyRate.Mul(decimal.NewFromInt(int64(daysOccupied))).Round(0), nil
}
