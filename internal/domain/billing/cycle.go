package billing

import (
	"fmt"
	"time"

	"github.com/casaops/backend/internal/domain/shared"
)

// DueDateGraceDays is the number of calendar days after a period ends before
// its bill falls due.
const DueDateGraceDays = 10

// BillingPeriod is one cycle of a tenant's rent schedule. Start and End are
// normalized calendar dates (UTC midnight); the period covers both endpoints
// inclusively.
type BillingPeriod struct {
	CycleNumber int
	Start       time.Time
	End         time.Time
}

// Days returns the inclusive number of calendar days the period covers.
func (p BillingPeriod) Days() int {
	return inclusiveDays(p.Start, p.End)
}

// Contains reports whether the calendar date of t falls inside the period.
func (p BillingPeriod) Contains(t time.Time) bool {
	d := normalizeDate(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// String renders the period as "cycle 3: 2025-03-15 to 2025-04-14".
func (p BillingPeriod) String() string {
	return fmt.Sprintf("cycle %d: %s to %s",
		p.CycleNumber, p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// CalculateBillingPeriod derives the Nth billing cycle from a tenant's rent
// start anchor. The cycle starts on the anchor advanced by cycleNumber-1
// calendar months, preserving the anchor's day-of-month and clamping it into
// short months, and ends the day before the next cycle starts. Deriving both
// boundaries from the anchor keeps consecutive cycles contiguous even when a
// day-29/30/31 anchor passes through February: the schedule resumes on the
// anchor day as soon as a month is long enough to hold it.
func CalculateBillingPeriod(anchor time.Time, cycleNumber int) (BillingPeriod, error) {
	if cycleNumber < 1 {
		return BillingPeriod{}, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Cycle number must be at least 1, got %d", cycleNumber))
	}

	base := normalizeDate(anchor)
	start := addCalendarMonths(base, cycleNumber-1)
	end := addCalendarMonths(base, cycleNumber).AddDate(0, 0, -1)

	return BillingPeriod{
		CycleNumber: cycleNumber,
		Start:       start,
		End:         end,
	}, nil
}

// CurrentBillingCycle scans forward from cycle 1 and returns the first cycle
// whose end date is on or after asOf. Dates before the anchor resolve to
// cycle 1; callers never bill a tenant before move-in, so earlier dates do
// not occur in practice.
func CurrentBillingCycle(anchor time.Time, asOf time.Time) BillingPeriod {
	at := normalizeDate(asOf)
	for n := 1; ; n++ {
		period, _ := CalculateBillingPeriod(anchor, n)
		if !at.After(period.End) {
			return period
		}
	}
}

// CalculateDueDate returns the instant a bill for the given period end falls
// due: the period end plus DueDateGraceDays calendar days, at midnight in the
// business timezone. Working on the calendar date and materializing in a
// fixed zone keeps the rendered due date stable no matter what zone the
// server or database session runs in.
func CalculateDueDate(periodEnd time.Time) time.Time {
	due := normalizeDate(periodEnd).AddDate(0, 0, DueDateGraceDays)
	year, month, day := due.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, businessLocation)
}
