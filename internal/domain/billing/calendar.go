package billing

import "time"

// businessTimezone is the fixed civil timezone all billing dates are
// interpreted in. Rent cycles, due dates and penalty cutoffs are calendar
// concepts for the operator, so instants must render back to the intended
// calendar date in this zone regardless of where the server runs.
const businessTimezone = "Asia/Manila"

var businessLocation = loadBusinessLocation()

func loadBusinessLocation() *time.Location {
	loc, err := time.LoadLocation(businessTimezone)
	if err != nil {
		// Philippine Standard Time is a fixed UTC+8 offset with no DST,
		// so a fixed zone is an exact substitute when tzdata is absent.
		return time.FixedZone("PST", 8*60*60)
	}
	return loc
}

// BusinessLocation returns the timezone billing calendar dates are anchored
// to. Callers use it to resolve "today" before asking for the current cycle.
func BusinessLocation() *time.Location {
	return businessLocation
}

// normalizeDate strips the time-of-day and zone from t, keeping only the
// calendar date t shows in its own location. All cycle arithmetic happens on
// these UTC-midnight values so month and day addition can never be skewed by
// offset transitions.
func normalizeDate(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// addCalendarMonths advances a normalized date by the given number of
// calendar months, preserving the day-of-month and clamping to the last day
// of months too short to hold it (Jan 31 + 1 month = Feb 28/29). This is
// deliberately not time.Time.AddDate, which normalizes overflow into the
// following month instead of clamping.
func addCalendarMonths(date time.Time, months int) time.Time {
	year, month, day := date.Date()

	total := int(month) - 1 + months
	year += total / 12
	month = time.Month(total%12 + 1)

	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// inclusiveDays counts calendar days from start through end, both ends
// included. Inputs are expected as normalized dates, so the UTC subtraction
// is an exact multiple of 24 hours.
func inclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
