package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaops/backend/internal/domain/shared"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestCalculateBillingPeriod(t *testing.T) {
	t.Run("first cycle starts on the anchor date", func(t *testing.T) {
		period, err := CalculateBillingPeriod(date(2025, time.January, 15), 1)

		require.NoError(t, err)
		assert.Equal(t, 1, period.CycleNumber)
		assert.Equal(t, date(2025, time.January, 15), period.Start)
		assert.Equal(t, date(2025, time.February, 14), period.End)
	})

	t.Run("preserves the anchor day across months", func(t *testing.T) {
		period, err := CalculateBillingPeriod(date(2025, time.January, 15), 3)

		require.NoError(t, err)
		assert.Equal(t, date(2025, time.March, 15), period.Start)
		assert.Equal(t, date(2025, time.April, 14), period.End)
	})

	t.Run("crosses year boundaries", func(t *testing.T) {
		period, err := CalculateBillingPeriod(date(2024, time.November, 5), 4)

		require.NoError(t, err)
		assert.Equal(t, date(2025, time.February, 5), period.Start)
		assert.Equal(t, date(2025, time.March, 4), period.End)
	})

	t.Run("clamps a day 31 anchor into short months", func(t *testing.T) {
		anchor := date(2025, time.January, 31)

		first, err := CalculateBillingPeriod(anchor, 1)
		require.NoError(t, err)
		assert.Equal(t, date(2025, time.January, 31), first.Start)
		assert.Equal(t, date(2025, time.February, 27), first.End)

		second, err := CalculateBillingPeriod(anchor, 2)
		require.NoError(t, err)
		assert.Equal(t, date(2025, time.February, 28), second.Start)
		assert.Equal(t, date(2025, time.March, 30), second.End)

		// The schedule returns to the anchor day once the month allows it.
		third, err := CalculateBillingPeriod(anchor, 3)
		require.NoError(t, err)
		assert.Equal(t, date(2025, time.March, 31), third.Start)
		assert.Equal(t, date(2025, time.April, 29), third.End)
	})

	t.Run("keeps day 29 in a leap year February", func(t *testing.T) {
		period, err := CalculateBillingPeriod(date(2024, time.January, 29), 2)

		require.NoError(t, err)
		assert.Equal(t, date(2024, time.February, 29), period.Start)
		assert.Equal(t, date(2024, time.March, 28), period.End)
	})

	t.Run("clamps day 29 in a non-leap February", func(t *testing.T) {
		period, err := CalculateBillingPeriod(date(2025, time.January, 29), 2)

		require.NoError(t, err)
		assert.Equal(t, date(2025, time.February, 28), period.Start)
		assert.Equal(t, date(2025, time.March, 28), period.End)
	})

	t.Run("ignores the anchor's time of day and zone", func(t *testing.T) {
		manila := BusinessLocation()
		anchor := time.Date(2025, time.January, 15, 23, 45, 12, 0, manila)

		period, err := CalculateBillingPeriod(anchor, 1)

		require.NoError(t, err)
		assert.Equal(t, date(2025, time.January, 15), period.Start)
		assert.Equal(t, date(2025, time.February, 14), period.End)
	})

	t.Run("fails when the cycle number is below 1", func(t *testing.T) {
		for _, n := range []int{0, -1, -100} {
			_, err := CalculateBillingPeriod(date(2025, time.January, 15), n)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "Cycle number must be at least 1")

			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, "INVALID_INPUT", domainErr.Code)
		}
	})
}

func TestBillingPeriodContiguity(t *testing.T) {
	anchors := []time.Time{
		date(2025, time.January, 1),
		date(2025, time.January, 15),
		date(2025, time.January, 28),
		date(2025, time.January, 29),
		date(2025, time.January, 30),
		date(2025, time.January, 31),
		date(2024, time.February, 29),
		date(2025, time.August, 31),
		date(2024, time.December, 31),
	}

	for _, anchor := range anchors {
		t.Run("anchor "+anchor.Format("2006-01-02"), func(t *testing.T) {
			for n := 1; n <= 36; n++ {
				current, err := CalculateBillingPeriod(anchor, n)
				require.NoError(t, err)
				next, err := CalculateBillingPeriod(anchor, n+1)
				require.NoError(t, err)

				assert.Equal(t, current.End.AddDate(0, 0, 1), next.Start,
					"cycle %d must end the day before cycle %d starts", n, n+1)
				assert.False(t, current.End.Before(current.Start),
					"cycle %d must not be inverted", n)
			}
		})
	}
}

func TestBillingPeriodHelpers(t *testing.T) {
	period, err := CalculateBillingPeriod(date(2025, time.March, 15), 1)
	require.NoError(t, err)

	t.Run("counts days inclusively", func(t *testing.T) {
		assert.Equal(t, 31, period.Days())

		february, err := CalculateBillingPeriod(date(2025, time.February, 1), 1)
		require.NoError(t, err)
		assert.Equal(t, 28, february.Days())
	})

	t.Run("contains both boundary dates", func(t *testing.T) {
		assert.True(t, period.Contains(date(2025, time.March, 15)))
		assert.True(t, period.Contains(date(2025, time.April, 14)))
		assert.True(t, period.Contains(date(2025, time.March, 31)))
		assert.False(t, period.Contains(date(2025, time.March, 14)))
		assert.False(t, period.Contains(date(2025, time.April, 15)))
	})

	t.Run("renders a readable range", func(t *testing.T) {
		assert.Equal(t, "cycle 1: 2025-03-15 to 2025-04-14", period.String())
	})
}

func TestCurrentBillingCycle(t *testing.T) {
	anchor := date(2025, time.January, 15)

	t.Run("returns the cycle containing the as-of date", func(t *testing.T) {
		period := CurrentBillingCycle(anchor, date(2025, time.March, 20))

		assert.Equal(t, 3, period.CycleNumber)
		assert.Equal(t, date(2025, time.March, 15), period.Start)
		assert.Equal(t, date(2025, time.April, 14), period.End)
	})

	t.Run("returns the first cycle on the anchor itself", func(t *testing.T) {
		period := CurrentBillingCycle(anchor, anchor)

		assert.Equal(t, 1, period.CycleNumber)
	})

	t.Run("assigns boundary days to the cycle that ends on them", func(t *testing.T) {
		assert.Equal(t, 1, CurrentBillingCycle(anchor, date(2025, time.February, 14)).CycleNumber)
		assert.Equal(t, 2, CurrentBillingCycle(anchor, date(2025, time.February, 15)).CycleNumber)
	})

	t.Run("scans across multiple years", func(t *testing.T) {
		period := CurrentBillingCycle(date(2022, time.January, 15), date(2025, time.January, 20))

		assert.Equal(t, 37, period.CycleNumber)
		assert.Equal(t, date(2025, time.January, 15), period.Start)
	})

	t.Run("resolves dates before the anchor to the first cycle", func(t *testing.T) {
		period := CurrentBillingCycle(anchor, date(2024, time.June, 1))

		assert.Equal(t, 1, period.CycleNumber)
	})
}

func TestCalculateDueDate(t *testing.T) {
	t.Run("falls ten calendar days after the period end", func(t *testing.T) {
		due := CalculateDueDate(date(2025, time.January, 31))

		rendered := due.In(BusinessLocation())
		assert.Equal(t, "2025-02-10", rendered.Format("2006-01-02"))
		assert.Equal(t, 0, rendered.Hour())
		assert.Equal(t, 0, rendered.Minute())
	})

	t.Run("crosses month and year ends", func(t *testing.T) {
		due := CalculateDueDate(date(2024, time.December, 25))

		assert.Equal(t, "2025-01-04", due.In(BusinessLocation()).Format("2006-01-02"))
	})

	t.Run("anchors the instant to the business timezone", func(t *testing.T) {
		due := CalculateDueDate(date(2025, time.June, 30))

		_, offset := due.Zone()
		assert.Equal(t, 8*60*60, offset)
	})

	t.Run("renders the expected calendar date for a full year of period ends", func(t *testing.T) {
		start := date(2024, time.January, 1)
		for i := 0; i < 400; i++ {
			periodEnd := start.AddDate(0, 0, i)
			due := CalculateDueDate(periodEnd)

			expected := periodEnd.AddDate(0, 0, DueDateGraceDays).Format("2006-01-02")
			assert.Equal(t, expected, due.In(BusinessLocation()).Format("2006-01-02"),
				"period end %s", periodEnd.Format("2006-01-02"))
		}
	})
}
