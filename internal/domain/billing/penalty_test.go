package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePenalty(t *testing.T) {
	dueDate := date(2025, time.February, 10)
	fivePercent := decimal.NewFromInt(5)

	t.Run("charges nothing on or before the due date", func(t *testing.T) {
		total := decimal.NewFromInt(1000)

		onTime, err := CalculatePenalty(total, dueDate, dueDate, fivePercent)
		require.NoError(t, err)
		assert.True(t, onTime.IsZero())

		early, err := CalculatePenalty(total, dueDate.AddDate(0, 0, -3), dueDate, fivePercent)
		require.NoError(t, err)
		assert.True(t, early.IsZero())
	})

	t.Run("charges the configured percentage the day after", func(t *testing.T) {
		penalty, err := CalculatePenalty(decimal.NewFromInt(1000), dueDate.AddDate(0, 0, 1), dueDate, fivePercent)

		require.NoError(t, err)
		assert.Equal(t, "50", penalty.String())
	})

	t.Run("charges the same regardless of how late", func(t *testing.T) {
		penalty, err := CalculatePenalty(decimal.NewFromInt(1000), dueDate.AddDate(0, 3, 0), dueDate, fivePercent)

		require.NoError(t, err)
		assert.Equal(t, "50", penalty.String())
	})

	t.Run("rounds to the nearest whole peso", func(t *testing.T) {
		late := dueDate.AddDate(0, 0, 5)

		cases := []struct {
			total    string
			percent  string
			expected string
		}{
			{"1500.50", "3.5", "53"}, // 52.5175
			{"999", "0.1", "1"},      // 0.999
			{"1000", "0.04", "0"},    // 0.4
			{"1000", "4.25", "43"},   // 42.5, half rounds away from zero
			{"3500.75", "5", "175"},  // 175.0375
			{"12000", "2.5", "300"},  // exact
		}
		for _, tc := range cases {
			total := decimal.RequireFromString(tc.total)
			percent := decimal.RequireFromString(tc.percent)

			penalty, err := CalculatePenalty(total, late, dueDate, percent)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, penalty.String(), "%s at %s%%", tc.total, tc.percent)
		}
	})

	t.Run("compares calendar dates, not instants", func(t *testing.T) {
		manila := BusinessLocation()
		due := time.Date(2025, time.February, 10, 0, 0, 0, 0, manila)

		// Paid late in the evening of the due date itself: still on time.
		sameDay := time.Date(2025, time.February, 10, 23, 30, 0, 0, manila)
		penalty, err := CalculatePenalty(decimal.NewFromInt(1000), sameDay, due, fivePercent)
		require.NoError(t, err)
		assert.True(t, penalty.IsZero())

		// One minute past midnight the next day: late.
		nextDay := time.Date(2025, time.February, 11, 0, 1, 0, 0, manila)
		penalty, err = CalculatePenalty(decimal.NewFromInt(1000), nextDay, due, fivePercent)
		require.NoError(t, err)
		assert.Equal(t, "50", penalty.String())
	})

	t.Run("zero percentage yields zero even when late", func(t *testing.T) {
		penalty, err := CalculatePenalty(decimal.NewFromInt(1000), dueDate.AddDate(0, 0, 30), dueDate, decimal.Zero)

		require.NoError(t, err)
		assert.True(t, penalty.IsZero())
	})

	t.Run("fails on a negative percentage", func(t *testing.T) {
		_, err := CalculatePenalty(decimal.NewFromInt(1000), dueDate.AddDate(0, 0, 1), dueDate, decimal.NewFromInt(-5))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Penalty percentage cannot be negative")
	})

	t.Run("fails on a negative base amount", func(t *testing.T) {
		_, err := CalculatePenalty(decimal.NewFromInt(-100), dueDate.AddDate(0, 0, 1), dueDate, fivePercent)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Penalty base amount cannot be negative")
	})

	t.Run("is deterministic for identical inputs", func(t *testing.T) {
		paymentDate := dueDate.AddDate(0, 0, 2)
		total := decimal.RequireFromString("2750.25")

		first, err := CalculatePenalty(total, paymentDate, dueDate, fivePercent)
		require.NoError(t, err)
		second, err := CalculatePenalty(total, paymentDate, dueDate, fivePercent)
		require.NoError(t, err)

		assert.True(t, first.Equal(second))
	})
}
