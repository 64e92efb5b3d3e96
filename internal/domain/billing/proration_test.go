package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateProratedRent(t *testing.T) {
	t.Run("full cycle move-out reproduces the monthly rent", func(t *testing.T) {
		rent, err := CalculateProratedRent(decimal.NewFromInt(3000),
			date(2025, time.January, 1), date(2025, time.January, 31), date(2025, time.January, 31))

		require.NoError(t, err)
		assert.Equal(t, "3000", rent.String())
	})

	t.Run("reproduces the rent for a short February cycle too", func(t *testing.T) {
		rent, err := CalculateProratedRent(decimal.NewFromInt(4500),
			date(2025, time.February, 1), date(2025, time.February, 28), date(2025, time.February, 28))

		require.NoError(t, err)
		assert.Equal(t, "4500", rent.String())
	})

	t.Run("charges the daily rate for each day occupied", func(t *testing.T) {
		// 3100 over 31 days is an even 100 per day.
		rent, err := CalculateProratedRent(decimal.NewFromInt(3100),
			date(2025, time.January, 1), date(2025, time.January, 31), date(2025, time.January, 10))

		require.NoError(t, err)
		assert.Equal(t, "1000", rent.String())
	})

	t.Run("counts the move-out day itself", func(t *testing.T) {
		rent, err := CalculateProratedRent(decimal.NewFromInt(2800),
			date(2025, time.February, 1), date(2025, time.February, 28), date(2025, time.February, 1))

		require.NoError(t, err)
		assert.Equal(t, "100", rent.String())
	})

	t.Run("rounds to the nearest whole peso", func(t *testing.T) {
		// 3000 / 31 * 20 = 1935.48...
		rent, err := CalculateProratedRent(decimal.NewFromInt(3000),
			date(2025, time.January, 1), date(2025, time.January, 31), date(2025, time.January, 20))

		require.NoError(t, err)
		assert.Equal(t, "1935", rent.String())
	})

	t.Run("prorates anchored cycles against their own length", func(t *testing.T) {
		period, err := CalculateBillingPeriod(date(2025, time.January, 15), 2)
		require.NoError(t, err)
		require.Equal(t, 28, period.Days())

		rent, err := CalculateProratedRent(decimal.NewFromInt(2800), period.Start, period.End,
			date(2025, time.February, 21))

		require.NoError(t, err)
		assert.Equal(t, "700", rent.String())
	})

	t.Run("fails when the move-out precedes the period", func(t *testing.T) {
		_, err := CalculateProratedRent(decimal.NewFromInt(3000),
			date(2025, time.January, 1), date(2025, time.January, 31), date(2024, time.December, 31))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside the billing period")
	})

	t.Run("fails when the move-out is past the period end", func(t *testing.T) {
		_, err := CalculateProratedRent(decimal.NewFromInt(3000),
			date(2025, time.January, 1), date(2025, time.January, 31), date(2025, time.February, 1))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside the billing period")
	})

	t.Run("fails on an inverted period", func(t *testing.T) {
		_, err := CalculateProratedRent(decimal.NewFromInt(3000),
			date(2025, time.January, 31), date(2025, time.January, 1), date(2025, time.January, 31))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "precedes period start")
	})

	t.Run("fails on negative rent", func(t *testing.T) {
		_, err := CalculateProratedRent(decimal.NewFromInt(-3000),
			date(2025, time.January, 1), date(2025, time.January, 31), date(2025, time.January, 10))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Monthly rent cannot be negative")
	})
}
