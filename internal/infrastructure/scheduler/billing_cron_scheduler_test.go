package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronSchedule(t *testing.T) {
	tests := []struct {
		name         string
		cronExpr     string
		expectedHour int
		expectedMin  int
	}{
		{
			name:         "Default 2am",
			cronExpr:     "0 2 * * *",
			expectedHour: 2,
			expectedMin:  0,
		},
		{
			name:         "3:30am",
			cronExpr:     "30 3 * * *",
			expectedHour: 3,
			expectedMin:  30,
		},
		{
			name:         "Midnight",
			cronExpr:     "0 0 * * *",
			expectedHour: 0,
			expectedMin:  0,
		},
		{
			name:         "11pm",
			cronExpr:     "0 23 * * *",
			expectedHour: 23,
			expectedMin:  0,
		},
		{
			name:         "Empty string defaults",
			cronExpr:     "",
			expectedHour: 2,
			expectedMin:  0,
		},
		{
			name:         "Extra whitespace",
			cronExpr:     "  15   4   *   *   *  ",
			expectedHour: 4,
			expectedMin:  15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, err := ParseCronSchedule(tt.cronExpr)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedHour, hour, "hour mismatch")
			assert.Equal(t, tt.expectedMin, minute, "minute mismatch")
		})
	}
}

func TestDefaultBillingCronSchedulerConfig(t *testing.T) {
	cfg := DefaultBillingCronSchedulerConfig()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, 2, cfg.CronHour)
	assert.Equal(t, 0, cfg.CronMinute)
	assert.Equal(t, 3, cfg.MaxConcurrentJobs)
	assert.Equal(t, 30*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, 5*time.Minute, cfg.RetryDelay)
}

func TestShouldRun(t *testing.T) {
	cfg := DefaultBillingCronSchedulerConfig()
	cfg.CronHour = 2
	cfg.CronMinute = 30

	// Create a minimal scheduler for testing shouldRun
	s := &BillingCronScheduler{
		config: cfg,
	}

	tests := []struct {
		name     string
		time     time.Time
		expected bool
	}{
		{
			name:     "Exact match",
			time:     time.Date(2026, 1, 15, 2, 30, 0, 0, time.UTC),
			expected: true,
		},
		{
			name:     "Wrong hour",
			time:     time.Date(2026, 1, 15, 3, 30, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "Wrong minute",
			time:     time.Date(2026, 1, 15, 2, 31, 0, 0, time.UTC),
			expected: false,
		},
		{
			name:     "Midnight vs 2:30",
			time:     time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.shouldRun(tt.time)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestCalculateNextRunTime(t *testing.T) {
	cfg := DefaultBillingCronSchedulerConfig()
	cfg.CronHour = 2
	cfg.CronMinute = 0

	s := &BillingCronScheduler{
		config: cfg,
	}

	t.Run("Schedules at configured hour and minute", func(t *testing.T) {
		s.calculateNextRunTime()
		assert.NotNil(t, s.nextRunAt)
		assert.Equal(t, cfg.CronHour, s.nextRunAt.Hour())
		assert.Equal(t, cfg.CronMinute, s.nextRunAt.Minute())
		assert.True(t, s.nextRunAt.After(time.Now().Add(-time.Minute)))
	})
}

func TestSchedulerJobRecord(t *testing.T) {
	record := SchedulerJobRecord{}
	assert.Equal(t, "billing_scheduler_jobs", record.TableName())
}

func TestBillingCronScheduler_GetStatus(t *testing.T) {
	cfg := DefaultBillingCronSchedulerConfig()
	s := &BillingCronScheduler{
		config:    cfg,
		isRunning: true,
	}

	status := s.GetStatus()

	assert.Equal(t, true, status["enabled"])
	assert.Equal(t, true, status["is_running"])
	assert.Equal(t, cfg.CronHour, status["cron_hour"])
	assert.Equal(t, cfg.CronMinute, status["cron_minute"])
	assert.Equal(t, "Daily", status["cron_schedule"])
	assert.Contains(t, status, "job_types")
}

func TestBillingCronScheduler_TriggerManualRun_NotRunning(t *testing.T) {
	cfg := DefaultBillingCronSchedulerConfig()
	s := &BillingCronScheduler{
		config:    cfg,
		isRunning: false,
	}

	err := s.TriggerManualRun(context.Background())
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestBillingCronScheduler_TriggerJob_NotRunning(t *testing.T) {
	cfg := DefaultBillingCronSchedulerConfig()
	s := &BillingCronScheduler{
		config:    cfg,
		isRunning: false,
	}

	err := s.TriggerJob(context.Background(), nil, JobTypeApplyPenalties, time.Now())
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestAllJobTypes(t *testing.T) {
	types := AllJobTypes()

	require.Len(t, types, 5)
	assert.Contains(t, types, JobTypeDailyBillingRun)
	assert.Contains(t, types, JobTypeGenerateDueBills)
	assert.Contains(t, types, JobTypeApplyPenalties)
	assert.Contains(t, types, JobTypeOverdueNotices)
	assert.Contains(t, types, JobTypeUpcomingDueReminders)

	for _, jt := range types {
		assert.True(t, jt.IsValid(), "%s should be valid", jt)
	}
	assert.False(t, JobType("NOPE").IsValid())
}
