package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrgProvider provides the organizations to schedule per-org jobs for
type OrgProvider interface {
	GetAllActiveOrgIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CronTriggerConfig holds configuration for the reminder cron trigger
type CronTriggerConfig struct {
	// DailyReminderHour/Minute is when to queue upcoming-due reminders
	// (hour:minute in 24h format)
	DailyReminderHour   int
	DailyReminderMinute int

	// CheckInterval is how often to check if it's time to run
	CheckInterval time.Duration
}

// DefaultCronTriggerConfig returns default cron trigger configuration
func DefaultCronTriggerConfig() CronTriggerConfig {
	return CronTriggerConfig{
		DailyReminderHour:   8, // 8am, so reminders land during office hours
		DailyReminderMinute: 0,
		CheckInterval:       time.Minute,
	}
}

// CronTrigger queues upcoming-due reminder jobs once a day, one per org.
// Reminders are per-org because each org configures its own lead days.
type CronTrigger struct {
	config      CronTriggerConfig
	scheduler   *Scheduler
	orgProvider OrgProvider
	logger      *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // Track which date we last ran for
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(
	config CronTriggerConfig,
	scheduler *Scheduler,
	orgProvider OrgProvider,
	logger *zap.Logger,
) *CronTrigger {
	return &CronTrigger{
		config:      config,
		scheduler:   scheduler,
		orgProvider: orgProvider,
		logger:      logger,
	}
}

// Start starts the cron trigger
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Reminder cron trigger started",
		zap.Int("daily_hour", c.config.DailyReminderHour),
		zap.Int("daily_minute", c.config.DailyReminderMinute),
		zap.Duration("check_interval", c.config.CheckInterval),
	)

	return nil
}

// Stop stops the cron trigger
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Reminder cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop checks periodically if it's time to queue reminders
func (c *CronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger checks if it's time to run and queues reminder jobs
func (c *CronTrigger) checkAndTrigger(ctx context.Context) {
	now := time.Now()
	currentDate := now.Format("2006-01-02")

	// Skip if we already ran today
	c.mu.Lock()
	if c.lastRunDate == currentDate {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	// Check if it's the right time
	if now.Hour() != c.config.DailyReminderHour || now.Minute() != c.config.DailyReminderMinute {
		return
	}

	// It's time to run!
	c.mu.Lock()
	c.lastRunDate = currentDate
	c.mu.Unlock()

	c.logger.Info("Triggering upcoming-due reminders")
	c.triggerReminders(ctx, now)
}

// triggerReminders queues one reminder job per active org
func (c *CronTrigger) triggerReminders(ctx context.Context, now time.Time) {
	orgIDs, err := c.orgProvider.GetAllActiveOrgIDs(ctx)
	if err != nil {
		c.logger.Error("Failed to get org IDs for reminders", zap.Error(err))
		return
	}

	c.logger.Info("Scheduling upcoming-due reminders",
		zap.Int("org_count", len(orgIDs)),
	)

	runDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, orgID := range orgIDs {
		oid := orgID // Capture for pointer
		if err := c.scheduler.ScheduleJob(&oid, JobTypeUpcomingDueReminders, runDate); err != nil {
			c.logger.Error("Failed to schedule reminder job for org",
				zap.String("org_id", orgID.String()),
				zap.Error(err),
			)
		}
	}
}

// TriggerManualRefresh queues a job on demand, outside the daily schedule
func (c *CronTrigger) TriggerManualRefresh(ctx context.Context, orgID *uuid.UUID, jobType JobType, runDate time.Time) error {
	return c.scheduler.ScheduleJob(orgID, jobType, runDate)
}
