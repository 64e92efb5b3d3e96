// Package jobs connects the billing scheduler to the application services.
// The executor translates queued jobs into service calls: bill generation,
// penalty sweeps, overdue notices, due-soon reminders and the print queue.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/casaops/backend/internal/application/billing"
	"github.com/casaops/backend/internal/application/printing"
	"github.com/casaops/backend/internal/domain/ledger"
	"github.com/casaops/backend/internal/domain/settings"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/infrastructure/scheduler"
)

const (
	// penaltySweepLimit bounds one penalty sweep so a single job cannot
	// hold a worker for the whole night
	penaltySweepLimit = 500

	// overdueNoticeWindowDays is how far back the overdue notice sweep
	// looks. Bills older than this stop generating notices.
	overdueNoticeWindowDays = 30

	// printDrainLimit bounds how many queued print jobs one run renders
	printDrainLimit = 50
)

// BillingRunner runs the billing maintenance operations
type BillingRunner interface {
	GenerateDueBills(ctx context.Context, orgID uuid.UUID, asOf time.Time) (*billing.GenerateDueBillsResult, error)
	ApplyPenalties(ctx context.Context, asOf time.Time, limit int) (*billing.ApplyPenaltiesResult, error)
}

// BillNotifier sends overdue and due-soon notices for bills
type BillNotifier interface {
	NotifyBillOverdue(ctx context.Context, bill *ledger.Bill) error
	NotifyUpcomingDue(ctx context.Context, bill *ledger.Bill) error
}

// PrintQueueDrainer renders queued print jobs
type PrintQueueDrainer interface {
	ProcessPending(ctx context.Context, limit int) (*printing.ProcessPendingResult, error)
}

// BillingJobExecutor executes scheduled billing jobs
type BillingJobExecutor struct {
	billing      BillingRunner
	billRepo     ledger.BillRepository
	settingsRepo settings.SettingsRepository
	notifier     BillNotifier
	printQueue   PrintQueueDrainer
	orgs         scheduler.OrgProvider
	logger       *zap.Logger
}

// NewBillingJobExecutor creates a new BillingJobExecutor. printQueue may be
// nil when PDF rendering is disabled.
func NewBillingJobExecutor(
	billingRunner BillingRunner,
	billRepo ledger.BillRepository,
	settingsRepo settings.SettingsRepository,
	notifier BillNotifier,
	printQueue PrintQueueDrainer,
	orgs scheduler.OrgProvider,
	logger *zap.Logger,
) *BillingJobExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingJobExecutor{
		billing:      billingRunner,
		billRepo:     billRepo,
		settingsRepo: settingsRepo,
		notifier:     notifier,
		printQueue:   printQueue,
		orgs:         orgs,
		logger:       logger,
	}
}

// Execute runs one scheduled job
func (e *BillingJobExecutor) Execute(ctx context.Context, job *scheduler.Job) error {
	switch job.Type {
	case scheduler.JobTypeDailyBillingRun:
		return e.runDailyChain(ctx, job)
	case scheduler.JobTypeGenerateDueBills:
		return e.generateDueBills(ctx, job)
	case scheduler.JobTypeApplyPenalties:
		return e.applyPenalties(ctx, job)
	case scheduler.JobTypeOverdueNotices:
		return e.sendOverdueNotices(ctx, job)
	case scheduler.JobTypeUpcomingDueReminders:
		return e.sendUpcomingDueReminders(ctx, job)
	default:
		return fmt.Errorf("unknown job type %q", job.Type)
	}
}

// runDailyChain runs the nightly chain in order: generate the bills that
// fall due, apply penalties to what is already overdue, notify tenants of
// overdue balances, then drain the print queue. A failure stops the chain
// so the retry re-runs it from the top; every step is idempotent for a
// given run date.
func (e *BillingJobExecutor) runDailyChain(ctx context.Context, job *scheduler.Job) error {
	if err := e.generateDueBills(ctx, job); err != nil {
		return fmt.Errorf("generate due bills: %w", err)
	}
	if err := e.applyPenalties(ctx, job); err != nil {
		return fmt.Errorf("apply penalties: %w", err)
	}
	if err := e.sendOverdueNotices(ctx, job); err != nil {
		return fmt.Errorf("send overdue notices: %w", err)
	}
	e.drainPrintQueue(ctx)
	return nil
}

// generateDueBills generates cycle bills for the job's org, or for every
// active org when the job is not org-scoped
func (e *BillingJobExecutor) generateDueBills(ctx context.Context, job *scheduler.Job) error {
	orgIDs, err := e.targetOrgs(ctx, job)
	if err != nil {
		return err
	}

	var generated, skipped, failedOrgs int
	for _, orgID := range orgIDs {
		result, err := e.billing.GenerateDueBills(ctx, orgID, job.RunDate)
		if err != nil {
			failedOrgs++
			e.logger.Error("bill generation failed for org",
				zap.String("org_id", orgID.String()),
				zap.Error(err),
			)
			continue
		}
		generated += result.Generated
		skipped += result.Skipped
	}

	e.logger.Info("due bill generation finished",
		zap.String("run_date", job.RunDate.Format("2006-01-02")),
		zap.Int("orgs", len(orgIDs)),
		zap.Int("generated", generated),
		zap.Int("skipped", skipped),
	)

	if failedOrgs > 0 {
		return fmt.Errorf("bill generation failed for %d of %d organizations", failedOrgs, len(orgIDs))
	}
	return nil
}

// applyPenalties runs the overdue penalty sweep. The sweep scans bills
// across all organizations in one pass, so an org-scoped job still sweeps
// everything.
func (e *BillingJobExecutor) applyPenalties(ctx context.Context, job *scheduler.Job) error {
	result, err := e.billing.ApplyPenalties(ctx, job.RunDate, penaltySweepLimit)
	if err != nil {
		return err
	}

	e.logger.Info("penalty sweep finished",
		zap.String("run_date", job.RunDate.Format("2006-01-02")),
		zap.Int("scanned", result.Scanned),
		zap.Int("applied", result.Applied),
		zap.Int("failed", result.Failed),
	)

	if result.Failed > 0 {
		return fmt.Errorf("penalty sweep failed for %d of %d bills", result.Failed, result.Scanned)
	}
	return nil
}

// sendOverdueNotices notifies tenants whose bills fell due within the
// notice window and still carry a balance. Sends are best effort: the sink
// is not idempotent, so a failed send is logged rather than retried through
// the job queue.
func (e *BillingJobExecutor) sendOverdueNotices(ctx context.Context, job *scheduler.Job) error {
	from := job.RunDate.AddDate(0, 0, -overdueNoticeWindowDays)
	bills, err := e.billRepo.FindDueBetween(ctx, from, job.RunDate)
	if err != nil {
		return err
	}

	var sent, dropped int
	for i := range bills {
		bill := &bills[i]
		if job.OrgID != nil && bill.OrgID != *job.OrgID {
			continue
		}
		if err := e.notifier.NotifyBillOverdue(ctx, bill); err != nil {
			dropped++
			e.logger.Warn("overdue notice failed",
				zap.String("bill_number", bill.BillNumber),
				zap.Error(err),
			)
			continue
		}
		sent++
	}

	e.logger.Info("overdue notice sweep finished",
		zap.String("run_date", job.RunDate.Format("2006-01-02")),
		zap.Int("candidates", len(bills)),
		zap.Int("dropped", dropped),
	)
	return nil
}

// sendUpcomingDueReminders reminds tenants of bills that fall due exactly
// the org's lead days from the run date. One reminder per bill: the window
// is a single day, so tomorrow's run picks up the next day's bills.
func (e *BillingJobExecutor) sendUpcomingDueReminders(ctx context.Context, job *scheduler.Job) error {
	orgIDs, err := e.targetOrgs(ctx, job)
	if err != nil {
		return err
	}

	for _, orgID := range orgIDs {
		leadDays, err := e.reminderLeadDays(ctx, orgID)
		if err != nil {
			return err
		}
		if leadDays <= 0 {
			continue
		}

		dueDay := job.RunDate.AddDate(0, 0, leadDays)
		bills, err := e.billRepo.FindDueBetween(ctx, dueDay, dueDay.AddDate(0, 0, 1))
		if err != nil {
			return err
		}

		for i := range bills {
			bill := &bills[i]
			if bill.OrgID != orgID {
				continue
			}
			if err := e.notifier.NotifyUpcomingDue(ctx, bill); err != nil {
				e.logger.Warn("due reminder failed",
					zap.String("bill_number", bill.BillNumber),
					zap.Error(err),
				)
			}
		}
	}
	return nil
}

// drainPrintQueue renders queued PDFs after the nightly chain. Failures do
// not fail the chain; stuck jobs surface through the print queue itself.
func (e *BillingJobExecutor) drainPrintQueue(ctx context.Context) {
	if e.printQueue == nil {
		return
	}
	result, err := e.printQueue.ProcessPending(ctx, printDrainLimit)
	if err != nil {
		e.logger.Warn("print queue drain failed", zap.Error(err))
		return
	}
	if result.Processed > 0 || result.Failed > 0 {
		e.logger.Info("print queue drained",
			zap.Int("processed", result.Processed),
			zap.Int("failed", result.Failed),
		)
	}
}

func (e *BillingJobExecutor) targetOrgs(ctx context.Context, job *scheduler.Job) ([]uuid.UUID, error) {
	if job.OrgID != nil {
		return []uuid.UUID{*job.OrgID}, nil
	}
	return e.orgs.GetAllActiveOrgIDs(ctx)
}

func (e *BillingJobExecutor) reminderLeadDays(ctx context.Context, orgID uuid.UUID) (int, error) {
	current, err := e.settingsRepo.FindByOrg(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return settings.DefaultReminderLeadDays, nil
		}
		return 0, err
	}
	return current.ReminderLeadDays, nil
}

var _ scheduler.JobExecutor = (*BillingJobExecutor)(nil)
