// Package notification turns domain events and scheduler sweeps into tenant
// notices and hands them to the configured delivery sink.
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/casaops/backend/internal/domain/ledger"
	"github.com/casaops/backend/internal/domain/settings"
	"github.com/casaops/backend/internal/domain/shared"
	"github.com/casaops/backend/internal/domain/tenancy"
	"github.com/casaops/backend/internal/infrastructure/notify"
)

const noticeDateFormat = "January 2, 2006"

// Notifier subscribes to billing and tenancy events and sends tenant notices
// honoring the organization's notification toggles. The billing scheduler
// also calls it directly for overdue and due-soon sweeps, which have no
// corresponding domain event.
type Notifier struct {
	settingsRepo settings.SettingsRepository
	tenantRepo   tenancy.TenantRepository
	sink         notify.Sink
	logger       *zap.Logger
}

// NewNotifier creates a new Notifier
func NewNotifier(
	settingsRepo settings.SettingsRepository,
	tenantRepo tenancy.TenantRepository,
	sink notify.Sink,
	logger *zap.Logger,
) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		settingsRepo: settingsRepo,
		tenantRepo:   tenantRepo,
		sink:         sink,
		logger:       logger,
	}
}

// EventTypes returns the event types the notifier subscribes to
func (n *Notifier) EventTypes() []string {
	return []string{
		ledger.EventTypeBillGenerated,
		ledger.EventTypePaymentRecorded,
		tenancy.EventTypeTenantMovedOut,
	}
}

// Handle dispatches a domain event to the matching notice builder
func (n *Notifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *ledger.BillGeneratedEvent:
		return n.handleBillGenerated(ctx, e)
	case *ledger.PaymentRecordedEvent:
		return n.handlePaymentRecorded(ctx, e)
	case *tenancy.TenantMovedOutEvent:
		return n.handleTenantMovedOut(ctx, e)
	}
	return nil
}

func (n *Notifier) handleBillGenerated(ctx context.Context, event *ledger.BillGeneratedEvent) error {
	snapshot, err := n.snapshot(ctx, event.OrgID())
	if err != nil {
		return err
	}
	if !snapshot.Notifications.BillGenerated {
		return nil
	}

	tenant, err := n.tenant(ctx, event.OrgID(), event.TenantID)
	if err != nil || tenant == nil {
		return err
	}

	subject := fmt.Sprintf("New bill %s", event.BillNumber)
	body := fmt.Sprintf(
		"Hi %s, your bill %s for %s is due on %s.",
		tenant.FullName(), event.BillNumber,
		formatPesos(event.TotalAmount), event.DueDate.Format(noticeDateFormat),
	)
	if event.IsFinalBill {
		subject = fmt.Sprintf("Move-out settlement %s", event.BillNumber)
		body = fmt.Sprintf(
			"Hi %s, your move-out settlement %s has been prepared. Amount due: %s.",
			tenant.FullName(), event.BillNumber, formatPesos(event.TotalAmount),
		)
	}

	return n.send(ctx, notify.Notice{
		OrgID:    event.OrgID(),
		TenantID: event.TenantID,
		Kind:     notify.KindBillGenerated,
		Subject:  subject,
		Body:     body,
		Metadata: map[string]string{
			"bill_number": event.BillNumber,
			"due_date":    event.DueDate.Format("2006-01-02"),
		},
	})
}

func (n *Notifier) handlePaymentRecorded(ctx context.Context, event *ledger.PaymentRecordedEvent) error {
	snapshot, err := n.snapshot(ctx, event.OrgID())
	if err != nil {
		return err
	}
	if !snapshot.Notifications.PaymentRecorded {
		return nil
	}

	tenant, err := n.tenant(ctx, event.OrgID(), event.TenantID)
	if err != nil || tenant == nil {
		return err
	}

	return n.send(ctx, notify.Notice{
		OrgID:    event.OrgID(),
		TenantID: event.TenantID,
		Kind:     notify.KindPaymentRecorded,
		Subject:  fmt.Sprintf("Payment %s received", event.PaymentNumber),
		Body: fmt.Sprintf(
			"Hi %s, we received your payment of %s via %s on %s. Thank you.",
			tenant.FullName(), formatPesos(event.Amount),
			methodText(event.Method), event.PaymentDate.Format(noticeDateFormat),
		),
		Metadata: map[string]string{
			"payment_number": event.PaymentNumber,
			"method":         string(event.Method),
		},
	})
}

func (n *Notifier) handleTenantMovedOut(ctx context.Context, event *tenancy.TenantMovedOutEvent) error {
	snapshot, err := n.snapshot(ctx, event.OrgID())
	if err != nil {
		return err
	}
	if !snapshot.Notifications.TenantMovedOut {
		return nil
	}

	body := fmt.Sprintf(
		"Hi %s, your move-out on %s has been recorded.",
		event.FullName, event.MoveOutDate.Format(noticeDateFormat),
	)
	if event.FinalBillID != nil {
		body += " Your final settlement statement is available at the front desk."
	}

	metadata := map[string]string{
		"move_out_date": event.MoveOutDate.Format("2006-01-02"),
	}
	if event.FinalBillID != nil {
		metadata["final_bill_id"] = event.FinalBillID.String()
	}

	return n.send(ctx, notify.Notice{
		OrgID:    event.OrgID(),
		TenantID: event.TenantID,
		Kind:     notify.KindTenantMovedOut,
		Subject:  "Move-out recorded",
		Body:     body,
		Metadata: metadata,
	})
}

// NotifyBillOverdue sends an overdue notice for a bill. Called by the
// daily billing run after the penalty sweep.
func (n *Notifier) NotifyBillOverdue(ctx context.Context, bill *ledger.Bill) error {
	if bill.OutstandingAmount().LessThanOrEqual(decimal.Zero) {
		return nil
	}

	snapshot, err := n.snapshot(ctx, bill.OrgID)
	if err != nil {
		return err
	}
	if !snapshot.Notifications.BillOverdue {
		return nil
	}

	tenant, err := n.tenant(ctx, bill.OrgID, bill.TenantID)
	if err != nil || tenant == nil {
		return err
	}

	return n.send(ctx, notify.Notice{
		OrgID:    bill.OrgID,
		TenantID: bill.TenantID,
		Kind:     notify.KindBillOverdue,
		Subject:  fmt.Sprintf("Bill %s is overdue", bill.BillNumber),
		Body: fmt.Sprintf(
			"Hi %s, bill %s was due on %s and has an outstanding balance of %s. Please settle it at the earliest.",
			tenant.FullName(), bill.BillNumber,
			bill.DueDate.Format(noticeDateFormat), formatPesos(bill.OutstandingAmount()),
		),
		Metadata: map[string]string{
			"bill_number": bill.BillNumber,
			"due_date":    bill.DueDate.Format("2006-01-02"),
		},
	})
}

// NotifyUpcomingDue sends a due-soon reminder for a bill. Called by the
// reminder sweep using the org's reminder lead days.
func (n *Notifier) NotifyUpcomingDue(ctx context.Context, bill *ledger.Bill) error {
	if bill.OutstandingAmount().LessThanOrEqual(decimal.Zero) {
		return nil
	}

	snapshot, err := n.snapshot(ctx, bill.OrgID)
	if err != nil {
		return err
	}
	if snapshot.ReminderLeadDays <= 0 {
		return nil
	}

	tenant, err := n.tenant(ctx, bill.OrgID, bill.TenantID)
	if err != nil || tenant == nil {
		return err
	}

	return n.send(ctx, notify.Notice{
		OrgID:    bill.OrgID,
		TenantID: bill.TenantID,
		Kind:     notify.KindDueReminder,
		Subject:  fmt.Sprintf("Bill %s is due soon", bill.BillNumber),
		Body: fmt.Sprintf(
			"Hi %s, a reminder that bill %s for %s is due on %s.",
			tenant.FullName(), bill.BillNumber,
			formatPesos(bill.OutstandingAmount()), bill.DueDate.Format(noticeDateFormat),
		),
		Metadata: map[string]string{
			"bill_number": bill.BillNumber,
			"due_date":    bill.DueDate.Format("2006-01-02"),
		},
	})
}

// snapshot loads the org's settings, falling back to defaults when the org
// has never saved any.
func (n *Notifier) snapshot(ctx context.Context, orgID uuid.UUID) (settings.Snapshot, error) {
	current, err := n.settingsRepo.FindByOrg(ctx, orgID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return settings.DefaultSnapshot(), nil
		}
		return settings.Snapshot{}, err
	}
	return current.Snapshot(), nil
}

// tenant resolves the notice recipient. A missing tenant is not an error;
// the notice is simply dropped.
func (n *Notifier) tenant(ctx context.Context, orgID, tenantID uuid.UUID) (*tenancy.Tenant, error) {
	tenant, err := n.tenantRepo.FindByIDForOrg(ctx, orgID, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			n.logger.Warn("dropping notice for unknown tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.String("org_id", orgID.String()),
			)
			return nil, nil
		}
		return nil, err
	}
	return tenant, nil
}

func (n *Notifier) send(ctx context.Context, notice notify.Notice) error {
	if err := n.sink.Send(ctx, notice); err != nil {
		return fmt.Errorf("send %s notice: %w", notice.Kind, err)
	}
	n.logger.Debug("notice sent",
		zap.String("kind", notice.Kind),
		zap.String("tenant_id", notice.TenantID.String()),
	)
	return nil
}

func formatPesos(amount decimal.Decimal) string {
	return "₱" + amount.StringFixed(2)
}

func methodText(method ledger.PaymentMethod) string {
	switch method {
	case ledger.PaymentMethodCash:
		return "Cash"
	case ledger.PaymentMethodBankTransfer:
		return "Bank Transfer"
	case ledger.PaymentMethodGCash:
		return "GCash"
	case ledger.PaymentMethodDepositApplication:
		return "Deposit Application"
	default:
		return "Other"
	}
}

var _ shared.EventHandler = (*Notifier)(nil)
