// Package notify delivers tenant-facing notices to pluggable sinks. Email
// delivery is handled by the hosted mailer; the sinks here hand notices to
// its webhook intake or to the log for development setups.
package notify

import (
	"context"

	"github.com/google/uuid"
)

// Notice kinds
const (
	KindBillGenerated   = "bill_generated"
	KindPaymentRecorded = "payment_recorded"
	KindBillOverdue     = "bill_overdue"
	KindDueReminder     = "due_reminder"
	KindTenantMovedOut  = "tenant_moved_out"
)

// Notice is one rendered message for a tenant
type Notice struct {
	OrgID    uuid.UUID         `json:"org_id"`
	TenantID uuid.UUID         `json:"tenant_id"`
	Kind     string            `json:"kind"`
	Subject  string            `json:"subject"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Sink delivers notices to a downstream channel
type Sink interface {
	Send(ctx context.Context, notice Notice) error
}

// MultiSink fans a notice out to every configured sink. Delivery failures
// are collected so one broken channel does not block the others.
type MultiSink []Sink

// Send delivers the notice to all sinks, returning the first error seen
func (m MultiSink) Send(ctx context.Context, notice Notice) error {
	var firstErr error
	for _, sink := range m {
		if err := sink.Send(ctx, notice); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
