package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes notices to the application log. It is the default sink in
// development and when no webhook is configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new LogSink
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Send logs the notice
func (s *LogSink) Send(ctx context.Context, notice Notice) error {
	s.logger.Info("notice",
		zap.String("kind", notice.Kind),
		zap.String("org_id", notice.OrgID.String()),
		zap.String("tenant_id", notice.TenantID.String()),
		zap.String("subject", notice.Subject),
		zap.String("body", notice.Body),
	)
	return nil
}

var _ Sink = (*LogSink)(nil)
