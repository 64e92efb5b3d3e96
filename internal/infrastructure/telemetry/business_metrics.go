// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the rental back office.
// It tracks bill generation, payment activity, penalties, and occupancy health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	billGeneratedTotal   *Counter
	billAmountTotal      *Counter
	paymentRecordedTotal *Counter
	paymentAmountTotal   *Counter
	paymentReversedTotal *Counter
	penaltyAppliedTotal  *Counter
	penaltyAmountTotal   *Counter

	// Gauge metrics (point-in-time values)
	occupancyRate    *FloatGauge
	overdueBillCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data providers for periodic collection
	occupancyProvider OccupancyMetricsProvider
}

// OccupancyMetricsProvider provides occupancy and arrears data for periodic
// metrics collection. This interface allows the telemetry layer to query
// portfolio state without depending on the property domain directly.
type OccupancyMetricsProvider interface {
	// GetOccupancyRateByBranch returns the occupancy rate (0-100) per branch for an org
	GetOccupancyRateByBranch(ctx context.Context, orgID uuid.UUID) (map[uuid.UUID]float64, error)

	// GetOverdueBillCount returns the number of overdue unpaid bills for an org
	GetOverdueBillCount(ctx context.Context, orgID uuid.UUID) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	CollectInterval   time.Duration // Default: 5 minutes
	OccupancyProvider OccupancyMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		occupancyProvider: cfg.OccupancyProvider,
	}

	// Initialize counter metrics
	var err error

	// Bill metrics
	bm.billGeneratedTotal, err = NewCounter(
		cfg.Meter,
		"casaops_bill_generated_total",
		"Total number of bills generated",
		"{bills}",
	)
	if err != nil {
		return nil, err
	}

	bm.billAmountTotal, err = NewCounter(
		cfg.Meter,
		"casaops_bill_amount_total",
		"Total billed amount in centavos",
		"{centavos}",
	)
	if err != nil {
		return nil, err
	}

	// Payment metrics
	bm.paymentRecordedTotal, err = NewCounter(
		cfg.Meter,
		"casaops_payment_recorded_total",
		"Total number of payments recorded",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	bm.paymentAmountTotal, err = NewCounter(
		cfg.Meter,
		"casaops_payment_amount_total",
		"Total collected amount in centavos",
		"{centavos}",
	)
	if err != nil {
		return nil, err
	}

	bm.paymentReversedTotal, err = NewCounter(
		cfg.Meter,
		"casaops_payment_reversed_total",
		"Total number of payments reversed",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	// Penalty metrics
	bm.penaltyAppliedTotal, err = NewCounter(
		cfg.Meter,
		"casaops_penalty_applied_total",
		"Total number of late penalties applied",
		"{penalties}",
	)
	if err != nil {
		return nil, err
	}

	bm.penaltyAmountTotal, err = NewCounter(
		cfg.Meter,
		"casaops_penalty_amount_total",
		"Total penalty amount in centavos",
		"{centavos}",
	)
	if err != nil {
		return nil, err
	}

	// Portfolio gauge metrics
	bm.occupancyRate, err = NewFloatGauge(
		cfg.Meter,
		"casaops_occupancy_rate",
		"Current occupancy rate per branch (percent)",
		"%",
	)
	if err != nil {
		return nil, err
	}

	bm.overdueBillCount, err = NewGauge(
		cfg.Meter,
		"casaops_overdue_bill_count",
		"Number of overdue unpaid bills",
		"{bills}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Bill Metrics
// =============================================================================

// BillKind labels whether a generated bill is a regular cycle bill or a
// move-out final bill.
type BillKind string

const (
	BillKindCycle BillKind = "cycle"
	BillKindFinal BillKind = "final"
)

// RecordBillGenerated records a bill generation event.
// This should be called from the application layer when a bill is created.
func (bm *BusinessMetrics) RecordBillGenerated(ctx context.Context, orgID uuid.UUID, kind BillKind) {
	bm.billGeneratedTotal.Inc(ctx,
		AttrOrgID.String(orgID.String()),
		AttrBillKind.String(string(kind)),
	)
}

// RecordBillAmount records the billed amount.
// Amount should be in the smallest currency unit (centavos).
func (bm *BusinessMetrics) RecordBillAmount(ctx context.Context, orgID uuid.UUID, kind BillKind, amountCentavos int64) {
	bm.billAmountTotal.Add(ctx, amountCentavos,
		AttrOrgID.String(orgID.String()),
		AttrBillKind.String(string(kind)),
	)
}

// RecordBillWithAmount is a convenience method that records both bill count and amount.
func (bm *BusinessMetrics) RecordBillWithAmount(ctx context.Context, orgID uuid.UUID, kind BillKind, amount decimal.Decimal) {
	bm.RecordBillGenerated(ctx, orgID, kind)

	// Convert to centavos (multiply by 100)
	amountCentavos := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.RecordBillAmount(ctx, orgID, kind, amountCentavos)
}

// =============================================================================
// Payment Metrics
// =============================================================================

// RecordPayment records a recorded payment and its amount.
// This should be called when a payment is successfully recorded.
func (bm *BusinessMetrics) RecordPayment(ctx context.Context, orgID uuid.UUID, method string, amount decimal.Decimal) {
	attrs := []attribute.KeyValue{
		AttrOrgID.String(orgID.String()),
		AttrPaymentMethod.String(method),
	}
	bm.paymentRecordedTotal.Inc(ctx, attrs...)

	amountCentavos := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.paymentAmountTotal.Add(ctx, amountCentavos, attrs...)
}

// RecordPaymentReversed records a payment reversal.
func (bm *BusinessMetrics) RecordPaymentReversed(ctx context.Context, orgID uuid.UUID, method string) {
	bm.paymentReversedTotal.Inc(ctx,
		AttrOrgID.String(orgID.String()),
		AttrPaymentMethod.String(method),
	)
}

// =============================================================================
// Penalty Metrics
// =============================================================================

// RecordPenaltyApplied records a late penalty applied to an overdue bill.
func (bm *BusinessMetrics) RecordPenaltyApplied(ctx context.Context, orgID uuid.UUID, amount decimal.Decimal) {
	bm.penaltyAppliedTotal.Inc(ctx,
		AttrOrgID.String(orgID.String()),
	)

	amountCentavos := amount.Mul(decimal.NewFromInt(100)).IntPart()
	bm.penaltyAmountTotal.Add(ctx, amountCentavos,
		AttrOrgID.String(orgID.String()),
	)
}

// =============================================================================
// Portfolio Metrics
// =============================================================================

// RecordOccupancyRate records the current occupancy rate for a branch.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOccupancyRate(ctx context.Context, orgID, branchID uuid.UUID, rate float64) {
	bm.occupancyRate.Record(ctx, rate,
		AttrOrgID.String(orgID.String()),
		AttrBranchID.String(branchID.String()),
	)
}

// RecordOverdueBillCount records the number of overdue unpaid bills.
// This is a gauge metric that should be updated periodically.
func (bm *BusinessMetrics) RecordOverdueBillCount(ctx context.Context, orgID uuid.UUID, count int64) {
	bm.overdueBillCount.Record(ctx, count,
		AttrOrgID.String(orgID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// OrgProvider provides org IDs for periodic metrics collection.
type OrgProvider interface {
	GetAllActiveOrgIDs(ctx context.Context) ([]uuid.UUID, error)
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects occupancy metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, orgProvider OrgProvider, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, orgProvider, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, orgProvider OrgProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	bm.collectOccupancyMetrics(ctx, orgProvider)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectOccupancyMetrics(ctx, orgProvider)
		}
	}
}

// collectOccupancyMetrics collects occupancy gauge metrics for all orgs.
func (bm *BusinessMetrics) collectOccupancyMetrics(ctx context.Context, orgProvider OrgProvider) {
	if bm.occupancyProvider == nil {
		bm.logger.Debug("No occupancy provider configured, skipping occupancy metrics collection")
		return
	}

	orgIDs, err := orgProvider.GetAllActiveOrgIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to get org IDs for metrics collection", zap.Error(err))
		return
	}

	for _, orgID := range orgIDs {
		bm.collectOrgOccupancyMetrics(ctx, orgID)
	}
}

// collectOrgOccupancyMetrics collects occupancy metrics for a single org.
func (bm *BusinessMetrics) collectOrgOccupancyMetrics(ctx context.Context, orgID uuid.UUID) {
	// Collect occupancy rate by branch
	rateByBranch, err := bm.occupancyProvider.GetOccupancyRateByBranch(ctx, orgID)
	if err != nil {
		bm.logger.Warn("Failed to get occupancy rates for org",
			zap.String("org_id", orgID.String()),
			zap.Error(err),
		)
	} else {
		for branchID, rate := range rateByBranch {
			bm.RecordOccupancyRate(ctx, orgID, branchID, rate)
		}
	}

	// Collect overdue bill count
	overdueCount, err := bm.occupancyProvider.GetOverdueBillCount(ctx, orgID)
	if err != nil {
		bm.logger.Warn("Failed to get overdue bill count for org",
			zap.String("org_id", orgID.String()),
			zap.Error(err),
		)
	} else {
		bm.RecordOverdueBillCount(ctx, orgID, overdueCount)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Business metrics attribute keys not already defined in metrics.go
var (
	AttrBillKind = attribute.Key("bill_kind")
)
