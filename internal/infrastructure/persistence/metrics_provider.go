package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/casaops/backend/internal/domain/ledger"
	"github.com/casaops/backend/internal/domain/property"
)

// GormOccupancyMetricsProvider answers the portfolio-health queries the
// telemetry collector polls periodically.
type GormOccupancyMetricsProvider struct {
	db *gorm.DB
}

// NewGormOccupancyMetricsProvider creates a new GormOccupancyMetricsProvider
func NewGormOccupancyMetricsProvider(db *gorm.DB) *GormOccupancyMetricsProvider {
	return &GormOccupancyMetricsProvider{db: db}
}

// GetOccupancyRateByBranch returns the occupancy rate (0-100) per branch.
// Rooms under maintenance count toward the denominator; they are still
// inventory, just temporarily unrentable.
func (p *GormOccupancyMetricsProvider) GetOccupancyRateByBranch(ctx context.Context, orgID uuid.UUID) (map[uuid.UUID]float64, error) {
	type branchCount struct {
		BranchID uuid.UUID
		Total    int64
		Occupied int64
	}

	var counts []branchCount
	err := p.db.WithContext(ctx).
		Model(&property.Room{}).
		Select("branch_id, COUNT(*) AS total, COUNT(*) FILTER (WHERE status = ?) AS occupied", property.RoomStatusOccupied).
		Where("org_id = ?", orgID).
		Group("branch_id").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	rates := make(map[uuid.UUID]float64, len(counts))
	for _, c := range counts {
		if c.Total == 0 {
			continue
		}
		rates[c.BranchID] = float64(c.Occupied) / float64(c.Total) * 100
	}
	return rates, nil
}

// GetOverdueBillCount returns the number of unpaid bills past their due date
func (p *GormOccupancyMetricsProvider) GetOverdueBillCount(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Model(&ledger.Bill{}).
		Where("org_id = ? AND due_date < ? AND status <> ?", orgID, time.Now(), ledger.BillStatusFullyPaid).
		Count(&count).Error
	return count, err
}
