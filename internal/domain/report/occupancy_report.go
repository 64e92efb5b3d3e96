package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OccupancyByBranch is a read model for room occupancy within one branch
type OccupancyByBranch struct {
	BranchID         uuid.UUID       `json:"branch_id"`
	BranchCode       string          `json:"branch_code"`
	BranchName       string          `json:"branch_name"`
	TotalRooms       int64           `json:"total_rooms"`
	OccupiedRooms    int64           `json:"occupied_rooms"`
	VacantRooms      int64           `json:"vacant_rooms"`
	MaintenanceRooms int64           `json:"maintenance_rooms"`
	OccupancyRate    decimal.Decimal `json:"occupancy_rate"` // OccupiedRooms / TotalRooms * 100
}

// OccupancySummary aggregates occupancy across the organization
type OccupancySummary struct {
	AsOf          time.Time           `json:"as_of"`
	TotalRooms    int64               `json:"total_rooms"`
	OccupiedRooms int64               `json:"occupied_rooms"`
	OccupancyRate decimal.Decimal     `json:"occupancy_rate"`
	Branches      []OccupancyByBranch `json:"branches"`
}

// OccupancyReportRepository provides occupancy read models
type OccupancyReportRepository interface {
	// GetOccupancySummary returns org-wide occupancy with per-branch rows
	GetOccupancySummary(orgID uuid.UUID) (*OccupancySummary, error)
}
