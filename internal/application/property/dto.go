package property

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/casaops/backend/internal/domain/property"
	"github.com/casaops/backend/internal/domain/shared/valueobject"
)

// CreateBranchRequest represents a request to create a new branch
type CreateBranchRequest struct {
	Code            string              `json:"code" binding:"required,min=1,max=50" example:"MAIN"`
	Name            string              `json:"name" binding:"required,min=1,max=200" example:"Main Building"`
	Address         valueobject.Address `json:"address"`
	ContactName     string              `json:"contact_name" binding:"max=100"`
	ContactPhone    string              `json:"contact_phone" binding:"max=50"`
	ElectricityRate *decimal.Decimal    `json:"electricity_rate"`
	WaterRate       *decimal.Decimal    `json:"water_rate"`
	Notes           string              `json:"notes"`
}

// UpdateBranchRequest represents a request to update a branch
type UpdateBranchRequest struct {
	Name         *string              `json:"name" binding:"omitempty,min=1,max=200"`
	Address      *valueobject.Address `json:"address"`
	ContactName  *string              `json:"contact_name" binding:"omitempty,max=100"`
	ContactPhone *string              `json:"contact_phone" binding:"omitempty,max=50"`
	Notes        *string              `json:"notes"`
}

// UpdateBranchRatesRequest sets or clears branch utility rate overrides.
// A nil rate clears the override so billing falls back to org settings.
type UpdateBranchRatesRequest struct {
	ElectricityRate *decimal.Decimal `json:"electricity_rate"`
	WaterRate       *decimal.Decimal `json:"water_rate"`
}

// BranchListFilter represents filter options for listing branches
type BranchListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=active archived"`
	Search   string `form:"search" binding:"omitempty,max=200"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy   string `form:"sort_by" binding:"omitempty,max=50"`
	SortDesc bool   `form:"sort_desc"`
}

// BranchResponse represents a branch in API responses
type BranchResponse struct {
	ID              uuid.UUID           `json:"id"`
	OrgID           uuid.UUID           `json:"org_id"`
	Code            string              `json:"code"`
	Name            string              `json:"name"`
	Address         valueobject.Address `json:"address"`
	Status          string              `json:"status"`
	ContactName     string              `json:"contact_name,omitempty"`
	ContactPhone    string              `json:"contact_phone,omitempty"`
	ElectricityRate *decimal.Decimal    `json:"electricity_rate,omitempty"`
	WaterRate       *decimal.Decimal    `json:"water_rate,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	Version         int                 `json:"version"`
}

// BranchOccupancyResponse adds room counts to a branch view
type BranchOccupancyResponse struct {
	BranchResponse
	TotalRooms    int64 `json:"total_rooms"`
	OccupiedRooms int64 `json:"occupied_rooms"`
}

// ToBranchResponse converts a domain branch to a response DTO
func ToBranchResponse(branch *property.Branch) *BranchResponse {
	return &BranchResponse{
		ID:              branch.ID,
		OrgID:           branch.OrgID,
		Code:            branch.Code,
		Name:            branch.Name,
		Address:         branch.Address,
		Status:          string(branch.Status),
		ContactName:     branch.ContactName,
		ContactPhone:    branch.ContactPhone,
		ElectricityRate: branch.ElectricityRate,
		WaterRate:       branch.WaterRate,
		Notes:           branch.Notes,
		CreatedAt:       branch.CreatedAt,
		UpdatedAt:       branch.UpdatedAt,
		Version:         branch.Version,
	}
}

// CreateRoomRequest represents a request to create a new room
type CreateRoomRequest struct {
	BranchID    uuid.UUID       `json:"branch_id" binding:"required"`
	Number      string          `json:"number" binding:"required,min=1,max=50" example:"201"`
	Floor       int             `json:"floor" binding:"omitempty,min=-5,max=200"`
	MonthlyRent decimal.Decimal `json:"monthly_rent" binding:"required"`
	Description string          `json:"description" binding:"max=2000"`
	Notes       string          `json:"notes"`
}

// UpdateRoomRequest represents a request to update a room
type UpdateRoomRequest struct {
	Number      *string          `json:"number" binding:"omitempty,min=1,max=50"`
	Floor       *int             `json:"floor" binding:"omitempty,min=-5,max=200"`
	MonthlyRent *decimal.Decimal `json:"monthly_rent"`
	Description *string          `json:"description" binding:"omitempty,max=2000"`
	Notes       *string          `json:"notes"`
}

// RoomListFilter represents filter options for listing rooms
type RoomListFilter struct {
	BranchID *uuid.UUID `form:"branch_id"`
	Status   string     `form:"status" binding:"omitempty,oneof=vacant occupied maintenance"`
	Search   string     `form:"search" binding:"omitempty,max=200"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	SortBy   string     `form:"sort_by" binding:"omitempty,max=50"`
	SortDesc bool       `form:"sort_desc"`
}

// RoomResponse represents a room in API responses
type RoomResponse struct {
	ID              uuid.UUID       `json:"id"`
	OrgID           uuid.UUID       `json:"org_id"`
	BranchID        uuid.UUID       `json:"branch_id"`
	Number          string          `json:"number"`
	Floor           int             `json:"floor"`
	MonthlyRent     decimal.Decimal `json:"monthly_rent"`
	Status          string          `json:"status"`
	CurrentTenantID *uuid.UUID      `json:"current_tenant_id,omitempty"`
	Description     string          `json:"description,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

// ToRoomResponse converts a domain room to a response DTO
func ToRoomResponse(room *property.Room) *RoomResponse {
	return &RoomResponse{
		ID:              room.ID,
		OrgID:           room.OrgID,
		BranchID:        room.BranchID,
		Number:          room.Number,
		Floor:           room.Floor,
		MonthlyRent:     room.MonthlyRent,
		Status:          string(room.Status),
		CurrentTenantID: room.CurrentTenantID,
		Description:     room.Description,
		Notes:           room.Notes,
		CreatedAt:       room.CreatedAt,
		UpdatedAt:       room.UpdatedAt,
		Version:         room.Version,
	}
}
