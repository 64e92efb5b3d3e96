package bulk

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/domain/bulk"
	csvimport "github.com/casaops/backend/internal/infrastructure/import"
)

// ImportRequest carries an uploaded CSV file into an import run
type ImportRequest struct {
	FileName     string
	FileSize     int64
	ConflictMode bulk.ConflictMode
	Data         io.Reader
}

// ImportResult summarizes a completed import run
type ImportResult struct {
	HistoryID    uuid.UUID                `json:"history_id"`
	Status       bulk.ImportStatus        `json:"status"`
	TotalRows    int                      `json:"total_rows"`
	ImportedRows int                      `json:"imported_rows"`
	UpdatedRows  int                      `json:"updated_rows"`
	SkippedRows  int                      `json:"skipped_rows"`
	ErrorRows    int                      `json:"error_rows"`
	Errors       []bulk.ImportErrorDetail `json:"errors,omitempty"`
}

// ImportHistoryListFilter narrows the import history listing
type ImportHistoryListFilter struct {
	EntityType string `form:"entity_type" binding:"omitempty,oneof=rooms tenants"`
	Status     string `form:"status" binding:"omitempty,oneof=pending processing completed failed cancelled"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ImportHistoryResponse is the API view of an import history record
type ImportHistoryResponse struct {
	ID           uuid.UUID                `json:"id"`
	EntityType   bulk.ImportEntityType    `json:"entity_type"`
	FileName     string                   `json:"file_name"`
	FileSize     int64                    `json:"file_size"`
	TotalRows    int                      `json:"total_rows"`
	SuccessRows  int                      `json:"success_rows"`
	ErrorRows    int                      `json:"error_rows"`
	SkippedRows  int                      `json:"skipped_rows"`
	UpdatedRows  int                      `json:"updated_rows"`
	ConflictMode bulk.ConflictMode        `json:"conflict_mode"`
	Status       bulk.ImportStatus        `json:"status"`
	Errors       []bulk.ImportErrorDetail `json:"errors,omitempty"`
	ImportedBy   *uuid.UUID               `json:"imported_by,omitempty"`
	StartedAt    *time.Time               `json:"started_at,omitempty"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

// ToImportHistoryResponse converts a domain record to its API view
func ToImportHistoryResponse(history *bulk.ImportHistory) *ImportHistoryResponse {
	return &ImportHistoryResponse{
		ID:           history.ID,
		EntityType:   history.EntityType,
		FileName:     history.FileName,
		FileSize:     history.FileSize,
		TotalRows:    history.TotalRows,
		SuccessRows:  history.SuccessRows,
		ErrorRows:    history.ErrorRows,
		SkippedRows:  history.SkippedRows,
		UpdatedRows:  history.UpdatedRows,
		ConflictMode: history.ConflictMode,
		Status:       history.Status,
		Errors:       history.ErrorDetails,
		ImportedBy:   history.ImportedBy,
		StartedAt:    history.StartedAt,
		CompletedAt:  history.CompletedAt,
		CreatedAt:    history.CreatedAt,
	}
}

// ImportHistoryListResponse is a paginated import history listing
type ImportHistoryListResponse struct {
	Items    []ImportHistoryResponse `json:"items"`
	Total    int64                   `json:"total"`
	Page     int                     `json:"page"`
	PageSize int                     `json:"page_size"`
}

func detailFromRowError(e csvimport.RowError) bulk.ImportErrorDetail {
	return bulk.ImportErrorDetail{
		Row:     e.Row,
		Column:  e.Column,
		Code:    e.Code,
		Message: e.Message,
		Value:   e.Value,
	}
}

func detailsFromRowErrors(errs []csvimport.RowError) []bulk.ImportErrorDetail {
	details := make([]bulk.ImportErrorDetail, len(errs))
	for i, e := range errs {
		details[i] = detailFromRowError(e)
	}
	return details
}
