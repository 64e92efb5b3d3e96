package bulk

import (
	"context"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/domain/bulk"
)

// ImportHistoryService exposes read access to past import runs
type ImportHistoryService struct {
	historyRepo bulk.ImportHistoryRepository
}

// NewImportHistoryService creates a new ImportHistoryService
func NewImportHistoryService(historyRepo bulk.ImportHistoryRepository) *ImportHistoryService {
	return &ImportHistoryService{historyRepo: historyRepo}
}

// Get retrieves one import history record
func (s *ImportHistoryService) Get(ctx context.Context, orgID, id uuid.UUID) (*ImportHistoryResponse, error) {
	history, err := s.historyRepo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return ToImportHistoryResponse(history), nil
}

// List retrieves import history records with optional filters
func (s *ImportHistoryService) List(ctx context.Context, orgID uuid.UUID, filter ImportHistoryListFilter) (*ImportHistoryListResponse, error) {
	domainFilter := bulk.ImportHistoryFilter{}
	if filter.EntityType != "" {
		entityType := bulk.ImportEntityType(filter.EntityType)
		domainFilter.EntityType = &entityType
	}
	if filter.Status != "" {
		status := bulk.ImportStatus(filter.Status)
		domainFilter.Status = &status
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	result, err := s.historyRepo.FindAll(ctx, orgID, domainFilter, page, pageSize)
	if err != nil {
		return nil, err
	}

	items := make([]ImportHistoryResponse, len(result.Items))
	for i, item := range result.Items {
		items[i] = *ToImportHistoryResponse(item)
	}

	return &ImportHistoryListResponse{
		Items:    items,
		Total:    result.TotalCount,
		Page:     result.Page,
		PageSize: result.PageSize,
	}, nil
}
