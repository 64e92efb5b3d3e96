package handler

import (
	"context"
	"mime/multipart"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	auditapp "github.com/casaops/backend/internal/application/audit"
	bulkapp "github.com/casaops/backend/internal/application/bulk"
	"github.com/casaops/backend/internal/domain/bulk"
	csvimport "github.com/casaops/backend/internal/infrastructure/import"
)

// maxImportFileSize caps uploads at 10 MB, enough for tens of thousands of CSV rows.
const maxImportFileSize = 10 << 20

// ImportHandler handles CSV bulk import API endpoints
type ImportHandler struct {
	BaseHandler
	roomImports    *bulkapp.RoomImportService
	tenantImports  *bulkapp.TenantImportService
	historyService *bulkapp.ImportHistoryService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(
	roomImports *bulkapp.RoomImportService,
	tenantImports *bulkapp.TenantImportService,
	historyService *bulkapp.ImportHistoryService,
) *ImportHandler {
	return &ImportHandler{
		roomImports:    roomImports,
		tenantImports:  tenantImports,
		historyService: historyService,
	}
}

// ImportRooms godoc
// @ID           importRooms
// @Summary      Bulk import rooms from CSV
// @Description  Upload a rooms CSV. conflict_mode controls what happens when a room already exists: skip, update or fail.
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Param        conflict_mode formData string false "Conflict handling" Enums(skip, update, fail) default(skip)
// @Success      200 {object} APIResponse[bulk.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/rooms [post]
func (h *ImportHandler) ImportRooms(c *gin.Context) {
	h.runImport(c, h.roomImports.Import)
}

// ValidateRooms godoc
// @ID           validateRoomImport
// @Summary      Dry-run a rooms CSV
// @Description  Parse and validate the file without writing anything
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} APIResponse[csvimport.ValidationResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/rooms/validate [post]
func (h *ImportHandler) ValidateRooms(c *gin.Context) {
	h.runValidate(c, h.roomImports.Validate)
}

// ImportTenants godoc
// @ID           importTenants
// @Summary      Bulk import tenants from CSV
// @Description  Upload a tenants CSV. Each row moves a tenant into a room; conflict_mode controls what happens when the room is already occupied.
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Param        conflict_mode formData string false "Conflict handling" Enums(skip, update, fail) default(skip)
// @Success      200 {object} APIResponse[bulk.ImportResult]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/tenants [post]
func (h *ImportHandler) ImportTenants(c *gin.Context) {
	h.runImport(c, h.tenantImports.Import)
}

// ValidateTenants godoc
// @ID           validateTenantImport
// @Summary      Dry-run a tenants CSV
// @Description  Parse and validate the file without writing anything
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Success      200 {object} APIResponse[csvimport.ValidationResult]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/tenants/validate [post]
func (h *ImportHandler) ValidateTenants(c *gin.Context) {
	h.runValidate(c, h.tenantImports.Validate)
}

// List godoc
// @ID           listImportHistory
// @Summary      List import history
// @Tags         imports
// @Produce      json
// @Param        entity_type query string false "Filter by entity type" Enums(rooms, tenants)
// @Param        status query string false "Filter by status" Enums(pending, processing, completed, failed, cancelled)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[bulk.ImportHistoryListResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports [get]
func (h *ImportHandler) List(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter bulkapp.ImportHistoryListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	history, err := h.historyService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, history)
}

// GetByID godoc
// @ID           getImportHistoryById
// @Summary      Get import history record by ID
// @Tags         imports
// @Produce      json
// @Param        id path string true "Import history ID" format(uuid)
// @Success      200 {object} APIResponse[bulk.ImportHistoryResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /imports/{id} [get]
func (h *ImportHandler) GetByID(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid import history ID")
		return
	}

	record, err := h.historyService.Get(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, record)
}

type importFunc[T any] func(ctx context.Context, orgID uuid.UUID, actor auditapp.Actor, req bulkapp.ImportRequest) (T, error)

func (h *ImportHandler) runImport(c *gin.Context, run importFunc[*bulkapp.ImportResult]) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Actor not resolved")
		return
	}
	req, file, ok := h.bindImportRequest(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := run(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *ImportHandler) runValidate(c *gin.Context, run importFunc[*csvimport.ValidationResult]) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Actor not resolved")
		return
	}
	req, file, ok := h.bindImportRequest(c)
	if !ok {
		return
	}
	defer file.Close()

	result, err := run(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *ImportHandler) bindImportRequest(c *gin.Context) (bulkapp.ImportRequest, multipart.File, bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A CSV file is required under the \"file\" form field")
		return bulkapp.ImportRequest{}, nil, false
	}
	if header.Size > maxImportFileSize {
		file.Close()
		h.BadRequest(c, "File exceeds the 10 MB upload limit")
		return bulkapp.ImportRequest{}, nil, false
	}

	mode := bulk.ConflictMode(c.PostForm("conflict_mode"))
	if mode == "" {
		mode = bulk.ConflictModeSkip
	}
	if !mode.IsValid() {
		file.Close()
		h.BadRequest(c, "conflict_mode must be one of: skip, update, fail")
		return bulkapp.ImportRequest{}, nil, false
	}

	return bulkapp.ImportRequest{
		FileName:     header.Filename,
		FileSize:     header.Size,
		ConflictMode: mode,
		Data:         file,
	}, file, true
}
