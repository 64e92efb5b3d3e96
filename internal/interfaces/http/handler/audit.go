package handler

import (
	"github.com/gin-gonic/gin"

	auditapp "github.com/casaops/backend/internal/application/audit"
)

// AuditHandler handles audit log API endpoints
type AuditHandler struct {
	BaseHandler
	auditService *auditapp.Service
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService *auditapp.Service) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// Query godoc
// @ID           queryAuditLogs
// @Summary      Query audit logs
// @Description  List audit log entries for the organization, newest first
// @Tags         audit
// @Produce      json
// @Param        actor_id query string false "Filter by actor" format(uuid)
// @Param        action query string false "Filter by action" example(payment.record)
// @Param        resource_type query string false "Filter by resource type" example(bill)
// @Param        resource_id query string false "Filter by resource"
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]audit.LogResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /audit-logs [get]
func (h *AuditHandler) Query(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var req auditapp.QueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	logs, total, err := h.auditService.Query(c.Request.Context(), orgID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, logs, total, req.Page, req.PageSize)
}

// GetByID godoc
// @ID           getAuditLogById
// @Summary      Get audit log entry by ID
// @Tags         audit
// @Produce      json
// @Param        id path string true "Audit log ID" format(uuid)
// @Success      200 {object} APIResponse[audit.LogResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /audit-logs/{id} [get]
func (h *AuditHandler) GetByID(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid audit log ID")
		return
	}

	log, err := h.auditService.GetByID(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, log)
}
