package handler

import (
	"github.com/gin-gonic/gin"

	tenancyapp "github.com/casaops/backend/internal/application/tenancy"
)

// TenantHandler handles tenant-related API endpoints
type TenantHandler struct {
	BaseHandler
	tenantService *tenancyapp.TenantService
}

// NewTenantHandler creates a new TenantHandler
func NewTenantHandler(tenantService *tenancyapp.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// MoveIn godoc
// @ID           moveInTenant
// @Summary      Move a tenant into a room
// @Description  Create a tenant and occupy the given vacant room in one step
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        request body tenancy.MoveInRequest true "Move-in request"
// @Success      201 {object} APIResponse[tenancy.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenants/move-in [post]
func (h *TenantHandler) MoveIn(c *gin.Context) {
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

	var req tenancyapp.MoveInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.MoveIn(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, tenant)
}

// List godoc
// @ID           listTenants
// @Summary      List tenants
// @Description  List tenants with filtering and pagination
// @Tags         tenants
// @Produce      json
// @Param        branch_id query string false "Filter by branch" format(uuid)
// @Param        status query string false "Filter by status" Enums(active, moved_out)
// @Param        search query string false "Search by name, phone or email"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]tenancy.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter tenancyapp.TenantListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenants, total, err := h.tenantService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, tenants, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getTenantById
// @Summary      Get tenant by ID
// @Tags         tenants
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[tenancy.TenantResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenants/{id} [get]
func (h *TenantHandler) GetByID(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	tenant, err := h.tenantService.GetByID(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, tenant)
}

// Update godoc
// @ID           updateTenant
// @Summary      Update tenant details
// @Description  Update name, contact details and notes of a tenant
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body tenancy.UpdateTenantRequest true "Tenant update request"
// @Success      200 {object} APIResponse[tenancy.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenants/{id} [put]
func (h *TenantHandler) Update(c *gin.Context) {
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
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req tenancyapp.UpdateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.Update(c.Request.Context(), orgID, id, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, tenant)
}

// SetRent godoc
// @ID           setTenantRent
// @Summary      Change a tenant's monthly rent
// @Description  Set the agreed monthly rent for future billing cycles. Already generated bills keep their amounts.
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body tenancy.SetRentRequest true "Rent change request"
// @Success      200 {object} APIResponse[tenancy.TenantResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenants/{id}/rent [put]
func (h *TenantHandler) SetRent(c *gin.Context) {
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
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req tenancyapp.SetRentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.SetRent(c.Request.Context(), orgID, id, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, tenant)
}

// PreviewMoveOut godoc
// @ID           previewTenantMoveOut
// @Summary      Preview a move-out settlement
// @Description  Compute the itemized settlement for a planned move-out without committing anything. The committed settlement runs the same arithmetic.
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body tenancy.MoveOutRequest true "Planned move-out"
// @Success      200 {object} APIResponse[tenancy.SettlementPreviewResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenants/{id}/move-out/preview [post]
func (h *TenantHandler) PreviewMoveOut(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req tenancyapp.MoveOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	preview, err := h.tenantService.PreviewMoveOut(c.Request.Context(), orgID, id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, preview)
}

// MoveOut godoc
// @ID           moveOutTenant
// @Summary      Move a tenant out
// @Description  Close the tenancy, compose the final settlement bill and vacate the room
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body tenancy.MoveOutRequest true "Move-out request"
// @Success      200 {object} APIResponse[tenancy.MoveOutResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenants/{id}/move-out [post]
func (h *TenantHandler) MoveOut(c *gin.Context) {
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
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req tenancyapp.MoveOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tenantService.MoveOut(c.Request.Context(), orgID, id, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Transfer godoc
// @ID           transferTenant
// @Summary      Transfer a tenant to another room
// @Description  Settle the current occupancy with the transfer deposit policy and re-anchor the tenant in the new room
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Param        request body tenancy.TransferRequest true "Transfer request"
// @Success      200 {object} APIResponse[tenancy.TransferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenants/{id}/transfer [post]
func (h *TenantHandler) Transfer(c *gin.Context) {
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
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req tenancyapp.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.tenantService.Transfer(c.Request.Context(), orgID, id, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
