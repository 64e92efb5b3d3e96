package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/casaops/backend/internal/application/audit"
	propertyapp "github.com/casaops/backend/internal/application/property"
)

// BranchHandler handles branch-related API endpoints
type BranchHandler struct {
	BaseHandler
	branchService *propertyapp.BranchService
}

// NewBranchHandler creates a new BranchHandler
func NewBranchHandler(branchService *propertyapp.BranchService) *BranchHandler {
	return &BranchHandler{branchService: branchService}
}

// Create godoc
// @ID           createBranch
// @Summary      Create a new branch
// @Description  Create a new branch (building or property location)
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        request body property.CreateBranchRequest true "Branch creation request"
// @Success      201 {object} APIResponse[property.BranchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches [post]
func (h *BranchHandler) Create(c *gin.Context) {
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

	var req propertyapp.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	branch, err := h.branchService.Create(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, branch)
}

// List godoc
// @ID           listBranches
// @Summary      List branches
// @Description  List branches with filtering and pagination
// @Tags         branches
// @Produce      json
// @Param        status query string false "Filter by status" Enums(active, archived)
// @Param        search query string false "Search by code, name or contact"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]property.BranchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches [get]
func (h *BranchHandler) List(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter propertyapp.BranchListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	branches, total, err := h.branchService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, branches, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getBranchById
// @Summary      Get branch by ID
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Success      200 {object} APIResponse[property.BranchResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{id} [get]
func (h *BranchHandler) GetByID(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	branch, err := h.branchService.GetByID(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, branch)
}

// GetOccupancy godoc
// @ID           getBranchOccupancy
// @Summary      Get branch occupancy
// @Description  Branch details plus room and occupancy counts
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Success      200 {object} APIResponse[property.BranchOccupancyResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{id}/occupancy [get]
func (h *BranchHandler) GetOccupancy(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	occupancy, err := h.branchService.GetOccupancy(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, occupancy)
}

// Update godoc
// @ID           updateBranch
// @Summary      Update a branch
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Param        request body property.UpdateBranchRequest true "Branch update request"
// @Success      200 {object} APIResponse[property.BranchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{id} [put]
func (h *BranchHandler) Update(c *gin.Context) {
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
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	var req propertyapp.UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	branch, err := h.branchService.Update(c.Request.Context(), orgID, id, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, branch)
}

// UpdateRates godoc
// @ID           updateBranchRates
// @Summary      Set branch utility rate overrides
// @Description  Set or clear per-branch electricity and water rates. A null rate falls back to the org settings.
// @Tags         branches
// @Accept       json
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Param        request body property.UpdateBranchRatesRequest true "Rate override request"
// @Success      200 {object} APIResponse[property.BranchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{id}/rates [put]
func (h *BranchHandler) UpdateRates(c *gin.Context) {
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
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	var req propertyapp.UpdateBranchRatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	branch, err := h.branchService.UpdateRates(c.Request.Context(), orgID, id, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, branch)
}

// Archive godoc
// @ID           archiveBranch
// @Summary      Archive a branch
// @Description  Archive a branch so it no longer accepts new tenancies
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Success      200 {object} APIResponse[property.BranchResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{id}/archive [post]
func (h *BranchHandler) Archive(c *gin.Context) {
	h.transition(c, h.branchService.Archive)
}

// Restore godoc
// @ID           restoreBranch
// @Summary      Restore an archived branch
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Success      200 {object} APIResponse[property.BranchResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{id}/restore [post]
func (h *BranchHandler) Restore(c *gin.Context) {
	h.transition(c, h.branchService.Restore)
}

// Delete godoc
// @ID           deleteBranch
// @Summary      Delete a branch
// @Description  Delete an empty branch. Branches with rooms must be archived instead.
// @Tags         branches
// @Produce      json
// @Param        id path string true "Branch ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /branches/{id} [delete]
func (h *BranchHandler) Delete(c *gin.Context) {
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
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	if err := h.branchService.Delete(c.Request.Context(), orgID, id, actor); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

type branchTransition func(ctx context.Context, orgID, id uuid.UUID, actor audit.Actor) (*propertyapp.BranchResponse, error)

func (h *BranchHandler) transition(c *gin.Context, fn branchTransition) {
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
		h.BadRequest(c, "Invalid branch ID")
		return
	}

	branch, err := fn(c.Request.Context(), orgID, id, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, branch)
}
