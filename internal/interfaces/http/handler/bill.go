package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	billingapp "github.com/casaops/backend/internal/application/billing"
)

// BillHandler handles bill-related API endpoints
type BillHandler struct {
	BaseHandler
	billingService *billingapp.BillingService
}

// NewBillHandler creates a new BillHandler
func NewBillHandler(billingService *billingapp.BillingService) *BillHandler {
	return &BillHandler{billingService: billingService}
}

// Generate godoc
// @ID           generateBill
// @Summary      Generate a cycle bill
// @Description  Generate the bill for a tenant's billing cycle from rent, utilities and extra fees
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        request body billing.GenerateBillRequest true "Bill generation request"
// @Success      201 {object} APIResponse[billing.BillResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills [post]
func (h *BillHandler) Generate(c *gin.Context) {
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

	var req billingapp.GenerateBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	bill, err := h.billingService.Generate(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, bill)
}

// List godoc
// @ID           listBills
// @Summary      List bills
// @Description  List bills with filtering and pagination
// @Tags         bills
// @Produce      json
// @Param        tenant_id query string false "Filter by tenant" format(uuid)
// @Param        branch_id query string false "Filter by branch" format(uuid)
// @Param        status query string false "Filter by status" Enums(active, partially_paid, fully_paid)
// @Param        overdue query bool false "Only overdue bills"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]billing.BillResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills [get]
func (h *BillHandler) List(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter billingapp.BillListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	bills, total, err := h.billingService.List(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, bills, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @ID           getBillById
// @Summary      Get bill by ID
// @Tags         bills
// @Produce      json
// @Param        id path string true "Bill ID" format(uuid)
// @Success      200 {object} APIResponse[billing.BillResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id} [get]
func (h *BillHandler) GetByID(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	bill, err := h.billingService.GetByID(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, bill)
}

// GetByNumber godoc
// @ID           getBillByNumber
// @Summary      Get bill by bill number
// @Tags         bills
// @Produce      json
// @Param        number path string true "Bill number" example(BILL-2026-000042)
// @Success      200 {object} APIResponse[billing.BillResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/number/{number} [get]
func (h *BillHandler) GetByNumber(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	number := c.Param("number")
	if number == "" {
		h.BadRequest(c, "Bill number is required")
		return
	}

	bill, err := h.billingService.GetByNumber(c.Request.Context(), orgID, number)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, bill)
}

// ListOutstandingByTenant godoc
// @ID           listTenantOutstandingBills
// @Summary      List a tenant's outstanding bills
// @Description  Unpaid and partially paid bills for a tenant, oldest cycle first
// @Tags         bills
// @Produce      json
// @Param        id path string true "Tenant ID" format(uuid)
// @Success      200 {object} APIResponse[[]billing.BillResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /tenants/{id}/outstanding-bills [get]
func (h *BillHandler) ListOutstandingByTenant(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	tenantID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	bills, err := h.billingService.ListOutstandingByTenant(c.Request.Context(), orgID, tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, bills)
}

// UpdateNotes godoc
// @ID           updateBillNotes
// @Summary      Update bill notes
// @Description  Update the free-form notes on a bill. Amounts are immutable once generated.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Param        id path string true "Bill ID" format(uuid)
// @Param        request body billing.UpdateBillNotesRequest true "Notes update"
// @Success      200 {object} APIResponse[billing.BillResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/{id}/notes [put]
func (h *BillHandler) UpdateNotes(c *gin.Context) {
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
		h.BadRequest(c, "Invalid bill ID")
		return
	}

	var req billingapp.UpdateBillNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	bill, err := h.billingService.UpdateNotes(c.Request.Context(), orgID, id, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, bill)
}

// GenerateDue godoc
// @ID           generateDueBills
// @Summary      Generate all bills falling due
// @Description  Run the cycle-bill sweep for the organization as of today. Normally run by the nightly scheduler; exposed for manual catch-up.
// @Tags         bills
// @Produce      json
// @Success      200 {object} APIResponse[billing.GenerateDueBillsResult]
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /bills/generate-due [post]
func (h *BillHandler) GenerateDue(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	result, err := h.billingService.GenerateDueBills(c.Request.Context(), orgID, time.Now())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
