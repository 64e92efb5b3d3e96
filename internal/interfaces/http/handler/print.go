package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	printingapp "github.com/casaops/backend/internal/application/printing"
)

// PrintHandler handles print queue API endpoints
type PrintHandler struct {
	BaseHandler
	printingService *printingapp.PrintingService
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(printingService *printingapp.PrintingService) *PrintHandler {
	return &PrintHandler{printingService: printingService}
}

// EnqueueReceipt godoc
// @ID           enqueueReceiptPrint
// @Summary      Queue a payment receipt for printing
// @Tags         print
// @Accept       json
// @Produce      json
// @Param        request body printing.EnqueueReceiptRequest true "Receipt print request"
// @Success      201 {object} APIResponse[printing.PrintJobResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /print/receipts [post]
func (h *PrintHandler) EnqueueReceipt(c *gin.Context) {
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

	var req printingapp.EnqueueReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	job, err := h.printingService.EnqueueReceipt(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, job)
}

// EnqueueStatement godoc
// @ID           enqueueStatementPrint
// @Summary      Queue a tenant statement of account for printing
// @Tags         print
// @Accept       json
// @Produce      json
// @Param        request body printing.EnqueueStatementRequest true "Statement print request"
// @Success      201 {object} APIResponse[printing.PrintJobResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /print/statements [post]
func (h *PrintHandler) EnqueueStatement(c *gin.Context) {
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

	var req printingapp.EnqueueStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	job, err := h.printingService.EnqueueStatement(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, job)
}

// EnqueueFinalBill godoc
// @ID           enqueueFinalBillPrint
// @Summary      Queue a move-out settlement statement for printing
// @Tags         print
// @Accept       json
// @Produce      json
// @Param        request body printing.EnqueueFinalBillRequest true "Final bill print request"
// @Success      201 {object} APIResponse[printing.PrintJobResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /print/final-bills [post]
func (h *PrintHandler) EnqueueFinalBill(c *gin.Context) {
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

	var req printingapp.EnqueueFinalBillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	job, err := h.printingService.EnqueueFinalBill(c.Request.Context(), orgID, actor, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, job)
}

// ListJobs godoc
// @ID           listPrintJobs
// @Summary      List print jobs
// @Tags         print
// @Produce      json
// @Param        document_type query string false "Filter by document type" Enums(PAYMENT_RECEIPT, TENANT_STATEMENT, FINAL_BILL_STATEMENT)
// @Param        status query string false "Filter by status" Enums(PENDING, PROCESSING, COMPLETED, FAILED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20) maximum(100)
// @Success      200 {object} APIResponse[printing.PrintJobListResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /print/jobs [get]
func (h *PrintHandler) ListJobs(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter printingapp.PrintJobListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	jobs, err := h.printingService.ListJobs(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, jobs)
}

// GetJob godoc
// @ID           getPrintJob
// @Summary      Get print job by ID
// @Tags         print
// @Produce      json
// @Param        id path string true "Print job ID" format(uuid)
// @Success      200 {object} APIResponse[printing.PrintJobResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /print/jobs/{id} [get]
func (h *PrintHandler) GetJob(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid print job ID")
		return
	}

	job, err := h.printingService.GetJob(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, job)
}

// Download godoc
// @ID           downloadPrintJobPdf
// @Summary      Download a rendered PDF
// @Description  Stream the stored PDF of a completed print job
// @Tags         print
// @Produce      application/pdf
// @Param        id path string true "Print job ID" format(uuid)
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /print/jobs/{id}/download [get]
func (h *PrintHandler) Download(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid print job ID")
		return
	}

	result, err := h.printingService.Download(c.Request.Context(), orgID, id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	defer result.Content.Close()

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, result.Filename),
	}
	c.DataFromReader(http.StatusOK, -1, result.ContentType, result.Content, extraHeaders)
}

// ProcessPending godoc
// @ID           processPendingPrintJobs
// @Summary      Render queued print jobs now
// @Description  Drain up to the requested number of pending print jobs. Normally done by the nightly run; exposed for manual catch-up.
// @Tags         print
// @Produce      json
// @Param        limit query int false "Maximum jobs to process" default(20)
// @Success      200 {object} APIResponse[printing.ProcessPendingResult]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /print/jobs/process [post]
func (h *PrintHandler) ProcessPending(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			h.BadRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	result, err := h.printingService.ProcessPending(c.Request.Context(), limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
