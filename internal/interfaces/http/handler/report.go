package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	reportapp "github.com/casaops/backend/internal/application/report"
)

// ReportHandler handles reporting API endpoints
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// CollectionSummary godoc
// @ID           getCollectionSummary
// @Summary      Collection summary report
// @Description  Billed versus collected totals for a period, broken down by payment method
// @Tags         reports
// @Produce      json
// @Param        start_date query string true "Period start (YYYY-MM-DD)"
// @Param        end_date query string true "Period end (YYYY-MM-DD)"
// @Param        branch_id query string false "Scope to one branch" format(uuid)
// @Success      200 {object} APIResponse[report.CollectionSummary]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/collection-summary [get]
func (h *ReportHandler) CollectionSummary(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter reportapp.PeriodFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	summary, err := h.reportService.CollectionSummary(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}

// ArrearsAging godoc
// @ID           getArrearsAging
// @Summary      Arrears aging report
// @Description  Outstanding balances bucketed by how long they are overdue, per tenant
// @Tags         reports
// @Produce      json
// @Param        as_of query string false "Aging reference date (YYYY-MM-DD), defaults to today"
// @Param        branch_id query string false "Scope to one branch" format(uuid)
// @Success      200 {object} APIResponse[report.ArrearsAging]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/arrears-aging [get]
func (h *ReportHandler) ArrearsAging(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter reportapp.ArrearsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	aging, err := h.reportService.ArrearsAging(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, aging)
}

// MonthlyIncome godoc
// @ID           getMonthlyIncome
// @Summary      Monthly income report
// @Description  Collected income per calendar month across the period
// @Tags         reports
// @Produce      json
// @Param        start_date query string true "Period start (YYYY-MM-DD)"
// @Param        end_date query string true "Period end (YYYY-MM-DD)"
// @Param        branch_id query string false "Scope to one branch" format(uuid)
// @Success      200 {object} APIResponse[[]report.MonthlyIncome]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/monthly-income [get]
func (h *ReportHandler) MonthlyIncome(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter reportapp.PeriodFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	income, err := h.reportService.MonthlyIncome(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, income)
}

// OccupancySummary godoc
// @ID           getOccupancySummary
// @Summary      Occupancy summary report
// @Description  Current room and occupancy counts per branch
// @Tags         reports
// @Produce      json
// @Success      200 {object} APIResponse[report.OccupancySummary]
// @Security     BearerAuth
// @Router       /reports/occupancy [get]
func (h *ReportHandler) OccupancySummary(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	summary, err := h.reportService.OccupancySummary(c.Request.Context(), orgID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}

// ExportCollectionSummary godoc
// @ID           exportCollectionSummary
// @Summary      Export collection summary as a spreadsheet
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        start_date query string true "Period start (YYYY-MM-DD)"
// @Param        end_date query string true "Period end (YYYY-MM-DD)"
// @Param        branch_id query string false "Scope to one branch" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/collection-summary/export [get]
func (h *ReportHandler) ExportCollectionSummary(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter reportapp.PeriodFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.reportService.ExportCollectionSummary(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.streamExport(c, result)
}

// ExportArrearsAging godoc
// @ID           exportArrearsAging
// @Summary      Export arrears aging as a spreadsheet
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        as_of query string false "Aging reference date (YYYY-MM-DD), defaults to today"
// @Param        branch_id query string false "Scope to one branch" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/arrears-aging/export [get]
func (h *ReportHandler) ExportArrearsAging(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter reportapp.ArrearsFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.reportService.ExportArrearsAging(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.streamExport(c, result)
}

// ExportMonthlyIncome godoc
// @ID           exportMonthlyIncome
// @Summary      Export monthly income as a spreadsheet
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        start_date query string true "Period start (YYYY-MM-DD)"
// @Param        end_date query string true "Period end (YYYY-MM-DD)"
// @Param        branch_id query string false "Scope to one branch" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /reports/monthly-income/export [get]
func (h *ReportHandler) ExportMonthlyIncome(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	var filter reportapp.PeriodFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.reportService.ExportMonthlyIncome(c.Request.Context(), orgID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.streamExport(c, result)
}

// ExportOccupancy godoc
// @ID           exportOccupancy
// @Summary      Export occupancy summary as a spreadsheet
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200 {file} binary
// @Security     BearerAuth
// @Router       /reports/occupancy/export [get]
func (h *ReportHandler) ExportOccupancy(c *gin.Context) {
	orgID, err := getOrgID(c)
	if err != nil {
		h.Unauthorized(c, "Organization not resolved")
		return
	}

	result, err := h.reportService.ExportOccupancy(c.Request.Context(), orgID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.streamExport(c, result)
}

func (h *ReportHandler) streamExport(c *gin.Context, result *reportapp.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
