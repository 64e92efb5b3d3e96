package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/domain/report"
)

// ReportService serves the management read models: collection summary,
// arrears aging, monthly income and occupancy. All operations are read-only
// and aggregate in the database, so there is no audit or event wiring here.
type ReportService struct {
	ledgerReports    report.LedgerReportRepository
	occupancyReports report.OccupancyReportRepository
}

// NewReportService creates a new ReportService
func NewReportService(
	ledgerReports report.LedgerReportRepository,
	occupancyReports report.OccupancyReportRepository,
) *ReportService {
	return &ReportService{
		ledgerReports:    ledgerReports,
		occupancyReports: occupancyReports,
	}
}

// CollectionSummary returns payments collected in the period, broken down by
// method and branch
func (s *ReportService) CollectionSummary(ctx context.Context, orgID uuid.UUID, filter PeriodFilter) (*report.CollectionSummary, error) {
	domainFilter, err := filter.toDomain(orgID)
	if err != nil {
		return nil, err
	}
	return s.ledgerReports.GetCollectionSummary(domainFilter)
}

// ArrearsAging returns overdue unpaid bills bucketed by days late
func (s *ReportService) ArrearsAging(ctx context.Context, orgID uuid.UUID, filter ArrearsFilter) (*report.ArrearsAging, error) {
	return s.ledgerReports.GetArrearsAging(filter.toDomain(orgID))
}

// MonthlyIncome returns billed versus collected amounts per month
func (s *ReportService) MonthlyIncome(ctx context.Context, orgID uuid.UUID, filter PeriodFilter) ([]report.MonthlyIncome, error) {
	domainFilter, err := filter.toDomain(orgID)
	if err != nil {
		return nil, err
	}
	return s.ledgerReports.GetMonthlyIncome(domainFilter)
}

// OccupancySummary returns org-wide room occupancy with per-branch rows
func (s *ReportService) OccupancySummary(ctx context.Context, orgID uuid.UUID) (*report.OccupancySummary, error) {
	return s.occupancyReports.GetOccupancySummary(orgID)
}

// ExportCollectionSummary renders the collection summary as an XLSX workbook
func (s *ReportService) ExportCollectionSummary(ctx context.Context, orgID uuid.UUID, filter PeriodFilter) (*ExportResult, error) {
	summary, err := s.CollectionSummary(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	data, err := buildCollectionSummaryXLSX(summary)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("collection-summary-%s-%s.xlsx", filter.StartDate.Format("20060102"), filter.EndDate.Format("20060102")),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

// ExportArrearsAging renders the arrears aging report as an XLSX workbook
func (s *ReportService) ExportArrearsAging(ctx context.Context, orgID uuid.UUID, filter ArrearsFilter) (*ExportResult, error) {
	aging, err := s.ArrearsAging(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	data, err := buildArrearsXLSX(aging)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("arrears-aging-%s.xlsx", aging.AsOf.Format("20060102")),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

// ExportMonthlyIncome renders the monthly income statement as an XLSX workbook
func (s *ReportService) ExportMonthlyIncome(ctx context.Context, orgID uuid.UUID, filter PeriodFilter) (*ExportResult, error) {
	months, err := s.MonthlyIncome(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}
	data, err := buildMonthlyIncomeXLSX(months)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("monthly-income-%s-%s.xlsx", filter.StartDate.Format("20060102"), filter.EndDate.Format("20060102")),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}

// ExportOccupancy renders the occupancy summary as an XLSX workbook
func (s *ReportService) ExportOccupancy(ctx context.Context, orgID uuid.UUID) (*ExportResult, error) {
	summary, err := s.OccupancySummary(ctx, orgID)
	if err != nil {
		return nil, err
	}
	data, err := buildOccupancyXLSX(summary)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("occupancy-%s.xlsx", summary.AsOf.Format("20060102")),
		ContentType: xlsxContentType,
		Data:        data,
	}, nil
}
