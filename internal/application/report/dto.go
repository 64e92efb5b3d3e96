package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/casaops/backend/internal/domain/report"
	"github.com/casaops/backend/internal/domain/shared"
)

// PeriodFilter bounds a report to a date range, optionally scoped to one branch
type PeriodFilter struct {
	StartDate time.Time  `form:"start_date" time_format:"2006-01-02" binding:"required"`
	EndDate   time.Time  `form:"end_date" time_format:"2006-01-02" binding:"required"`
	BranchID  *uuid.UUID `form:"branch_id"`
}

func (f PeriodFilter) toDomain(orgID uuid.UUID) (report.LedgerReportFilter, error) {
	if !f.StartDate.Before(f.EndDate) {
		return report.LedgerReportFilter{}, shared.NewDomainError("INVALID_INPUT", "Report period start must fall before its end")
	}
	return report.LedgerReportFilter{
		OrgID:     orgID,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		BranchID:  f.BranchID,
	}, nil
}

// ArrearsFilter scopes the aging report. AsOf defaults to the current time.
type ArrearsFilter struct {
	AsOf     time.Time  `form:"as_of" time_format:"2006-01-02"`
	BranchID *uuid.UUID `form:"branch_id"`
}

func (f ArrearsFilter) toDomain(orgID uuid.UUID) report.LedgerReportFilter {
	asOf := f.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return report.LedgerReportFilter{
		OrgID:    orgID,
		EndDate:  asOf,
		BranchID: f.BranchID,
	}
}

// ExportResult carries a rendered spreadsheet ready to stream as an attachment
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}
