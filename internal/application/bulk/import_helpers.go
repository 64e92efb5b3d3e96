package bulk

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/casaops/backend/internal/domain/bulk"
	"github.com/casaops/backend/internal/domain/shared"
	csvimport "github.com/casaops/backend/internal/infrastructure/import"
)

// parseImportFile opens a CSV stream, checks the required headers and reads
// every data row. Header problems come back as a domain error so the whole
// import fails before any row is touched.
func parseImportFile(data io.Reader, required []string) ([]*csvimport.Row, error) {
	parser, err := csvimport.NewCSVParser(data)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if missing := parser.ValidateHeaders(required); len(missing) > 0 {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Missing required columns: %s", strings.Join(missing, ", ")))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	if len(rows) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "CSV file contains no data rows")
	}
	return rows, nil
}

// failImport marks the history record failed and surfaces the error
func failImport(ctx context.Context, repo bulk.ImportHistoryRepository, history *bulk.ImportHistory, cause error) (*ImportResult, error) {
	detail := bulk.ImportErrorDetail{
		Row:     1,
		Code:    csvimport.ErrCodeImportInvalidFile,
		Message: cause.Error(),
	}
	if err := history.Fail([]bulk.ImportErrorDetail{detail}); err != nil {
		return nil, err
	}
	if err := repo.Save(ctx, history); err != nil {
		return nil, err
	}
	return nil, cause
}

func resultFromHistory(history *bulk.ImportHistory, imported int) *ImportResult {
	return &ImportResult{
		HistoryID:    history.ID,
		Status:       history.Status,
		TotalRows:    history.TotalRows,
		ImportedRows: imported,
		UpdatedRows:  history.UpdatedRows,
		SkippedRows:  history.SkippedRows,
		ErrorRows:    history.ErrorRows,
		Errors:       history.ErrorDetails,
	}
}

func domainErrorDetail(row *csvimport.Row, err error) *bulk.ImportErrorDetail {
	detail := bulk.ImportErrorDetail{
		Row:     row.LineNumber,
		Code:    csvimport.ErrCodeImportValidation,
		Message: err.Error(),
	}
	return &detail
}

func lookupErrorDetail(row *csvimport.Row, column string, err error) *bulk.ImportErrorDetail {
	detail := bulk.ImportErrorDetail{
		Row:     row.LineNumber,
		Column:  column,
		Code:    csvimport.ErrCodeImportUnknown,
		Message: err.Error(),
	}
	return &detail
}

func branchNotFoundDetail(row *csvimport.Row, code string) *bulk.ImportErrorDetail {
	detail := bulk.ImportErrorDetail{
		Row:     row.LineNumber,
		Column:  colBranchCode,
		Code:    csvimport.ErrCodeImportReferenceNotFound,
		Message: fmt.Sprintf("branch '%s' not found", code),
		Value:   code,
	}
	return &detail
}
