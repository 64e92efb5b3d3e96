package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/casaops/backend/internal/domain/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func headerStyle(f *excelize.File) int {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return 0
	}
	return style
}

func writeHeaderRow(f *excelize.File, sheet string, row int, style int, headers ...string) {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, header)
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(headers), row)
	_ = f.SetCellStyle(sheet, first, last, style)
}

func buildCollectionSummaryXLSX(summary *report.CollectionSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "collections"
	f.SetSheetName("Sheet1", sheet)
	style := headerStyle(f)

	_ = f.SetCellValue(sheet, "A1", "Collection Summary")
	_ = f.SetCellStyle(sheet, "A1", "A1", style)
	_ = f.SetCellValue(sheet, "A2", "Period")
	_ = f.SetCellValue(sheet, "B2", fmt.Sprintf("%s to %s",
		summary.PeriodStart.Format("2006-01-02"), summary.PeriodEnd.Format("2006-01-02")))
	_ = f.SetCellValue(sheet, "A3", "Total Collected (PHP)")
	_ = f.SetCellValue(sheet, "B3", summary.TotalCollected.InexactFloat64())
	_ = f.SetCellValue(sheet, "A4", "Payments")
	_ = f.SetCellValue(sheet, "B4", summary.PaymentCount)

	row := 6
	writeHeaderRow(f, sheet, row, style, "Method", "Amount (PHP)", "Payments")
	for _, m := range summary.ByMethod {
		row++
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), m.Method)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), m.Amount.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), m.PaymentCount)
	}

	row += 2
	writeHeaderRow(f, sheet, row, style, "Branch", "Amount (PHP)", "Payments")
	for _, b := range summary.ByBranch {
		row++
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), b.BranchName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), b.Amount.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), b.PaymentCount)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildArrearsXLSX(aging *report.ArrearsAging) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "summary"
	billsSheet := "bills"
	f.SetSheetName("Sheet1", summarySheet)
	_, _ = f.NewSheet(billsSheet)
	style := headerStyle(f)

	_ = f.SetCellValue(summarySheet, "A1", "Arrears Aging")
	_ = f.SetCellStyle(summarySheet, "A1", "A1", style)
	_ = f.SetCellValue(summarySheet, "A2", "As of")
	_ = f.SetCellValue(summarySheet, "B2", aging.AsOf.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A3", "Total Outstanding (PHP)")
	_ = f.SetCellValue(summarySheet, "B3", aging.TotalOutstanding.InexactFloat64())

	row := 5
	writeHeaderRow(f, summarySheet, row, style, "Days Late", "Amount (PHP)", "Bills")
	for _, bucket := range aging.Buckets {
		row++
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), bucket.Bucket)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), bucket.Amount.InexactFloat64())
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), bucket.BillCount)
	}

	writeHeaderRow(f, billsSheet, 1, style,
		"Tenant", "Branch", "Room", "Bill Number", "Due Date", "Days Late", "Outstanding (PHP)", "Bucket")
	for i, r := range aging.Rows {
		row := i + 2
		_ = f.SetCellValue(billsSheet, fmt.Sprintf("A%d", row), r.TenantName)
		_ = f.SetCellValue(billsSheet, fmt.Sprintf("B%d", row), r.BranchName)
		_ = f.SetCellValue(billsSheet, fmt.Sprintf("C%d", row), r.RoomNumber)
		_ = f.SetCellValue(billsSheet, fmt.Sprintf("D%d", row), r.BillNumber)
		_ = f.SetCellValue(billsSheet, fmt.Sprintf("E%d", row), r.DueDate.Format("2006-01-02"))
		_ = f.SetCellValue(billsSheet, fmt.Sprintf("F%d", row), r.DaysLate)
		_ = f.SetCellValue(billsSheet, fmt.Sprintf("G%d", row), r.Outstanding.InexactFloat64())
		_ = f.SetCellValue(billsSheet, fmt.Sprintf("H%d", row), r.Bucket)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildMonthlyIncomeXLSX(months []report.MonthlyIncome) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "monthly_income"
	f.SetSheetName("Sheet1", sheet)
	style := headerStyle(f)

	writeHeaderRow(f, sheet, 1, style,
		"Month", "Billed (PHP)", "Collected (PHP)", "Penalties Billed (PHP)", "Deposits Applied (PHP)", "Collection Rate %")
	for i, m := range months {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%04d-%02d", m.Year, m.Month))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), m.BilledAmount.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), m.CollectedAmount.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), m.PenaltiesBilled.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), m.DepositsApplied.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), m.CollectionRate.InexactFloat64())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildOccupancyXLSX(summary *report.OccupancySummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "occupancy"
	f.SetSheetName("Sheet1", sheet)
	style := headerStyle(f)

	_ = f.SetCellValue(sheet, "A1", "Occupancy Summary")
	_ = f.SetCellStyle(sheet, "A1", "A1", style)
	_ = f.SetCellValue(sheet, "A2", "As of")
	_ = f.SetCellValue(sheet, "B2", summary.AsOf.Format("2006-01-02"))
	_ = f.SetCellValue(sheet, "A3", "Total Rooms")
	_ = f.SetCellValue(sheet, "B3", summary.TotalRooms)
	_ = f.SetCellValue(sheet, "A4", "Occupied Rooms")
	_ = f.SetCellValue(sheet, "B4", summary.OccupiedRooms)
	_ = f.SetCellValue(sheet, "A5", "Occupancy Rate %")
	_ = f.SetCellValue(sheet, "B5", summary.OccupancyRate.InexactFloat64())

	row := 7
	writeHeaderRow(f, sheet, row, style,
		"Code", "Branch", "Total", "Occupied", "Vacant", "Maintenance", "Rate %")
	for _, b := range summary.Branches {
		row++
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), b.BranchCode)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), b.BranchName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), b.TotalRooms)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), b.OccupiedRooms)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), b.VacantRooms)
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", row), b.MaintenanceRooms)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", row), b.OccupancyRate.InexactFloat64())
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
