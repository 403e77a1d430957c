// Package export writes reports as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/Lelcaren/mwangaza-rentals/internal/format"
	"github.com/Lelcaren/mwangaza-rentals/internal/metrics"
	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/Lelcaren/mwangaza-rentals/internal/services"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names of the billing workbook.
const (
	SheetSummary    = "Summary"
	SheetAgeing     = "Ageing"
	SheetRevenue    = "Revenue"
	SheetProperties = "Properties"
)

// BillingFilename names the workbook for a period.
func BillingFilename(period string) string {
	if period == "" {
		return "billing-report.xlsx"
	}
	return "billing-report-" + period + ".xlsx"
}

// WriteBillingReport writes r as an XLSX workbook to w. Amounts are numeric shilling cells;
// dates are rendered in the formatter's region.
func WriteBillingReport(w io.Writer, r *services.BillingReport, f format.Formatter) error {
	wb := excelize.NewFile()
	defer wb.Close()

	bold, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := wb.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	for _, name := range []string{SheetAgeing, SheetRevenue, SheetProperties} {
		if _, err := wb.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	period := r.Period
	if period == "" {
		period = "All periods"
	}
	asOf, err := f.Date(r.AsOf)
	if err != nil {
		asOf = r.AsOf
	}

	summary := [][]interface{}{
		{"Billing report", period},
		{"As of", asOf},
		{},
		{"Total billed", r.TotalBilled},
		{"Collected", r.Collected},
		{"Outstanding", r.Outstanding},
		{"Collection rate (%)", optional(r.CollectionRate)},
		{"Amount collection rate (%)", optional(r.AmountCollectionRate)},
		{"Paid bills", r.Bills.Paid},
		{"Pending bills", r.Bills.Pending},
		{"Overdue bills", r.Bills.Overdue},
		{"VAT collected", r.VATCollected},
		{"Commercial rent", r.CommercialRent},
		{"Withholding tax", r.WithholdingTax},
	}
	if err := writeRows(wb, SheetSummary, summary); err != nil {
		return err
	}
	if err := wb.SetCellStyle(SheetSummary, "A1", "A14", bold); err != nil {
		return fmt.Errorf("failed to style summary: %w", err)
	}

	ageing := [][]interface{}{{"Days overdue", "Outstanding"}}
	for _, b := range metrics.Buckets() {
		ageing = append(ageing, []interface{}{string(b), r.Ageing[b]})
	}
	if err := writeTable(wb, SheetAgeing, ageing, bold); err != nil {
		return err
	}

	revenue := [][]interface{}{{"Payment method", "Collected"}}
	for _, m := range []models.PaymentMethod{models.MethodMobileMoney, models.MethodBank, models.MethodCash} {
		revenue = append(revenue, []interface{}{string(m), r.RevenueByMethod[m]})
	}
	if err := writeTable(wb, SheetRevenue, revenue, bold); err != nil {
		return err
	}

	props := [][]interface{}{{"Property", "Type", "Occupancy (%)", "Billed", "Collected"}}
	for _, p := range r.Properties {
		props = append(props, []interface{}{p.Name, string(p.Type), optional(p.Occupancy), p.Billed, p.Collected})
	}
	if err := writeTable(wb, SheetProperties, props, bold); err != nil {
		return err
	}

	wb.SetActiveSheet(0)
	if err := wb.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// optional renders an undefined rate as an empty cell.
func optional(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func writeRows(wb *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// writeTable writes rows with the first row styled as a header.
func writeTable(wb *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	if err := writeRows(wb, sheet, rows); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := wb.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}
	return nil
}
