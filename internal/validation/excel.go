package validation

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WriteExcel exports the last run's results to an xlsx workbook with one
// row per check. Must be called after ValidateAll.
func (v *CohortValidator) WriteExcel(path string) error {
	if len(v.results) == 0 {
		return fmt.Errorf("no validation results to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Validation Report"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Metric", "Expected", "Observed", "Tolerance", "Status", "Detail"}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDDDDD"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "F1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, result := range v.results {
		row := i + 2
		status := "FAIL"
		if result.Passed {
			status = "PASS"
		}
		values := []interface{}{
			result.Metric,
			result.Expected,
			result.Observed,
			result.Tolerance,
			status,
			result.Message,
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 42); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(sheet, "F", "F", 48); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report to %s: %w", path, err)
	}
	return nil
}
