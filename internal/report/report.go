// Package report renders transform results as XLSX workbooks.
package report

import (
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kosarica/catalog-service/internal/importer"
)

const (
	summarySheet  = "Summary"
	outcomesSheet = "Outcomes"
)

var outcomeHeaders = []any{"Record", "Kind", "Key", "Status", "Entity", "Message", "Error"}

// Filename returns the attachment name for a report generated at t.
func Filename(t time.Time) string {
	return "import_report_" + t.Format("02-01-2006_150405") + ".xlsx"
}

// Build renders res as a workbook with a summary sheet and one row per
// outcome. When failuresOnly is set only outcomes with an error are listed.
func Build(res *importer.BatchResult, generatedAt time.Time, failuresOnly bool) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(outcomesSheet); err != nil {
		return nil, fmt.Errorf("failed to create outcomes sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	summary := [][]any{
		{"Generated", generatedAt.Format(time.RFC3339)},
		{"Drained", res.Drained},
		{"Has error", strconv.FormatBool(res.HasError)},
	}
	for _, s := range []importer.Status{
		importer.StatusApplied, importer.StatusPartial, importer.StatusSkipped,
		importer.StatusDropped, importer.StatusFailed,
	} {
		summary = append(summary, []any{string(s), res.Count(s)})
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write summary: %w", err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 24); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(outcomesSheet, "A1", &outcomeHeaders); err != nil {
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}
	if err := f.SetCellStyle(outcomesSheet, "A1", "G1", bold); err != nil {
		return nil, err
	}

	row := 2
	for _, o := range res.Outcomes {
		if failuresOnly && o.Err == nil {
			continue
		}
		values := []any{o.RecordID, string(o.Kind), o.Key, string(o.Status), o.EntityID, o.Message, o.Error()}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(outcomesSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}
	if err := f.SetColWidth(outcomesSheet, "C", "C", 20); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(outcomesSheet, "F", "G", 60); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
