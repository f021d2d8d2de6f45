// Package xlsxexport renders a parsed timesheet as an Excel workbook.
package xlsxexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"cartellino/internal/csvexport"
	"cartellino/internal/domain"
	"cartellino/internal/parser/cartellino"
)

// Sheet names, in workbook order.
const (
	SheetDays       = "Days"
	SheetPairs      = "Pairs"
	SheetTotals     = "Totals"
	SheetValidation = "Validation"
)

// Write renders doc as a workbook with Days, Pairs, Totals and Validation
// sheets, each with a bold header row.
func Write(w io.Writer, doc *domain.ParsedDocument) error {
	f, err := Build(doc)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// Build creates the workbook in memory. The caller closes it.
func Build(doc *domain.ParsedDocument) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetDays); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	for _, name := range []string{SheetPairs, SheetTotals, SheetValidation} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("adding sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	sheets := []struct {
		name   string
		header []string
		rows   [][]interface{}
	}{
		{SheetDays, csvexport.DayColumns, dayRows(doc.Days)},
		{SheetPairs, csvexport.PairColumns, pairRows(doc.Pairs)},
		{SheetTotals, []string{"key", "label", "hours"}, totalRows(doc.Totals)},
		{SheetValidation, []string{"field", "value"}, validationRows(doc)},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.header, s.rows, bold); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]interface{}, headerStyle int) error {
	head := make([]interface{}, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("writing %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func dayRows(days []domain.DayRecord) [][]interface{} {
	rows := make([][]interface{}, 0, len(days))
	for _, d := range days {
		rows = append(rows, []interface{}{
			intOrNil(d.Year), intOrNil(d.Month), d.Day, string(d.DOW),
			d.HoursPresent, d.HoursTotal, d.HoursWorked, d.RawLine,
		})
	}
	return rows
}

func pairRows(pairs []domain.PairRecord) [][]interface{} {
	rows := make([][]interface{}, 0, len(pairs))
	for _, p := range pairs {
		var shift interface{}
		if p.ShiftLabel != nil {
			shift = string(*p.ShiftLabel)
		}
		rows = append(rows, []interface{}{
			intOrNil(p.Year), intOrNil(p.Month), p.Day, string(p.DOW), p.PairIndex,
			strOrNil(p.EntryTime), strOrNil(p.ExitTime), strOrNil(p.Duration), shift,
			strOrNil(p.EntryRaw), strOrNil(p.ExitRaw),
		})
	}
	return rows
}

func totalRows(totals domain.Totals) [][]interface{} {
	var rows [][]interface{}
	for _, key := range domain.TotalKeys {
		if v, ok := totals.Get(key); ok {
			rows = append(rows, []interface{}{string(key), cartellino.TotalLabel(key), v})
		}
	}
	return rows
}

func validationRows(doc *domain.ParsedDocument) [][]interface{} {
	v := doc.Validation
	m := doc.Meta
	return [][]interface{}{
		{"employee_name", strOrNil(m.EmployeeName)},
		{"employee_id", strOrNil(m.EmployeeID)},
		{"month_name", strOrNil(m.MonthName)},
		{"month", intOrNil(m.Month)},
		{"year", intOrNil(m.Year)},
		{"ore_lavorate_row_sum", v.RowSum},
		{"ore_lavorate_total", floatOrNil(v.Total)},
		{"ore_lavorate_diff", floatOrNil(v.Diff)},
		{"is_ok", v.IsOK},
	}
}

func intOrNil(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func strOrNil(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func floatOrNil(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
