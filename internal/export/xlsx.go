package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"wallet/internal/core"
	"wallet/internal/ledger"
)

// Sheet names in the exported workbook.
const (
	SheetExpenses   = "Expenses"
	SheetCategories = "Categories"
	SheetMonths     = "Months"
)

// Workbook is everything WriteXLSX lays out.
type Workbook struct {
	Snapshot   ledger.Snapshot
	Summary    core.Summary
	Categories []core.CategoryAmount
	Months     []core.MonthTotal
}

// WorkbookFrom collects the workbook contents from m in one pass.
func WorkbookFrom(m *ledger.Manager) Workbook {
	return Workbook{
		Snapshot:   m.Snapshot(),
		Summary:    m.Summary(),
		Categories: m.CategoryBreakdown(),
		Months:     m.ByMonth(),
	}
}

// WriteXLSX writes wb as an Excel workbook with one sheet for the records
// and one per chart dataset. Amounts are numeric cells.
func WriteXLSX(w io.Writer, wb Workbook) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetExpenses); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeExpenses(f, wb); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetCategories); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetCategories, err)
	}
	rows := make([][]any, 0, len(wb.Categories))
	for _, c := range wb.Categories {
		rows = append(rows, []any{c.Name, c.Amount.Float()})
	}
	if err := writeTable(f, SheetCategories, []string{"Category", "Amount"}, rows); err != nil {
		return err
	}

	if _, err := f.NewSheet(SheetMonths); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetMonths, err)
	}
	rows = rows[:0]
	for _, m := range wb.Months {
		rows = append(rows, []any{m.Month, m.Total.Float()})
	}
	if err := writeTable(f, SheetMonths, []string{"Month", "Total"}, rows); err != nil {
		return err
	}

	idx, err := f.GetSheetIndex(SheetExpenses)
	if err != nil {
		return fmt.Errorf("find sheet %s: %w", SheetExpenses, err)
	}
	f.SetActiveSheet(idx)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeExpenses(f *excelize.File, wb Workbook) error {
	headers := []string{"ID", "Date", "Category", "Description", "Payment Method", "Amount"}
	rows := make([][]any, 0, len(wb.Snapshot.Expenses)+4)
	for _, e := range wb.Snapshot.Expenses {
		rows = append(rows, []any{e.ID, e.Date.String(), e.Category, e.Description, e.PaymentMethod, e.Amount.Float()})
	}
	// Totals below a blank row, mirroring the dashboard cards.
	rows = append(rows,
		[]any{},
		[]any{"", "", "", "", "Budget", wb.Summary.Budget.Float()},
		[]any{"", "", "", "", "Spent", wb.Summary.TotalSpent.Float()},
		[]any{"", "", "", "", "Remaining", wb.Summary.Remaining.Float()},
	)
	return writeTable(f, SheetExpenses, headers, rows)
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header %s!%s: %w", sheet, cell, err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
