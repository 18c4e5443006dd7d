package csvexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"cvbatch/internal/domain"
)

// SheetName is the worksheet the XLSX report is written to.
const SheetName = "Resumes"

var columnWidths = []float64{10, 28, 48, 32, 20, 36, 40}

// WriteXLSX encodes report as a single-sheet workbook using excelize's
// stream writer, so rows are not held as cell objects.
func WriteXLSX(out io.Writer, report *domain.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}
	for i, width := range columnWidths {
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	line := 2
	for row := range report.All() {
		cells := rowToRecord(row)
		values := make([]interface{}, len(cells))
		values[0] = row.Serial
		for i := 1; i < len(cells); i++ {
			values[i] = cells[i]
		}
		cell, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("writing row %d: %w", row.Serial, err)
		}
		line++
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}
	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
