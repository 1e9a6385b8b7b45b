package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"invoiceflow/internal/domain"
)

// SheetName is the worksheet holding the exported rows.
const SheetName = "Invoices"

// WriteXLSX writes a workbook with a single Invoices sheet.
func WriteXLSX(out io.Writer, invoices []domain.Invoice) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// Rename the default sheet rather than adding a second one.
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("export.WriteXLSX: naming sheet: %w", err)
	}

	if err := writeRow(f, 1, columns); err != nil {
		return err
	}
	for i, row := range Rows(invoices) {
		if err := writeRow(f, i+2, row); err != nil {
			return err
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 24)
	_ = f.SetColWidth(SheetName, "I", "I", 32)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("export.WriteXLSX: writing workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
		return fmt.Errorf("export.WriteXLSX: row %d: %w", rowNum, err)
	}
	return nil
}

// Write renders invoices in the given format.
func Write(out io.Writer, format Format, invoices []domain.Invoice) error {
	switch format {
	case FormatCSV:
		return WriteCSV(out, invoices)
	case FormatXLSX:
		return WriteXLSX(out, invoices)
	}
	return fmt.Errorf("%w: %s", domain.ErrUnsupportedExportFormat, format)
}
