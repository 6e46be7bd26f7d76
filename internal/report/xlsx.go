package report

import (
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/profscan/internal/model"
)

// xlsxSheet is the name of the worksheet holding the records table.
const xlsxSheet = "Profiles"

// XLSXWriter outputs the records table as an Excel workbook.
// It writes the same fixed column schema as CSVWriter onto a single
// worksheet with a header row.
type XLSXWriter struct {
	baseWriter
}

// NewXLSXWriter creates an XLSXWriter that outputs to the given writer.
func NewXLSXWriter(output io.Writer) *XLSXWriter {
	return &XLSXWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the workbook with one row per record.
func (w *XLSXWriter) Write(report *model.HarvestReport) (int, error) {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory workbook, nothing to release on error

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return 0, err
	}

	if err := w.setRow(f, 1, model.Columns()); err != nil {
		return 0, err
	}
	for i, record := range report.Records {
		if err := w.setRow(f, i+2, record.Row()); err != nil {
			return 0, err
		}
	}

	n, err := f.WriteTo(w.output)
	return int(n), err
}

// setRow writes one string row starting at column A of the given row number.
func (w *XLSXWriter) setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, 0, len(values))
	for _, v := range values {
		cells = append(cells, v)
	}
	return f.SetSheetRow(xlsxSheet, cell, &cells)
}
