package report

import (
	"encoding/csv"
	"io"

	"github.com/nao1215/profscan/internal/model"
)

// CSVWriter outputs the records table in CSV format.
// The column order is fixed: Name, PrimaryPhone, SecondaryPhone, PostalCode,
// City, Street, Email, SourceURL. Absent optional fields stay empty cells.
//
// Design decision: We use standard encoding/csv because the export is a
// plain rectangular table; RFC 4180 quoting is all it needs.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the header row followed by one row per record.
func (w *CSVWriter) Write(report *model.HarvestReport) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)

	if err := cw.Write(model.Columns()); err != nil {
		return counter.n, err
	}
	for _, record := range report.Records {
		if err := cw.Write(record.Row()); err != nil {
			return counter.n, err
		}
	}

	cw.Flush()
	return counter.n, cw.Error()
}

// countingWriter counts bytes passed through to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int
}

// Write implements io.Writer.
func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
