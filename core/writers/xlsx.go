package writers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fbz-tec/storexport/core/mapping"
	"github.com/fbz-tec/storexport/core/output"
	"github.com/fbz-tec/storexport/internal/logger"
	"github.com/xuri/excelize/v2"
)

// maxRows is the row limit of an XLSX sheet.
const maxRows = 1_048_576

// SidecarPath is the row buffer a spreadsheet accumulates into until Close.
func SidecarPath(path string) string {
	return path + ".rows"
}

// xlsxWriter buffers rows to a CSV sidecar across activations and converts
// the sidecar into a workbook on Close.
type xlsxWriter struct {
	target  Target
	sidecar io.WriteCloser
	rows    *csv.Writer
	written int
	offset  int64
	maxRows int
}

func newXlsxWriter() *xlsxWriter {
	return &xlsxWriter{maxRows: maxRows}
}

func (w *xlsxWriter) Open(t Target) error {
	return w.attach(t, false)
}

func (w *xlsxWriter) Resume(t Target) error {
	if _, err := os.Stat(SidecarPath(t.Path)); err != nil {
		return fmt.Errorf("spreadsheet row buffer missing: %w", err)
	}
	if err := rewind(SidecarPath(t.Path), t.Offset); err != nil {
		return err
	}
	return w.attach(t, true)
}

func (w *xlsxWriter) attach(t Target, appendMode bool) error {
	if err := t.validate(); err != nil {
		return err
	}
	file, err := output.OpenFile(SidecarPath(t.Path), appendMode)
	if err != nil {
		return err
	}
	w.target = t
	w.sidecar = file
	w.rows = csv.NewWriter(file)
	w.written = t.Written
	return nil
}

func (w *xlsxWriter) Append(rows []*mapping.Row) (int, error) {
	if w.rows == nil {
		return 0, fmt.Errorf("spreadsheet writer is not open")
	}
	n := 0
	for _, row := range rows {
		if err := w.rows.Write(mapping.Values(row, w.target.Headers)); err != nil {
			return n, fmt.Errorf("error buffering row: %w", err)
		}
		n++
	}
	w.written += n
	return n, nil
}

func (w *xlsxWriter) Suspend() error {
	if w.sidecar == nil {
		return nil
	}
	w.rows.Flush()
	err := w.rows.Error()
	if cerr := w.sidecar.Close(); cerr != nil && err == nil {
		err = cerr
	}
	w.sidecar, w.rows = nil, nil
	if err != nil {
		return err
	}
	w.offset, err = sizeOf(SidecarPath(w.target.Path))
	return err
}

// Close converts the buffered rows into the workbook and removes the buffer.
func (w *xlsxWriter) Close() error {
	if w.sidecar == nil {
		return nil
	}
	if err := w.Suspend(); err != nil {
		return fmt.Errorf("error flushing spreadsheet rows: %w", err)
	}
	sidecar := SidecarPath(w.target.Path)
	if err := w.convert(sidecar); err != nil {
		return err
	}
	if err := os.Remove(sidecar); err != nil {
		logger.Warn("Could not remove spreadsheet row buffer %s: %v", sidecar, err)
	}
	return nil
}

func (w *xlsxWriter) convert(sidecar string) error {
	start := time.Now()

	in, err := os.Open(sidecar)
	if err != nil {
		return fmt.Errorf("error opening spreadsheet rows: %w", err)
	}
	defer in.Close()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing Excel file: %v", err)
		}
	}()

	// Remove default sheet to avoid duplication
	f.DeleteSheet("Sheet1")

	headerStyleID, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "000000"},
	})
	if err != nil {
		logger.Warn("Failed to create header style: %v", err)
		headerStyleID = 0
	}

	sheetIndex := 1
	sw, currentRow, err := initSheet(w.target.Labels, headerStyleID, f, sheetIndex)
	if err != nil {
		return err
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = len(w.target.Headers)
	rowCount := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading buffered row %d: %w", rowCount+1, err)
		}

		if currentRow > w.maxRows {
			if err := sw.Flush(); err != nil {
				return fmt.Errorf("error flushing sheet %d: %w", sheetIndex, err)
			}
			sheetIndex++
			logger.Debug("Created new sheet Sheet%d (row limit reached)", sheetIndex)
			sw, currentRow, err = initSheet(w.target.Labels, headerStyleID, f, sheetIndex)
			if err != nil {
				return err
			}
		}

		cells := make([]interface{}, len(record))
		for i, v := range record {
			cells[i] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, currentRow)
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("error writing row %d: %w", currentRow, err)
		}
		rowCount++
		currentRow++
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("error flushing stream: %w", err)
	}

	out, err := output.OpenFile(w.target.Path, false)
	if err != nil {
		return err
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return fmt.Errorf("error writing Excel file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("error closing Excel file: %w", err)
	}

	logger.Debug("XLSX export finalized: %d rows on %d sheet(s) in %v", rowCount, sheetIndex, time.Since(start))
	return nil
}

// initSheet creates a sheet with a bold header row.
// Returns a stream writer and the first data row number.
func initSheet(labels []string, headerStyleID int, f *excelize.File, sheetIndex int) (*excelize.StreamWriter, int, error) {
	sheetName := fmt.Sprintf("Sheet%d", sheetIndex)
	currentRow := 1
	if _, err := f.NewSheet(sheetName); err != nil {
		return nil, currentRow, fmt.Errorf("failed to create new sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return nil, currentRow, fmt.Errorf("error creating stream writer: %w", err)
	}

	headerCells := make([]interface{}, len(labels))
	for i, l := range labels {
		headerCells[i] = excelize.Cell{Value: l, StyleID: headerStyleID}
	}
	cell, _ := excelize.CoordinatesToCellName(1, currentRow)
	if err := sw.SetRow(cell, headerCells); err != nil {
		return nil, currentRow, fmt.Errorf("error writing headers: %w", err)
	}
	currentRow++

	return sw, currentRow, nil
}

func (w *xlsxWriter) Written() int {
	return w.written
}

func (w *xlsxWriter) Offset() int64 {
	return w.offset
}

func init() {
	MustRegister(FormatSpreadsheet, func() Writer { return newXlsxWriter() })
}
