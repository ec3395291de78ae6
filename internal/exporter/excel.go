package exporter

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"workoutcli/internal/analysis"
	"workoutcli/internal/config"
	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/frame"
)

// Sheet names used by WriteWorkbook
const (
	SheetData        = "Data"
	SheetCorrelation = "Correlation"
	SheetSummary     = "Summary"
)

// Workbook is the content of an exported xlsx file. Nil parts are skipped.
type Workbook struct {
	Data        *frame.Dataset
	Correlation *analysis.CorrMatrix
	Summary     *analysis.Summary
}

// ExcelWriter writes Workbooks as xlsx files
type ExcelWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewExcelWriter creates a writer resolving relative paths like CSVWriter
func NewExcelWriter(paths *config.Paths) *ExcelWriter {
	return &ExcelWriter{paths: paths, logger: slog.Default()}
}

// WithLogger sets the logger used for write events
func (w *ExcelWriter) WithLogger(logger *slog.Logger) *ExcelWriter {
	if logger != nil {
		w.logger = logger
	}
	return w
}

type sheetRows struct {
	name string
	rows [][]interface{}
}

// WriteWorkbook writes one sheet per non-nil part of wb
func (w *ExcelWriter) WriteWorkbook(filePath string, wb Workbook) error {
	var sheets []sheetRows
	if wb.Data != nil {
		sheets = append(sheets, sheetRows{SheetData, dataRows(wb.Data)})
	}
	if wb.Correlation != nil {
		sheets = append(sheets, sheetRows{SheetCorrelation, correlationRows(wb.Correlation)})
	}
	if wb.Summary != nil {
		sheets = append(sheets, sheetRows{SheetSummary, summaryRows(wb.Summary)})
	}
	if len(sheets) == 0 {
		return apperrors.NewValidationError("workbook has nothing to write")
	}

	fullPath := resolveReportPath(w.paths, filePath)
	w.logger.Info("Writing workbook",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("sheet_count", len(sheets)))

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return apperrors.NewStorageError("failed to create header style", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return apperrors.NewStorageError("failed to name sheet", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to add sheet %s", sheet.name), err)
		}

		for r, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return apperrors.NewStorageError("invalid cell", err)
			}
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				return apperrors.NewStorageError(fmt.Sprintf("failed to write %s row %d", sheet.name, r+1), err)
			}
		}
		if err := f.SetRowStyle(sheet.name, 1, 1, headerStyle); err != nil {
			return apperrors.NewStorageError("failed to style header", err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err)
	}
	if err := f.SaveAs(fullPath); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("failed to save %s", fullPath), err)
	}
	return nil
}

func dataRows(ds *frame.Dataset) [][]interface{} {
	records := ds.Records()
	names := records[0]
	numeric := make([]bool, len(names))
	for j, n := range names {
		numeric[j] = ds.IsNumeric(n)
	}

	header := make([]interface{}, 0, len(names)+1)
	header = append(header, "index")
	for _, n := range names {
		header = append(header, n)
	}

	rows := [][]interface{}{header}
	for i, label := range ds.Index() {
		row := make([]interface{}, 0, len(names)+1)
		row = append(row, label)
		for j, cell := range records[i+1] {
			row = append(row, cellValue(cell, numeric[j]))
		}
		rows = append(rows, row)
	}
	return rows
}

func correlationRows(m *analysis.CorrMatrix) [][]interface{} {
	header := []interface{}{string(m.Method)}
	for _, c := range m.Columns {
		header = append(header, c)
	}
	rows := [][]interface{}{header}
	for i, name := range m.Columns {
		row := []interface{}{name}
		for _, v := range m.Values[i] {
			if math.IsNaN(v) {
				row = append(row, nil)
				continue
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows
}

func summaryRows(s *analysis.Summary) [][]interface{} {
	records := s.Records()
	rows := make([][]interface{}, 0, len(records))
	for i, rec := range records {
		row := make([]interface{}, 0, len(rec))
		for j, cell := range rec {
			row = append(row, cellValue(cell, i > 0 && j > 0))
		}
		rows = append(rows, row)
	}
	return rows
}
