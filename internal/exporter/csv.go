package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"workoutcli/internal/analysis"
	"workoutcli/internal/config"
	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/frame"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. paths may be nil, in
// which case relative paths are used as given.
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths, logger: slog.Default()}
}

// WithLogger sets the logger used for write events
func (w *CSVWriter) WithLogger(logger *slog.Logger) *CSVWriter {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// DatasetOptions configures WriteDataset
type DatasetOptions struct {
	// IndexLabel, when set, adds the row labels as a leading column
	IndexLabel string
	BOMPrefix  bool
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("dir", dir)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return apperrors.NewStorageError("failed to create file", err).WithContext("path", fullPath)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return apperrors.NewStorageError("failed to write BOM", err)
		}
	}

	writer := csv.NewWriter(file)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return apperrors.NewStorageError("failed to write headers", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return apperrors.NewStorageError(fmt.Sprintf("failed to write record %d", i), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush CSV", err)
	}
	return nil
}

// WriteDataset writes every row of ds. Missing cells are empty.
func (w *CSVWriter) WriteDataset(filePath string, ds *frame.Dataset, opts DatasetOptions) error {
	records := ds.Records()
	headers, rows := records[0], records[1:]

	if opts.IndexLabel != "" {
		headers = append([]string{opts.IndexLabel}, headers...)
		for i, label := range ds.Index() {
			rows[i] = append([]string{formatInt(int64(label))}, rows[i]...)
		}
	}

	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   rows,
		BOMPrefix: opts.BOMPrefix,
	})
}

// WriteCorrelation writes a correlation matrix with the column names as
// both header and first column
func (w *CSVWriter) WriteCorrelation(filePath string, m *analysis.CorrMatrix) error {
	records := m.Records()
	return w.WriteCSV(filePath, WriteOptions{
		Headers: records[0],
		Records: records[1:],
	})
}

// WriteSummary writes the output of analysis.Describe
func (w *CSVWriter) WriteSummary(filePath string, s *analysis.Summary) error {
	records := s.Records()
	return w.WriteCSV(filePath, WriteOptions{
		Headers: records[0],
		Records: records[1:],
	})
}

// StreamWriter provides row-at-a-time CSV writing
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create directory", err).WithContext("dir", dir)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to create file", err).WithContext("path", fullPath)
	}

	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return nil, apperrors.NewStorageError("failed to write BOM", err)
	}

	writer := csv.NewWriter(file)

	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, apperrors.NewStorageError("failed to write headers", err)
		}
	}

	return &StreamWriter{
		file:   file,
		writer: writer,
	}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// resolvePath places relative paths under the reports directory
func (w *CSVWriter) resolvePath(filePath string) string {
	return resolveReportPath(w.paths, filePath)
}

func resolveReportPath(paths *config.Paths, filePath string) string {
	if filepath.IsAbs(filePath) || paths == nil || paths.ReportsDir == "" {
		return filePath
	}
	return paths.GetReportPath(filePath)
}
