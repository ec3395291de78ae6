package frame

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"

	apperrors "workoutcli/internal/errors"
)

// NaNValues are the cell texts loaded as missing
var NaNValues = []string{"", "NA", "NaN", "<nil>"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV loads a CSV stream with a header row. Column types are detected
// from the data unless overridden with dataframe.WithTypes.
func ReadCSV(r io.Reader, opts ...dataframe.LoadOption) (*Dataset, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, apperrors.NewParsingError("failed to skip byte order mark", err)
		}
	}

	options := append([]dataframe.LoadOption{dataframe.NaNValues(NaNValues)}, opts...)
	df := dataframe.ReadCSV(br, options...)
	if df.Err != nil {
		return nil, apperrors.NewParsingError("failed to read CSV", df.Err)
	}
	return fromFrame(df), nil
}

// LoadCSV opens path and reads it with ReadCSV
func LoadCSV(path string, opts ...dataframe.LoadOption) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %s", path)).WithContext("path", path)
		}
		return nil, apperrors.NewStorageError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer f.Close()

	ds, err := ReadCSV(f, opts...)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			appErr.WithContext("path", path)
		}
		return nil, err
	}
	return ds, nil
}

// LoadExcel reads one sheet of an xlsx workbook. The first row is the header.
// An empty sheet name selects the first sheet.
func LoadExcel(path, sheet string, opts ...dataframe.LoadOption) (*Dataset, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %s", path)).WithContext("path", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to open workbook %s", path), err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		var missing excelize.ErrSheetNotExist
		if errors.As(err, &missing) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("sheet %s", sheet)).WithContext("path", path)
		}
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %s", sheet), err)
	}
	if len(rows) < 2 {
		return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %s has no data rows", sheet), nil)
	}

	// GetRows drops trailing empty cells
	width := len(rows[0])
	for i, row := range rows {
		switch {
		case len(row) < width:
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		case len(row) > width:
			rows[i] = row[:width]
		}
	}

	options := append([]dataframe.LoadOption{dataframe.NaNValues(NaNValues)}, opts...)
	df := dataframe.LoadRecords(rows, options...)
	if df.Err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to load sheet %s", sheet), df.Err)
	}
	return fromFrame(df), nil
}
