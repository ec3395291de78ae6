package frame

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "workoutcli/internal/errors"
)

const fixture = "testdata/data.csv"

func loadFixture(t *testing.T) *Dataset {
	t.Helper()
	ds, err := LoadCSV(fixture)
	require.NoError(t, err)
	return ds
}

func TestLoadCSV(t *testing.T) {
	ds := loadFixture(t)

	assert.Equal(t, 32, ds.Nrow())
	assert.Equal(t, 5, ds.Ncol())
	assert.Equal(t, []string{"Duration", "Date", "Pulse", "Maxpulse", "Calories"}, ds.Names())

	kinds := map[string]Kind{
		"Duration": KindInt,
		"Date":     KindString,
		"Pulse":    KindInt,
		"Maxpulse": KindInt,
		"Calories": KindFloat,
	}
	for col, want := range kinds {
		got, err := ds.Kind(col)
		require.NoError(t, err)
		assert.Equal(t, want, got, col)
	}

	dtype, err := ds.DType("Date")
	require.NoError(t, err)
	assert.Equal(t, "object", dtype)

	na, err := ds.IsNA("Calories")
	require.NoError(t, err)
	assert.True(t, na[18])
	assert.True(t, na[28])
	assert.False(t, na[0])

	counts := ds.NonNullCounts()
	assert.Equal(t, 30, counts["Calories"])
	assert.Equal(t, 31, counts["Date"])
	assert.Equal(t, 32, counts["Duration"])
}

func TestLoadCSV_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
	})

	t.Run("ragged rows", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.csv")
		require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n3\n"), 0644))

		_, err := LoadCSV(path)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
	})

	t.Run("header only", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("a,b\n"))
		assert.Error(t, err)
	})
}

func TestReadCSV_BOMAndMarkers(t *testing.T) {
	input := "\xEF\xBB\xBFName,Score\nann,1.5\nbob,NA\n<nil>,2\n"
	ds, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Score"}, ds.Names())
	na, err := ds.IsNA("Score")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, na)

	na, err = ds.IsNA("Name")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true}, na)
}

func TestReadCSV_WithTypes(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader("Duration\n60\n45\n"),
		dataframe.WithTypes(map[string]series.Type{"Duration": series.Float}))
	require.NoError(t, err)

	kind, err := ds.Kind("Duration")
	require.NoError(t, err)
	assert.Equal(t, KindFloat, kind)
}

func TestLoadExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")

	f := excelize.NewFile()
	sheet := "Sessions"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Duration", "Pulse", "Calories"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{60, 110, 409.1}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{45, 117}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := LoadExcel(path, sheet)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Nrow())
	assert.Equal(t, []string{"Duration", "Pulse", "Calories"}, ds.Names())

	na, err := ds.IsNA("Calories")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true}, na)

	_, err = LoadExcel(path, "Missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	_, err = LoadExcel(filepath.Join(t.TempDir(), "none.xlsx"), "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestAccessors(t *testing.T) {
	ds := loadFixture(t)

	vals, err := ds.Floats("Calories")
	require.NoError(t, err)
	assert.Len(t, vals, 32)
	assert.InDelta(t, 409.1, vals[0], 1e-9)

	_, err = ds.Floats("Date")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeType))

	_, err = ds.Floats("Weight")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))

	strs, err := ds.Strings("Calories")
	require.NoError(t, err)
	assert.Equal(t, "479.0", strs[1])
	assert.Equal(t, "", strs[18])

	assert.Equal(t, []string{"Duration", "Pulse", "Maxpulse", "Calories"}, ds.NumericColumns())
	assert.True(t, ds.IsNumeric("Pulse"))
	assert.False(t, ds.IsNumeric("Date"))

	records := ds.Records()
	require.Len(t, records, 33)
	assert.Equal(t, []string{"60", "'2020/12/01'", "110", "130", "409.1"}, records[1])
	assert.Equal(t, "", records[19][4])
}

func TestNew(t *testing.T) {
	ds, err := New(
		series.New([]int{1, 2, 3}, series.Int, "a"),
		series.New([]float64{0.5, 1.5, 2.5}, series.Float, "b"),
	)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, ds.Index())

	_, err = New(
		series.New([]int{1, 2}, series.Int, "a"),
		series.New([]int{1}, series.Int, "b"),
	)
	assert.Error(t, err)
}

func TestHeadTail(t *testing.T) {
	ds := loadFixture(t)

	tests := []struct {
		name  string
		got   *Dataset
		index []int
	}{
		{"head default", ds.Head(DefaultPreviewRows), []int{0, 1, 2, 3, 4}},
		{"head zero", ds.Head(0), []int{}},
		{"head negative", ds.Head(-30), []int{0, 1}},
		{"head larger than frame", ds.Head(100), ds.Index()},
		{"tail default", ds.Tail(DefaultPreviewRows), []int{27, 28, 29, 30, 31}},
		{"tail negative", ds.Tail(-30), []int{30, 31}},
		{"tail larger than frame", ds.Tail(100), ds.Index()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.index, tt.got.Index())
			assert.Equal(t, len(tt.index), tt.got.Nrow())
			assert.Equal(t, 5, tt.got.Ncol())
		})
	}
}

func TestRender(t *testing.T) {
	ds := loadFixture(t)

	t.Run("full", func(t *testing.T) {
		out := ds.Head(3).ToString()
		lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
		require.Len(t, lines, 4)
		assert.Contains(t, lines[0], "Duration")
		assert.Contains(t, lines[0], "Calories")
		assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[1]), "0"))
		assert.Contains(t, lines[1], "409.1")
		assert.NotContains(t, out, "rows x")
	})

	t.Run("truncated", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, ds.Render(&buf, DisplayOptions{MaxRows: 10, MinRows: 4}))
		out := buf.String()

		assert.Contains(t, out, "...")
		assert.Contains(t, out, "[32 rows x 5 columns]")
		assert.Contains(t, out, "409.1")
		assert.Contains(t, out, "243.0")
		assert.NotContains(t, out, "282.4")
	})

	t.Run("default options fit", func(t *testing.T) {
		out := ds.String()
		assert.NotContains(t, out, "rows x")
		assert.Contains(t, out, "NaN")
	})

	t.Run("empty", func(t *testing.T) {
		out := ds.Head(0).String()
		assert.Contains(t, out, "Empty Dataset")
		assert.Contains(t, out, "Duration, Date")
	})
}

func TestInfo(t *testing.T) {
	ds := loadFixture(t)

	var buf bytes.Buffer
	require.NoError(t, ds.Info(&buf))
	out := buf.String()

	assert.Contains(t, out, "RangeIndex: 32 entries, 0 to 31")
	assert.Contains(t, out, "Data columns (total 5 columns):")
	assert.Contains(t, out, "30 non-null")
	assert.Contains(t, out, "31 non-null")
	assert.Contains(t, out, "dtypes: float64(1), int64(3), object(1)")

	dropped, _, err := ds.DropNA(DropOptions{})
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, dropped.Info(&buf))
	assert.Contains(t, buf.String(), "Index: 29 entries, 0 to 31")
}
