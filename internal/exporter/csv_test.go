package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workoutcli/internal/analysis"
	"workoutcli/internal/config"
	"workoutcli/internal/frame"
)

// setupTestEnv returns a writer whose reports directory lives in a temp dir
func setupTestEnv(t *testing.T) (*CSVWriter, *config.Paths) {
	t.Helper()

	tempDir := t.TempDir()
	paths := &config.Paths{
		BaseDir:    tempDir,
		ReportsDir: filepath.Join(tempDir, "reports"),
	}
	return NewCSVWriter(paths), paths
}

func loadFixture(t *testing.T) *frame.Dataset {
	t.Helper()
	ds, err := frame.LoadCSV("../frame/testdata/data.csv")
	require.NoError(t, err)
	return ds
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	content = bytes.TrimPrefix(content, utf8BOM)
	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestNewCSVWriter(t *testing.T) {
	paths := &config.Paths{}
	writer := NewCSVWriter(paths)

	assert.NotNil(t, writer)
	assert.Equal(t, paths, writer.paths)
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, paths := setupTestEnv(t)

	tests := []struct {
		name     string
		filePath string
		options  WriteOptions
		validate func(t *testing.T, fullPath string)
	}{
		{
			name:     "headers and records with BOM",
			filePath: "basic.csv",
			options: WriteOptions{
				Headers:   []string{"Duration", "Calories"},
				Records:   [][]string{{"60", "409.1"}, {"45", ""}},
				BOMPrefix: true,
			},
			validate: func(t *testing.T, fullPath string) {
				content, err := os.ReadFile(fullPath)
				require.NoError(t, err)
				assert.True(t, bytes.HasPrefix(content, utf8BOM))
				assert.Equal(t, [][]string{{"Duration", "Calories"}, {"60", "409.1"}, {"45", ""}}, readCSV(t, fullPath))
			},
		},
		{
			name:     "nested relative path",
			filePath: "nested/dir/out.csv",
			options: WriteOptions{
				Headers: []string{"a"},
				Records: [][]string{{"1"}},
			},
			validate: func(t *testing.T, fullPath string) {
				assert.Equal(t, filepath.Join(paths.ReportsDir, "nested", "dir", "out.csv"), fullPath)
				assert.Equal(t, [][]string{{"a"}, {"1"}}, readCSV(t, fullPath))
			},
		},
		{
			name:     "quoted values",
			filePath: "quoted.csv",
			options: WriteOptions{
				Headers: []string{"note"},
				Records: [][]string{{"easy, then hard"}, {`said "go"`}},
			},
			validate: func(t *testing.T, fullPath string) {
				records := readCSV(t, fullPath)
				assert.Equal(t, "easy, then hard", records[1][0])
				assert.Equal(t, `said "go"`, records[2][0])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.WriteCSV(tt.filePath, tt.options))
			tt.validate(t, writer.resolvePath(tt.filePath))
		})
	}
}

func TestCSVWriter_WriteCSV_Overwrites(t *testing.T) {
	writer, _ := setupTestEnv(t)

	require.NoError(t, writer.WriteCSV("steps.csv", WriteOptions{
		Headers: []string{"step", "rows"},
		Records: [][]string{{"dropna", "31"}, {"clamp", "31"}},
	}))
	require.NoError(t, writer.WriteCSV("steps.csv", WriteOptions{
		Headers: []string{"step", "rows"},
		Records: [][]string{{"drop_duplicates", "30"}},
	}))

	records := readCSV(t, writer.resolvePath("steps.csv"))
	assert.Equal(t, [][]string{{"step", "rows"}, {"drop_duplicates", "30"}}, records)
}

func TestCSVWriter_AbsolutePath(t *testing.T) {
	writer, _ := setupTestEnv(t)
	abs := filepath.Join(t.TempDir(), "abs.csv")

	require.NoError(t, writer.WriteCSV(abs, WriteOptions{Headers: []string{"x"}}))
	assert.FileExists(t, abs)

	bare := NewCSVWriter(nil)
	assert.Equal(t, "rel.csv", bare.resolvePath("rel.csv"))
}

func TestCSVWriter_WriteDataset(t *testing.T) {
	writer, _ := setupTestEnv(t)
	ds := loadFixture(t)

	cleaned, _, err := ds.DropNA(frame.DropOptions{})
	require.NoError(t, err)

	require.NoError(t, writer.WriteDataset("cleaned.csv", cleaned, DatasetOptions{IndexLabel: "row", BOMPrefix: true}))

	records := readCSV(t, writer.resolvePath("cleaned.csv"))
	require.Len(t, records, 30)
	assert.Equal(t, []string{"row", "Duration", "Date", "Pulse", "Maxpulse", "Calories"}, records[0])
	assert.Equal(t, []string{"0", "60", "'2020/12/01'", "110", "130", "409.1"}, records[1])
	assert.Equal(t, "19", records[19][0], "row labels skip dropped rows")

	// round trip through the loader
	reloaded, err := frame.LoadCSV(writer.resolvePath("cleaned.csv"))
	require.NoError(t, err)
	assert.Equal(t, 29, reloaded.Nrow())
}

func TestCSVWriter_WriteCorrelationAndSummary(t *testing.T) {
	writer, _ := setupTestEnv(t)
	ds := loadFixture(t)

	m, err := analysis.Correlate(ds, analysis.Pearson)
	require.NoError(t, err)
	require.NoError(t, writer.WriteCorrelation("corr.csv", m))

	records := readCSV(t, writer.resolvePath("corr.csv"))
	require.Len(t, records, 5)
	assert.Equal(t, []string{"", "Duration", "Pulse", "Maxpulse", "Calories"}, records[0])
	assert.Equal(t, "1", records[2][2])

	summary, err := analysis.Describe(ds)
	require.NoError(t, err)
	require.NoError(t, writer.WriteSummary("describe.csv", summary))

	records = readCSV(t, writer.resolvePath("describe.csv"))
	require.Len(t, records, 9)
	assert.Equal(t, "count", records[1][0])
	assert.Equal(t, "30", records[1][4])
}
