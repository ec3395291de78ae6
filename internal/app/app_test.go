package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"workoutcli/internal/config"
	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/infrastructure"
)

// testConfig returns a default configuration rooted in a temp directory
// holding a copy of the workout fixture as data/data.csv
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	base := t.TempDir()
	data, err := os.ReadFile("../frame/testdata/data.csv")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(base, "data"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "data", "data.csv"), data, 0644))

	cfg := config.Default()
	cfg.Paths.BaseDir = base
	cfg.Logging.Level = "error"
	return cfg
}

func TestNewWithConfig(t *testing.T) {
	cfg := testConfig(t)

	a, err := NewWithConfig(cfg, "inspect")
	require.NoError(t, err)
	defer a.Close(context.Background())

	assert.Equal(t, "inspect", a.Component)
	assert.DirExists(t, a.Paths.ReportsDir)
	assert.DirExists(t, a.Paths.PlotsDir)
	assert.Equal(t, filepath.Join(cfg.Paths.BaseDir, "data", "data.csv"), a.Paths.InputFile)
	assert.True(t, filepath.IsAbs(a.Config.Telemetry.MetricsFile))
	assert.Nil(t, a.metrics)
}

func TestLoadDataset_CSV(t *testing.T) {
	a, err := NewWithConfig(testConfig(t), "inspect")
	require.NoError(t, err)
	defer a.Close(context.Background())

	ctx := infrastructure.EnsureRunID(context.Background())
	ds, err := a.LoadDataset(ctx, "", "")
	require.NoError(t, err)
	assert.Equal(t, 32, ds.Nrow())
	assert.Equal(t, []string{"Duration", "Date", "Pulse", "Maxpulse", "Calories"}, ds.Names())

	ds, err = a.LoadDataset(ctx, "data.csv", "")
	require.NoError(t, err)
	assert.Equal(t, 32, ds.Nrow())

	_, err = a.LoadDataset(ctx, "missing.csv", "")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNotFound))
}

func TestLoadDataset_Excel(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewWithConfig(cfg, "inspect")
	require.NoError(t, err)
	defer a.Close(context.Background())

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Duration", "Pulse"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{60, 110}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{45, 117}))
	path := filepath.Join(cfg.Paths.BaseDir, "sessions.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	ds, err := a.LoadDataset(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Nrow())
	assert.Equal(t, []string{"Duration", "Pulse"}, ds.Names())
}

func TestOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.Display.MaxRows = 20
	cfg.Display.MinRows = 4
	cfg.Plot.WidthInches = 8
	cfg.Plot.Bins = 5

	a, err := NewWithConfig(cfg, "plot")
	require.NoError(t, err)
	defer a.Close(context.Background())

	d := a.DisplayOptions()
	assert.Equal(t, 20, d.MaxRows)
	assert.Equal(t, 4, d.MinRows)

	p := a.PlotOptions()
	assert.Equal(t, 8.0, p.Width)
	assert.Equal(t, 4.0, p.Height)
	assert.Equal(t, 5, p.Bins)
}

func TestClose_WritesMetrics(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.EnableMetrics = true

	a, err := NewWithConfig(cfg, "clean")
	require.NoError(t, err)
	require.NotNil(t, a.metrics)

	_, err = a.LoadDataset(context.Background(), "", "")
	require.NoError(t, err)
	require.NoError(t, a.Close(context.Background()))

	data, err := os.ReadFile(a.Config.Telemetry.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dataset_rows_loaded")
	assert.Contains(t, string(data), `source="data.csv"`)
	assert.Contains(t, string(data), "runtime_goroutines")
	assert.Contains(t, string(data), `component="clean"`)
}

func TestContext(t *testing.T) {
	ctx, cancel := Context()
	defer cancel()

	assert.NotEmpty(t, infrastructure.GetRunID(ctx))
	assert.NoError(t, ctx.Err())
}

func TestLogFailure(t *testing.T) {
	a, err := NewWithConfig(testConfig(t), "clean")
	require.NoError(t, err)
	defer a.Close(context.Background())

	var buf bytes.Buffer
	a.Logger, err = infrastructure.NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: "console"}, &buf)
	require.NoError(t, err)

	failure := fmt.Errorf("step 04_clamp: %w", apperrors.NewColumnNotFoundError("Speed"))
	a.logFailure(context.Background(), "clean_failed", failure)

	out := buf.String()
	assert.Contains(t, out, `"msg":"clean_failed"`)
	assert.Contains(t, out, `"error_type":"NOT_FOUND"`)
	assert.Contains(t, out, `"column":"Speed"`)
	assert.Contains(t, out, "step 04_clamp")
}
