package infrastructure

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workoutcli/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestOTelDisabledByDefault(t *testing.T) {
	providers, err := InitializeOTel(nil, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)

	// No registry means nothing to write.
	assert.NoError(t, providers.WriteMetrics(filepath.Join(t.TempDir(), "m.prom")))
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestOTelConfigFrom(t *testing.T) {
	tc := config.Default().Telemetry
	tc.EnableTracing = true
	tc.Environment = "ci"

	oc := OTelConfigFrom(tc)
	assert.True(t, oc.EnableTracing)
	assert.False(t, oc.EnableMetrics)
	assert.Equal(t, "ci", oc.Environment)
	assert.Equal(t, tc.TraceFile, oc.TraceFile)
	assert.Equal(t, ServiceName, oc.ServiceName)
}

func TestOTelTracingToFile(t *testing.T) {
	traceFile := filepath.Join(t.TempDir(), "traces", "spans.json")
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceFile = traceFile

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)

	_, span := providers.Tracer.Start(context.Background(), "clean.dropna")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, providers.Shutdown(ctx))

	content, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "clean.dropna")
}

func TestOTelUnsupportedExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableTracing = true
	cfg.TraceExporter = "otlp"

	_, err := InitializeOTel(cfg, quietLogger())
	assert.Error(t, err)
}

func TestCleaningMetricsTextfile(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableMetrics = true

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())
	require.NotNil(t, providers.Registry)

	metrics, err := CreateCleaningMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordRowsLoaded(ctx, metrics, "data.csv", 32)
	RecordStepMetrics(ctx, metrics, "step-1", "drop_duplicates", 5*time.Millisecond,
		StepCounts{DuplicatesRemoved: 1, RowsDropped: 1}, nil)

	out := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, providers.WriteMetrics(out))

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "cleaning_duplicates_removed")
	assert.Contains(t, text, "dataset_rows_loaded")
	assert.Contains(t, text, "cleaning_step_duration_seconds")
}

func TestRecordStepMetrics_NilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordStepMetrics(context.Background(), nil, "s", "clamp", time.Second, StepCounts{}, nil)
		RecordRowsLoaded(context.Background(), nil, "x", 1)
	})
}

func TestRuntimeMetrics(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableMetrics = true

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	rm, err := NewRuntimeMetrics(providers.Meter)
	require.NoError(t, err)

	started := time.Now().Add(-2 * time.Second)
	stats := rm.Collect(context.Background(), started, "plot")
	assert.Positive(t, stats.GoRoutines)
	assert.Positive(t, stats.HeapAlloc)
	assert.GreaterOrEqual(t, stats.RunDuration, 2*time.Second)

	out := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, providers.WriteMetrics(out))
	content, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(content), "runtime_goroutines")
	assert.Contains(t, string(content), `component="plot"`)
}

func TestRuntimeMetrics_NilCollect(t *testing.T) {
	var rm *RuntimeMetrics
	stats := rm.Collect(context.Background(), time.Now(), "inspect")
	require.NotNil(t, stats)
	assert.Positive(t, stats.GoRoutines)
}
