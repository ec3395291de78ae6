package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"workoutcli/internal/config"
)

const (
	ServiceName = "workoutcli"
	MeterName   = "workoutcli"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
	// TraceFile receives stdout-exporter spans; empty means TraceWriter or stderr.
	TraceFile   string
	TraceWriter io.Writer
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	// Registry collects the metrics exported through the Prometheus reader.
	Registry *promclient.Registry
	Logger   *slog.Logger

	traceFile *os.File
}

// DefaultOTelConfig returns a configuration with both signals disabled
func DefaultOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: config.AppVersion,
		Environment:    "development",
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		SampleRatio:    1.0,
	}
}

// OTelConfigFrom maps the telemetry section of the application config
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	oc := DefaultOTelConfig()
	if cfg.Environment != "" {
		oc.Environment = cfg.Environment
	}
	oc.EnableTracing = cfg.EnableTracing
	oc.EnableMetrics = cfg.EnableMetrics
	oc.SampleRatio = cfg.SampleRatio
	oc.TraceFile = cfg.TraceFile
	return oc
}

// InitializeOTel initializes tracing and metrics. Disabled signals fall back
// to the global no-op implementations so callers never need nil checks.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()

	logger.DebugContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Logger: logger,
		Tracer: otel.Tracer(MeterName),
		Meter:  otel.Meter(MeterName),
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			providers.Shutdown(ctx)
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		w := cfg.TraceWriter
		if cfg.TraceFile != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0755); err != nil {
				return fmt.Errorf("failed to create trace directory: %w", err)
			}
			f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("failed to open trace file: %w", err)
			}
			providers.traceFile = f
			w = f
		}
		if w == nil {
			w = os.Stderr
		}
		exporter, err = stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithPrettyPrint(),
		)
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))

	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics backed by a private
// Prometheus registry, which WriteMetrics dumps in text exposition format.
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		registry := promclient.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.Registry = registry
		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

		otel.SetMeterProvider(mp)
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.DebugContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// WriteMetrics writes the collected metrics to path in Prometheus text format.
// It is a no-op when metrics are disabled.
func (p *OTelProviders) WriteMetrics(path string) error {
	if p == nil || p.Registry == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := promclient.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown flushes and shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if p.traceFile != nil {
		if err := p.traceFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
		p.traceFile = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

// CleaningMetrics are the counters and histograms recorded per cleaning step
type CleaningMetrics struct {
	RowsLoaded        metric.Int64Counter
	RowsDropped       metric.Int64Counter
	CellsFilled       metric.Int64Counter
	ValuesClamped     metric.Int64Counter
	DuplicatesRemoved metric.Int64Counter
	StepsTotal        metric.Int64Counter
	StepErrors        metric.Int64Counter
	StepDuration      metric.Float64Histogram
}

// CreateCleaningMetrics creates the cleaning instruments on meter
func CreateCleaningMetrics(meter metric.Meter) (*CleaningMetrics, error) {
	rowsLoaded, err := meter.Int64Counter(
		"dataset_rows_loaded",
		metric.WithDescription("Rows read from input files"),
	)
	if err != nil {
		return nil, err
	}

	rowsDropped, err := meter.Int64Counter(
		"cleaning_rows_dropped",
		metric.WithDescription("Rows removed by cleaning steps"),
	)
	if err != nil {
		return nil, err
	}

	cellsFilled, err := meter.Int64Counter(
		"cleaning_cells_filled",
		metric.WithDescription("Missing cells replaced by imputation"),
	)
	if err != nil {
		return nil, err
	}

	valuesClamped, err := meter.Int64Counter(
		"cleaning_values_clamped",
		metric.WithDescription("Values replaced by a boundary clamp"),
	)
	if err != nil {
		return nil, err
	}

	duplicatesRemoved, err := meter.Int64Counter(
		"cleaning_duplicates_removed",
		metric.WithDescription("Duplicate rows removed"),
	)
	if err != nil {
		return nil, err
	}

	stepsTotal, err := meter.Int64Counter(
		"cleaning_steps",
		metric.WithDescription("Cleaning steps executed"),
	)
	if err != nil {
		return nil, err
	}

	stepErrors, err := meter.Int64Counter(
		"cleaning_step_errors",
		metric.WithDescription("Cleaning steps that failed"),
	)
	if err != nil {
		return nil, err
	}

	stepDuration, err := meter.Float64Histogram(
		"cleaning_step_duration_seconds",
		metric.WithDescription("Cleaning step execution duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &CleaningMetrics{
		RowsLoaded:        rowsLoaded,
		RowsDropped:       rowsDropped,
		CellsFilled:       cellsFilled,
		ValuesClamped:     valuesClamped,
		DuplicatesRemoved: duplicatesRemoved,
		StepsTotal:        stepsTotal,
		StepErrors:        stepErrors,
		StepDuration:      stepDuration,
	}, nil
}

// StepCounts summarises what one cleaning step changed
type StepCounts struct {
	RowsDropped       int
	CellsFilled       int
	ValuesClamped     int
	DuplicatesRemoved int
}

// RecordStepMetrics records metrics for one cleaning step execution
func RecordStepMetrics(ctx context.Context, m *CleaningMetrics, stepID, op string, duration time.Duration, counts StepCounts, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("step.id", stepID),
		attribute.String("step.op", op),
	}
	opt := metric.WithAttributes(attrs...)

	m.StepsTotal.Add(ctx, 1, opt)

	status := "success"
	if err != nil {
		status = "failure"
		m.StepErrors.Add(ctx, 1, opt)
	}
	m.StepDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(append(attrs, attribute.String("status", status))...))

	if counts.RowsDropped > 0 {
		m.RowsDropped.Add(ctx, int64(counts.RowsDropped), opt)
	}
	if counts.CellsFilled > 0 {
		m.CellsFilled.Add(ctx, int64(counts.CellsFilled), opt)
	}
	if counts.ValuesClamped > 0 {
		m.ValuesClamped.Add(ctx, int64(counts.ValuesClamped), opt)
	}
	if counts.DuplicatesRemoved > 0 {
		m.DuplicatesRemoved.Add(ctx, int64(counts.DuplicatesRemoved), opt)
	}
}

// RecordRowsLoaded records the size of a freshly loaded dataset
func RecordRowsLoaded(ctx context.Context, m *CleaningMetrics, source string, rows int) {
	if m == nil {
		return
	}
	m.RowsLoaded.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("source", source)))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the current span
func SetSpanAttributes(ctx context.Context, attributes map[string]interface{}) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	for k, v := range attributes {
		switch val := v.(type) {
		case string:
			span.SetAttributes(attribute.String(k, val))
		case int:
			span.SetAttributes(attribute.Int(k, val))
		case int64:
			span.SetAttributes(attribute.Int64(k, val))
		case float64:
			span.SetAttributes(attribute.Float64(k, val))
		case bool:
			span.SetAttributes(attribute.Bool(k, val))
		default:
			span.SetAttributes(attribute.String(k, fmt.Sprintf("%v", val)))
		}
	}
}
