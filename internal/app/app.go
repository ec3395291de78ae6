package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"workoutcli/internal/config"
	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/frame"
	"workoutcli/internal/infrastructure"
	"workoutcli/internal/plotting"
)

// Application holds what every command needs after startup
type Application struct {
	Component string
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	OTel      *infrastructure.OTelProviders

	metrics *infrastructure.CleaningMetrics
	runtime *infrastructure.RuntimeMetrics
	started time.Time
}

// New loads configuration and starts an Application for the named command
func New(component string) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}
	return NewWithConfig(cfg, component)
}

// NewWithConfig starts an Application from an already loaded configuration.
// Relative log, trace and metrics files are resolved against the base directory.
func NewWithConfig(cfg *config.Config, component string) (*Application, error) {
	paths, err := config.GetPaths(cfg.Paths)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to resolve paths", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, apperrors.NewStorageError("failed to create directories", err)
	}

	cfg.Logging.FilePath = resolve(paths.BaseDir, cfg.Logging.FilePath)
	cfg.Telemetry.TraceFile = resolve(paths.BaseDir, cfg.Telemetry.TraceFile)
	cfg.Telemetry.MetricsFile = resolve(paths.BaseDir, cfg.Telemetry.MetricsFile)

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize logger", err)
	}
	logger = infrastructure.WithComponent(logger, component)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize OpenTelemetry", err)
	}

	a := &Application{
		Component: component,
		Config:    cfg,
		Paths:     paths,
		Logger:    logger,
		OTel:      providers,
		started:   time.Now(),
	}
	if providers.MeterProvider != nil {
		a.metrics, err = infrastructure.CreateCleaningMetrics(providers.Meter)
		if err == nil {
			a.runtime, err = infrastructure.NewRuntimeMetrics(providers.Meter)
		}
		if err != nil {
			_ = providers.Shutdown(context.Background())
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
	}

	logger.Debug("Application started",
		slog.String("version", config.AppVersion),
		slog.String("base_dir", paths.BaseDir),
		slog.Bool("tracing", cfg.Telemetry.EnableTracing),
		slog.Bool("metrics", cfg.Telemetry.EnableMetrics))
	return a, nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// Context returns a context carrying a fresh run ID that is cancelled on
// SIGINT or SIGTERM
func Context() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return infrastructure.EnsureRunID(ctx), cancel
}

// LoadDataset reads an input file, CSV or Excel by extension. An empty name
// means the configured input file. sheet only applies to workbooks.
func (a *Application) LoadDataset(ctx context.Context, name, sheet string) (*frame.Dataset, error) {
	path := a.Paths.InputFile
	if name != "" {
		path = a.Paths.ResolveInput(name)
	}

	ctx, span := a.OTel.Tracer.Start(ctx, "dataset.load",
		trace.WithAttributes(attribute.String("file.path", path)))
	defer span.End()

	var (
		ds  *frame.Dataset
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		ds, err = frame.LoadExcel(path, sheet)
	default:
		ds, err = frame.LoadCSV(path)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("dataset.rows", ds.Nrow()), attribute.Int("dataset.columns", ds.Ncol()))
	infrastructure.RecordRowsLoaded(ctx, a.metrics, filepath.Base(path), ds.Nrow())
	a.Logger.InfoContext(ctx, "dataset_loaded",
		slog.String("path", path),
		slog.Int("rows", ds.Nrow()),
		slog.Int("columns", ds.Ncol()))
	return ds, nil
}

// DisplayOptions returns the configured preview limits
func (a *Application) DisplayOptions() frame.DisplayOptions {
	return frame.DisplayOptions{MaxRows: a.Config.Display.MaxRows, MinRows: a.Config.Display.MinRows}
}

// PlotOptions returns the configured chart size and bin count
func (a *Application) PlotOptions() plotting.Options {
	opts := plotting.DefaultOptions()
	if a.Config.Plot.WidthInches > 0 {
		opts.Width = a.Config.Plot.WidthInches
	}
	if a.Config.Plot.HeightInches > 0 {
		opts.Height = a.Config.Plot.HeightInches
	}
	if a.Config.Plot.Bins > 0 {
		opts.Bins = a.Config.Plot.Bins
	}
	return opts
}

// Close writes the metrics textfile when metrics are enabled, then flushes
// telemetry and closes the log file
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	stats := a.runtime.Collect(ctx, a.started, a.Component)
	a.Logger.DebugContext(ctx, "run_finished",
		slog.Duration("duration", stats.RunDuration),
		slog.Int64("heap_alloc", stats.HeapAlloc),
		slog.Int("gc_count", int(stats.GCCount)))

	if a.Config.Telemetry.EnableMetrics {
		if err := a.OTel.WriteMetrics(a.Config.Telemetry.MetricsFile); err != nil {
			errs = append(errs, err)
		} else {
			a.Logger.DebugContext(ctx, "metrics_written", slog.String("path", a.Config.Telemetry.MetricsFile))
		}
	}
	if err := a.OTel.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Fatal logs err and exits with status 1
func (a *Application) Fatal(ctx context.Context, msg string, err error) {
	a.logFailure(ctx, msg, err)
	_ = a.Close(ctx)
	os.Exit(1)
}

// logFailure logs err with its type and context fields
func (a *Application) logFailure(ctx context.Context, msg string, err error) {
	var attrs []any
	if t := apperrors.GetType(err); t != "" {
		attrs = append(attrs, slog.String("error_type", string(t)))
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		for k, v := range appErr.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
	}
	infrastructure.WithError(a.Logger, err).ErrorContext(ctx, msg, attrs...)
}
