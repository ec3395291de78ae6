package cleaning

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/frame"
	"workoutcli/internal/infrastructure"
)

const TracerName = "workoutcli.cleaning"

// Runner executes the steps of a Registry in order against a dataset
type Runner struct {
	tracer  trace.Tracer
	metrics *infrastructure.CleaningMetrics
	logger  *slog.Logger
}

// NewRunner creates a Runner. providers may be nil, in which case spans go
// to the global tracer and no metrics are recorded.
func NewRunner(providers *infrastructure.OTelProviders, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	r := &Runner{
		tracer: otel.Tracer(TracerName),
		logger: infrastructure.WithComponent(logger, "cleaning"),
	}
	if providers == nil {
		return r, nil
	}

	if providers.Tracer != nil {
		r.tracer = providers.Tracer
	}
	if providers.MeterProvider != nil {
		m, err := infrastructure.CreateCleaningMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create cleaning metrics: %w", err)
		}
		r.metrics = m
	}
	return r, nil
}

// Metrics returns the cleaning instruments, nil when metrics are disabled
func (r *Runner) Metrics() *infrastructure.CleaningMetrics {
	return r.metrics
}

// StepRecord is the outcome of one step in a Report
type StepRecord struct {
	ID         string
	Name       string
	Op         string
	Status     StepStatus
	RowsBefore int
	RowsAfter  int
	Counts     infrastructure.StepCounts
	Duration   time.Duration
	Message    string
}

// Report summarises a cleaning run
type Report struct {
	RunID   string
	RowsIn  int
	RowsOut int
	Steps   []StepRecord
	Totals  infrastructure.StepCounts
}

// Failed reports whether any step failed
func (r *Report) Failed() bool {
	for _, s := range r.Steps {
		if s.Status == StepStatusFailed {
			return true
		}
	}
	return false
}

// Run applies every registered step to ds in registration order, skipping
// the disabled ones. It stops
// at the first failing step or when ctx is cancelled; the remaining steps
// are reported as skipped. The returned dataset is the output of the last
// successful step, so it is usable even when err is non-nil.
func (r *Runner) Run(ctx context.Context, ds *frame.Dataset, reg *Registry) (*frame.Dataset, *Report, error) {
	if ds == nil {
		return nil, nil, apperrors.NewValidationError("cannot clean a nil dataset")
	}
	if reg == nil {
		reg = NewRegistry()
	}
	steps := reg.List()

	report := &Report{
		RunID:  infrastructure.GetRunID(ctx),
		RowsIn: ds.Nrow(),
		Steps:  make([]StepRecord, 0, len(steps)),
	}

	ctx, span := r.tracer.Start(ctx, "clean.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.Int("clean.steps", len(steps)),
			attribute.Int("clean.rows_in", ds.Nrow()),
		),
	)
	defer span.End()

	r.logger.InfoContext(ctx, "cleaning_start",
		slog.Int("step_count", len(steps)),
		slog.Int("rows", ds.Nrow()))

	current := ds
	var runErr error
	for i, step := range steps {
		state := NewStepState(step)

		if runErr == nil {
			if err := ctx.Err(); err != nil {
				runErr = fmt.Errorf("cleaning cancelled: %w", err)
				r.logger.WarnContext(ctx, "cleaning_cancelled",
					slog.String("step_id", step.ID()),
					slog.Int("step_number", i+1))
			}
		}
		if runErr != nil {
			state.Skip("not run after earlier failure")
			report.Steps = append(report.Steps, recordOf(state, current.Nrow(), current.Nrow()))
			continue
		}
		if reg.Disabled(step.ID()) {
			state.Skip("disabled")
			r.logger.InfoContext(ctx, "step_disabled", slog.String("step_id", step.ID()))
			report.Steps = append(report.Steps, recordOf(state, current.Nrow(), current.Nrow()))
			continue
		}

		next, err := r.runStep(ctx, step, state, current, i+1, len(steps))
		rec := recordOf(state, current.Nrow(), current.Nrow())
		if err != nil {
			runErr = fmt.Errorf("step %s: %w", step.ID(), err)
			report.Steps = append(report.Steps, rec)
			continue
		}
		rec.RowsAfter = next.Nrow()
		report.Steps = append(report.Steps, rec)
		addCounts(&report.Totals, rec.Counts)
		current = next
	}

	report.RowsOut = current.Nrow()
	span.SetAttributes(attribute.Int("clean.rows_out", report.RowsOut))
	if runErr != nil {
		infrastructure.RecordError(ctx, runErr)
		r.logger.ErrorContext(ctx, "cleaning_failed",
			slog.String("error", runErr.Error()),
			slog.Int("rows", report.RowsOut))
		return current, report, runErr
	}

	r.logger.InfoContext(ctx, "cleaning_completed",
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Int("rows_dropped", report.Totals.RowsDropped),
		slog.Int("cells_filled", report.Totals.CellsFilled),
		slog.Int("values_clamped", report.Totals.ValuesClamped),
		slog.Int("duplicates_removed", report.Totals.DuplicatesRemoved))
	return current, report, nil
}

// runStep executes one step inside its own span
func (r *Runner) runStep(ctx context.Context, step Step, state *StepState, ds *frame.Dataset, number, total int) (*frame.Dataset, error) {
	ctx, span := r.tracer.Start(ctx, "clean."+step.Op(),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("step.id", step.ID()),
			attribute.String("step.name", step.Name()),
			attribute.Int("step.number", number),
		),
	)
	defer span.End()

	r.logger.InfoContext(ctx, "executing_step",
		slog.String("step_id", step.ID()),
		slog.String("op", step.Op()),
		slog.Int("step_number", number),
		slog.Int("total_steps", total))

	state.Start()
	out, res, err := step.Apply(ctx, ds)
	if err != nil {
		state.Fail(err)
	} else {
		state.Complete(res)
	}
	infrastructure.RecordStepMetrics(ctx, r.metrics, step.ID(), step.Op(), state.Duration(), res.Counts, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		r.logger.ErrorContext(ctx, "step_failed",
			slog.String("step_id", step.ID()),
			slog.String("op", step.Op()),
			slog.String("error", err.Error()))
		return nil, err
	}

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"step.rows_before":        ds.Nrow(),
		"step.rows_after":         out.Nrow(),
		"step.rows_dropped":       res.Counts.RowsDropped,
		"step.cells_filled":       res.Counts.CellsFilled,
		"step.values_clamped":     res.Counts.ValuesClamped,
		"step.duplicates_removed": res.Counts.DuplicatesRemoved,
	})
	r.logger.InfoContext(ctx, "step_completed",
		slog.String("step_id", step.ID()),
		slog.String("result", res.Message),
		slog.Int("rows", out.Nrow()),
		slog.Duration("duration", state.Duration()))
	return out, nil
}

func recordOf(state *StepState, before, after int) StepRecord {
	return StepRecord{
		ID:         state.ID,
		Name:       state.Name,
		Op:         state.Op,
		Status:     state.Status,
		RowsBefore: before,
		RowsAfter:  after,
		Counts:     state.Result.Counts,
		Duration:   state.Duration(),
		Message:    state.Message,
	}
}

func addCounts(total *infrastructure.StepCounts, c infrastructure.StepCounts) {
	total.RowsDropped += c.RowsDropped
	total.CellsFilled += c.CellsFilled
	total.ValuesClamped += c.ValuesClamped
	total.DuplicatesRemoved += c.DuplicatesRemoved
}

// ReportHeaders are the column names of Report.Records
var ReportHeaders = []string{
	"step", "op", "name", "status", "rows_before", "rows_after",
	"rows_dropped", "cells_filled", "values_clamped", "duplicates_removed",
	"duration_ms", "message",
}

// Records returns one row per step, matching ReportHeaders
func (r *Report) Records() [][]string {
	rows := make([][]string, 0, len(r.Steps))
	for _, s := range r.Steps {
		rows = append(rows, []string{
			s.ID,
			s.Op,
			s.Name,
			string(s.Status),
			strconv.Itoa(s.RowsBefore),
			strconv.Itoa(s.RowsAfter),
			strconv.Itoa(s.Counts.RowsDropped),
			strconv.Itoa(s.Counts.CellsFilled),
			strconv.Itoa(s.Counts.ValuesClamped),
			strconv.Itoa(s.Counts.DuplicatesRemoved),
			strconv.FormatFloat(float64(s.Duration.Microseconds())/1000, 'f', 3, 64),
			s.Message,
		})
	}
	return rows
}

// Render writes the report as an aligned text table
func (r *Report) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSTATUS\tROWS\tRESULT")
	for _, s := range r.Steps {
		fmt.Fprintf(tw, "%s\t%s\t%d -> %d\t%s\n", s.Name, s.Status, s.RowsBefore, s.RowsAfter, s.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d rows in, %d rows out\n", r.RowsIn, r.RowsOut)
	return err
}
