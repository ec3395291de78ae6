// Command inspect prints a preview, structure summary and descriptive
// statistics of a workout data file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"workoutcli/internal/analysis"
	"workoutcli/internal/app"
	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/exporter"
	"workoutcli/internal/frame"
)

type options struct {
	file     string
	sheet    string
	head     int
	tail     int
	info     bool
	all      bool
	describe bool
	maxRows  int
	out      string
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "input CSV or xlsx file (defaults to the configured input file)")
	flag.StringVar(&opts.sheet, "sheet", "", "sheet to read from an xlsx file (defaults to the first)")
	flag.IntVar(&opts.head, "head", 0, "print the first N rows; negative N prints all but the last |N|")
	flag.IntVar(&opts.tail, "tail", 0, "print the last N rows; negative N prints all but the first |N|")
	flag.BoolVar(&opts.info, "info", false, "print column types and non-null counts")
	flag.BoolVar(&opts.all, "all", false, "print every row")
	flag.BoolVar(&opts.describe, "describe", false, "print summary statistics of numeric columns")
	flag.StringVar(&opts.out, "out", "", "write the summary statistics to a .csv or .xlsx file (relative paths go to the reports directory)")
	flag.IntVar(&opts.maxRows, "max-rows", -1, "rows shown before the preview is truncated (0 shows all; default from config)")
	flag.Parse()

	ctx, cancel := app.Context()
	defer cancel()

	a, err := app.New("inspect")
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, a, opts, os.Stdout); err != nil {
		a.Fatal(ctx, "inspect_failed", err)
	}
	if err := a.Close(ctx); err != nil {
		slog.Warn("Shutdown incomplete", "error", err)
	}
}

func run(ctx context.Context, a *app.Application, opts options, w io.Writer) error {
	ds, err := a.LoadDataset(ctx, opts.file, opts.sheet)
	if err != nil {
		return err
	}

	display := a.DisplayOptions()
	if opts.maxRows >= 0 {
		display.MaxRows = opts.maxRows
	}

	printed := false
	// blank line between sections
	separate := func() {
		if printed {
			fmt.Fprintln(w)
		}
		printed = true
	}

	if opts.info {
		separate()
		if err := ds.Info(w); err != nil {
			return err
		}
	}
	if opts.head != 0 {
		separate()
		if err := ds.Head(opts.head).Render(w, display); err != nil {
			return err
		}
	}
	if opts.tail != 0 {
		separate()
		if err := ds.Tail(opts.tail).Render(w, display); err != nil {
			return err
		}
	}
	var summary *analysis.Summary
	if opts.describe || opts.out != "" {
		if summary, err = analysis.Describe(ds); err != nil {
			return err
		}
	}
	if opts.describe {
		separate()
		if err := summary.Render(w); err != nil {
			return err
		}
	}
	if opts.all {
		separate()
		if _, err := io.WriteString(w, ds.ToString()); err != nil {
			return err
		}
	}
	if !printed {
		if err := ds.Render(w, display); err != nil {
			return err
		}
	}
	if opts.out != "" {
		return exportSummary(a, opts.out, ds, summary)
	}
	return nil
}

// exportSummary writes the describe table as CSV, or the data and the table
// as an xlsx workbook
func exportSummary(a *app.Application, path string, ds *frame.Dataset, summary *analysis.Summary) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return exporter.NewCSVWriter(a.Paths).WithLogger(a.Logger).WriteSummary(path, summary)
	case ".xlsx":
		wb := exporter.Workbook{Data: ds, Summary: summary}
		return exporter.NewExcelWriter(a.Paths).WithLogger(a.Logger).WriteWorkbook(path, wb)
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported export format %q, want .csv or .xlsx", filepath.Ext(path)))
	}
}
