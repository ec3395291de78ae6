// Command correlate prints the pairwise correlation matrix of the numeric
// columns of a workout data file and optionally exports it.
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
	"text/tabwriter"

	"workoutcli/internal/analysis"
	"workoutcli/internal/app"
	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/exporter"
)

type options struct {
	file   string
	sheet  string
	method string
	out    string
	pairs  int
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "input CSV or xlsx file (defaults to the configured input file)")
	flag.StringVar(&opts.sheet, "sheet", "", "sheet to read from an xlsx file (defaults to the first)")
	flag.StringVar(&opts.method, "method", "pearson", "pearson | spearman")
	flag.StringVar(&opts.out, "out", "", "export the matrix to a .csv or .xlsx file (relative paths go to the reports directory)")
	flag.IntVar(&opts.pairs, "pairs", 0, "also list the N strongest column pairs")
	flag.Parse()

	ctx, cancel := app.Context()
	defer cancel()

	a, err := app.New("correlate")
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, a, opts, os.Stdout); err != nil {
		a.Fatal(ctx, "correlate_failed", err)
	}
	if err := a.Close(ctx); err != nil {
		slog.Warn("Shutdown incomplete", "error", err)
	}
}

func run(ctx context.Context, a *app.Application, opts options, w io.Writer) error {
	method, err := analysis.ParseMethod(opts.method)
	if err != nil {
		return err
	}

	ds, err := a.LoadDataset(ctx, opts.file, opts.sheet)
	if err != nil {
		return err
	}

	m, err := analysis.Correlate(ds, method)
	if err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "correlation_computed",
		slog.String("method", string(method)),
		slog.Int("columns", len(m.Columns)))

	if err := m.Render(w); err != nil {
		return err
	}

	if opts.pairs > 0 {
		fmt.Fprintln(w)
		pairs := m.Pairs()
		if len(pairs) > opts.pairs {
			pairs = pairs[:opts.pairs]
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, p := range pairs {
			fmt.Fprintf(tw, "%s\t%s\t%.6f\t(n=%d)\n", p.A, p.B, p.R, p.N)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if opts.out == "" {
		return nil
	}
	switch strings.ToLower(filepath.Ext(opts.out)) {
	case ".csv":
		return exporter.NewCSVWriter(a.Paths).WithLogger(a.Logger).WriteCorrelation(opts.out, m)
	case ".xlsx":
		summary, err := analysis.Describe(ds)
		if err != nil {
			return err
		}
		wb := exporter.Workbook{Correlation: m, Summary: summary}
		return exporter.NewExcelWriter(a.Paths).WithLogger(a.Logger).WriteWorkbook(opts.out, wb)
	default:
		return apperrors.NewValidationError(fmt.Sprintf("unsupported export format %q, want .csv or .xlsx", filepath.Ext(opts.out)))
	}
}
