// Command plot renders line, scatter and histogram charts of a workout data
// file into the plots directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"

	"workoutcli/internal/app"
	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/frame"
	"workoutcli/internal/plotting"
)

type options struct {
	file   string
	sheet  string
	kind   string
	x      string
	y      string
	column string
	bins   int
	out    string
	format string
	title  string
}

// job is one chart to draw and save
type job struct {
	name  string
	build func(ds *frame.Dataset, opts plotting.Options) (*plot.Plot, error)
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "input CSV or xlsx file (defaults to the configured input file)")
	flag.StringVar(&opts.sheet, "sheet", "", "sheet to read from an xlsx file (defaults to the first)")
	flag.StringVar(&opts.kind, "kind", "all", "line | scatter | hist | all")
	flag.StringVar(&opts.x, "x", "Duration", "scatter x column")
	flag.StringVar(&opts.y, "y", "Calories", "scatter y column")
	flag.StringVar(&opts.column, "column", "Duration", "histogram column")
	flag.IntVar(&opts.bins, "bins", 0, "histogram bins (default from config)")
	flag.StringVar(&opts.out, "out", "", "output directory (defaults to the plots directory)")
	flag.StringVar(&opts.format, "format", "", "png | svg | pdf (default from config)")
	flag.StringVar(&opts.title, "title", "", "chart title")
	flag.Parse()

	ctx, cancel := app.Context()
	defer cancel()

	a, err := app.New("plot")
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, a, opts, os.Stdout); err != nil {
		a.Fatal(ctx, "plot_failed", err)
	}
	if err := a.Close(ctx); err != nil {
		slog.Warn("Shutdown incomplete", "error", err)
	}
}

func jobs(opts options) ([]job, error) {
	line := job{"line", plotting.Line}
	scatter := job{"scatter", func(ds *frame.Dataset, po plotting.Options) (*plot.Plot, error) {
		return plotting.Scatter(ds, opts.x, opts.y, po)
	}}
	hist := job{"hist", func(ds *frame.Dataset, po plotting.Options) (*plot.Plot, error) {
		return plotting.Histogram(ds, opts.column, po)
	}}

	switch strings.ToLower(strings.TrimSpace(opts.kind)) {
	case "line":
		return []job{line}, nil
	case "scatter":
		return []job{scatter}, nil
	case "hist", "histogram":
		return []job{hist}, nil
	case "", "all":
		return []job{line, scatter, hist}, nil
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown plot kind %q, want line, scatter, hist or all", opts.kind))
	}
}

func run(ctx context.Context, a *app.Application, opts options, w io.Writer) error {
	todo, err := jobs(opts)
	if err != nil {
		return err
	}

	ds, err := a.LoadDataset(ctx, opts.file, opts.sheet)
	if err != nil {
		return err
	}

	plotOpts := a.PlotOptions()
	plotOpts.Title = opts.title
	if opts.bins > 0 {
		plotOpts.Bins = opts.bins
	}
	dir := opts.out
	if dir == "" {
		dir = a.Paths.PlotsDir
	}
	format := strings.TrimPrefix(strings.ToLower(opts.format), ".")
	if format == "" {
		format = a.Config.Plot.Format
	}

	saved := make([]string, len(todo))
	g, gctx := errgroup.WithContext(ctx)
	for i, j := range todo {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := j.build(ds, plotOpts)
			if err != nil {
				return fmt.Errorf("%s plot: %w", j.name, err)
			}
			path := filepath.Join(dir, j.name+"."+format)
			if err := plotting.Save(p, path, plotOpts); err != nil {
				return fmt.Errorf("%s plot: %w", j.name, err)
			}
			a.Logger.InfoContext(gctx, "plot_saved",
				slog.String("kind", j.name),
				slog.String("path", path))
			saved[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Strings(saved)
	for _, path := range saved {
		if _, err := fmt.Fprintln(w, path); err != nil {
			return err
		}
	}
	return nil
}
