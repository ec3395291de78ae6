// Command clean runs a cleaning recipe over a workout data file and writes
// the cleaned dataset and a per-step report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"workoutcli/internal/analysis"
	"workoutcli/internal/app"
	"workoutcli/internal/cleaning"
	"workoutcli/internal/exporter"
	"workoutcli/internal/frame"
)

type options struct {
	file           string
	sheet          string
	recipe         string
	skip           string
	showDuplicates bool
	printRecipe    bool
	out            string
	xlsx           string
	report         string
	bom            bool
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "", "input CSV or xlsx file (defaults to the configured input file)")
	flag.StringVar(&opts.sheet, "sheet", "", "sheet to read from an xlsx file (defaults to the first)")
	flag.StringVar(&opts.recipe, "recipe", "", "YAML cleaning recipe (defaults to the configured recipe, then the built-in one)")
	flag.StringVar(&opts.skip, "skip", "", "comma separated step IDs to leave out of the run")
	flag.BoolVar(&opts.showDuplicates, "show-duplicates", false, "print the duplicate flag of every row before cleaning")
	flag.BoolVar(&opts.printRecipe, "print-recipe", false, "print the effective recipe as YAML and exit")
	flag.StringVar(&opts.out, "out", "", "write the cleaned dataset to this CSV file (relative paths go to the reports directory)")
	flag.StringVar(&opts.xlsx, "xlsx", "", "write the cleaned dataset, its correlation and summary to this xlsx file")
	flag.StringVar(&opts.report, "report", "", "write the per-step report to this CSV file")
	flag.BoolVar(&opts.bom, "bom", false, "prefix CSV output with a UTF-8 byte order mark")
	flag.Parse()

	ctx, cancel := app.Context()
	defer cancel()

	a, err := app.New("clean")
	if err != nil {
		slog.Error("Failed to start", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, a, opts, os.Stdout); err != nil {
		a.Fatal(ctx, "clean_failed", err)
	}
	if err := a.Close(ctx); err != nil {
		slog.Warn("Shutdown incomplete", "error", err)
	}
}

// loadRecipe picks the -recipe file, then the configured file, then the
// built-in workout recipe
func loadRecipe(a *app.Application, path string) (*cleaning.Recipe, error) {
	if path == "" {
		path = a.Config.Cleaning.RecipeFile
	}
	if path == "" {
		return cleaning.DefaultRecipe(a.Config.Cleaning), nil
	}
	return cleaning.LoadRecipe(path)
}

func run(ctx context.Context, a *app.Application, opts options, w io.Writer) error {
	recipe, err := loadRecipe(a, opts.recipe)
	if err != nil {
		return err
	}
	if opts.printRecipe {
		data, err := recipe.Marshal()
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}

	reg, err := recipe.Registry()
	if err != nil {
		return err
	}
	if ids := splitList(opts.skip); len(ids) > 0 {
		if err := reg.Disable(ids...); err != nil {
			return err
		}
	}

	ds, err := a.LoadDataset(ctx, opts.file, opts.sheet)
	if err != nil {
		return err
	}

	if opts.showDuplicates {
		if err := writeDuplicates(w, ds); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	runner, err := cleaning.NewRunner(a.OTel, a.Logger)
	if err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "recipe_loaded",
		slog.String("recipe", recipe.Name),
		slog.Int("steps", reg.Count()))

	cleaned, report, runErr := runner.Run(ctx, ds, reg)
	if report != nil {
		if err := report.Render(w); err != nil {
			return err
		}
		if opts.report != "" {
			if err := writeReport(a, opts.report, report); err != nil {
				return err
			}
		}
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintln(w)
	if err := cleaned.Render(w, a.DisplayOptions()); err != nil {
		return err
	}

	csvWriter := exporter.NewCSVWriter(a.Paths).WithLogger(a.Logger)
	if opts.out != "" {
		if err := csvWriter.WriteDataset(opts.out, cleaned, exporter.DatasetOptions{BOMPrefix: opts.bom}); err != nil {
			return err
		}
	}
	if opts.xlsx != "" {
		wb := exporter.Workbook{Data: cleaned}
		if len(cleaned.NumericColumns()) > 0 {
			if wb.Correlation, err = analysis.Correlate(cleaned, analysis.Pearson); err != nil {
				return err
			}
			if wb.Summary, err = analysis.Describe(cleaned); err != nil {
				return err
			}
		}
		if err := exporter.NewExcelWriter(a.Paths).WithLogger(a.Logger).WriteWorkbook(opts.xlsx, wb); err != nil {
			return err
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// writeDuplicates prints one duplicate flag per row label
func writeDuplicates(w io.Writer, ds *frame.Dataset) error {
	flags, err := ds.Duplicated()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 4, ' ', 0)
	for i, label := range ds.Index() {
		fmt.Fprintf(tw, "%d\t%s\n", label, flagText(flags[i]))
	}
	return tw.Flush()
}

func flagText(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// writeReport streams the step report to a CSV file
func writeReport(a *app.Application, path string, report *cleaning.Report) error {
	sw, err := exporter.NewCSVWriter(a.Paths).WithLogger(a.Logger).CreateStreamWriter(path, cleaning.ReportHeaders)
	if err != nil {
		return err
	}
	for _, rec := range report.Records() {
		if err := sw.WriteRecord(rec); err != nil {
			_ = sw.Close()
			return err
		}
	}
	return sw.Close()
}
