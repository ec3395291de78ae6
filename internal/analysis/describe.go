package analysis

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"workoutcli/internal/frame"
)

// ColumnStats summarises the present values of one numeric column
type ColumnStats struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q25    float64
	Q50    float64
	Q75    float64
	Max    float64
}

// Summary is the description of every numeric column of a dataset
type Summary struct {
	Columns []ColumnStats
}

var statLabels = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Describe computes count, mean, sample standard deviation, extremes and
// quartiles for each numeric column. Missing cells are skipped.
func Describe(ds *frame.Dataset) (*Summary, error) {
	summary := &Summary{}
	for _, name := range ds.NumericColumns() {
		vals, err := ds.PresentFloats(name)
		if err != nil {
			return nil, err
		}
		summary.Columns = append(summary.Columns, describeColumn(name, vals))
	}
	return summary, nil
}

func describeColumn(name string, vals []float64) ColumnStats {
	cs := ColumnStats{
		Column: name,
		Count:  len(vals),
		Mean:   math.NaN(),
		Std:    math.NaN(),
		Min:    math.NaN(),
		Q25:    math.NaN(),
		Q50:    math.NaN(),
		Q75:    math.NaN(),
		Max:    math.NaN(),
	}
	if len(vals) == 0 {
		return cs
	}

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	cs.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		cs.Std = stat.StdDev(sorted, nil)
	}
	cs.Min = floats.Min(sorted)
	cs.Max = floats.Max(sorted)
	cs.Q25 = frame.Quantile(sorted, 0.25)
	cs.Q50 = frame.Quantile(sorted, 0.5)
	cs.Q75 = frame.Quantile(sorted, 0.75)
	return cs
}

// Get returns the statistics for a column
func (s *Summary) Get(column string) (ColumnStats, bool) {
	for _, cs := range s.Columns {
		if cs.Column == column {
			return cs, true
		}
	}
	return ColumnStats{}, false
}

func (cs ColumnStats) values() []float64 {
	return []float64{float64(cs.Count), cs.Mean, cs.Std, cs.Min, cs.Q25, cs.Q50, cs.Q75, cs.Max}
}

// Records returns one row per statistic with the column names as header
func (s *Summary) Records() [][]string {
	header := []string{""}
	for _, cs := range s.Columns {
		header = append(header, cs.Column)
	}
	out := [][]string{header}
	for i, label := range statLabels {
		row := []string{label}
		for _, cs := range s.Columns {
			row = append(row, strconv.FormatFloat(cs.values()[i], 'f', -1, 64))
		}
		out = append(out, row)
	}
	return out
}

// Render writes the summary as a right-aligned table with six decimals
func (s *Summary) Render(w io.Writer) error {
	if len(s.Columns) == 0 {
		_, err := io.WriteString(w, "Empty summary: no numeric columns\n")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, rec := range s.Records() {
		if i > 0 {
			for j, cs := range s.Columns {
				rec[j+1] = fmt.Sprintf("%.6f", cs.values()[i-1])
			}
		}
		fmt.Fprintln(tw, strings.Join(rec, "\t")+"\t")
	}
	return tw.Flush()
}
