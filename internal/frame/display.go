package frame

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/go-gota/gota/series"
)

const (
	// DefaultPreviewRows is the row count Head and Tail callers use when
	// none is given
	DefaultPreviewRows = 5
	DefaultMaxRows     = 60
	DefaultMinRows     = 10
)

// DisplayOptions bound how many rows Render prints. A frame longer than
// MaxRows is cut to its first and last MinRows/2 rows. MaxRows <= 0 prints
// every row.
type DisplayOptions struct {
	MaxRows int
	MinRows int
}

// DefaultDisplayOptions shows 60 rows, truncating longer frames to 5 + 5
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{MaxRows: DefaultMaxRows, MinRows: DefaultMinRows}
}

// Head returns the first n rows. A negative n returns all but the last |n|.
func (d *Dataset) Head(n int) *Dataset {
	total := d.Nrow()
	if n < 0 {
		n = total + n
	}
	return d.take(positionRange(0, clamp(n, 0, total)))
}

// Tail returns the last n rows. A negative n returns all but the first |n|.
func (d *Dataset) Tail(n int) *Dataset {
	total := d.Nrow()
	start := total - n
	if n < 0 {
		start = -n
	}
	return d.take(positionRange(clamp(start, 0, total), total))
}

func positionRange(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// String renders the dataset with the default display options
func (d *Dataset) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf, DefaultDisplayOptions())
	return buf.String()
}

// ToString renders every row
func (d *Dataset) ToString() string {
	var buf bytes.Buffer
	_ = d.Render(&buf, DisplayOptions{})
	return buf.String()
}

// Render writes the dataset as a right-aligned text table
func (d *Dataset) Render(w io.Writer, opts DisplayOptions) error {
	names := d.Names()
	if d.Nrow() == 0 {
		_, err := fmt.Fprintf(w, "Empty Dataset\nColumns: [%s]\nIndex: []\n", strings.Join(names, ", "))
		return err
	}

	total := d.Nrow()
	top, bottom := total, 0
	truncated := opts.MaxRows > 0 && total > opts.MaxRows
	if truncated {
		minRows := opts.MinRows
		if minRows <= 0 || minRows > opts.MaxRows {
			minRows = opts.MaxRows
		}
		top = minRows - minRows/2
		bottom = minRows / 2
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	header := make([]string, 0, len(names)+1)
	header = append(header, "")
	header = append(header, names...)
	writeCells(tw, header)

	cols := make([]series.Series, len(names))
	kinds := make([]Kind, len(names))
	for j, n := range names {
		cols[j] = d.df.Col(n)
		kinds[j] = d.kindOf(cols[j])
	}

	row := func(i int) []string {
		cells := make([]string, 0, len(cols)+1)
		cells = append(cells, fmt.Sprint(d.index[i]))
		for j := range cols {
			cells = append(cells, displayCell(cols[j].Elem(i), kinds[j]))
		}
		return cells
	}

	for i := 0; i < top; i++ {
		writeCells(tw, row(i))
	}
	if truncated {
		dots := make([]string, len(cols)+1)
		for j := range dots {
			dots[j] = "..."
		}
		writeCells(tw, dots)
		for i := total - bottom; i < total; i++ {
			writeCells(tw, row(i))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if truncated {
		_, err := fmt.Fprintf(w, "\n[%d rows x %d columns]\n", total, len(names))
		return err
	}
	return nil
}

func writeCells(w io.Writer, cells []string) {
	fmt.Fprintln(w, strings.Join(cells, "\t")+"\t")
}

func displayCell(e series.Element, k Kind) string {
	if e.IsNA() {
		if k == KindDatetime {
			return "NaT"
		}
		return naMarker
	}
	return formatElement(e)
}

// Info writes a column summary: position, name, non-null count and dtype
func (d *Dataset) Info(w io.Writer) error {
	names := d.Names()
	total := d.Nrow()

	var b strings.Builder
	b.WriteString("<class 'frame.Dataset'>\n")
	switch {
	case total == 0:
		b.WriteString("Index: 0 entries\n")
	case d.isRangeIndex():
		fmt.Fprintf(&b, "RangeIndex: %d entries, %d to %d\n", total, d.index[0], d.index[total-1])
	default:
		fmt.Fprintf(&b, "Index: %d entries, %d to %d\n", total, d.index[0], d.index[total-1])
	}
	fmt.Fprintf(&b, "Data columns (total %d columns):\n", len(names))
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, " #\tColumn\tNon-Null Count\tDtype")
	fmt.Fprintln(tw, "---\t------\t--------------\t-----")

	nonNull := d.NonNullCounts()
	dtypeCounts := map[string]int{}
	for j, n := range names {
		dtype := dtypeName(d.kindOf(d.df.Col(n)))
		dtypeCounts[dtype]++
		fmt.Fprintf(tw, " %d\t%s\t%d non-null\t%s\n", j, n, nonNull[n], dtype)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	dtypes := make([]string, 0, len(dtypeCounts))
	for dt := range dtypeCounts {
		dtypes = append(dtypes, dt)
	}
	sort.Strings(dtypes)
	parts := make([]string, len(dtypes))
	for i, dt := range dtypes {
		parts[i] = fmt.Sprintf("%s(%d)", dt, dtypeCounts[dt])
	}
	_, err := fmt.Fprintf(w, "dtypes: %s\n", strings.Join(parts, ", "))
	return err
}

func (d *Dataset) isRangeIndex() bool {
	for i, l := range d.index {
		if l != d.index[0]+i {
			return false
		}
	}
	return true
}

// NonNullCounts returns the number of present cells per column
func (d *Dataset) NonNullCounts() map[string]int {
	out := make(map[string]int, d.Ncol())
	for _, n := range d.Names() {
		count := 0
		for _, na := range d.df.Col(n).IsNaN() {
			if !na {
				count++
			}
		}
		out[n] = count
	}
	return out
}
