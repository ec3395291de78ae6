package frame

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	apperrors "workoutcli/internal/errors"
)

// Kind is the logical type of a column
type Kind string

const (
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindString   Kind = "string"
	KindBool     Kind = "bool"
	KindDatetime Kind = "datetime"
)

// naMarker is the cell text gota turns into a missing element
const naMarker = "NaN"

// Dataset is a table of named columns with integer row labels that survive
// row removal
type Dataset struct {
	df        dataframe.DataFrame
	index     []int
	datetimes map[string]bool
}

// New builds a Dataset from gota series. Rows are labelled 0..n-1.
func New(columns ...series.Series) (*Dataset, error) {
	df := dataframe.New(columns...)
	if df.Err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("invalid columns: %v", df.Err))
	}
	return fromFrame(df), nil
}

// FromFrame wraps an existing gota data frame
func FromFrame(df dataframe.DataFrame) (*Dataset, error) {
	if df.Err != nil {
		return nil, apperrors.NewParsingError("invalid data frame", df.Err)
	}
	return fromFrame(df), nil
}

func fromFrame(df dataframe.DataFrame) *Dataset {
	index := make([]int, df.Nrow())
	for i := range index {
		index[i] = i
	}
	return &Dataset{df: df, index: index, datetimes: map[string]bool{}}
}

// Frame returns a copy of the underlying gota data frame
func (d *Dataset) Frame() dataframe.DataFrame {
	return d.df.Copy()
}

// Nrow returns the number of rows
func (d *Dataset) Nrow() int { return d.df.Nrow() }

// Ncol returns the number of columns
func (d *Dataset) Ncol() int { return d.df.Ncol() }

// Names returns the column names in order
func (d *Dataset) Names() []string { return d.df.Names() }

// Index returns a copy of the row labels
func (d *Dataset) Index() []int {
	out := make([]int, len(d.index))
	copy(out, d.index)
	return out
}

// HasColumn reports whether a column exists
func (d *Dataset) HasColumn(name string) bool {
	for _, n := range d.df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Position returns the row position for a label
func (d *Dataset) Position(label int) (int, bool) {
	for i, l := range d.index {
		if l == label {
			return i, true
		}
	}
	return -1, false
}

func (d *Dataset) column(name string) (series.Series, error) {
	if !d.HasColumn(name) {
		return series.Series{}, apperrors.NewColumnNotFoundError(name)
	}
	return d.df.Col(name), nil
}

// Kind returns the logical type of a column
func (d *Dataset) Kind(name string) (Kind, error) {
	col, err := d.column(name)
	if err != nil {
		return "", err
	}
	return d.kindOf(col), nil
}

func (d *Dataset) kindOf(col series.Series) Kind {
	if d.datetimes[col.Name] {
		return KindDatetime
	}
	switch col.Type() {
	case series.Int:
		return KindInt
	case series.Float:
		return KindFloat
	case series.Bool:
		return KindBool
	default:
		return KindString
	}
}

// DType returns the dtype name of a column: int64, float64, bool,
// datetime64[ns] or object
func (d *Dataset) DType(name string) (string, error) {
	k, err := d.Kind(name)
	if err != nil {
		return "", err
	}
	return dtypeName(k), nil
}

func dtypeName(k Kind) string {
	switch k {
	case KindInt:
		return "int64"
	case KindFloat:
		return "float64"
	case KindBool:
		return "bool"
	case KindDatetime:
		return "datetime64[ns]"
	default:
		return "object"
	}
}

// IsNumeric reports whether a column holds ints or floats
func (d *Dataset) IsNumeric(name string) bool {
	k, err := d.Kind(name)
	return err == nil && (k == KindInt || k == KindFloat)
}

// NumericColumns returns the names of int and float columns in order
func (d *Dataset) NumericColumns() []string {
	var out []string
	for _, name := range d.df.Names() {
		if d.IsNumeric(name) {
			out = append(out, name)
		}
	}
	return out
}

// Floats returns a numeric column as float64 with NaN for missing cells
func (d *Dataset) Floats(name string) ([]float64, error) {
	col, err := d.column(name)
	if err != nil {
		return nil, err
	}
	if k := d.kindOf(col); k != KindInt && k != KindFloat {
		return nil, apperrors.NewTypeError(name, "numeric", string(k))
	}
	return col.Float(), nil
}

// IsNA returns one flag per row, true where the cell is missing
func (d *Dataset) IsNA(name string) ([]bool, error) {
	col, err := d.column(name)
	if err != nil {
		return nil, err
	}
	return col.IsNaN(), nil
}

// Strings returns the cell text of a column, empty for missing cells
func (d *Dataset) Strings(name string) ([]string, error) {
	col, err := d.column(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, col.Len())
	for i := range out {
		out[i] = formatElement(col.Elem(i))
	}
	return out, nil
}

// Times parses a datetime column. Missing cells are the zero time.
func (d *Dataset) Times(name string) ([]time.Time, error) {
	col, err := d.column(name)
	if err != nil {
		return nil, err
	}
	if !d.datetimes[name] {
		return nil, apperrors.NewTypeError(name, string(KindDatetime), string(d.kindOf(col)))
	}
	out := make([]time.Time, col.Len())
	for i := range out {
		e := col.Elem(i)
		if e.IsNA() {
			continue
		}
		t, err := time.Parse(canonicalLayout(e.String()), e.String())
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("row %d of %q", d.index[i], name), err)
		}
		out[i] = t
	}
	return out, nil
}

// Records returns the header followed by every row as text. Missing cells
// are empty strings.
func (d *Dataset) Records() [][]string {
	names := d.df.Names()
	out := make([][]string, 0, d.Nrow()+1)
	out = append(out, append([]string(nil), names...))
	cols := make([]series.Series, len(names))
	for j, n := range names {
		cols[j] = d.df.Col(n)
	}
	for i := 0; i < d.Nrow(); i++ {
		row := make([]string, len(names))
		for j := range cols {
			row[j] = formatElement(cols[j].Elem(i))
		}
		out = append(out, row)
	}
	return out
}

// DatetimeColumns returns the columns converted with ToDatetime, sorted
func (d *Dataset) DatetimeColumns() []string {
	out := make([]string, 0, len(d.datetimes))
	for n := range d.datetimes {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// take returns the rows at the given positions, keeping their labels
func (d *Dataset) take(positions []int) *Dataset {
	if positions == nil {
		positions = []int{}
	}
	index := make([]int, len(positions))
	for i, p := range positions {
		index[i] = d.index[p]
	}
	return &Dataset{
		df:        d.df.Subset(positions),
		index:     index,
		datetimes: d.copyDatetimes(),
	}
}

// withColumn returns a copy of d with col replacing the column of the same name
func (d *Dataset) withColumn(col series.Series) (*Dataset, error) {
	df := d.df.Mutate(col)
	if df.Err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("failed to replace column %q: %v", col.Name, df.Err))
	}
	return &Dataset{df: df, index: d.Index(), datetimes: d.copyDatetimes()}, nil
}

func (d *Dataset) copyDatetimes() map[string]bool {
	out := make(map[string]bool, len(d.datetimes))
	for k, v := range d.datetimes {
		out[k] = v
	}
	return out
}

// buildColumn turns cell text into a series of type t. Missing cells must be
// passed as naMarker.
func buildColumn(name string, t series.Type, cells []string) series.Series {
	return series.New(cells, t, name)
}

// cellsOf returns the cells of col in the form buildColumn expects
func cellsOf(col series.Series) []string {
	out := make([]string, col.Len())
	for i := range out {
		e := col.Elem(i)
		if e.IsNA() {
			out[i] = naMarker
			continue
		}
		out[i] = formatElement(e)
	}
	return out
}

// formatElement renders a cell without gota's fixed six decimals
func formatElement(e series.Element) string {
	if e.IsNA() {
		return ""
	}
	if e.Type() == series.Float {
		return formatFloat(e.Float())
	}
	return e.String()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return naMarker
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !math.IsInf(v, 0) && !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
