package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/series"

	apperrors "workoutcli/internal/errors"
)

// FillMethod selects how FillNAWith computes its replacement value
type FillMethod string

const (
	FillConstant FillMethod = "constant"
	FillMean     FillMethod = "mean"
	FillMedian   FillMethod = "median"
	FillMode     FillMethod = "mode"
)

// Strategy is an imputation rule. Value is only read by FillConstant.
type Strategy struct {
	Method FillMethod
	Value  interface{}
}

// How controls which rows DropNA removes
type How string

const (
	HowAny How = "any"
	HowAll How = "all"
)

// DropOptions configure DropNA. An empty Subset checks every column and an
// empty How means HowAny.
type DropOptions struct {
	Subset []string
	How    How
}

// ClampAbove sets every value of col greater than limit to limit. Missing
// cells are left alone. The second result is the number of cells changed.
func (d *Dataset) ClampAbove(col string, limit float64) (*Dataset, int, error) {
	vals, err := d.Floats(col)
	if err != nil {
		return nil, 0, err
	}

	changed := 0
	for i, v := range vals {
		if !math.IsNaN(v) && v > limit {
			vals[i] = limit
			changed++
		}
	}
	if changed == 0 {
		return d.clone(), 0, nil
	}

	kind, _ := d.Kind(col)
	asInt := kind == KindInt && isWhole(limit)
	out, err := d.withColumn(numericColumn(col, vals, asInt))
	if err != nil {
		return nil, 0, err
	}
	return out, changed, nil
}

// DropAbove removes the rows whose col value is greater than limit. Rows
// with a missing value are kept.
func (d *Dataset) DropAbove(col string, limit float64) (*Dataset, int, error) {
	vals, err := d.Floats(col)
	if err != nil {
		return nil, 0, err
	}

	keep := make([]int, 0, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) || v <= limit {
			keep = append(keep, i)
		}
	}
	return d.take(keep), len(vals) - len(keep), nil
}

// SetValue replaces the cell at row label and column col. A nil value
// clears the cell.
func (d *Dataset) SetValue(label int, col string, value interface{}) (*Dataset, error) {
	pos, ok := d.Position(label)
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("row label %d", label))
	}
	column, err := d.column(col)
	if err != nil {
		return nil, err
	}

	cells := cellsOf(column)
	text, t, err := d.cellFor(column, value)
	if err != nil {
		return nil, err
	}
	cells[pos] = text
	return d.withColumn(buildColumn(col, t, cells))
}

// FillNA replaces missing cells in every column that can hold value.
// Columns of an incompatible kind are skipped. The second result is the
// number of cells filled.
func (d *Dataset) FillNA(value interface{}) (*Dataset, int, error) {
	out := d.clone()
	total := 0
	for _, name := range d.Names() {
		next, filled, err := out.FillNAColumn(name, value)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrTypeType) {
				continue
			}
			return nil, 0, err
		}
		out = next
		total += filled
	}
	return out, total, nil
}

// FillNAColumn replaces the missing cells of col with value. Present cells
// never change. An int column filled with a fractional value becomes float.
func (d *Dataset) FillNAColumn(col string, value interface{}) (*Dataset, int, error) {
	column, err := d.column(col)
	if err != nil {
		return nil, 0, err
	}
	if !column.HasNaN() {
		return d.clone(), 0, nil
	}

	text, t, err := d.cellFor(column, value)
	if err != nil {
		return nil, 0, err
	}
	if text == naMarker {
		return d.clone(), 0, nil
	}

	cells := cellsOf(column)
	filled := 0
	for i, c := range cells {
		if c == naMarker && column.Elem(i).IsNA() {
			cells[i] = text
			filled++
		}
	}
	out, err := d.withColumn(buildColumn(col, t, cells))
	if err != nil {
		return nil, 0, err
	}
	return out, filled, nil
}

// FillNAWith imputes the missing cells of col with a constant or with the
// mean, median or first mode of its present values
func (d *Dataset) FillNAWith(col string, s Strategy) (*Dataset, int, error) {
	var (
		value interface{}
		err   error
	)

	switch s.Method {
	case FillConstant, "":
		value = s.Value
	case FillMean:
		value, err = d.Mean(col)
	case FillMedian:
		value, err = d.Median(col)
	case FillMode:
		var modes []float64
		modes, err = d.Mode(col)
		if err == nil {
			if len(modes) == 0 {
				return nil, 0, apperrors.NewValidationError(fmt.Sprintf("column %q has no values to take a mode from", col))
			}
			value = modes[0]
		}
	default:
		return nil, 0, apperrors.NewValidationError(fmt.Sprintf("unknown fill method %q", s.Method))
	}
	if err != nil {
		return nil, 0, err
	}
	if f, ok := value.(float64); ok && math.IsNaN(f) {
		return nil, 0, apperrors.NewValidationError(fmt.Sprintf("column %q has no values to compute a %s from", col, s.Method))
	}
	return d.FillNAColumn(col, value)
}

// DropNA removes rows with missing cells in the subset columns
func (d *Dataset) DropNA(opts DropOptions) (*Dataset, int, error) {
	how := opts.How
	if how == "" {
		how = HowAny
	}
	if how != HowAny && how != HowAll {
		return nil, 0, apperrors.NewValidationError(fmt.Sprintf("invalid how %q, want any or all", how))
	}

	subset := opts.Subset
	if len(subset) == 0 {
		subset = d.Names()
	}
	flags := make([][]bool, len(subset))
	for j, name := range subset {
		na, err := d.IsNA(name)
		if err != nil {
			return nil, 0, err
		}
		flags[j] = na
	}

	keep := make([]int, 0, d.Nrow())
	for i := 0; i < d.Nrow(); i++ {
		missing := 0
		for j := range flags {
			if flags[j][i] {
				missing++
			}
		}
		drop := (how == HowAny && missing > 0) || (how == HowAll && missing == len(flags))
		if !drop {
			keep = append(keep, i)
		}
	}
	return d.take(keep), d.Nrow() - len(keep), nil
}

// ToNumeric parses a text column as numbers. Cells that do not parse are
// an error, or missing when coerce is set. A column whose values are all
// whole becomes int, otherwise float.
func (d *Dataset) ToNumeric(col string, coerce bool) (*Dataset, error) {
	column, err := d.column(col)
	if err != nil {
		return nil, err
	}
	switch d.kindOf(column) {
	case KindInt, KindFloat:
		return d.clone(), nil
	case KindDatetime:
		return nil, apperrors.NewTypeError(col, "text", string(KindDatetime))
	}

	vals := make([]float64, column.Len())
	allWhole := true
	for i := range vals {
		e := column.Elem(i)
		if e.IsNA() {
			vals[i] = math.NaN()
			continue
		}
		raw := trimCell(e.String())
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			if b, ok := parseBoolCell(raw); ok {
				f, err = b, nil
			}
		}
		if err != nil {
			if !coerce {
				return nil, apperrors.NewParsingError(
					fmt.Sprintf("row %d of column %q: cannot parse %q as a number", d.index[i], col, e.String()), err).
					WithContext("row", d.index[i])
			}
			vals[i] = math.NaN()
			continue
		}
		vals[i] = f
		if !isWhole(f) {
			allWhole = false
		}
	}

	out, err := d.withColumn(numericColumn(col, vals, allWhole))
	if err != nil {
		return nil, err
	}
	delete(out.datetimes, col)
	return out, nil
}

// Duplicated flags every row that repeats an earlier row across the subset
// columns, or across all columns when none are given. Missing cells compare
// equal to each other.
func (d *Dataset) Duplicated(subset ...string) ([]bool, error) {
	if len(subset) == 0 {
		subset = d.Names()
	}
	cols := make([]series.Series, len(subset))
	for j, name := range subset {
		col, err := d.column(name)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}

	seen := make(map[string]struct{}, d.Nrow())
	flags := make([]bool, d.Nrow())
	var key strings.Builder
	for i := range flags {
		key.Reset()
		for _, col := range cols {
			e := col.Elem(i)
			switch {
			case e.IsNA():
				key.WriteString("\x00")
			case e.Type() == series.Float:
				// -0 and 0 compare equal
				key.WriteString(formatFloat(e.Float() + 0))
			default:
				key.WriteString(formatElement(e))
			}
			key.WriteString("\x1f")
		}
		k := key.String()
		if _, ok := seen[k]; ok {
			flags[i] = true
			continue
		}
		seen[k] = struct{}{}
	}
	return flags, nil
}

// DropDuplicates removes the rows Duplicated flags, keeping first occurrences
func (d *Dataset) DropDuplicates(subset ...string) (*Dataset, int, error) {
	flags, err := d.Duplicated(subset...)
	if err != nil {
		return nil, 0, err
	}
	keep := make([]int, 0, len(flags))
	for i, dup := range flags {
		if !dup {
			keep = append(keep, i)
		}
	}
	return d.take(keep), len(flags) - len(keep), nil
}

func (d *Dataset) clone() *Dataset {
	return &Dataset{df: d.df.Copy(), index: d.Index(), datetimes: d.copyDatetimes()}
}

// cellFor converts value to cell text for column, returning the series type
// the column must have afterwards
func (d *Dataset) cellFor(column series.Series, value interface{}) (string, series.Type, error) {
	t := column.Type()
	if value == nil {
		return naMarker, t, nil
	}

	kind := d.kindOf(column)
	switch kind {
	case KindInt, KindFloat:
		f, ok := toFloat(value)
		if !ok {
			return "", t, apperrors.NewTypeError(column.Name, string(kind), fmt.Sprintf("%T", value))
		}
		if math.IsNaN(f) {
			return naMarker, t, nil
		}
		if kind == KindInt {
			if isWhole(f) {
				return strconv.FormatInt(int64(f), 10), t, nil
			}
			t = series.Float
		}
		return formatFloat(f), t, nil
	case KindBool:
		switch v := value.(type) {
		case bool:
			return strconv.FormatBool(v), t, nil
		case string:
			if b, err := strconv.ParseBool(v); err == nil {
				return strconv.FormatBool(b), t, nil
			}
		}
		return "", t, apperrors.NewTypeError(column.Name, string(kind), fmt.Sprintf("%T", value))
	case KindDatetime:
		s, ok := value.(string)
		if !ok {
			return "", t, apperrors.NewTypeError(column.Name, string(kind), fmt.Sprintf("%T", value))
		}
		ts, err := parseDatetime(s, DefaultLayouts)
		if err != nil {
			return "", t, apperrors.NewParsingError(fmt.Sprintf("cannot parse %q as datetime", s), err)
		}
		return formatDatetime(ts, hasClock(ts) || hasClockColumn(column)), t, nil
	default:
		switch v := value.(type) {
		case string:
			return v, t, nil
		case float64:
			return formatFloat(v), t, nil
		default:
			return fmt.Sprint(v), t, nil
		}
	}
}

// numericColumn builds an int or float column from vals, NaN meaning missing
func numericColumn(name string, vals []float64, asInt bool) series.Series {
	cells := make([]string, len(vals))
	for i, v := range vals {
		switch {
		case math.IsNaN(v):
			cells[i] = naMarker
		case asInt:
			cells[i] = strconv.FormatInt(int64(v), 10)
		default:
			cells[i] = formatFloat(v)
		}
	}
	t := series.Float
	if asInt {
		t = series.Int
	}
	return buildColumn(name, t, cells)
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(trimCell(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f) && math.Abs(f) < 1<<53
}

func parseBoolCell(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "true":
		return 1, true
	case "false":
		return 0, true
	}
	return 0, false
}

// trimCell strips whitespace and one layer of surrounding quotes
func trimCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
