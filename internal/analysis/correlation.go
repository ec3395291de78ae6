package analysis

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	apperrors "workoutcli/internal/errors"
	"workoutcli/internal/frame"
)

// Method is a correlation coefficient
type Method string

const (
	Pearson  Method = "pearson"
	Spearman Method = "spearman"
)

// ParseMethod maps a name to a Method. An empty name is Pearson.
func ParseMethod(name string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(name))) {
	case "", Pearson:
		return Pearson, nil
	case Spearman:
		return Spearman, nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown correlation method %q, want pearson or spearman", name))
	}
}

// CorrMatrix holds a symmetric correlation matrix across numeric columns
type CorrMatrix struct {
	Method  Method
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
	// Counts holds the number of complete observations behind each entry
	Counts [][]int
}

// PairCorr is one off-diagonal entry of a CorrMatrix
type PairCorr struct {
	A, B string
	R    float64
	N    int
}

// Correlate computes the correlation of every pair of numeric columns from
// the rows where both values are present. A pair with fewer than two such
// rows, or with a constant column, has a NaN coefficient.
func Correlate(ds *frame.Dataset, method Method) (*CorrMatrix, error) {
	if method == "" {
		method = Pearson
	}
	if method != Pearson && method != Spearman {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown correlation method %q", method))
	}

	names := ds.NumericColumns()
	cols := make([][]float64, len(names))
	for i, name := range names {
		vals, err := ds.Floats(name)
		if err != nil {
			return nil, err
		}
		cols[i] = vals
	}

	n := len(names)
	mat := make([][]float64, n)
	counts := make([][]int, n)
	for i := range mat {
		mat[i] = make([]float64, n)
		counts[i] = make([]int, n)
	}
	for a := 0; a < n; a++ {
		for b := a; b < n; b++ {
			r, count := coefficient(cols[a], cols[b], method)
			if a == b && !math.IsNaN(r) {
				r = 1
			}
			mat[a][b], mat[b][a] = r, r
			counts[a][b], counts[b][a] = count, count
		}
	}

	return &CorrMatrix{Method: method, Columns: names, Values: mat, Counts: counts}, nil
}

// coefficient correlates the pairwise-complete observations of x and y
func coefficient(x, y []float64, method Method) (float64, int) {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	count := len(xs)
	if count < 2 {
		return math.NaN(), count
	}
	if method == Spearman {
		xs = Rank(xs)
		ys = Rank(ys)
	}
	if stat.Variance(xs, nil) == 0 || stat.Variance(ys, nil) == 0 {
		return math.NaN(), count
	}

	r := stat.Correlation(xs, ys, nil)
	switch {
	case r > 1:
		r = 1
	case r < -1:
		r = -1
	}
	return r, count
}

// Rank returns the 1-based rank of each value, ties sharing their average rank
func Rank(vals []float64) []float64 {
	order := make([]int, len(vals))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return vals[order[a]] < vals[order[b]] })

	ranks := make([]float64, len(vals))
	for i := 0; i < len(order); {
		j := i + 1
		for j < len(order) && vals[order[j]] == vals[order[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}
	return ranks
}

// Get returns the coefficient for columns a and b
func (m *CorrMatrix) Get(a, b string) (float64, bool) {
	i, j := m.indexOf(a), m.indexOf(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Values[i][j], true
}

func (m *CorrMatrix) indexOf(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Pairs lists the defined off-diagonal coefficients, strongest first
func (m *CorrMatrix) Pairs() []PairCorr {
	var pairs []PairCorr
	for i := 0; i < len(m.Columns); i++ {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r, N: m.Counts[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai := math.Abs(pairs[i].R)
		aj := math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	return pairs
}

// Records returns the matrix as text rows with a leading header row
func (m *CorrMatrix) Records() [][]string {
	out := make([][]string, 0, len(m.Columns)+1)
	out = append(out, append([]string{""}, m.Columns...))
	for i, name := range m.Columns {
		row := make([]string, 0, len(m.Columns)+1)
		row = append(row, name)
		for _, v := range m.Values[i] {
			row = append(row, formatCoefficient(v))
		}
		out = append(out, row)
	}
	return out
}

// Render writes the matrix as a right-aligned table with six decimals
func (m *CorrMatrix) Render(w io.Writer) error {
	if len(m.Columns) == 0 {
		_, err := io.WriteString(w, "Empty correlation matrix: no numeric columns\n")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for i, rec := range m.Records() {
		if i > 0 {
			for j := 1; j < len(rec); j++ {
				rec[j] = fmt.Sprintf("%.6f", m.Values[i-1][j-1])
			}
		}
		fmt.Fprintln(tw, strings.Join(rec, "\t")+"\t")
	}
	return tw.Flush()
}

func formatCoefficient(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
